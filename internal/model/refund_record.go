package model

import (
	"time"

	"gorm.io/gorm"
)

// RefundRecord 退款记录
type RefundRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	SaleAddress string `json:"sale_address" gorm:"index;not null"`
	Recipient   string `json:"recipient" gorm:"index;not null"`
	Amount      string `json:"amount" gorm:"not null"` // 退回金额
	RefundedAt  int64  `json:"refunded_at" gorm:"not null"`
}
