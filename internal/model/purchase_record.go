package model

import (
	"time"

	"gorm.io/gorm"
)

// PurchaseRecord 购买记录
type PurchaseRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	SaleAddress  string `json:"sale_address" gorm:"index;not null"`
	TokenAddress string `json:"token_address" gorm:"not null"`
	Buyer        string `json:"buyer" gorm:"index;not null"`
	Units        string `json:"units" gorm:"not null"`   // 购入份额
	Payment      string `json:"payment" gorm:"not null"` // 净投入（已扣协议费）
	BoughtAt     int64  `json:"bought_at" gorm:"not null"`
}
