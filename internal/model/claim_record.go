package model

import (
	"time"

	"gorm.io/gorm"
)

// ClaimRecord 领取记录
type ClaimRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	SaleAddress string `json:"sale_address" gorm:"index;not null"`
	Claimer     string `json:"claimer" gorm:"index;not null"`
	Units       string `json:"units" gorm:"not null"` // 领取份额
	ClaimedAt   int64  `json:"claimed_at" gorm:"not null"`
}
