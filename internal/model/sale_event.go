package model

import (
	"time"

	"gorm.io/gorm"
)

// SaleEvent 引擎通知流水
type SaleEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	SaleAddress string `json:"sale_address" gorm:"index"`
	EventType   string `json:"event_type" gorm:"not null"`
	Account     string `json:"account"`
	Amount      string `json:"amount"`
	Pool        string `json:"pool"`
	HappenedAt  int64  `json:"happened_at" gorm:"not null"`
}
