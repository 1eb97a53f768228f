package model

import (
	"time"

	"gorm.io/gorm"
)

// SaleRecord 销售实例档案，引擎状态的落库镜像
// 金额字段一律存十进制字符串，wei级数值超出float64精度
type SaleRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 标识
	SaleAddress  string `json:"sale_address" gorm:"uniqueIndex;not null"`
	TokenAddress string `json:"token_address" gorm:"not null"`
	Creator      string `json:"creator" gorm:"not null"`

	// 展示信息
	Name        string `json:"name" gorm:"not null"`
	Website     string `json:"website"`
	Cover       string `json:"cover"`
	Description string `json:"description" gorm:"type:text"`

	// 销售参数
	HardCap    string `json:"hard_cap" gorm:"not null"`
	StartPrice string `json:"start_price" gorm:"not null"`
	FeeRate    string `json:"fee_rate"`
	StartTime  int64  `json:"start_time" gorm:"not null"`
	EndTime    int64  `json:"end_time" gorm:"not null"`

	// 实时状态
	TotalSold        string     `json:"total_sold" gorm:"default:'0'"`
	AccumulatedFees  string     `json:"accumulated_fees" gorm:"default:'0'"`
	VestingStartTime int64      `json:"vesting_start_time"`
	VestingDuration  int64      `json:"vesting_duration"`
	PoolAddress      string     `json:"pool_address"`
	Status           SaleStatus `json:"status" gorm:"default:'pending'"`

	// 关联
	Purchases []PurchaseRecord `json:"purchases,omitempty" gorm:"foreignKey:SaleAddress;references:SaleAddress"`
	Events    []SaleEvent      `json:"events,omitempty" gorm:"foreignKey:SaleAddress;references:SaleAddress"`
}

// SaleStatus 销售阶段
type SaleStatus string

const (
	SaleStatusPending    SaleStatus = "pending"    // 未开售
	SaleStatusActive     SaleStatus = "active"     // 进行中
	SaleStatusEnded      SaleStatus = "ended"      // 已结束待交割
	SaleStatusFinalized  SaleStatus = "finalized"  // 已交割，vesting进行中
	SaleStatusTerminated SaleStatus = "terminated" // 已中止
)
