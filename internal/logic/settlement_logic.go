package logic

import (
	"errors"
	"fmt"

	"github.com/0xkmm/presale/internal/model"
	"gorm.io/gorm"
)

// SettlementLogic 领取与退款记录业务逻辑
type SettlementLogic struct {
	db *gorm.DB
}

// NewSettlementLogic 创建领取与退款记录业务逻辑
func NewSettlementLogic(db *gorm.DB) *SettlementLogic {
	return &SettlementLogic{db: db}
}

// CreateClaimRecord 新建领取记录
func (l *SettlementLogic) CreateClaimRecord(record *model.ClaimRecord) error {
	if record.SaleAddress == "" || record.Claimer == "" {
		return errors.New("领取记录缺少销售地址或领取人地址")
	}
	if err := l.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建领取记录失败: %w", err)
	}
	return nil
}

// CreateRefundRecord 新建退款记录
func (l *SettlementLogic) CreateRefundRecord(record *model.RefundRecord) error {
	if record.SaleAddress == "" || record.Recipient == "" {
		return errors.New("退款记录缺少销售地址或收款人地址")
	}
	if err := l.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建退款记录失败: %w", err)
	}
	return nil
}

// GetClaimsBySale 按销售实例取领取记录
func (l *SettlementLogic) GetClaimsBySale(saleAddress string) ([]model.ClaimRecord, error) {
	var records []model.ClaimRecord
	if err := l.db.Where("sale_address = ?", saleAddress).
		Order("claimed_at asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取领取记录失败: %w", err)
	}
	return records, nil
}

// GetRefundsBySale 按销售实例取退款记录
func (l *SettlementLogic) GetRefundsBySale(saleAddress string) ([]model.RefundRecord, error) {
	var records []model.RefundRecord
	if err := l.db.Where("sale_address = ?", saleAddress).
		Order("refunded_at asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, nil
}
