package logic

import (
	"errors"
	"fmt"

	"github.com/0xkmm/presale/internal/model"
	"gorm.io/gorm"
)

// PurchaseRecordLogic 购买记录业务逻辑
type PurchaseRecordLogic struct {
	db *gorm.DB
}

// NewPurchaseRecordLogic 创建购买记录业务逻辑
func NewPurchaseRecordLogic(db *gorm.DB) *PurchaseRecordLogic {
	return &PurchaseRecordLogic{db: db}
}

// CreatePurchaseRecord 新建购买记录
func (l *PurchaseRecordLogic) CreatePurchaseRecord(record *model.PurchaseRecord) error {
	if record.SaleAddress == "" || record.Buyer == "" {
		return errors.New("购买记录缺少销售地址或买家地址")
	}
	if err := l.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建购买记录失败: %w", err)
	}
	return nil
}

// GetPurchasesBySale 按销售实例取购买记录
func (l *PurchaseRecordLogic) GetPurchasesBySale(saleAddress string) ([]model.PurchaseRecord, error) {
	var records []model.PurchaseRecord
	if err := l.db.Where("sale_address = ?", saleAddress).
		Order("bought_at asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取购买记录失败: %w", err)
	}
	return records, nil
}

// GetPurchasesByBuyer 按买家取购买记录
func (l *PurchaseRecordLogic) GetPurchasesByBuyer(buyer string) ([]model.PurchaseRecord, error) {
	var records []model.PurchaseRecord
	if err := l.db.Where("buyer = ?", buyer).
		Order("bought_at asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取买家购买记录失败: %w", err)
	}
	return records, nil
}
