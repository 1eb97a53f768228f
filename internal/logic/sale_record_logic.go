package logic

import (
	"errors"
	"fmt"

	"github.com/0xkmm/presale/internal/model"
	"gorm.io/gorm"
)

// SaleRecordLogic 销售档案业务逻辑
type SaleRecordLogic struct {
	db *gorm.DB
}

// NewSaleRecordLogic 创建销售档案业务逻辑
func NewSaleRecordLogic(db *gorm.DB) *SaleRecordLogic {
	return &SaleRecordLogic{db: db}
}

// CreateSaleRecord 新建销售档案
func (l *SaleRecordLogic) CreateSaleRecord(record *model.SaleRecord) error {
	if record.SaleAddress == "" {
		return errors.New("销售地址不能为空")
	}
	if err := l.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建销售档案失败: %w", err)
	}
	return nil
}

// GetSaleRecord 按实例地址取档案
func (l *SaleRecordLogic) GetSaleRecord(saleAddress string) (*model.SaleRecord, error) {
	var record model.SaleRecord
	if err := l.db.Where("sale_address = ?", saleAddress).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("销售不存在")
		}
		return nil, fmt.Errorf("获取销售档案失败: %w", err)
	}
	return &record, nil
}

// GetSaleRecords 取全部档案
func (l *SaleRecordLogic) GetSaleRecords() ([]model.SaleRecord, error) {
	var records []model.SaleRecord
	if err := l.db.Order("created_at desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取销售列表失败: %w", err)
	}
	return records, nil
}

// UpdateSaleState 刷新档案中的实时状态字段
func (l *SaleRecordLogic) UpdateSaleState(saleAddress string, updates map[string]interface{}) error {
	result := l.db.Model(&model.SaleRecord{}).
		Where("sale_address = ?", saleAddress).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新销售状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("销售不存在")
	}
	return nil
}

// UpdateStatus 更新销售阶段
func (l *SaleRecordLogic) UpdateStatus(saleAddress string, status model.SaleStatus) error {
	return l.UpdateSaleState(saleAddress, map[string]interface{}{"status": status})
}
