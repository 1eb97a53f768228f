package logic

import (
	"fmt"

	"github.com/0xkmm/presale/internal/model"
	"gorm.io/gorm"
)

// EventLogic 事件流水业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件流水业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 落一条事件流水
func (l *EventLogic) CreateEvent(event *model.SaleEvent) error {
	if err := l.db.Create(event).Error; err != nil {
		return fmt.Errorf("创建事件流水失败: %w", err)
	}
	return nil
}

// GetEventsBySale 按销售实例取事件流水
func (l *EventLogic) GetEventsBySale(saleAddress string) ([]model.SaleEvent, error) {
	var events []model.SaleEvent
	if err := l.db.Where("sale_address = ?", saleAddress).
		Order("happened_at asc").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取事件流水失败: %w", err)
	}
	return events, nil
}
