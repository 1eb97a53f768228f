package notify

import (
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/logger"
	"github.com/0xkmm/presale/internal/logic"
	"github.com/0xkmm/presale/internal/model"
	"github.com/0xkmm/presale/internal/sale"
)

// AuditProcessor 把每条通知写进事件流水
type AuditProcessor struct {
	eventLogic *logic.EventLogic
}

// NewAuditProcessor 创建流水处理器
func NewAuditProcessor(db *gorm.DB) *AuditProcessor {
	return &AuditProcessor{eventLogic: logic.NewEventLogic(db)}
}

func (p *AuditProcessor) Process(event sale.Event) error {
	record := &model.SaleEvent{
		SaleAddress: event.Sale.Hex(),
		EventType:   string(event.Type),
		Account:     event.Account.Hex(),
		HappenedAt:  event.Time,
	}
	if event.Amount != nil {
		record.Amount = event.Amount.String()
	}
	if event.Pool != (common.Address{}) {
		record.Pool = event.Pool.Hex()
	}
	return p.eventLogic.CreateEvent(record)
}

// PurchaseProcessor 购买事件处理器
type PurchaseProcessor struct {
	purchaseLogic *logic.PurchaseRecordLogic
}

// NewPurchaseProcessor 创建购买事件处理器
func NewPurchaseProcessor(db *gorm.DB) *PurchaseProcessor {
	return &PurchaseProcessor{purchaseLogic: logic.NewPurchaseRecordLogic(db)}
}

func (p *PurchaseProcessor) Process(event sale.Event) error {
	record := &model.PurchaseRecord{
		SaleAddress:  event.Sale.Hex(),
		TokenAddress: event.Token.Hex(),
		Buyer:        event.Account.Hex(),
		Units:        event.Amount.String(),
		BoughtAt:     event.Time,
	}
	if event.Payment != nil {
		record.Payment = event.Payment.String()
	}
	if err := p.purchaseLogic.CreatePurchaseRecord(record); err != nil {
		return err
	}

	logger.Info("Processed purchase: %s units of %s by %s",
		record.Units, record.TokenAddress, record.Buyer)
	return nil
}

// ClaimProcessor 领取事件处理器
type ClaimProcessor struct {
	settlementLogic *logic.SettlementLogic
}

// NewClaimProcessor 创建领取事件处理器
func NewClaimProcessor(db *gorm.DB) *ClaimProcessor {
	return &ClaimProcessor{settlementLogic: logic.NewSettlementLogic(db)}
}

func (p *ClaimProcessor) Process(event sale.Event) error {
	return p.settlementLogic.CreateClaimRecord(&model.ClaimRecord{
		SaleAddress: event.Sale.Hex(),
		Claimer:     event.Account.Hex(),
		Units:       event.Amount.String(),
		ClaimedAt:   event.Time,
	})
}

// RefundProcessor 退款事件处理器
type RefundProcessor struct {
	settlementLogic *logic.SettlementLogic
}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor(db *gorm.DB) *RefundProcessor {
	return &RefundProcessor{settlementLogic: logic.NewSettlementLogic(db)}
}

func (p *RefundProcessor) Process(event sale.Event) error {
	return p.settlementLogic.CreateRefundRecord(&model.RefundRecord{
		SaleAddress: event.Sale.Hex(),
		Recipient:   event.Account.Hex(),
		Amount:      event.Amount.String(),
		RefundedAt:  event.Time,
	})
}

// CreationProcessor 创建事件处理器，落销售档案骨架
// 完整配置由状态同步任务补齐
type CreationProcessor struct {
	saleLogic *logic.SaleRecordLogic
}

// NewCreationProcessor 创建创建事件处理器
func NewCreationProcessor(db *gorm.DB) *CreationProcessor {
	return &CreationProcessor{saleLogic: logic.NewSaleRecordLogic(db)}
}

func (p *CreationProcessor) Process(event sale.Event) error {
	return p.saleLogic.CreateSaleRecord(&model.SaleRecord{
		SaleAddress:  event.Sale.Hex(),
		TokenAddress: event.Token.Hex(),
		Creator:      event.Account.Hex(),
		Name:         "(syncing)",
		HardCap:      event.Amount.String(),
		StartPrice:   "0",
		Status:       model.SaleStatusPending,
	})
}

// VestingProcessor vesting启动事件处理器
type VestingProcessor struct {
	saleLogic *logic.SaleRecordLogic
}

// NewVestingProcessor 创建vesting启动事件处理器
func NewVestingProcessor(db *gorm.DB) *VestingProcessor {
	return &VestingProcessor{saleLogic: logic.NewSaleRecordLogic(db)}
}

func (p *VestingProcessor) Process(event sale.Event) error {
	return p.saleLogic.UpdateSaleState(event.Sale.Hex(), map[string]interface{}{
		"status":             model.SaleStatusFinalized,
		"pool_address":       event.Pool.Hex(),
		"vesting_start_time": event.Time,
		"vesting_duration":   event.Amount.Int64(),
	})
}

// TerminationProcessor 中止事件处理器
type TerminationProcessor struct {
	saleLogic *logic.SaleRecordLogic
}

// NewTerminationProcessor 创建中止事件处理器
func NewTerminationProcessor(db *gorm.DB) *TerminationProcessor {
	return &TerminationProcessor{saleLogic: logic.NewSaleRecordLogic(db)}
}

func (p *TerminationProcessor) Process(event sale.Event) error {
	return p.saleLogic.UpdateStatus(event.Sale.Hex(), model.SaleStatusTerminated)
}
