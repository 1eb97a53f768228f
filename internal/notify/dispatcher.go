package notify

import (
	"context"

	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/logger"
	"github.com/0xkmm/presale/internal/sale"
)

// Processor 单类事件的处理器
type Processor interface {
	Process(event sale.Event) error
}

// Dispatcher 引擎通知分发器
// 实现sale.Sink：Publish只入队，落库在协程池里异步完成，
// 引擎的操作路径不被数据库拖慢
type Dispatcher struct {
	pool       *ants.Pool
	queue      chan sale.Event
	processors map[sale.EventType][]Processor
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewDispatcher 创建分发器并挂好默认处理器
func NewDispatcher(db *gorm.DB, poolSize int) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		pool:       pool,
		queue:      make(chan sale.Event, 1024),
		processors: make(map[sale.EventType][]Processor),
		ctx:        ctx,
		cancel:     cancel,
	}

	// 每条通知都进流水，购买/领取/退款额外落各自记录表
	auditor := NewAuditProcessor(db)
	for _, t := range []sale.EventType{
		sale.EventPurchase, sale.EventClaim, sale.EventRefund,
		sale.EventCreation, sale.EventPriceUpdate, sale.EventWhitelistUpdate,
		sale.EventVestingStarted, sale.EventTerminated, sale.EventTemplateChanged,
	} {
		d.Register(t, auditor)
	}
	d.Register(sale.EventPurchase, NewPurchaseProcessor(db))
	d.Register(sale.EventClaim, NewClaimProcessor(db))
	d.Register(sale.EventRefund, NewRefundProcessor(db))
	d.Register(sale.EventCreation, NewCreationProcessor(db))
	d.Register(sale.EventVestingStarted, NewVestingProcessor(db))
	d.Register(sale.EventTerminated, NewTerminationProcessor(db))

	return d, nil
}

// Register 追加处理器
func (d *Dispatcher) Register(t sale.EventType, p Processor) {
	d.processors[t] = append(d.processors[t], p)
}

// Publish 实现sale.Sink，队列满时丢弃并告警
func (d *Dispatcher) Publish(event sale.Event) {
	select {
	case d.queue <- event:
	default:
		logger.Warn("Notify queue full, dropping %s event for sale %s", event.Type, event.Sale.Hex())
	}
}

// Start 启动分发循环
func (d *Dispatcher) Start() {
	go d.loop()
	logger.Info("Notify dispatcher started")
}

// Stop 停止分发
func (d *Dispatcher) Stop() {
	d.cancel()
	d.pool.Release()
	logger.Info("Notify dispatcher stopped")
}

func (d *Dispatcher) loop() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case event := <-d.queue:
			e := event
			if err := d.pool.Submit(func() { d.dispatch(e) }); err != nil {
				logger.Error("Failed to submit %s event to pool: %v", e.Type, err)
			}
		}
	}
}

func (d *Dispatcher) dispatch(event sale.Event) {
	for _, p := range d.processors[event.Type] {
		if err := p.Process(event); err != nil {
			logger.Error("Failed to process %s event for sale %s: %v", event.Type, event.Sale.Hex(), err)
		}
	}
}
