package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventType 引擎通知类型
type EventType string

const (
	EventPurchase        EventType = "purchase"
	EventClaim           EventType = "claim"
	EventRefund          EventType = "refund"
	EventCreation        EventType = "creation"
	EventPriceUpdate     EventType = "price_update"
	EventWhitelistUpdate EventType = "whitelist_update"
	EventVestingStarted  EventType = "vesting_started"
	EventTerminated      EventType = "terminated"
	EventTemplateChanged EventType = "template_changed"
)

// Event 引擎通知，状态提交后发出
type Event struct {
	Type    EventType
	Sale    common.Address
	Token   common.Address
	Account common.Address // 买家/认领人/退款人
	Pool    common.Address // vesting_started时的交易对地址
	Amount  *big.Int       // 份额或金额，视类型而定
	Payment *big.Int       // purchase时的净投入
	Time    int64
}

// Sink 通知接收端，由服务层注入
// Publish不得回调引擎，实现应尽快入队返回
type Sink interface {
	Publish(Event)
}

// SinkFunc 函数适配器
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// NopSink 丢弃所有通知
type NopSink struct{}

func (NopSink) Publish(Event) {}
