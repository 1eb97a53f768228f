package factory

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xkmm/presale/internal/logger"
	"github.com/0xkmm/presale/internal/sale"
	"github.com/0xkmm/presale/internal/token"
)

// Factory 按模板批量创建销售实例并维护注册表
// 模板指针与所有者是全局可变状态，仅通过此类型的API修改
type Factory struct {
	mu       sync.RWMutex
	addr     common.Address
	owner    common.Address
	template *Template
	registry *Registry
	assets   map[common.Address]token.Token
	nonce    uint64
	sink     sale.Sink
	now      func() int64
}

// New 创建工厂
func New(addr, owner common.Address, tpl *Template, sink sale.Sink) (*Factory, error) {
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = sale.NopSink{}
	}
	return &Factory{
		addr:     addr,
		owner:    owner,
		template: tpl,
		registry: NewRegistry(),
		assets:   make(map[common.Address]token.Token),
		sink:     sink,
		now:      func() int64 { return time.Now().Unix() },
	}, nil
}

// SetClock 注入时钟（测试用）
func (f *Factory) SetClock(now func() int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// RegisterAsset 登记可销售资产的账本实现
func (f *Factory) RegisterAsset(addr common.Address, t token.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[addr] = t
}

// Asset 按地址查已登记资产账本
func (f *Factory) Asset(addr common.Address) (token.Token, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.assets[addr]
	return t, ok
}

// CreateSaleParams 创建销售的入参
type CreateSaleParams struct {
	Meta                sale.Metadata
	WhitelistRoot       common.Hash
	WhitelistMinBalance *big.Int
	TokenAddr           common.Address
	MinBuy              *big.Int
	MaxBuy              *big.Int
	HardCap             *big.Int
	FeeRate             *big.Int
	FeeRecipient        common.Address // 零值回落到模板默认
	StartPrice          *big.Int
	DecayRate           *big.Int
	FloorPrice          *big.Int
	StartTime           int64
	Duration            int64
}

// CreateSale 从当前模板生出新实例：
// 校验费率→派生标识→登记→从caller拉取硬顶资产→一次性初始化
// 任一步失败则撤销登记，不留痕迹
func (f *Factory) CreateSale(caller common.Address, p CreateSaleParams) (common.Address, error) {
	f.mu.Lock()
	tpl := f.template
	if p.FeeRate == nil {
		f.mu.Unlock()
		return common.Address{}, fmt.Errorf("%w: missing fee rate", sale.ErrValidation)
	}
	if p.FeeRate.Cmp(tpl.MaxFeeRate) > 0 {
		f.mu.Unlock()
		return common.Address{}, fmt.Errorf("%w: fee rate %s above cap %s", sale.ErrValidation, p.FeeRate, tpl.MaxFeeRate)
	}
	asset, ok := f.assets[p.TokenAddr]
	if !ok {
		f.mu.Unlock()
		return common.Address{}, fmt.Errorf("%w: unknown asset %s", sale.ErrValidation, p.TokenAddr.Hex())
	}

	feeRecipient := p.FeeRecipient
	if feeRecipient == (common.Address{}) {
		feeRecipient = tpl.FeeRecipient
	}

	// 每次实例化派生全新标识，重复登记在结构上即不可能
	f.nonce++
	id := deriveID(f.addr, f.nonce)
	now := f.now()
	f.mu.Unlock()

	cfg := sale.Config{
		Token:         p.TokenAddr,
		TokenDecimals: token.DecimalsOrDefault(asset),
		MinBuy:        p.MinBuy,
		MaxBuy:        p.MaxBuy,
		HardCap:       p.HardCap,
		StartPrice:    p.StartPrice,
		DecayRate:     p.DecayRate,
		FloorPrice:    p.FloorPrice,
		Owner:         caller,
		Factory:       f.addr,
		StartTime:     p.StartTime,
		EndTime:       p.StartTime + p.Duration,
		FeeRate:       p.FeeRate,
		FeeRecipient:  feeRecipient,
		Meta:          p.Meta,
	}
	// 任何转账前先整体校验配置
	if err := sale.ValidateConfig(cfg); err != nil {
		return common.Address{}, err
	}

	inst := sale.NewInstance(id, tpl.collaborators(asset), f.sink)
	if err := f.registry.add(id, inst); err != nil {
		return common.Address{}, err
	}

	// 从创建者拉取全额硬顶资产注入实例
	if err := asset.TransferFrom(f.addr, caller, id, p.HardCap); err != nil {
		f.registry.remove(id)
		return common.Address{}, fmt.Errorf("create sale: fund instance: %w", err)
	}

	wl := sale.WhitelistConfig{
		Root:       p.WhitelistRoot,
		UpdatedAt:  now,
		MinBalance: p.WhitelistMinBalance,
	}
	if err := inst.Initialize(cfg, wl); err != nil {
		// ValidateConfig已通过，此处只可能是重复初始化，结构上不可达
		f.registry.remove(id)
		return common.Address{}, err
	}

	f.sink.Publish(sale.Event{
		Type:    sale.EventCreation,
		Sale:    id,
		Token:   p.TokenAddr,
		Account: caller,
		Amount:  new(big.Int).Set(p.HardCap),
		Time:    now,
	})
	logger.Info("Sale %s created by %s: token=%s hardCap=%s", id.Hex(), caller.Hex(), p.TokenAddr.Hex(), p.HardCap)
	return id, nil
}

// ChangeTemplate 替换模板，只影响之后创建的实例
func (f *Factory) ChangeTemplate(caller common.Address, tpl *Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.owner {
		return fmt.Errorf("%w: only owner may change template", sale.ErrAccessDenied)
	}
	if err := validateTemplate(tpl); err != nil {
		return err
	}

	f.template = tpl

	f.sink.Publish(sale.Event{
		Type: sale.EventTemplateChanged,
		Time: f.now(),
	})
	logger.Info("Factory template changed to version %q", tpl.Version)
	return nil
}

// Template 当前模板
func (f *Factory) Template() *Template {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.template
}

// Owner 工厂所有者
func (f *Factory) Owner() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.owner
}

// Address 工厂标识
func (f *Factory) Address() common.Address {
	return f.addr
}

// IsRegistered 注册表查询
func (f *Factory) IsRegistered(id common.Address) bool {
	return f.registry.IsRegistered(id)
}

// Count 实例总数
func (f *Factory) Count() int {
	return f.registry.Count()
}

// EntryAt 按序号枚举
func (f *Factory) EntryAt(index int) (common.Address, error) {
	return f.registry.EntryAt(index)
}

// Get 取实例
func (f *Factory) Get(id common.Address) (*sale.Instance, bool) {
	return f.registry.Get(id)
}

// All 全部实例标识
func (f *Factory) All() []common.Address {
	return f.registry.All()
}

// deriveID 仿合约创建地址: keccak256(factory ‖ nonce)[12:]
func deriveID(factory common.Address, nonce uint64) common.Address {
	nonceBytes := common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 8)
	return common.BytesToAddress(crypto.Keccak256(factory.Bytes(), nonceBytes)[12:])
}
