package sale

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xkmm/presale/internal/amm"
	"github.com/0xkmm/presale/internal/logger"
	"github.com/0xkmm/presale/internal/token"
)

// Metadata 销售展示信息，四个字段均不允许为空
type Metadata struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Cover       string `json:"cover"`
	Description string `json:"description"`
}

// Config 销售配置，初始化后不可变（SetPrice/SetMetadata/IncreaseHardCap除外）
type Config struct {
	Token         common.Address // 销售资产
	TokenDecimals uint8          // 资产显示精度
	MinBuy        *big.Int       // 单笔最小份额
	MaxBuy        *big.Int       // 单笔最大份额
	HardCap       *big.Int       // 硬顶（份额）
	StartPrice    *big.Int       // 起始单价（结算币wei / 整币）
	DecayRate     *big.Int       // 每秒线性降价
	FloorPrice    *big.Int       // 价格下限
	Owner         common.Address // 销售所有者
	Factory       common.Address // 创建它的工厂
	StartTime     int64          // 开售时间戳
	EndTime       int64          // 计算出的结束时间戳
	FeeRate       *big.Int       // 协议费率（1e18定点）
	FeeRecipient  common.Address // 协议费接收人
	Meta          Metadata
}

// State 销售可变状态
type State struct {
	TotalSold        *big.Int // 累计已售份额
	AccumulatedFees  *big.Int // 累计协议费
	EndTime          int64    // 实际结束时间，精确售罄时提前收盘
	Terminated       bool     // 所有者中止标记
	VestingStartTime int64    // 0表示vesting未开始，只允许0→非0一次
	VestingDuration  int64    // vesting时长（秒）
}

// UserRecord 参与者账本，首次购买时惰性建立
// 不变式: Claimed ≤ Purchased；Invested只会经退款一次性清零
type UserRecord struct {
	Purchased *big.Int // 累计购入份额
	Invested  *big.Int // 累计净投入（已扣协议费）
	Claimed   *big.Int // 累计已领取份额
}

// Collaborators 由工厂注入的外部协作方，调用方不可替换
type Collaborators struct {
	SaleToken    token.Token    // 销售资产账本
	Currency     token.Token    // 结算币账本
	CurrencyAddr common.Address // 结算币地址（用于建池配对）
	Venue        amm.Venue      // 流动性协议
	ChainID      int64          // 白名单叶子绑定的链ID
	GracePeriod  int64          // 结束后的宽限期（秒）
}

// Instance 单个销售实例
// 所有操作持锁执行，整体成功或整体无效
type Instance struct {
	mu          sync.Mutex
	id          common.Address
	initialized bool
	cfg         Config
	st          State
	users       map[common.Address]*UserRecord
	whitelist   WhitelistConfig
	collab      Collaborators
	sink        Sink
	now         func() int64
}

// NewInstance 从模板生出新实例，配置经一次性Initialize写入
func NewInstance(id common.Address, collab Collaborators, sink Sink) *Instance {
	if sink == nil {
		sink = NopSink{}
	}
	return &Instance{
		id:     id,
		users:  make(map[common.Address]*UserRecord),
		collab: collab,
		sink:   sink,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// SetClock 注入时钟（测试用）
func (s *Instance) SetClock(now func() int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ValidateConfig 校验销售配置，工厂在任何转账前先行调用
func ValidateConfig(cfg Config) error {
	if cfg.Meta.Name == "" || cfg.Meta.Website == "" || cfg.Meta.Cover == "" || cfg.Meta.Description == "" {
		return fmt.Errorf("%w: metadata fields must be non-empty", ErrValidation)
	}
	if cfg.HardCap == nil || cfg.HardCap.Sign() <= 0 {
		return fmt.Errorf("%w: hard cap must be positive", ErrValidation)
	}
	if cfg.StartPrice == nil || cfg.StartPrice.Sign() <= 0 {
		return fmt.Errorf("%w: start price must be positive", ErrValidation)
	}
	if cfg.DecayRate == nil || cfg.DecayRate.Sign() < 0 {
		return fmt.Errorf("%w: decay rate must not be negative", ErrValidation)
	}
	if cfg.FloorPrice == nil || cfg.FloorPrice.Sign() < 0 {
		return fmt.Errorf("%w: floor price must not be negative", ErrValidation)
	}
	if cfg.MinBuy == nil || cfg.MaxBuy == nil || cfg.MinBuy.Cmp(cfg.MaxBuy) > 0 {
		return fmt.Errorf("%w: invalid buy bounds", ErrValidation)
	}
	if cfg.FeeRate == nil || cfg.FeeRate.Sign() < 0 {
		return fmt.Errorf("%w: invalid fee rate", ErrValidation)
	}
	if cfg.StartTime >= cfg.EndTime {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	return nil
}

// Initialize 一次性初始化，生命周期内至多执行一次
func (s *Instance) Initialize(cfg Config, wl WhitelistConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return fmt.Errorf("%w: already initialized", ErrStateConflict)
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	s.cfg = cfg
	s.st = State{
		TotalSold:       new(big.Int),
		AccumulatedFees: new(big.Int),
		EndTime:         cfg.EndTime,
	}
	s.whitelist = wl
	if s.whitelist.MinBalance == nil {
		s.whitelist.MinBalance = new(big.Int)
	}
	s.initialized = true

	logger.Info("Sale %s initialized: token=%s hardCap=%s start=%d end=%d",
		s.id.Hex(), cfg.Token.Hex(), cfg.HardCap, cfg.StartTime, cfg.EndTime)
	return nil
}

// Buy 白名单购买
// 校验→记账→外部转账，付款拉取失败时回滚全部记账
func (s *Instance) Buy(caller common.Address, proof []common.Hash, payment *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now < s.cfg.StartTime {
		return nil, ErrNotStarted
	}
	if now >= s.st.EndTime {
		return nil, ErrAlreadyEnded
	}
	if payment == nil || payment.Sign() <= 0 {
		return nil, fmt.Errorf("%w: payment must be positive", ErrValidation)
	}
	if !verifyWhitelist(s.whitelist, caller, s.collab.ChainID, s.id, proof) {
		return nil, fmt.Errorf("%w: %s", ErrWhitelistRejected, caller.Hex())
	}

	fee := protocolFee(payment, s.cfg.FeeRate)
	net := new(big.Int).Sub(payment, fee)

	price, err := s.priceAt(now)
	if err != nil {
		return nil, err
	}
	units, err := nativeToToken(net, price, s.cfg.TokenDecimals)
	if err != nil {
		return nil, err
	}

	if units.Cmp(s.cfg.MinBuy) < 0 || units.Cmp(s.cfg.MaxBuy) > 0 {
		return nil, fmt.Errorf("%w: %s units outside buy bounds [%s, %s]",
			ErrValidation, units, s.cfg.MinBuy, s.cfg.MaxBuy)
	}
	newSold := new(big.Int).Add(s.st.TotalSold, units)
	if newSold.Cmp(s.cfg.HardCap) > 0 {
		return nil, fmt.Errorf("%w: %s exceeds hard cap %s", ErrCapacityExceeded, newSold, s.cfg.HardCap)
	}

	// 记账（顺序固定：售量、费、收盘、用户），全部先于外部转账
	snap := s.snapshot(caller)
	user := s.user(caller)
	s.st.TotalSold = newSold
	s.st.AccumulatedFees = new(big.Int).Add(s.st.AccumulatedFees, fee)
	if newSold.Cmp(s.cfg.HardCap) == 0 {
		// 精确售罄，立即收盘
		s.st.EndTime = now
	}
	user.Purchased = new(big.Int).Add(user.Purchased, units)
	user.Invested = new(big.Int).Add(user.Invested, net)

	if err := s.collab.Currency.TransferFrom(s.id, caller, s.id, payment); err != nil {
		s.restore(caller, snap)
		return nil, fmt.Errorf("buy: pull payment: %w", err)
	}

	s.emit(Event{
		Type:    EventPurchase,
		Sale:    s.id,
		Token:   s.cfg.Token,
		Account: caller,
		Amount:  new(big.Int).Set(units),
		Payment: net,
		Time:    now,
	})
	return units, nil
}

// Claimable 当前可领取份额，vesting未开始时为0
func (s *Instance) Claimable(addr common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimable(addr, s.now())
}

// Claim 领取已解锁份额
func (s *Instance) Claim(caller common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now < s.st.EndTime {
		return nil, ErrNotEnded
	}
	if s.st.VestingStartTime == 0 {
		return nil, fmt.Errorf("%w: vesting not started", ErrTimingViolation)
	}

	claimable, err := s.claimable(caller, now)
	if err != nil {
		return nil, err
	}
	if claimable.Sign() == 0 {
		return nil, fmt.Errorf("%w: nothing to claim", ErrValidation)
	}

	user := s.user(caller)
	newClaimed := new(big.Int).Add(user.Claimed, claimable)
	if newClaimed.Cmp(user.Purchased) > 0 {
		// 结构上不可达，留作账本自检
		return nil, fmt.Errorf("%w: claim would exceed purchase", ErrArithmetic)
	}

	snap := s.snapshot(caller)
	user.Claimed = newClaimed

	if err := s.collab.SaleToken.Transfer(s.id, caller, claimable); err != nil {
		s.restore(caller, snap)
		return nil, fmt.Errorf("claim: transfer: %w", err)
	}

	s.emit(Event{
		Type:    EventClaim,
		Sale:    s.id,
		Token:   s.cfg.Token,
		Account: caller,
		Amount:  new(big.Int).Set(claimable),
		Time:    now,
	})
	return claimable, nil
}

// Terminate 所有者中止销售，开启退款通道
// 注意：vesting时钟未启动时拒绝中止，与错误文案的语义相反
func (s *Instance) Terminate(caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return fmt.Errorf("%w: only owner may terminate", ErrAccessDenied)
	}
	now := s.now()
	if now < s.st.EndTime {
		return ErrNotEnded
	}
	if s.st.Terminated {
		return fmt.Errorf("%w: already terminated", ErrStateConflict)
	}
	if s.st.VestingStartTime == 0 {
		return fmt.Errorf("%w: vesting already started", ErrStateConflict)
	}

	s.st.Terminated = true

	s.emit(Event{
		Type: EventTerminated,
		Sale: s.id,
		Time: now,
	})
	logger.Warn("Sale %s terminated by owner", s.id.Hex())
	return nil
}

// WithdrawRefund 中止后、宽限期届满的退款
// 先清零invested再转账，重入者读不到旧额度
func (s *Instance) WithdrawRefund(caller common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.st.Terminated {
		return nil, fmt.Errorf("%w: sale not terminated", ErrStateConflict)
	}
	now := s.now()
	if now < s.st.EndTime+s.collab.GracePeriod {
		return nil, fmt.Errorf("%w: refunds open at %d", ErrStateConflict, s.st.EndTime+s.collab.GracePeriod)
	}

	user := s.user(caller)
	refund := new(big.Int).Set(user.Invested)
	if refund.Sign() == 0 {
		return nil, fmt.Errorf("%w: nothing to refund", ErrValidation)
	}

	snap := s.snapshot(caller)
	user.Invested = new(big.Int)

	if err := s.collab.Currency.Transfer(s.id, caller, refund); err != nil {
		s.restore(caller, snap)
		return nil, fmt.Errorf("refund: transfer: %w", err)
	}

	s.emit(Event{
		Type:    EventRefund,
		Sale:    s.id,
		Account: caller,
		Amount:  refund,
		Time:    now,
	})
	return refund, nil
}

// Finalize 一次性把募集资金与未售份额交割给流动性协议并启动vesting
// vesting字段先行提交，外部交互或价格检查失败时整体回滚
func (s *Instance) Finalize(caller common.Address, vestingDuration int64, deadline int64) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return common.Address{}, fmt.Errorf("%w: only owner may finalize", ErrAccessDenied)
	}
	now := s.now()
	if now < s.st.EndTime {
		return common.Address{}, ErrNotEnded
	}
	if s.st.Terminated {
		return common.Address{}, fmt.Errorf("%w: sale terminated", ErrStateConflict)
	}
	if now > s.st.EndTime+s.collab.GracePeriod {
		return common.Address{}, fmt.Errorf("%w: grace window passed", ErrTimingViolation)
	}
	if s.st.VestingDuration != 0 {
		return common.Address{}, fmt.Errorf("%w: vesting already started", ErrStateConflict)
	}
	if vestingDuration <= 0 {
		return common.Address{}, fmt.Errorf("%w: vesting duration must be positive", ErrValidation)
	}

	finalPrice, err := s.priceAt(now)
	if err != nil {
		return common.Address{}, err
	}

	// 未售份额与净募集额（协议费留待PullFees）
	unsold := new(big.Int).Sub(s.collab.SaleToken.BalanceOf(s.id), s.st.TotalSold)
	raised := new(big.Int).Sub(s.collab.Currency.BalanceOf(s.id), s.st.AccumulatedFees)
	if unsold.Sign() <= 0 || raised.Sign() <= 0 {
		return common.Address{}, fmt.Errorf("%w: nothing to deposit as liquidity", ErrValidation)
	}

	snap := s.snapshot(common.Address{})
	s.st.VestingDuration = vestingDuration
	s.st.VestingStartTime = now

	pool, err := s.collab.Venue.CreatePair(s.cfg.Token, s.collab.CurrencyAddr)
	if err != nil {
		s.restore(common.Address{}, snap)
		return common.Address{}, fmt.Errorf("finalize: create pair: %w", err)
	}
	if err := s.collab.Venue.AddLiquidity(s.id, s.cfg.Token, s.collab.CurrencyAddr, unsold, raised, deadline); err != nil {
		s.restore(common.Address{}, snap)
		return common.Address{}, fmt.Errorf("finalize: add liquidity: %w", err)
	}
	if _, _, err := s.collab.Venue.Reserves(s.cfg.Token, s.collab.CurrencyAddr); err != nil {
		s.restore(common.Address{}, snap)
		return common.Address{}, fmt.Errorf("finalize: read reserves: %w", err)
	}

	// 防砸盘检查：对1个最小份额询价，与销售终价的同尺度换算值比较
	poolOut, err := s.collab.Venue.QuoteOut(s.cfg.Token, s.collab.CurrencyAddr, big.NewInt(1))
	if err != nil {
		s.restore(common.Address{}, snap)
		return common.Address{}, fmt.Errorf("finalize: quote: %w", err)
	}
	saleOut := tokensToNative(big.NewInt(1), finalPrice, s.cfg.TokenDecimals)
	if poolOut.Cmp(saleOut) < 0 {
		s.restore(common.Address{}, snap)
		return common.Address{}, fmt.Errorf("%w: pool price %s below sale price %s", ErrExternalSanity, poolOut, saleOut)
	}

	s.emit(Event{
		Type:   EventVestingStarted,
		Sale:   s.id,
		Token:  s.cfg.Token,
		Pool:   pool,
		Amount: big.NewInt(vestingDuration),
		Time:   now,
	})
	logger.Info("Sale %s finalized: pool=%s vesting=%ds", s.id.Hex(), pool.Hex(), vestingDuration)
	return pool, nil
}

// claimable 持锁版本
func (s *Instance) claimable(addr common.Address, now int64) (*big.Int, error) {
	user, ok := s.users[addr]
	if !ok {
		return new(big.Int), nil
	}
	vested, err := vestedAmount(user.Purchased, user.Claimed, s.st.VestingStartTime, s.st.VestingDuration, now)
	if err != nil {
		return nil, err
	}
	return vested, nil
}

// priceAt 持锁读当前价
func (s *Instance) priceAt(now int64) (*big.Int, error) {
	return currentPrice(s.st.TotalSold, s.cfg.HardCap, s.cfg.StartPrice, s.cfg.DecayRate,
		s.cfg.FloorPrice, s.cfg.StartTime, s.st.EndTime, now)
}

// user 惰性建立参与者账本
func (s *Instance) user(addr common.Address) *UserRecord {
	u, ok := s.users[addr]
	if !ok {
		u = &UserRecord{
			Purchased: new(big.Int),
			Invested:  new(big.Int),
			Claimed:   new(big.Int),
		}
		s.users[addr] = u
	}
	return u
}

// opSnapshot 单次操作涉及状态的快照，外部调用失败时恢复
type opSnapshot struct {
	st      State
	hadUser bool
	user    UserRecord
	hardCap *big.Int
}

func (s *Instance) snapshot(addr common.Address) opSnapshot {
	snap := opSnapshot{
		st: State{
			TotalSold:        new(big.Int).Set(s.st.TotalSold),
			AccumulatedFees:  new(big.Int).Set(s.st.AccumulatedFees),
			EndTime:          s.st.EndTime,
			Terminated:       s.st.Terminated,
			VestingStartTime: s.st.VestingStartTime,
			VestingDuration:  s.st.VestingDuration,
		},
		hardCap: new(big.Int).Set(s.cfg.HardCap),
	}
	if u, ok := s.users[addr]; ok {
		snap.hadUser = true
		snap.user = UserRecord{
			Purchased: new(big.Int).Set(u.Purchased),
			Invested:  new(big.Int).Set(u.Invested),
			Claimed:   new(big.Int).Set(u.Claimed),
		}
	}
	return snap
}

func (s *Instance) restore(addr common.Address, snap opSnapshot) {
	s.st = snap.st
	s.cfg.HardCap = snap.hardCap
	if snap.hadUser {
		u := snap.user
		s.users[addr] = &u
	} else {
		delete(s.users, addr)
	}
}

func (s *Instance) emit(e Event) {
	s.sink.Publish(e)
}
