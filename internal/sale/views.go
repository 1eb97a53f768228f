package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ID 实例标识
func (s *Instance) ID() common.Address {
	return s.id
}

// Config 配置快照
func (s *Instance) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	cfg.MinBuy = new(big.Int).Set(s.cfg.MinBuy)
	cfg.MaxBuy = new(big.Int).Set(s.cfg.MaxBuy)
	cfg.HardCap = new(big.Int).Set(s.cfg.HardCap)
	cfg.StartPrice = new(big.Int).Set(s.cfg.StartPrice)
	cfg.DecayRate = new(big.Int).Set(s.cfg.DecayRate)
	cfg.FloorPrice = new(big.Int).Set(s.cfg.FloorPrice)
	cfg.FeeRate = new(big.Int).Set(s.cfg.FeeRate)
	return cfg
}

// State 状态快照
func (s *Instance) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.st
	st.TotalSold = new(big.Int).Set(s.st.TotalSold)
	st.AccumulatedFees = new(big.Int).Set(s.st.AccumulatedFees)
	return st
}

// User 参与者账本快照，从未参与时返回零值账本
func (s *Instance) User(addr common.Address) UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[addr]
	if !ok {
		return UserRecord{
			Purchased: new(big.Int),
			Invested:  new(big.Int),
			Claimed:   new(big.Int),
		}
	}
	return UserRecord{
		Purchased: new(big.Int).Set(u.Purchased),
		Invested:  new(big.Int).Set(u.Invested),
		Claimed:   new(big.Int).Set(u.Claimed),
	}
}

// Whitelist 白名单配置快照
func (s *Instance) Whitelist() WhitelistConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl := s.whitelist
	if s.whitelist.MinBalance != nil {
		wl.MinBalance = new(big.Int).Set(s.whitelist.MinBalance)
	}
	return wl
}

// CurrentPrice 当前单价
func (s *Instance) CurrentPrice() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceAt(s.now())
}

// NativeToToken 结算币金额按当前价换算为份额
func (s *Instance) NativeToToken(amount *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, err := s.priceAt(s.now())
	if err != nil {
		return nil, err
	}
	return nativeToToken(amount, price, s.cfg.TokenDecimals)
}

// TokensToNative 份额按当前价换算为结算币金额
func (s *Instance) TokensToNative(units *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, err := s.priceAt(s.now())
	if err != nil {
		return nil, err
	}
	return tokensToNative(units, price, s.cfg.TokenDecimals), nil
}

// Duration 销售时长（秒），提前收盘后反映实际时长
func (s *Instance) Duration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.EndTime - s.cfg.StartTime
}

// Ended 是否已结束
func (s *Instance) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now() >= s.st.EndTime
}
