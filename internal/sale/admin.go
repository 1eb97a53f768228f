package sale

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xkmm/presale/internal/logger"
)

// SetPrice 开售前调整起始单价
func (s *Instance) SetPrice(caller common.Address, newPrice *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return fmt.Errorf("%w: only owner may set price", ErrAccessDenied)
	}
	if s.now() >= s.cfg.StartTime {
		return ErrAlreadyStarted
	}
	if newPrice == nil || newPrice.Sign() <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}

	s.cfg.StartPrice = new(big.Int).Set(newPrice)

	s.emit(Event{
		Type:   EventPriceUpdate,
		Sale:   s.id,
		Amount: new(big.Int).Set(newPrice),
		Time:   s.now(),
	})
	return nil
}

// SetWhitelistRoot 更新白名单根，时间标记一并重置为当前时刻
func (s *Instance) SetWhitelistRoot(caller common.Address, root common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return fmt.Errorf("%w: only owner may set whitelist root", ErrAccessDenied)
	}

	now := s.now()
	s.whitelist.Root = root
	s.whitelist.UpdatedAt = now

	s.emit(Event{
		Type: EventWhitelistUpdate,
		Sale: s.id,
		Time: now,
	})
	return nil
}

// IncreaseHardCap 提升硬顶并从所有者处拉取相应资产补足
func (s *Instance) IncreaseHardCap(caller common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return fmt.Errorf("%w: only owner may increase hard cap", ErrAccessDenied)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	snap := s.snapshot(caller)
	s.cfg.HardCap = new(big.Int).Add(s.cfg.HardCap, amount)

	if err := s.collab.SaleToken.TransferFrom(s.id, s.cfg.Owner, s.id, amount); err != nil {
		s.restore(caller, snap)
		return fmt.Errorf("increase hard cap: pull asset: %w", err)
	}

	logger.Info("Sale %s hard cap increased by %s to %s", s.id.Hex(), amount, s.cfg.HardCap)
	return nil
}

// PullFees 提取累计协议费到费率接收人
// 先清零再转账
func (s *Instance) PullFees(caller common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return nil, fmt.Errorf("%w: only owner may pull fees", ErrAccessDenied)
	}

	fees := new(big.Int).Set(s.st.AccumulatedFees)
	if fees.Sign() == 0 {
		return nil, fmt.Errorf("%w: no fees accumulated", ErrValidation)
	}

	snap := s.snapshot(caller)
	s.st.AccumulatedFees = new(big.Int)

	if err := s.collab.Currency.Transfer(s.id, s.cfg.FeeRecipient, fees); err != nil {
		s.restore(caller, snap)
		return nil, fmt.Errorf("pull fees: transfer: %w", err)
	}
	return fees, nil
}

// SetMetadata 更新展示信息，四个字段必须非空
func (s *Instance) SetMetadata(caller common.Address, meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.cfg.Owner {
		return fmt.Errorf("%w: only owner may set metadata", ErrAccessDenied)
	}
	if meta.Name == "" || meta.Website == "" || meta.Cover == "" || meta.Description == "" {
		return fmt.Errorf("%w: metadata fields must be non-empty", ErrValidation)
	}

	s.cfg.Meta = meta
	return nil
}
