package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Token 同质化代币转账接口，对应链上ERC-20的最小子集
type Token interface {
	// Transfer 从from向to转账
	Transfer(from, to common.Address, amount *big.Int) error
	// TransferFrom 由spender动用from授权给它的额度向to转账
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
	// IncreaseAllowance 提升owner对spender的授权额度
	IncreaseAllowance(owner, spender common.Address, amount *big.Int) error
	// BalanceOf 查询余额
	BalanceOf(addr common.Address) *big.Int
	// Decimals 查询显示精度，失败时返回错误
	Decimals() (uint8, error)
}

// DefaultDecimals 精度查询失败时的兜底值
const DefaultDecimals = 18

// DecimalsOrDefault 查询代币精度，查询失败时回落到18
func DecimalsOrDefault(t Token) uint8 {
	d, err := t.Decimals()
	if err != nil {
		return DefaultDecimals
	}
	return d
}

var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// MemoryToken 进程内代币账本，引擎、测试和dev模式共用
type MemoryToken struct {
	mu         sync.Mutex
	symbol     string
	decimals   uint8
	decimalErr error // 注入精度查询失败，用于测试兜底逻辑
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewMemoryToken 创建内存代币
func NewMemoryToken(symbol string, decimals uint8) *MemoryToken {
	return &MemoryToken{
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Symbol 代币符号
func (t *MemoryToken) Symbol() string {
	return t.symbol
}

// Mint 铸造余额（仅测试和初始化用）
func (t *MemoryToken) Mint(to common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(to, amount)
}

// FailDecimals 让精度查询开始报错
func (t *MemoryToken) FailDecimals(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decimalErr = err
}

func (t *MemoryToken) Transfer(from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	return nil
}

func (t *MemoryToken) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowance(from, spender)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allows %s to spend %s, need %s",
			ErrInsufficientAllowance, from.Hex(), spender.Hex(), allowed, amount)
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = new(big.Int).Sub(allowed, amount)
	t.credit(to, amount)
	return nil
}

func (t *MemoryToken) IncreaseAllowance(owner, spender common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Add(t.allowance(owner, spender), amount)
	return nil
}

func (t *MemoryToken) BalanceOf(addr common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if b, ok := t.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *MemoryToken) Decimals() (uint8, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.decimalErr != nil {
		return 0, t.decimalErr
	}
	return t.decimals, nil
}

// debit 扣减余额，余额不足报错
func (t *MemoryToken) debit(from common.Address, amount *big.Int) error {
	balance, ok := t.balances[from]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from.Hex(), balanceOrZero(balance), amount)
	}
	t.balances[from] = new(big.Int).Sub(balance, amount)
	return nil
}

// credit 增加余额
func (t *MemoryToken) credit(to common.Address, amount *big.Int) {
	balance, ok := t.balances[to]
	if !ok {
		balance = new(big.Int)
	}
	t.balances[to] = new(big.Int).Add(balance, amount)
}

// allowance 读取授权额度，缺省为0
func (t *MemoryToken) allowance(owner, spender common.Address) *big.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return new(big.Int)
}

func balanceOrZero(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return b
}
