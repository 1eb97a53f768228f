package amm

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xkmm/presale/internal/token"
)

// Venue 外部流动性协议接口：建池、注入流动性、读储备、询价
// 具体实现由工厂注入，调用方不可替换
type Venue interface {
	// CreatePair 为一对代币创建交易对，重复创建返回已有交易对
	CreatePair(tokenA, tokenB common.Address) (common.Address, error)
	// AddLiquidity 从provider拉取两侧代币注入交易对，deadline为过期时间戳
	AddLiquidity(provider common.Address, tokenA, tokenB common.Address, amountA, amountB *big.Int, deadline int64) error
	// Reserves 按(tokenA, tokenB)顺序返回交易对储备
	Reserves(tokenA, tokenB common.Address) (*big.Int, *big.Int, error)
	// QuoteOut 给定输入量，报出沿储备曲线可换出的输出量
	QuoteOut(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
}

var (
	ErrPairNotFound   = errors.New("amm: pair not found")
	ErrUnknownToken   = errors.New("amm: unknown token")
	ErrDeadlinePassed = errors.New("amm: deadline passed")
	ErrEmptyReserves  = errors.New("amm: empty reserves")
	ErrInvalidAmounts = errors.New("amm: invalid amounts")
)

// pair 单个交易对的储备
type pair struct {
	address  common.Address
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
}

// MemoryVenue 进程内恒定乘积做市实现
type MemoryVenue struct {
	mu     sync.Mutex
	tokens map[common.Address]token.Token
	pairs  map[common.Hash]*pair
	now    func() int64
}

// NewMemoryVenue 创建内存流动性协议
func NewMemoryVenue() *MemoryVenue {
	return &MemoryVenue{
		tokens: make(map[common.Address]token.Token),
		pairs:  make(map[common.Hash]*pair),
		now:    func() int64 { return time.Now().Unix() },
	}
}

// RegisterToken 登记代币实现，AddLiquidity用它完成实际转账
func (v *MemoryVenue) RegisterToken(addr common.Address, t token.Token) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[addr] = t
}

// SetClock 注入时钟（测试用）
func (v *MemoryVenue) SetClock(now func() int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = now
}

func (v *MemoryVenue) CreatePair(tokenA, tokenB common.Address) (common.Address, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	t0, t1 := sortTokens(tokenA, tokenB)
	key := pairKey(t0, t1)
	if p, ok := v.pairs[key]; ok {
		return p.address, nil
	}

	p := &pair{
		address:  common.BytesToAddress(crypto.Keccak256(t0.Bytes(), t1.Bytes())[12:]),
		token0:   t0,
		token1:   t1,
		reserve0: new(big.Int),
		reserve1: new(big.Int),
	}
	v.pairs[key] = p
	return p.address, nil
}

func (v *MemoryVenue) AddLiquidity(provider common.Address, tokenA, tokenB common.Address, amountA, amountB *big.Int, deadline int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if deadline != 0 && v.now() > deadline {
		return fmt.Errorf("%w: deadline %d", ErrDeadlinePassed, deadline)
	}
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return ErrInvalidAmounts
	}

	t0, t1 := sortTokens(tokenA, tokenB)
	p, ok := v.pairs[pairKey(t0, t1)]
	if !ok {
		return ErrPairNotFound
	}

	amount0, amount1 := amountA, amountB
	if t0 != tokenA {
		amount0, amount1 = amountB, amountA
	}

	// 先完成转账，任一侧失败则退回已拉取的一侧，储备不变
	if err := v.pull(provider, p.address, t0, amount0); err != nil {
		return err
	}
	if err := v.pull(provider, p.address, t1, amount1); err != nil {
		// 退回token0：刚入账的余额原路转回，不会再失败
		_ = v.pull(p.address, provider, t0, amount0)
		return err
	}

	p.reserve0 = new(big.Int).Add(p.reserve0, amount0)
	p.reserve1 = new(big.Int).Add(p.reserve1, amount1)
	return nil
}

func (v *MemoryVenue) Reserves(tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	t0, t1 := sortTokens(tokenA, tokenB)
	p, ok := v.pairs[pairKey(t0, t1)]
	if !ok {
		return nil, nil, ErrPairNotFound
	}

	rA, rB := p.reserve0, p.reserve1
	if t0 != tokenA {
		rA, rB = rB, rA
	}
	return new(big.Int).Set(rA), new(big.Int).Set(rB), nil
}

// QuoteOut 恒定乘积报价: out = reserveOut*in / (reserveIn+in)
func (v *MemoryVenue) QuoteOut(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	t0, t1 := sortTokens(tokenIn, tokenOut)
	p, ok := v.pairs[pairKey(t0, t1)]
	if !ok {
		return nil, ErrPairNotFound
	}

	reserveIn, reserveOut := p.reserve0, p.reserve1
	if t0 != tokenIn {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, ErrEmptyReserves
	}

	numerator := new(big.Int).Mul(reserveOut, amountIn)
	denominator := new(big.Int).Add(reserveIn, amountIn)
	return numerator.Div(numerator, denominator), nil
}

// PairAddress 查询已建交易对地址
func (v *MemoryVenue) PairAddress(tokenA, tokenB common.Address) (common.Address, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	t0, t1 := sortTokens(tokenA, tokenB)
	p, ok := v.pairs[pairKey(t0, t1)]
	if !ok {
		return common.Address{}, false
	}
	return p.address, true
}

func (v *MemoryVenue) pull(from, to common.Address, tokenAddr common.Address, amount *big.Int) error {
	t, ok := v.tokens[tokenAddr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, tokenAddr.Hex())
	}
	return t.Transfer(from, to, amount)
}

func sortTokens(a, b common.Address) (common.Address, common.Address) {
	if a.Hex() > b.Hex() {
		return b, a
	}
	return a, b
}

func pairKey(t0, t1 common.Address) common.Hash {
	return crypto.Keccak256Hash(t0.Bytes(), t1.Bytes())
}
