package amm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xkmm/presale/internal/token"
)

var (
	tokenA   = common.HexToAddress("0x0a")
	tokenB   = common.HexToAddress("0x0b")
	provider = common.HexToAddress("0x99")
)

func newVenueFixture(t *testing.T) (*MemoryVenue, *token.MemoryToken, *token.MemoryToken) {
	t.Helper()

	ta := token.NewMemoryToken("AAA", 18)
	tb := token.NewMemoryToken("BBB", 18)
	v := NewMemoryVenue()
	v.RegisterToken(tokenA, ta)
	v.RegisterToken(tokenB, tb)
	return v, ta, tb
}

func TestCreatePairIdempotent(t *testing.T) {
	v, _, _ := newVenueFixture(t)

	p1, err := v.CreatePair(tokenA, tokenB)
	require.NoError(t, err)
	p2, err := v.CreatePair(tokenB, tokenA)
	require.NoError(t, err)

	// 两侧顺序无关，重复创建返回既有交易对
	assert.Equal(t, p1, p2)

	got, ok := v.PairAddress(tokenA, tokenB)
	assert.True(t, ok)
	assert.Equal(t, p1, got)
}

func TestAddLiquidityAndReserves(t *testing.T) {
	v, ta, tb := newVenueFixture(t)
	pairAddr, err := v.CreatePair(tokenA, tokenB)
	require.NoError(t, err)

	ta.Mint(provider, big.NewInt(1000))
	tb.Mint(provider, big.NewInt(500))

	require.NoError(t, v.AddLiquidity(provider, tokenA, tokenB, big.NewInt(1000), big.NewInt(500), 0))

	rA, rB, err := v.Reserves(tokenA, tokenB)
	require.NoError(t, err)
	assert.Equal(t, 0, rA.Cmp(big.NewInt(1000)))
	assert.Equal(t, 0, rB.Cmp(big.NewInt(500)))

	// 返回顺序跟随查询顺序
	rB2, rA2, err := v.Reserves(tokenB, tokenA)
	require.NoError(t, err)
	assert.Equal(t, 0, rA2.Cmp(rA))
	assert.Equal(t, 0, rB2.Cmp(rB))

	// 代币确已入池
	assert.Equal(t, 0, ta.BalanceOf(pairAddr).Cmp(big.NewInt(1000)))
	assert.Equal(t, 0, tb.BalanceOf(pairAddr).Cmp(big.NewInt(500)))
	assert.Equal(t, 0, ta.BalanceOf(provider).Sign())
}

func TestAddLiquidityGates(t *testing.T) {
	v, ta, _ := newVenueFixture(t)

	err := v.AddLiquidity(provider, tokenA, tokenB, big.NewInt(1), big.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrPairNotFound)

	_, err = v.CreatePair(tokenA, tokenB)
	require.NoError(t, err)

	err = v.AddLiquidity(provider, tokenA, tokenB, new(big.Int), big.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrInvalidAmounts)

	// 过期时间戳
	v.SetClock(func() int64 { return 1000 })
	err = v.AddLiquidity(provider, tokenA, tokenB, big.NewInt(1), big.NewInt(1), 999)
	assert.ErrorIs(t, err, ErrDeadlinePassed)

	// 资金不足时储备不变
	ta.Mint(provider, big.NewInt(1))
	err = v.AddLiquidity(provider, tokenA, tokenB, big.NewInt(1), big.NewInt(1), 0)
	require.ErrorIs(t, err, token.ErrInsufficientBalance)

	rA, rB, err := v.Reserves(tokenA, tokenB)
	require.NoError(t, err)
	assert.Equal(t, 0, rA.Sign())
	assert.Equal(t, 0, rB.Sign())
}

func TestAddLiquidityRefundsFirstLegOnFailure(t *testing.T) {
	v, ta, _ := newVenueFixture(t)
	pairAddr, err := v.CreatePair(tokenA, tokenB)
	require.NoError(t, err)

	// 只有一侧有余额，第二侧拉取必然失败
	ta.Mint(provider, big.NewInt(1000))
	err = v.AddLiquidity(provider, tokenA, tokenB, big.NewInt(1000), big.NewInt(500), 0)
	require.ErrorIs(t, err, token.ErrInsufficientBalance)

	// 已拉取的一侧原路退回，交易对不留资金
	assert.Equal(t, 0, ta.BalanceOf(provider).Cmp(big.NewInt(1000)))
	assert.Equal(t, 0, ta.BalanceOf(pairAddr).Sign())

	rA, rB, err := v.Reserves(tokenA, tokenB)
	require.NoError(t, err)
	assert.Equal(t, 0, rA.Sign())
	assert.Equal(t, 0, rB.Sign())
}

func TestQuoteOut(t *testing.T) {
	v, ta, tb := newVenueFixture(t)
	_, err := v.CreatePair(tokenA, tokenB)
	require.NoError(t, err)

	_, err = v.QuoteOut(tokenA, tokenB, big.NewInt(100))
	assert.ErrorIs(t, err, ErrEmptyReserves)

	ta.Mint(provider, big.NewInt(10_000))
	tb.Mint(provider, big.NewInt(5_000))
	require.NoError(t, v.AddLiquidity(provider, tokenA, tokenB, big.NewInt(10_000), big.NewInt(5_000), 0))

	// 恒定乘积: out = 5000*1000/(10000+1000)
	out, err := v.QuoteOut(tokenA, tokenB, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Cmp(big.NewInt(454)))

	// 反方向用各自储备
	out, err = v.QuoteOut(tokenB, tokenA, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Cmp(big.NewInt(1666)))
}

func TestQuoteOutUnknownPair(t *testing.T) {
	v, _, _ := newVenueFixture(t)
	_, err := v.QuoteOut(tokenA, tokenB, big.NewInt(1))
	assert.ErrorIs(t, err, ErrPairNotFound)
}
