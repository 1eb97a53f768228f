package sale

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = int64(86400)

func TestVestedAmountLinear(t *testing.T) {
	purchased := big.NewInt(100)
	claimed := new(big.Int)
	start := int64(1_700_000_000)
	duration := 30 * day

	// 半程解锁一半
	half, err := vestedAmount(purchased, claimed, start, duration, start+15*day)
	require.NoError(t, err)
	assert.Equal(t, 0, half.Cmp(big.NewInt(50)))

	// 超过全程后封顶在购入量
	full, err := vestedAmount(purchased, claimed, start, duration, start+31*day)
	require.NoError(t, err)
	assert.Equal(t, 0, full.Cmp(purchased))
}

func TestVestedAmountBeforeStart(t *testing.T) {
	start := int64(1_700_000_000)

	// 时钟早于vesting起点视为零秒已过
	v, err := vestedAmount(big.NewInt(100), new(big.Int), start, 30*day, start-1)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())
}

func TestVestedAmountNotStarted(t *testing.T) {
	v, err := vestedAmount(big.NewInt(100), new(big.Int), 0, 30*day, 1_700_000_000)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())
}

func TestVestedAmountZeroDuration(t *testing.T) {
	_, err := vestedAmount(big.NewInt(100), new(big.Int), 1_700_000_000, 0, 1_700_000_001)
	assert.ErrorIs(t, err, ErrArithmetic)
}

func TestVestedAmountDeductsClaimed(t *testing.T) {
	start := int64(1_700_000_000)

	// 已领30，剩余70按比例解锁
	v, err := vestedAmount(big.NewInt(100), big.NewInt(30), start, 30*day, start+15*day)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(big.NewInt(35)))
}
