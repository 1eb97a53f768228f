package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x01")
	bob   = common.HexToAddress("0x02")
	carol = common.HexToAddress("0x03")
)

func TestTransfer(t *testing.T) {
	tok := NewMemoryToken("TST", 18)
	tok.Mint(alice, big.NewInt(100))

	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(40)))
	assert.Equal(t, 0, tok.BalanceOf(alice).Cmp(big.NewInt(60)))
	assert.Equal(t, 0, tok.BalanceOf(bob).Cmp(big.NewInt(40)))

	err := tok.Transfer(alice, bob, big.NewInt(61))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransferFrom(t *testing.T) {
	tok := NewMemoryToken("TST", 18)
	tok.Mint(alice, big.NewInt(100))

	// 未授权
	err := tok.TransferFrom(carol, alice, bob, big.NewInt(10))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, tok.IncreaseAllowance(alice, carol, big.NewInt(50)))
	require.NoError(t, tok.TransferFrom(carol, alice, bob, big.NewInt(30)))
	assert.Equal(t, 0, tok.BalanceOf(bob).Cmp(big.NewInt(30)))

	// 额度随支出递减
	err = tok.TransferFrom(carol, alice, bob, big.NewInt(21))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	require.NoError(t, tok.TransferFrom(carol, alice, bob, big.NewInt(20)))
}

func TestDecimalsFallback(t *testing.T) {
	tok := NewMemoryToken("TST", 6)
	assert.Equal(t, uint8(6), DecimalsOrDefault(tok))

	tok.FailDecimals(errors.New("decimals reverted"))
	assert.Equal(t, uint8(DefaultDecimals), DecimalsOrDefault(tok))
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	tok := NewMemoryToken("TST", 18)
	tok.Mint(alice, big.NewInt(100))

	b := tok.BalanceOf(alice)
	b.SetInt64(0)
	assert.Equal(t, 0, tok.BalanceOf(alice).Cmp(big.NewInt(100)))
}
