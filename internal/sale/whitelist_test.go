package sale

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/0xkmm/presale/internal/merkle"
)

func TestLeafBindsChainAndSale(t *testing.T) {
	buyer := common.HexToAddress("0x0b0b")
	saleA := common.HexToAddress("0x5a1e")
	saleB := common.HexToAddress("0x5a1f")

	base := Leaf(buyer, 1337, saleA)
	assert.Equal(t, base, Leaf(buyer, 1337, saleA))

	// 换链或换实例都得到不同叶子，证明无法跨域重放
	assert.NotEqual(t, base, Leaf(buyer, 1, saleA))
	assert.NotEqual(t, base, Leaf(buyer, 1337, saleB))
}

func TestVerifyWhitelistZeroRootIsOpen(t *testing.T) {
	buyer := common.HexToAddress("0x0b0b")
	saleID := common.HexToAddress("0x5a1e")

	open := WhitelistConfig{}
	assert.True(t, verifyWhitelist(open, buyer, 1337, saleID, nil))
}

func TestVerifyWhitelistAgainstTree(t *testing.T) {
	saleID := common.HexToAddress("0x5a1e")
	members := []common.Address{
		common.HexToAddress("0x11"),
		common.HexToAddress("0x22"),
		common.HexToAddress("0x33"),
	}

	leaves := make([]common.Hash, 0, len(members))
	for _, m := range members {
		leaves = append(leaves, Leaf(m, 1337, saleID))
	}
	tree := merkle.NewTree(leaves)
	wl := WhitelistConfig{Root: tree.Root()}

	for _, m := range members {
		proof := tree.Proof(Leaf(m, 1337, saleID))
		assert.True(t, verifyWhitelist(wl, m, 1337, saleID, proof))
	}

	outsider := common.HexToAddress("0x44")
	proof := tree.Proof(Leaf(members[0], 1337, saleID))
	assert.False(t, verifyWhitelist(wl, outsider, 1337, saleID, proof))
	assert.False(t, verifyWhitelist(wl, outsider, 1337, saleID, nil))
}
