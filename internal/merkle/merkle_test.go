package merkle

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafOf(s string) common.Hash {
	return crypto.Keccak256Hash([]byte(s))
}

func TestEmptyTree(t *testing.T) {
	tree := NewTree(nil)
	assert.Equal(t, common.Hash{}, tree.Root())
	assert.Nil(t, tree.Proof(leafOf("absent")))
}

func TestSingleLeaf(t *testing.T) {
	leaf := leafOf("only")
	tree := NewTree([]common.Hash{leaf})

	// 单叶树的根就是叶子本身，证明为空
	assert.Equal(t, leaf, tree.Root())
	proof := tree.Proof(leaf)
	assert.Empty(t, proof)
	assert.True(t, Verify(tree.Root(), leaf, proof))
}

func TestProofVerifies(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 17} {
		t.Run(fmt.Sprintf("leaves=%d", n), func(t *testing.T) {
			leaves := make([]common.Hash, 0, n)
			for i := 0; i < n; i++ {
				leaves = append(leaves, leafOf(fmt.Sprintf("member-%d", i)))
			}
			tree := NewTree(leaves)
			root := tree.Root()

			for _, leaf := range leaves {
				proof := tree.Proof(leaf)
				require.NotNil(t, proof)
				assert.True(t, Verify(root, leaf, proof), "leaf %s", leaf.Hex())
			}
		})
	}
}

func TestNonMemberFails(t *testing.T) {
	leaves := []common.Hash{leafOf("a"), leafOf("b"), leafOf("c"), leafOf("d")}
	tree := NewTree(leaves)

	outsider := leafOf("outsider")
	assert.Nil(t, tree.Proof(outsider))

	// 借用他人的证明也无法让局外叶子通过
	proof := tree.Proof(leaves[0])
	assert.False(t, Verify(tree.Root(), outsider, proof))
}

func TestWrongRootFails(t *testing.T) {
	leaves := []common.Hash{leafOf("a"), leafOf("b"), leafOf("c")}
	tree := NewTree(leaves)
	proof := tree.Proof(leaves[1])

	assert.True(t, Verify(tree.Root(), leaves[1], proof))
	assert.False(t, Verify(leafOf("another root"), leaves[1], proof))
}

func TestDuplicateLeavesDeduped(t *testing.T) {
	a, b := leafOf("a"), leafOf("b")
	tree1 := NewTree([]common.Hash{a, b, a, b, a})
	tree2 := NewTree([]common.Hash{b, a})

	// 去重排序后，根与叶子顺序无关
	assert.Equal(t, tree2.Root(), tree1.Root())
}

func TestPairOrderInsensitive(t *testing.T) {
	a, b := leafOf("left"), leafOf("right")
	assert.Equal(t, hashPair(a, b), hashPair(b, a))
}
