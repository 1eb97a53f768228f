package merkle

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Verify 校验叶子是否在以root为根的Merkle树中
// 采用sorted-pair约定：兄弟节点按字节序排序后再哈希，
// 与链上常用的OpenZeppelin MerkleProof实现保持一致
func Verify(root common.Hash, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// hashPair 对一对节点排序后做keccak256
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Tree 内存Merkle树，用于生成白名单根和成员证明
type Tree struct {
	leaves []common.Hash
	levels [][]common.Hash
}

// NewTree 从叶子集合构建树，叶子去重并排序保证根的确定性
func NewTree(leaves []common.Hash) *Tree {
	dedup := make(map[common.Hash]struct{}, len(leaves))
	sorted := make([]common.Hash, 0, len(leaves))
	for _, l := range leaves {
		if _, ok := dedup[l]; ok {
			continue
		}
		dedup[l] = struct{}{}
		sorted = append(sorted, l)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	t := &Tree{leaves: sorted}
	t.build()
	return t
}

func (t *Tree) build() {
	if len(t.leaves) == 0 {
		return
	}

	level := make([]common.Hash, len(t.leaves))
	copy(level, t.leaves)
	t.levels = [][]common.Hash{level}

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// 奇数节点直接晋级
				next = append(next, level[i])
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}
}

// Root 返回树根，空树返回零哈希
func (t *Tree) Root() common.Hash {
	if len(t.levels) == 0 {
		return common.Hash{}
	}
	return t.levels[len(t.levels)-1][0]
}

// Proof 返回指定叶子的成员证明，叶子不存在时返回nil
func (t *Tree) Proof(leaf common.Hash) []common.Hash {
	if len(t.levels) == 0 {
		return nil
	}

	index := -1
	for i, l := range t.leaves {
		if l == leaf {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	proof := make([]common.Hash, 0, len(t.levels))
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof
}
