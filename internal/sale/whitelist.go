package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xkmm/presale/internal/merkle"
)

// WhitelistConfig 白名单配置
type WhitelistConfig struct {
	Root       common.Hash // 承诺的Merkle根，零值表示不设白名单
	UpdatedAt  int64       // 根最近一次更新的时间标记
	MinBalance *big.Int    // 最低持仓门槛，随配置保存，校验流程当前不读取
}

// Leaf 计算白名单叶子: keccak256(buyer ‖ chainID ‖ saleID)
// 叶子绑定链与销售实例，同一地址的证明无法跨实例重放
func Leaf(buyer common.Address, chainID int64, saleID common.Address) common.Hash {
	chain := common.LeftPadBytes(big.NewInt(chainID).Bytes(), 32)
	return crypto.Keccak256Hash(buyer.Bytes(), chain, saleID.Bytes())
}

// verifyWhitelist 校验买家成员证明
// 根为零值时视为公开销售，任何买家直接放行
func verifyWhitelist(wl WhitelistConfig, buyer common.Address, chainID int64, saleID common.Address, proof []common.Hash) bool {
	if wl.Root == (common.Hash{}) {
		return true
	}
	return merkle.Verify(wl.Root, Leaf(buyer, chainID, saleID), proof)
}
