package handler

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// parseAmount 解析十进制金额字符串
func parseAmount(field, value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%s不能为空", field)
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%s不是合法的十进制金额: %s", field, value)
	}
	return amount, nil
}

// parseAddress 解析十六进制地址
func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s不是合法的地址: %s", field, value)
	}
	return common.HexToAddress(value), nil
}

// parseProof 解析Merkle证明
func parseProof(values []string) ([]common.Hash, error) {
	proof := make([]common.Hash, 0, len(values))
	for _, v := range values {
		b := common.FromHex(v)
		if len(b) != common.HashLength {
			return nil, fmt.Errorf("证明节点不是32字节哈希: %s", v)
		}
		proof = append(proof, common.BytesToHash(b))
	}
	return proof, nil
}
