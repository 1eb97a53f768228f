package factory

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xkmm/presale/internal/amm"
	"github.com/0xkmm/presale/internal/sale"
	"github.com/0xkmm/presale/internal/token"
)

// Template 销售实例模板：新实例共用的协作方与默认参数
// 换模板只影响之后创建的实例，已创建实例保持创建时的快照
type Template struct {
	Version      string         // 模板版本标识
	Currency     token.Token    // 结算币账本
	CurrencyAddr common.Address // 结算币地址
	Venue        amm.Venue      // 流动性协议
	ChainID      int64          // 白名单叶子绑定的链ID
	GracePeriod  int64          // 结束后的宽限期（秒）
	FeeRecipient common.Address // 协议费默认接收人
	MaxFeeRate   *big.Int       // 协议费率上限（1e18定点）
}

// validateTemplate 模板必须携带完整协作方
func validateTemplate(tpl *Template) error {
	if tpl == nil {
		return fmt.Errorf("%w: nil template", sale.ErrValidation)
	}
	if tpl.Currency == nil || tpl.Venue == nil {
		return fmt.Errorf("%w: template missing collaborators", sale.ErrValidation)
	}
	if tpl.CurrencyAddr == (common.Address{}) {
		return fmt.Errorf("%w: template missing currency address", sale.ErrValidation)
	}
	if tpl.MaxFeeRate == nil || tpl.MaxFeeRate.Sign() < 0 {
		return fmt.Errorf("%w: template missing max fee rate", sale.ErrValidation)
	}
	return nil
}

// collaborators 模板固化成实例协作方，调用方无法替换
func (t *Template) collaborators(asset token.Token) sale.Collaborators {
	return sale.Collaborators{
		SaleToken:    asset,
		Currency:     t.Currency,
		CurrencyAddr: t.CurrencyAddr,
		Venue:        t.Venue,
		ChainID:      t.ChainID,
		GracePeriod:  t.GracePeriod,
	}
}
