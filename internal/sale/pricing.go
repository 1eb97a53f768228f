package sale

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// FeeScale 协议费率的定点比例基数（1e18）
var FeeScale = new(big.Int).SetUint64(params.Ether)

// currentPrice 计算当前单价
//
// 需求乘数 = (hardCap + totalSold) / hardCap，已售为0时为1，硬顶填满时趋近2；
// 基准价 = startPrice × 需求乘数；
// 折扣 = decayRate × 已过秒数（结束后钳制为全程时长）；
// 当前价 = max(基准价 − 折扣, floorPrice)。
// 全程乘后除，保证整数定点运算的确定性。
func currentPrice(totalSold, hardCap, startPrice, decayRate, floorPrice *big.Int, startTime, endTime, now int64) (*big.Int, error) {
	if hardCap == nil || hardCap.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero hard cap", ErrArithmetic)
	}

	// basePrice = startPrice * (hardCap + totalSold) / hardCap
	demand := new(big.Int).Add(hardCap, totalSold)
	base := new(big.Int).Mul(startPrice, demand)
	base.Div(base, hardCap)

	// 已过时间，结束后不再继续衰减
	clamped := now
	if clamped > endTime {
		clamped = endTime
	}
	elapsed := clamped - startTime
	if elapsed < 0 {
		elapsed = 0
	}

	discount := new(big.Int).Mul(decayRate, big.NewInt(elapsed))
	price := base.Sub(base, discount)
	if price.Cmp(floorPrice) < 0 {
		return new(big.Int).Set(floorPrice), nil
	}
	return price, nil
}

// protocolFee 计算协议费: payment × feeRate / 1e18
func protocolFee(payment, feeRate *big.Int) *big.Int {
	fee := new(big.Int).Mul(payment, feeRate)
	return fee.Div(fee, FeeScale)
}

// nativeToToken 结算币金额换算为代币份额: amount × 10^decimals / price
func nativeToToken(amount, price *big.Int, decimals uint8) (*big.Int, error) {
	if price == nil || price.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero price", ErrArithmetic)
	}
	units := new(big.Int).Mul(amount, pow10(decimals))
	return units.Div(units, price), nil
}

// tokensToNative 代币份额换算为结算币金额: units × price / 10^decimals
func tokensToNative(units, price *big.Int, decimals uint8) *big.Int {
	amount := new(big.Int).Mul(units, price)
	return amount.Div(amount, pow10(decimals))
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
