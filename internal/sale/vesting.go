package sale

import (
	"fmt"
	"math/big"
)

// vestedAmount 计算线性解锁中当前可领取的份额
//
// elapsed = min(now − vestingStart, vestingDuration)
// claimable = (purchased − claimed) × elapsed / vestingDuration
// vesting未开始时返回0，调用方需自行判断是否已开始
func vestedAmount(purchased, claimed *big.Int, vestingStart, vestingDuration, now int64) (*big.Int, error) {
	if vestingStart == 0 {
		return new(big.Int), nil
	}
	if vestingDuration == 0 {
		return nil, fmt.Errorf("%w: zero vesting duration", ErrArithmetic)
	}

	elapsed := now - vestingStart
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > vestingDuration {
		elapsed = vestingDuration
	}

	unclaimed := new(big.Int).Sub(purchased, claimed)
	claimable := unclaimed.Mul(unclaimed, big.NewInt(elapsed))
	return claimable.Div(claimable, big.NewInt(vestingDuration)), nil
}
