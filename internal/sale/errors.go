package sale

import (
	"errors"
	"fmt"
)

// 错误分类，每类一个哨兵错误，所有失败都包装到其中一类上
// 前置检查一律发生在任何状态变更之前，失败即整个操作无效
var (
	ErrAccessDenied      = errors.New("access denied")           // 非所有者调用所有者操作
	ErrTimingViolation   = errors.New("timing violation")        // 阶段不符
	ErrWhitelistRejected = errors.New("whitelist rejected")      // 白名单证明校验失败
	ErrValidation        = errors.New("validation error")        // 参数非法
	ErrCapacityExceeded  = errors.New("capacity exceeded")       // 超出硬顶
	ErrStateConflict     = errors.New("state conflict")          // 状态冲突（重复操作等）
	ErrExternalSanity    = errors.New("external sanity failure") // 上架后价格检查失败
	ErrArithmetic        = errors.New("arithmetic failure")      // 除零等算术错误
)

// 常见阶段错误
var (
	ErrNotStarted     = fmt.Errorf("%w: sale not started", ErrTimingViolation)
	ErrAlreadyStarted = fmt.Errorf("%w: sale already started", ErrTimingViolation)
	ErrNotEnded       = fmt.Errorf("%w: sale not ended", ErrTimingViolation)
	ErrAlreadyEnded   = fmt.Errorf("%w: sale already ended", ErrTimingViolation)
)

// Category 返回错误所属分类名，供接口层映射HTTP状态码
func Category(err error) string {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrTimingViolation):
		return "timing_violation"
	case errors.Is(err, ErrWhitelistRejected):
		return "whitelist_rejected"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrExternalSanity):
		return "external_sanity_failure"
	case errors.Is(err, ErrArithmetic):
		return "arithmetic_failure"
	default:
		return "internal_error"
	}
}
