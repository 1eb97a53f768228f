package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xkmm/presale/internal/sale"
	"github.com/0xkmm/presale/internal/token"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// EngineErrorResponse 引擎错误响应，按错误分类映射HTTP状态码
// 余额或授权不足是调用方可自行修正的前置条件，归为400而非服务端错误
func EngineErrorResponse(c *gin.Context, err error) {
	if errors.Is(err, token.ErrInsufficientAllowance) || errors.Is(err, token.ErrInsufficientBalance) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: err.Error(),
			Code:    "token_ledger_rejected",
		})
		return
	}

	category := sale.Category(err)

	status := http.StatusInternalServerError
	switch category {
	case "access_denied", "whitelist_rejected":
		status = http.StatusForbidden
	case "validation_error", "arithmetic_failure":
		status = http.StatusBadRequest
	case "timing_violation", "state_conflict", "capacity_exceeded":
		status = http.StatusConflict
	case "external_sanity_failure":
		status = http.StatusBadGateway
	}

	c.JSON(status, Response{
		Success: false,
		Message: err.Error(),
		Code:    category,
	})
}
