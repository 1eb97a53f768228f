package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"github.com/0xkmm/presale/internal/amm"
	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/token"
)

// AssetHandler 资产登记接口
// 为引擎内置账本创建可销售资产，并给结算币提供水龙头
type AssetHandler struct {
	factory  *factory.Factory
	venue    *amm.MemoryVenue
	currency *token.MemoryToken
}

// NewAssetHandler 创建资产登记接口
func NewAssetHandler(f *factory.Factory, venue *amm.MemoryVenue, currency *token.MemoryToken) *AssetHandler {
	return &AssetHandler{
		factory:  f,
		venue:    venue,
		currency: currency,
	}
}

// RegisterAssetRequest 登记资产请求
type RegisterAssetRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Decimals uint8  `json:"decimals" binding:"required"`
	Owner    string `json:"owner" binding:"required"`
	Supply   string `json:"supply" binding:"required"`
}

// RegisterAsset 创建并登记一种可销售资产，初始供给铸给owner
func (h *AssetHandler) RegisterAsset(c *gin.Context) {
	var req RegisterAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	supply, err := parseAmount("supply", req.Supply)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	asset := token.NewMemoryToken(req.Symbol, req.Decimals)
	asset.Mint(owner, supply)

	addr := common.BytesToAddress(crypto.Keccak256([]byte("presale/asset/" + req.Symbol))[12:])
	h.factory.RegisterAsset(addr, asset)
	h.venue.RegisterToken(addr, asset)

	SuccessResponse(c, http.StatusCreated, "资产已登记", gin.H{
		"token_address": addr.Hex(),
		"symbol":        req.Symbol,
	})
}

// ApproveRequest 授权请求
type ApproveRequest struct {
	Token   string `json:"token" binding:"required"`
	Owner   string `json:"owner" binding:"required"`
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// Approve 提升owner对spender的授权额度
// 创建销售前需授权工厂拉取硬顶资产，购买前需授权销售实例拉取付款
func (h *AssetHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tokenAddr, err := parseAddress("token", req.Token)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	spender, err := parseAddress("spender", req.Spender)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ledger, ok := h.resolveToken(tokenAddr)
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "未知代币: "+tokenAddr.Hex())
		return
	}
	if err := ledger.IncreaseAllowance(owner, spender, amount); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "已授权", gin.H{
		"token_address": tokenAddr.Hex(),
		"owner":         owner.Hex(),
		"spender":       spender.Hex(),
	})
}

// resolveToken 按地址解析账本：结算币或已登记的可销售资产
func (h *AssetHandler) resolveToken(addr common.Address) (token.Token, bool) {
	if addr == h.factory.Template().CurrencyAddr {
		return h.currency, true
	}
	return h.factory.Asset(addr)
}

// FaucetRequest 结算币水龙头请求
type FaucetRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// Faucet 给地址铸结算币（开发环境用）
func (h *AssetHandler) Faucet(c *gin.Context) {
	var req FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.currency.Mint(recipient, amount)
	SuccessResponse(c, http.StatusOK, "已发放", nil)
}
