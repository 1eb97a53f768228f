package handler

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/logic"
	"github.com/0xkmm/presale/internal/sale"
)

// FactoryHandler 工厂接口
type FactoryHandler struct {
	factory   *factory.Factory
	saleLogic *logic.SaleRecordLogic
}

// NewFactoryHandler 创建工厂接口
func NewFactoryHandler(f *factory.Factory, db *gorm.DB) *FactoryHandler {
	return &FactoryHandler{
		factory:   f,
		saleLogic: logic.NewSaleRecordLogic(db),
	}
}

// CreateSaleRequest 创建销售请求
type CreateSaleRequest struct {
	Caller              string `json:"caller" binding:"required"`
	Name                string `json:"name" binding:"required"`
	Website             string `json:"website" binding:"required"`
	Cover               string `json:"cover" binding:"required"`
	Description         string `json:"description" binding:"required"`
	TokenAddress        string `json:"token_address" binding:"required"`
	WhitelistRoot       string `json:"whitelist_root"`
	WhitelistMinBalance string `json:"whitelist_min_balance"`
	MinBuy              string `json:"min_buy" binding:"required"`
	MaxBuy              string `json:"max_buy" binding:"required"`
	HardCap             string `json:"hard_cap" binding:"required"`
	FeeRate             string `json:"fee_rate" binding:"required"`
	FeeRecipient        string `json:"fee_recipient"`
	StartPrice          string `json:"start_price" binding:"required"`
	DecayRate           string `json:"decay_rate" binding:"required"`
	FloorPrice          string `json:"floor_price" binding:"required"`
	StartTime           int64  `json:"start_time" binding:"required"`
	Duration            int64  `json:"duration" binding:"required"`
}

// CreateSale 创建销售实例
func (h *FactoryHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	tokenAddr, err := parseAddress("token_address", req.TokenAddress)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	params := factory.CreateSaleParams{
		Meta: sale.Metadata{
			Name:        req.Name,
			Website:     req.Website,
			Cover:       req.Cover,
			Description: req.Description,
		},
		TokenAddr: tokenAddr,
		StartTime: req.StartTime,
		Duration:  req.Duration,
	}

	if params.MinBuy, err = parseAmount("min_buy", req.MinBuy); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if params.MaxBuy, err = parseAmount("max_buy", req.MaxBuy); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if params.HardCap, err = parseAmount("hard_cap", req.HardCap); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if params.FeeRate, err = parseAmount("fee_rate", req.FeeRate); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if params.StartPrice, err = parseAmount("start_price", req.StartPrice); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if params.DecayRate, err = parseAmount("decay_rate", req.DecayRate); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if params.FloorPrice, err = parseAmount("floor_price", req.FloorPrice); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.WhitelistMinBalance != "" {
		if params.WhitelistMinBalance, err = parseAmount("whitelist_min_balance", req.WhitelistMinBalance); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.WhitelistRoot != "" {
		params.WhitelistRoot = common.HexToHash(req.WhitelistRoot)
	}
	if req.FeeRecipient != "" {
		if params.FeeRecipient, err = parseAddress("fee_recipient", req.FeeRecipient); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	id, err := h.factory.CreateSale(caller, params)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "销售创建成功", gin.H{"sale_address": id.Hex()})
}

// GetSales 获取销售列表
func (h *FactoryHandler) GetSales(c *gin.Context) {
	records, err := h.saleLogic.GetSaleRecords()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "获取成功", records)
}

// IsRegistered 注册表存在性查询
func (h *FactoryHandler) IsRegistered(c *gin.Context) {
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"sale_address": id.Hex(),
		"registered":   h.factory.IsRegistered(id),
	})
}

// Count 注册实例总数
func (h *FactoryHandler) Count(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{"count": h.factory.Count()})
}

// EntryAt 注册表按序号枚举
func (h *FactoryHandler) EntryAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "序号必须是整数")
		return
	}

	id, err := h.factory.EntryAt(index)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{"sale_address": id.Hex()})
}

// ChangeTemplateRequest 换模板请求
type ChangeTemplateRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Version string `json:"version" binding:"required"`
}

// ChangeTemplate 替换销售模板
// 协作方沿用当前模板，仅允许通过API调整版本标识与默认参数
func (h *FactoryHandler) ChangeTemplate(c *gin.Context) {
	var req ChangeTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	current := h.factory.Template()
	next := *current
	next.Version = req.Version

	if err := h.factory.ChangeTemplate(caller, &next); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "模板已更新", gin.H{"version": req.Version})
}
