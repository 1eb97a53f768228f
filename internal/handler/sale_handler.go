package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/logic"
	"github.com/0xkmm/presale/internal/merkle"
	"github.com/0xkmm/presale/internal/sale"
)

// SaleHandler 单个销售实例的操作接口
type SaleHandler struct {
	factory         *factory.Factory
	saleLogic       *logic.SaleRecordLogic
	purchaseLogic   *logic.PurchaseRecordLogic
	settlementLogic *logic.SettlementLogic
	eventLogic      *logic.EventLogic
}

// NewSaleHandler 创建销售操作接口
func NewSaleHandler(f *factory.Factory, db *gorm.DB) *SaleHandler {
	return &SaleHandler{
		factory:         f,
		saleLogic:       logic.NewSaleRecordLogic(db),
		purchaseLogic:   logic.NewPurchaseRecordLogic(db),
		settlementLogic: logic.NewSettlementLogic(db),
		eventLogic:      logic.NewEventLogic(db),
	}
}

// instance 取路径参数里的实例，未注册返回404
func (h *SaleHandler) instance(c *gin.Context) (*sale.Instance, bool) {
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	inst, ok := h.factory.Get(id)
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "销售不存在")
		return nil, false
	}
	return inst, true
}

// GetSale 销售详情（引擎实时状态）
func (h *SaleHandler) GetSale(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	cfg := inst.Config()
	st := inst.State()
	price, err := inst.CurrentPrice()
	priceStr := ""
	if err == nil {
		priceStr = price.String()
	}

	SuccessResponse(c, http.StatusOK, "获取成功", gin.H{
		"sale_address":       inst.ID().Hex(),
		"token_address":      cfg.Token.Hex(),
		"owner":              cfg.Owner.Hex(),
		"meta":               cfg.Meta,
		"hard_cap":           cfg.HardCap.String(),
		"min_buy":            cfg.MinBuy.String(),
		"max_buy":            cfg.MaxBuy.String(),
		"start_price":        cfg.StartPrice.String(),
		"current_price":      priceStr,
		"fee_rate":           cfg.FeeRate.String(),
		"start_time":         cfg.StartTime,
		"end_time":           st.EndTime,
		"duration":           inst.Duration(),
		"total_sold":         st.TotalSold.String(),
		"accumulated_fees":   st.AccumulatedFees.String(),
		"terminated":         st.Terminated,
		"vesting_start_time": st.VestingStartTime,
		"vesting_duration":   st.VestingDuration,
	})
}

// BuyRequest 购买请求
type BuyRequest struct {
	Caller  string   `json:"caller" binding:"required"`
	Payment string   `json:"payment" binding:"required"`
	Proof   []string `json:"proof"`
}

// Buy 购买
func (h *SaleHandler) Buy(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	payment, err := parseAmount("payment", req.Payment)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	proof, err := parseProof(req.Proof)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	units, err := inst.Buy(caller, proof, payment)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "购买成功", gin.H{"units": units.String()})
}

// CallerRequest 只带调用者地址的请求
type CallerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// Claim 领取已解锁份额
func (h *SaleHandler) Claim(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	caller, ok2 := h.bindCaller(c)
	if !ok2 {
		return
	}

	units, err := inst.Claim(caller)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "领取成功", gin.H{"units": units.String()})
}

// WithdrawRefund 退款
func (h *SaleHandler) WithdrawRefund(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	caller, ok2 := h.bindCaller(c)
	if !ok2 {
		return
	}

	amount, err := inst.WithdrawRefund(caller)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{"amount": amount.String()})
}

// Terminate 中止销售
func (h *SaleHandler) Terminate(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	caller, ok2 := h.bindCaller(c)
	if !ok2 {
		return
	}

	if err := inst.Terminate(caller); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "销售已中止", nil)
}

// FinalizeRequest 交割请求
type FinalizeRequest struct {
	Caller          string `json:"caller" binding:"required"`
	VestingDuration int64  `json:"vesting_duration" binding:"required"`
	Deadline        int64  `json:"deadline"`
}

// Finalize 交割流动性并启动vesting
func (h *SaleHandler) Finalize(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	pool, err := inst.Finalize(caller, req.VestingDuration, req.Deadline)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "交割成功", gin.H{"pool_address": pool.Hex()})
}

// SetPriceRequest 调价请求
type SetPriceRequest struct {
	Caller string `json:"caller" binding:"required"`
	Price  string `json:"price" binding:"required"`
}

// SetPrice 开售前调价
func (h *SaleHandler) SetPrice(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	price, err := parseAmount("price", req.Price)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := inst.SetPrice(caller, price); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "价格已更新", nil)
}

// SetWhitelistRequest 更新白名单根请求
type SetWhitelistRequest struct {
	Caller string `json:"caller" binding:"required"`
	Root   string `json:"root" binding:"required"`
}

// SetWhitelistRoot 更新白名单根
func (h *SaleHandler) SetWhitelistRoot(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req SetWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := inst.SetWhitelistRoot(caller, common.HexToHash(req.Root)); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "白名单已更新", nil)
}

// IncreaseHardCapRequest 提升硬顶请求
type IncreaseHardCapRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// IncreaseHardCap 提升硬顶
func (h *SaleHandler) IncreaseHardCap(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req IncreaseHardCapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := inst.IncreaseHardCap(caller, amount); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "硬顶已提升", nil)
}

// PullFees 提取协议费
func (h *SaleHandler) PullFees(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	caller, ok2 := h.bindCaller(c)
	if !ok2 {
		return
	}

	fees, err := inst.PullFees(caller)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "协议费已提取", gin.H{"amount": fees.String()})
}

// SetMetadataRequest 更新展示信息请求
type SetMetadataRequest struct {
	Caller      string `json:"caller" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Website     string `json:"website" binding:"required"`
	Cover       string `json:"cover" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// SetMetadata 更新展示信息
func (h *SaleHandler) SetMetadata(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req SetMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	meta := sale.Metadata{
		Name:        req.Name,
		Website:     req.Website,
		Cover:       req.Cover,
		Description: req.Description,
	}
	if err := inst.SetMetadata(caller, meta); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "展示信息已更新", nil)
}

// Claimable 查询可领取份额
func (h *SaleHandler) Claimable(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	claimable, err := inst.Claimable(addr)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	user := inst.User(addr)
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"claimable": claimable.String(),
		"purchased": user.Purchased.String(),
		"invested":  user.Invested.String(),
		"claimed":   user.Claimed.String(),
	})
}

// Quote 金额换算
// direction=native_to_token 或 token_to_native
func (h *SaleHandler) Quote(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	amount, err := parseAmount("amount", c.Query("amount"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	switch c.Query("direction") {
	case "native_to_token":
		units, err := inst.NativeToToken(amount)
		if err != nil {
			EngineErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "查询成功", gin.H{"units": units.String()})
	case "token_to_native":
		native, err := inst.TokensToNative(amount)
		if err != nil {
			EngineErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "查询成功", gin.H{"amount": native.String()})
	default:
		ErrorResponse(c, http.StatusBadRequest, "direction必须是native_to_token或token_to_native")
	}
}

// Stats 销售的记录侧统计
func (h *SaleHandler) Stats(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}
	id := inst.ID().Hex()

	purchases, err := h.purchaseLogic.GetPurchasesBySale(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	claims, err := h.settlementLogic.GetClaimsBySale(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	refunds, err := h.settlementLogic.GetRefundsBySale(id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	st := inst.State()
	data := gin.H{
		"sale_address":     id,
		"purchase_count":   len(purchases),
		"claim_count":      len(claims),
		"refund_count":     len(refunds),
		"total_sold":       st.TotalSold.String(),
		"accumulated_fees": st.AccumulatedFees.String(),
		"terminated":       st.Terminated,
	}
	if record, err := h.saleLogic.GetSaleRecord(id); err == nil {
		data["status"] = record.Status
	}
	SuccessResponse(c, http.StatusOK, "查询成功", data)
}

// WhitelistProofsRequest 白名单构树请求
type WhitelistProofsRequest struct {
	Addresses []string `json:"addresses" binding:"required"`
}

// BuildWhitelistProofs 为一组地址建白名单树，返回根与每个地址的成员证明
// 叶子绑定当前实例，返回的根可直接交给SetWhitelistRoot
func (h *SaleHandler) BuildWhitelistProofs(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req WhitelistProofsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Addresses) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "地址列表不能为空")
		return
	}

	chainID := h.factory.Template().ChainID
	members := make([]common.Address, 0, len(req.Addresses))
	leaves := make([]common.Hash, 0, len(req.Addresses))
	for _, a := range req.Addresses {
		addr, err := parseAddress("addresses", a)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		members = append(members, addr)
		leaves = append(leaves, sale.Leaf(addr, chainID, inst.ID()))
	}

	tree := merkle.NewTree(leaves)
	proofs := make(map[string][]string, len(members))
	for _, m := range members {
		nodes := tree.Proof(sale.Leaf(m, chainID, inst.ID()))
		hexNodes := make([]string, 0, len(nodes))
		for _, n := range nodes {
			hexNodes = append(hexNodes, n.Hex())
		}
		proofs[m.Hex()] = hexNodes
	}

	SuccessResponse(c, http.StatusOK, "构建成功", gin.H{
		"root":   tree.Root().Hex(),
		"proofs": proofs,
	})
}

// GetPurchases 销售的购买记录
func (h *SaleHandler) GetPurchases(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	records, err := h.purchaseLogic.GetPurchasesBySale(inst.ID().Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "获取成功", records)
}

// GetEvents 销售的事件流水
func (h *SaleHandler) GetEvents(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	events, err := h.eventLogic.GetEventsBySale(inst.ID().Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "获取成功", events)
}

// bindCaller 绑定只含caller的请求体
func (h *SaleHandler) bindCaller(c *gin.Context) (common.Address, bool) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return common.Address{}, false
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return common.Address{}, false
	}
	return caller, true
}
