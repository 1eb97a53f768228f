package router

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xkmm/presale/internal/amm"
	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/handler"
	"github.com/0xkmm/presale/internal/token"
)

var (
	rFactoryAddr  = common.HexToAddress("0x0000000000000000000000000000000000000fac")
	rOwner        = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	rCreator      = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	rBuyer        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	rFeeRecipient = common.HexToAddress("0x0000000000000000000000000000000000000fee")
	rCurrencyAddr = common.HexToAddress("0x0000000000000000000000000000000000c0ffee")
)

// apiResponse 统一响应的测试侧结构
type apiResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Data    map[string]interface{} `json:"data"`
}

// newServiceFixture 拼装一个不依赖数据库的完整服务
func newServiceFixture(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	venue := amm.NewMemoryVenue()
	currency := token.NewMemoryToken("USDX", 18)
	venue.RegisterToken(rCurrencyAddr, currency)

	tpl := &factory.Template{
		Version:      "v1",
		Currency:     currency,
		CurrencyAddr: rCurrencyAddr,
		Venue:        venue,
		ChainID:      1337,
		GracePeriod:  7 * 86400,
		FeeRecipient: rFeeRecipient,
		MaxFeeRate:   big.NewInt(50_000_000_000_000_000),
	}
	f, err := factory.New(rFactoryAddr, rOwner, tpl, nil)
	require.NoError(t, err)

	return Setup(nil, f, handler.NewAssetHandler(f, venue, currency))
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body map[string]interface{}) (int, apiResponse) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

// 完整API链路：登记资产→授权工厂→建售→水龙头→授权实例→购买
func TestApproveGrantsAllowanceForCreateAndBuy(t *testing.T) {
	r := newServiceFixture(t)

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/assets", map[string]interface{}{
		"symbol":   "SALE",
		"decimals": 18,
		"owner":    rCreator.Hex(),
		"supply":   "5000000000000000000000",
	})
	require.Equal(t, http.StatusCreated, status)
	tokenAddr, _ := resp.Data["token_address"].(string)
	require.NotEmpty(t, tokenAddr)

	createReq := map[string]interface{}{
		"caller":        rCreator.Hex(),
		"name":          "Launch",
		"website":       "https://example.org",
		"cover":         "https://example.org/cover.png",
		"description":   "token sale",
		"token_address": tokenAddr,
		"min_buy":       "1",
		"max_buy":       "5000000000000000000000",
		"hard_cap":      "5000000000000000000000",
		"fee_rate":      "0",
		"start_price":   "1000000000000000",
		"decay_rate":    "0",
		"floor_price":   "1000000",
		"start_time":    time.Now().Unix() - 60,
		"duration":      int64(86400),
	}

	// 未授权时无法建售，且归类为调用方可修正的错误
	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/sales", createReq)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "token_ledger_rejected", resp.Code)

	// 创建者授权工厂拉取硬顶资产后建售成功
	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/assets/approve", map[string]interface{}{
		"token":   tokenAddr,
		"owner":   rCreator.Hex(),
		"spender": rFactoryAddr.Hex(),
		"amount":  "5000000000000000000000",
	})
	require.Equal(t, http.StatusOK, status)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/sales", createReq)
	require.Equal(t, http.StatusCreated, status)
	saleAddr, _ := resp.Data["sale_address"].(string)
	require.NotEmpty(t, saleAddr)

	// 买家领结算币并授权销售实例拉款
	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/assets/faucet", map[string]interface{}{
		"recipient": rBuyer.Hex(),
		"amount":    "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, status)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/sales/"+saleAddr+"/buy", map[string]interface{}{
		"caller":  rBuyer.Hex(),
		"payment": "1000000000000000000",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "token_ledger_rejected", resp.Code)

	status, _ = doJSON(t, r, http.MethodPost, "/api/v1/assets/approve", map[string]interface{}{
		"token":   rCurrencyAddr.Hex(),
		"owner":   rBuyer.Hex(),
		"spender": saleAddr,
		"amount":  "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, status)

	status, resp = doJSON(t, r, http.MethodPost, "/api/v1/sales/"+saleAddr+"/buy", map[string]interface{}{
		"caller":  rBuyer.Hex(),
		"payment": "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1000000000000000000000", resp.Data["units"])
}

func TestApproveUnknownToken(t *testing.T) {
	r := newServiceFixture(t)

	status, _ := doJSON(t, r, http.MethodPost, "/api/v1/assets/approve", map[string]interface{}{
		"token":   "0x00000000000000000000000000000000deadbeef",
		"owner":   rBuyer.Hex(),
		"spender": rFactoryAddr.Hex(),
		"amount":  "1",
	})
	assert.Equal(t, http.StatusNotFound, status)
}
