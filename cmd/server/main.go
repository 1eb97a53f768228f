package main

import (
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"github.com/0xkmm/presale/internal/amm"
	"github.com/0xkmm/presale/internal/config"
	"github.com/0xkmm/presale/internal/database"
	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/handler"
	"github.com/0xkmm/presale/internal/logger"
	"github.com/0xkmm/presale/internal/notify"
	"github.com/0xkmm/presale/internal/router"
	"github.com/0xkmm/presale/internal/task"
	"github.com/0xkmm/presale/internal/token"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(logger.Options{
		Level:  cfg.Log.Level,
		Output: cfg.Log.Output,
		File:   cfg.Log.File,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化通知分发
	dispatcher, err := notify.NewDispatcher(db, 8)
	if err != nil {
		logger.Fatal("Failed to initialize dispatcher: %v", err)
	}
	dispatcher.Start()
	defer dispatcher.Stop()

	// 初始化销售工厂
	f, venue, currency, err := buildFactory(cfg, dispatcher)
	if err != nil {
		logger.Fatal("Failed to initialize factory: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, f, handler.NewAssetHandler(f, venue, currency))

	// 启动定时任务
	manager := task.Start(db, f, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// buildFactory 按配置装配结算币、流动性协议和销售模板
func buildFactory(cfg *config.Config, dispatcher *notify.Dispatcher) (*factory.Factory, *amm.MemoryVenue, *token.MemoryToken, error) {
	currency := token.NewMemoryToken("USDX", cfg.Engine.SettlementDecimals)
	currencyAddr := common.BytesToAddress(crypto.Keccak256([]byte("presale/settlement-currency"))[12:])

	venue := amm.NewMemoryVenue()
	venue.RegisterToken(currencyAddr, currency)

	maxFeeRate, ok := new(big.Int).SetString(cfg.Engine.MaxFeeRate, 10)
	if !ok {
		logger.Fatal("Invalid engine.max_fee_rate: %s", cfg.Engine.MaxFeeRate)
	}

	tpl := &factory.Template{
		Version:      "v1",
		Currency:     currency,
		CurrencyAddr: currencyAddr,
		Venue:        venue,
		ChainID:      cfg.Engine.ChainID,
		GracePeriod:  cfg.Engine.GracePeriod,
		FeeRecipient: common.HexToAddress(cfg.Engine.FeeRecipient),
		MaxFeeRate:   maxFeeRate,
	}

	factoryAddr := common.BytesToAddress(crypto.Keccak256([]byte("presale/factory"))[12:])
	owner := common.HexToAddress(cfg.Engine.Owner)

	f, err := factory.New(factoryAddr, owner, tpl, dispatcher)
	if err != nil {
		return nil, nil, nil, err
	}
	return f, venue, currency, nil
}
