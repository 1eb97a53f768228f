package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/0xkmm/presale/internal/factory"
	"github.com/0xkmm/presale/internal/handler"
)

func Setup(db *gorm.DB, f *factory.Factory, assetHandler *handler.AssetHandler) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "presale-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		factoryHandler := handler.NewFactoryHandler(f, db)
		saleHandler := handler.NewSaleHandler(f, db)

		// 资产登记与水龙头
		assets := v1.Group("/assets")
		{
			assets.POST("", assetHandler.RegisterAsset)
			assets.POST("/approve", assetHandler.Approve)
			assets.POST("/faucet", assetHandler.Faucet)
		}

		// 工厂与注册表
		fct := v1.Group("/factory")
		{
			fct.PUT("/template", factoryHandler.ChangeTemplate)
			fct.GET("/count", factoryHandler.Count)
			fct.GET("/entries/:index", factoryHandler.EntryAt)
			fct.GET("/sales/:id/registered", factoryHandler.IsRegistered)
		}

		// 销售实例
		sales := v1.Group("/sales")
		{
			sales.POST("", factoryHandler.CreateSale)
			sales.GET("", factoryHandler.GetSales)
			sales.GET("/:id", saleHandler.GetSale)
			sales.GET("/:id/stats", saleHandler.Stats)
			sales.POST("/:id/buy", saleHandler.Buy)
			sales.POST("/:id/claim", saleHandler.Claim)
			sales.POST("/:id/refund", saleHandler.WithdrawRefund)
			sales.POST("/:id/terminate", saleHandler.Terminate)
			sales.POST("/:id/finalize", saleHandler.Finalize)
			sales.PUT("/:id/price", saleHandler.SetPrice)
			sales.PUT("/:id/whitelist", saleHandler.SetWhitelistRoot)
			sales.POST("/:id/whitelist/proofs", saleHandler.BuildWhitelistProofs)
			sales.PUT("/:id/hardcap", saleHandler.IncreaseHardCap)
			sales.PUT("/:id/metadata", saleHandler.SetMetadata)
			sales.POST("/:id/fees/pull", saleHandler.PullFees)
			sales.GET("/:id/claimable/:address", saleHandler.Claimable)
			sales.GET("/:id/quote", saleHandler.Quote)
			sales.GET("/:id/purchases", saleHandler.GetPurchases)
			sales.GET("/:id/events", saleHandler.GetEvents)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
