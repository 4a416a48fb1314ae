package routers

import (
	"SmartRestaurant/analytics"
	"SmartRestaurant/config"
	"SmartRestaurant/events"
	"SmartRestaurant/handlers"
	"SmartRestaurant/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config    config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher events.Publisher
	Analytics *analytics.Service
	Logger    *zap.Logger
}

func SetupRouters(deps Dependencies) (*gin.Engine, error) {
	db, rdb, publisher, svc := deps.DB, deps.Redis, deps.Publisher, deps.Analytics
	uploadConfig := deps.Config.Upload
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	//建立Gin路由器
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(deps.Config.Server.CORSOrigins),
	)
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	//設定菜色圖片靜態資源路徑
	router.Static("/uploads", uploadConfig.Dir)

	router.GET("/", func(context *gin.Context) {
		context.JSON(http.StatusOK, gin.H{
			"message": deps.Config.Server.AppName,
			"status":  "running",
		})
	})

	api := router.Group("/api")

	menu := api.Group("/menu")
	{
		//查詢菜單列表
		menu.GET("/items", func(context *gin.Context) {
			handlers.GetMenuItemListHandler(context, db, rdb)
		})
		//查詢菜色詳細資料
		menu.GET("/items/:itemID", func(context *gin.Context) {
			handlers.GetMenuItemHandler(context, db)
		})
		//新增菜色
		menu.POST("/items", func(context *gin.Context) {
			handlers.CreateMenuItemHandler(context, db, rdb)
		})
		//修改菜色
		menu.PATCH("/items/:itemID", func(context *gin.Context) {
			handlers.UpdateMenuItemHandler(context, db, rdb)
		})
		//刪除菜色
		menu.DELETE("/items/:itemID", func(context *gin.Context) {
			handlers.DeleteMenuItemHandler(context, db, rdb)
		})
		//查詢分類列表
		menu.GET("/categories", func(context *gin.Context) {
			handlers.GetCategoryListHandler(context, db)
		})
		//新增分類
		menu.POST("/categories", func(context *gin.Context) {
			handlers.CreateCategoryHandler(context, db)
		})
		//刪除分類
		menu.DELETE("/categories/:categoryID", func(context *gin.Context) {
			handlers.DeleteCategoryHandler(context, db)
		})
	}

	orders := api.Group("/orders")
	{
		//送出訂單
		orders.POST("", func(context *gin.Context) {
			handlers.PlaceOrderHandler(context, db, publisher)
		})
		//查詢訂單列表
		orders.GET("", func(context *gin.Context) {
			handlers.GetOrderListHandler(context, db)
		})
		//查詢訂單詳細資訊
		orders.GET("/:orderID", func(context *gin.Context) {
			handlers.GetOrderDataHandler(context, db)
		})
		//更新訂單狀態
		orders.PATCH("/:orderID/status", func(context *gin.Context) {
			handlers.UpdateOrderStatusHandler(context, db, publisher)
		})
	}

	upload := api.Group("/upload")
	{
		//上傳菜色圖片
		upload.POST("/image", func(context *gin.Context) {
			handlers.UploadImageHandler(context, uploadConfig)
		})
		//刪除菜色圖片
		upload.DELETE("/image/:filename", func(context *gin.Context) {
			handlers.DeleteImageHandler(context, uploadConfig)
		})
	}

	stats := api.Group("/analytics")
	{
		stats.GET("/dashboard-stats", func(context *gin.Context) {
			handlers.GetDashboardStatsHandler(context, svc)
		})
		stats.GET("/sales-trends", func(context *gin.Context) {
			handlers.GetSalesTrendsHandler(context, svc)
		})
		stats.GET("/top-selling", func(context *gin.Context) {
			handlers.GetTopSellingHandler(context, svc)
		})
		stats.GET("/least-selling", func(context *gin.Context) {
			handlers.GetLeastSellingHandler(context, svc)
		})
		stats.GET("/peak-hours", func(context *gin.Context) {
			handlers.GetPeakHoursHandler(context, svc)
		})
		//依顧客歷史訂單推薦
		stats.GET("/recommendations/user/:userID", func(context *gin.Context) {
			handlers.GetUserRecommendationsHandler(context, svc)
		})
		//常一起購買的菜色
		stats.GET("/recommendations/item/:itemID", func(context *gin.Context) {
			handlers.GetItemRecommendationsHandler(context, svc)
		})
		stats.GET("/insights", func(context *gin.Context) {
			handlers.GetInsightsHandler(context, svc)
		})
	}

	return router, nil
}
