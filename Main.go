package main

import (
	"SmartRestaurant/analytics"
	"SmartRestaurant/config"
	"SmartRestaurant/events"
	"SmartRestaurant/repository"
	"SmartRestaurant/routers"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "設定檔路徑")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("無法讀取設定檔: %v", err)
	}

	logger, err := config.SetupLogger(cfg.Log)
	if err != nil {
		log.Fatalf("無法建立logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	gin.SetMode(cfg.Server.GinMode)

	db, err := config.SetupDatabaseConnection(cfg.Database)
	if err != nil {
		logger.Fatal("無法連接到資料庫", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer func() {
		dbInstance, _ := db.DB()
		_ = dbInstance.Close()
	}()

	rdb := config.SetupRedisConnection(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else {
		logger.Info("未設定Redis，停用菜單快取")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := events.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("無法連接到RabbitMQ", zap.Error(err))
		}
		publisher = amqpPublisher
	} else {
		logger.Info("未設定RabbitMQ，不發送訂單事件")
	}
	defer func() { _ = publisher.Close() }()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		logger.Fatal("統計時區設定錯誤", zap.String("timezone", cfg.Analytics.Timezone), zap.Error(err))
	}
	svc := analytics.NewService(repository.NewAnalyticsRepository(db), loc, logger)

	router, err := routers.SetupRouters(routers.Dependencies{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
		Analytics: svc,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("無法建立路由", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("啟動HTTP伺服器",
			zap.String("app", cfg.Server.AppName),
			zap.String("port", cfg.Server.Port),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP伺服器錯誤", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("關閉伺服器中...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("伺服器關閉失敗", zap.Error(err))
	}
	logger.Info("伺服器已停止")
}
