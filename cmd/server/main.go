package main

import (
	"net/http"
	"time"

	"ridemods-be/internal/address"
	"ridemods-be/internal/cache"
	"ridemods-be/internal/cart"
	"ridemods-be/internal/checkout"
	"ridemods-be/internal/config"
	"ridemods-be/internal/db"
	"ridemods-be/internal/logger"
	"ridemods-be/internal/metrics"
	"ridemods-be/internal/middleware"
	"ridemods-be/internal/order"
	"ridemods-be/internal/product"
	"ridemods-be/internal/promotion"
	"ridemods-be/internal/transport"
	"ridemods-be/internal/uow"
	"ridemods-be/internal/wallet"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	caps := db.DetectCapabilities(database, cfg)
	if !caps.Transactions {
		logger.L().Warn("store does not support transactions; checkout has no automatic rollback")
	}
	runner := uow.NewRunner(database, caps.Transactions)

	redisCache := cache.New(cfg.RedisAddr, 5*time.Minute)
	defer redisCache.Close()

	checkoutMetrics := &metrics.Checkout{}

	productRepo := product.NewRepository(database)
	addressRepo := address.NewRepository(database)
	walletRepo := wallet.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	promoRepo := promotion.NewRepository(database)
	orderRepo := order.NewRepository(database)

	promoSvc := promotion.NewService(promoRepo, redisCache)
	cartSvc := cart.NewService(cartRepo, productRepo, promoSvc)
	walletSvc := wallet.NewService(walletRepo, runner)
	orderSvc := order.NewService(orderRepo, walletRepo, runner)
	checkoutSvc := checkout.NewService(
		cartRepo, productRepo, addressRepo,
		promoSvc, promoRepo, walletRepo, orderRepo,
		runner, redisCache, checkoutMetrics,
	)

	handler := &transport.Handler{
		Carts:      cartSvc,
		Checkout:   checkoutSvc,
		Orders:     orderSvc,
		Wallets:    walletSvc,
		Promotions: promoSvc,
		Metrics:    checkoutMetrics,
	}

	mux := http.NewServeMux()
	handler.Register(mux)

	var root http.Handler = mux
	root = middleware.RateLimit(root)
	root = middleware.Auth([]byte(cfg.JWTSecret))(root)
	root = logger.AccessLogMiddleware(root)
	root = logger.RequestIDMiddleware(root)

	logger.L().Info("server listening",
		zap.String("port", cfg.AppPort),
		zap.Bool("transactions", caps.Transactions),
	)
	if err := http.ListenAndServe(":"+cfg.AppPort, root); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
