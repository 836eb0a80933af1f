package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/peptidrop/backend/api/routes"
	cartsvc "github.com/peptidrop/backend/internal/cart"
	checkoutsvc "github.com/peptidrop/backend/internal/checkout"
	"github.com/peptidrop/backend/internal/orders"
	"github.com/peptidrop/backend/internal/pricing"
	"github.com/peptidrop/backend/internal/webhooks"
	paypalwebhook "github.com/peptidrop/backend/internal/webhooks/paypal"
	stripewebhook "github.com/peptidrop/backend/internal/webhooks/stripe"
	"github.com/peptidrop/backend/pkg/config"
	"github.com/peptidrop/backend/pkg/db"
	"github.com/peptidrop/backend/pkg/logger"
	"github.com/peptidrop/backend/pkg/metrics"
	"github.com/peptidrop/backend/pkg/migrate"
	"github.com/peptidrop/backend/pkg/payments"
	pkgpaypal "github.com/peptidrop/backend/pkg/paypal"
	"github.com/peptidrop/backend/pkg/redis"
	pkgstripe "github.com/peptidrop/backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Registry: registry,
	}

	var processor payments.Processor
	switch cfg.Payments.Processor {
	case "stripe":
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}
		processor = stripeClient
		deps.StripeSigner = stripeClient
	case "paypal":
		paypalClient, err := pkgpaypal.NewClient(context.Background(), cfg.PayPal, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap paypal", err)
			os.Exit(1)
		}
		processor = paypalClient
		deps.Capturer = paypalClient
		deps.PayPalVerifier = paypalClient
	default:
		logg.Error(context.Background(), "unknown payments processor", fmt.Errorf("processor %q", cfg.Payments.Processor))
		os.Exit(1)
	}
	deps.Processor = processor.Kind()

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	deps.OrdersRepo = ordersRepo
	deps.OrdersService = ordersService

	checkoutService, err := checkoutsvc.NewService(
		pricing.NewEngine(),
		ordersRepo,
		processor,
		logg,
		paymentMetrics,
		cfg.Checkout,
		cfg.Payments.RequestTimeout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	deps.CheckoutService = checkoutService

	cartService, err := cartsvc.NewService(context.Background(), redisClient, logg, cfg.Checkout.CartTTL, cfg.Checkout.CartEventsChannel)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	cartService.Subscribe(func(cartID string) {
		logg.Info(logg.WithFields(context.Background(), map[string]any{"cart_id": cartID}), "cart changed")
	})
	deps.CartService = cartService

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:  ordersService,
		Logger:  logg,
		Metrics: paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}
	deps.StripeWebhookService = stripeWebhookService

	paypalWebhookService, err := paypalwebhook.NewService(paypalwebhook.ServiceParams{
		Orders:  ordersService,
		Logger:  logg,
		Metrics: paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create paypal webhook service", err)
		os.Exit(1)
	}
	deps.PayPalWebhookService = paypalWebhookService

	stripeGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookDedupeTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}
	deps.StripeWebhookGuard = stripeGuard

	paypalGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookDedupeTTL, "paypal")
	if err != nil {
		logg.Error(context.Background(), "failed to create paypal webhook guard", err)
		os.Exit(1)
	}
	deps.PayPalWebhookGuard = paypalGuard

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"processor": cfg.Payments.Processor,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
