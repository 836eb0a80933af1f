package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peptidrop/backend/api/controllers"
	webhookcontrollers "github.com/peptidrop/backend/api/controllers/webhooks"
	"github.com/peptidrop/backend/api/middleware"
	cartsvc "github.com/peptidrop/backend/internal/cart"
	checkoutsvc "github.com/peptidrop/backend/internal/checkout"
	"github.com/peptidrop/backend/internal/orders"
	"github.com/peptidrop/backend/internal/webhooks"
	paypalwebhook "github.com/peptidrop/backend/internal/webhooks/paypal"
	stripewebhook "github.com/peptidrop/backend/internal/webhooks/stripe"
	"github.com/peptidrop/backend/pkg/config"
	"github.com/peptidrop/backend/pkg/db"
	"github.com/peptidrop/backend/pkg/enums"
	"github.com/peptidrop/backend/pkg/logger"
	"github.com/peptidrop/backend/pkg/payments"
	pkgredis "github.com/peptidrop/backend/pkg/redis"
)

// Deps carries everything the route table wires into controllers. Exactly
// one processor client is non-nil; the other processor's webhook route
// answers 500 until it is configured.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *pkgredis.Client
	Registry *prometheus.Registry

	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
	OrdersRepo      orders.Repository

	Processor enums.Processor
	Capturer  payments.Capturer

	StripeSigner   webhookcontrollers.SigningClient
	PayPalVerifier webhookcontrollers.SignatureVerifier

	StripeWebhookService *stripewebhook.Service
	PayPalWebhookService *paypalwebhook.Service
	StripeWebhookGuard   *webhooks.IdempotencyGuard
	PayPalWebhookGuard   *webhooks.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhookService, deps.StripeSigner, deps.StripeWebhookGuard, logg))
		r.Post("/paypal", webhookcontrollers.PayPalWebhook(deps.PayPalWebhookService, deps.PayPalVerifier, deps.PayPalWebhookGuard, logg))
	})

	r.Route("/api/v1/cart/{cartID}", func(r chi.Router) {
		r.Get("/", controllers.CartFetch(deps.CartService, logg))
		r.Delete("/", controllers.CartClear(deps.CartService, logg))
		r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
		r.Put("/items/{sku}", controllers.CartSetQuantity(deps.CartService, logg))
		r.Delete("/items/{sku}", controllers.CartRemoveItem(deps.CartService, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg, cfg.Checkout.IdempotencyTTL))
		r.Post("/session", controllers.CheckoutSession(deps.CheckoutService, logg))
		r.Post("/capture", controllers.CheckoutCapture(deps.OrdersRepo, deps.Capturer, deps.Processor, logg))
	})

	r.Get("/api/v1/orders/{orderID}", controllers.OrderConfirmation(deps.OrdersService, logg))
	r.Get("/api/v1/users/{userID}/orders", controllers.UserOrderHistory(deps.OrdersService, logg))

	return r
}
