package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jtorres-dev/storefront-backend/api/controllers"
	webhookcontrollers "github.com/jtorres-dev/storefront-backend/api/controllers/webhooks"
	"github.com/jtorres-dev/storefront-backend/api/middleware"
	checkoutsvc "github.com/jtorres-dev/storefront-backend/internal/checkout"
	"github.com/jtorres-dev/storefront-backend/internal/orders"
	stripewebhook "github.com/jtorres-dev/storefront-backend/internal/webhooks/stripe"
	"github.com/jtorres-dev/storefront-backend/pkg/config"
	"github.com/jtorres-dev/storefront-backend/pkg/db"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	"github.com/jtorres-dev/storefront-backend/pkg/logger"
	"github.com/jtorres-dev/storefront-backend/pkg/metrics"
	"github.com/jtorres-dev/storefront-backend/pkg/redis"
	"github.com/jtorres-dev/storefront-backend/pkg/stripe"
)

type RouterParams struct {
	Config             *config.Config
	Logger             *logger.Logger
	DB                 db.Pinger
	Redis              *redis.Client
	HTTPMetrics        *metrics.HTTPMetrics
	OrdersService      orders.Service
	CheckoutService    checkoutsvc.Service
	StripeClient       *stripe.Client
	WebhookService     *stripewebhook.Service
	WebhookGuard       *stripewebhook.IdempotencyGuard
	MetricsHandler     http.Handler
}

// NewRouter assembles the HTTP surface: health, metrics, the webhook intake,
// and the authenticated order/checkout routes.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps(p)))
	})

	metricsHandler := p.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Webhook intake stays outside auth; Stripe signs, not our JWTs.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.WebhookService, p.StripeClient, p.WebhookGuard, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(p.OrdersService, logg))
				r.Post("/", controllers.PlaceCODOrder(p.CheckoutService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(p.OrdersService, logg))
				r.Patch("/{orderId}/cancel", controllers.CancelOrder(p.OrdersService, logg))
				r.Patch("/{orderId}/return", controllers.RequestReturn(p.OrdersService, logg))
				r.Post("/{orderId}/retry-payment", controllers.RetryPayment(p.CheckoutService, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/create-session", controllers.CreateCheckoutSession(p.CheckoutService, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(p.OrdersService, logg))
		})
	})

	return r
}

func readyDeps(p RouterParams) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["database"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	return deps
}
