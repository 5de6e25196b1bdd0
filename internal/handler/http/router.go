package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/health"
	"github.com/Ado-go/farmly-sub001/pkg/middleware"
)

// ServiceName labels metrics and traces emitted by the API.
const ServiceName = "farmly-api"

// Services bundles the business services exposed over HTTP.
type Services struct {
	Farms    *service.FarmService
	Products *service.ProductService
	Reviews  *service.ReviewService
	Events   *service.EventService
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	Pagination Pagination
	PprofCIDRs []string
	CORS       middleware.CORSConfig
	// CatalogMaxAge is the Cache-Control max-age, in seconds, of public
	// catalog reads.
	CatalogMaxAge int
	Metrics       *middleware.HTTPMetrics
	Gatherer      prometheus.Gatherer
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(svc Services, cfg RouterConfig, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Tracing(ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	farmHandler := NewFarmHandler(svc.Farms, cfg.Pagination, logger)
	productHandler := NewProductHandler(svc.Products, cfg.Pagination, logger)
	reviewHandler := NewReviewHandler(svc.Reviews, cfg.Pagination, logger)
	eventHandler := NewEventHandler(svc.Events, cfg.Pagination, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)
	checkoutHandler := NewCheckoutHandler(svc.Checkout, logger)
	orderHandler := NewOrderHandler(svc.Orders, cfg.Pagination, logger)

	catalogCache := middleware.CacheControl(cfg.CatalogMaxAge)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.IdentityFromHeaders)
		r.Use(middleware.RequestLogger(logger))

		r.Route("/farms", func(r chi.Router) {
			r.With(catalogCache).Get("/", farmHandler.ListFarms)
			r.With(catalogCache).Get("/{farmId}", farmHandler.GetFarm)
			r.With(middleware.RequireRole(domain.RoleFarmer, domain.RoleAdmin)).Post("/", farmHandler.CreateFarm)
			r.With(middleware.RequireUser).Put("/{farmId}", farmHandler.UpdateFarm)
		})

		r.Route("/products", func(r chi.Router) {
			r.With(catalogCache).Get("/", productHandler.ListProducts)
			r.With(middleware.RequireRole(domain.RoleFarmer, domain.RoleAdmin)).Post("/", productHandler.CreateProduct)

			r.Route("/{productId}", func(r chi.Router) {
				r.With(catalogCache).Get("/", productHandler.GetProduct)
				r.With(middleware.RequireUser).Put("/", productHandler.UpdateProduct)
				r.With(middleware.RequireUser).Delete("/", productHandler.DeleteProduct)

				r.Get("/reviews", reviewHandler.ListReviews)
				r.With(middleware.RequireUser).Post("/reviews", reviewHandler.CreateReview)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.With(catalogCache).Get("/", eventHandler.ListEvents)
			r.With(middleware.RequireRole(domain.RoleOrganizer, domain.RoleAdmin)).Post("/", eventHandler.CreateEvent)
			r.With(catalogCache).Get("/{eventId}", eventHandler.GetEvent)
			r.Get("/{eventId}/products", eventHandler.ListStallProducts)
			r.With(middleware.RequireRole(domain.RoleFarmer, domain.RoleAdmin)).Post("/{eventId}/products", eventHandler.AddStallProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(CartSession)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.With(middleware.NoStore, CartSession).Post("/checkout", checkoutHandler.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireUser)

			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderId}", orderHandler.GetOrder)
			r.Post("/{orderId}/cancel", orderHandler.CancelOrder)
			r.With(middleware.RequireRole(domain.RoleFarmer, domain.RoleAdmin)).Patch("/{orderId}/status", orderHandler.UpdateStatus)
		})
	})

	return r
}
