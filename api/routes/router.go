package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopora/storefront-backend/api/controllers"
	"github.com/shopora/storefront-backend/api/middleware"
	"github.com/shopora/storefront-backend/internal/auth"
	"github.com/shopora/storefront-backend/internal/cart"
	"github.com/shopora/storefront-backend/internal/notifications"
	"github.com/shopora/storefront-backend/internal/orders"
	"github.com/shopora/storefront-backend/internal/payments"
	product "github.com/shopora/storefront-backend/internal/products"
	"github.com/shopora/storefront-backend/internal/reviews"
	"github.com/shopora/storefront-backend/internal/settings"
	"github.com/shopora/storefront-backend/internal/users"
	paypalwebhook "github.com/shopora/storefront-backend/internal/webhooks/paypal"
	"github.com/shopora/storefront-backend/pkg/auth/session"
	"github.com/shopora/storefront-backend/pkg/config"
	"github.com/shopora/storefront-backend/pkg/db"
	"github.com/shopora/storefront-backend/pkg/enums"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/redis"
)

type sessionVerifier interface {
	session.AccessSessionChecker
}

// Deps bundles everything the router mounts.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              *db.Client
	Redis           *redis.Client
	Sessions        sessionVerifier
	Metrics         prometheus.Gatherer
	AuthService     auth.Service
	ProductsService product.Service
	ReviewsService  reviews.Service
	CartService     cart.Service
	OrdersService   orders.Service
	PaymentsService payments.Service
	UsersService    users.Service
	SettingsService settings.Service
	Notifications   notifications.Service

	PayPalWebhook         *paypalwebhook.Service
	PayPalWebhookGuard    *paypalwebhook.IdempotencyGuard
	PayPalWebhookVerifier controllers.WebhookVerifier
}

// NewRouter assembles the storefront HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/auth/login", controllers.Login(deps.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/auth/register", controllers.Register(deps.AuthService, logg))
		r.Post("/auth/refresh", controllers.Refresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Post("/auth/logout", controllers.Logout(deps.AuthService, logg))

		// Public storefront surface.
		r.Get("/products", controllers.BrowseProducts(deps.ProductsService, logg))
		r.Get("/products/categories", controllers.ProductCategories(deps.ProductsService, logg))
		r.Get("/products/tags", controllers.ProductTags(deps.ProductsService, logg))
		r.Get("/products/{slug}", controllers.GetProduct(deps.ProductsService, logg))
		r.Get("/products/{slug}/related", controllers.RelatedProducts(deps.ProductsService, logg))
		r.Get("/products/{slug}/reviews", controllers.ListReviews(deps.ReviewsService, logg))
		r.Get("/settings", controllers.GetSettings(deps.SettingsService, logg))
		r.Get("/delivery-options", controllers.GetDeliveryOptions(deps.SettingsService, logg))
		r.Post("/webhooks/paypal", controllers.PayPalWebhook(deps.PayPalWebhook, deps.PayPalWebhookVerifier, deps.PayPalWebhookGuard, logg))

		// Authenticated shopper surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
			r.Post("/cart/quote", controllers.QuoteCart(deps.CartService, logg))
			r.Post("/orders", controllers.CreateOrder(deps.OrdersService, logg))
			r.Get("/orders", controllers.ListMyOrders(deps.OrdersService, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(deps.OrdersService, logg))
			r.Post("/orders/{orderId}/paypal", controllers.CreatePayPalOrder(deps.PaymentsService, logg))
			r.Post("/orders/{orderId}/paypal/capture", controllers.CapturePayPalOrder(deps.PaymentsService, logg))
			r.Post("/products/{slug}/reviews", controllers.CreateReview(deps.ReviewsService, logg))
			r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	// Back office.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.ProductsService, logg))
			r.Post("/", controllers.CreateProduct(deps.ProductsService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.ProductsService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.ProductsService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.OrdersService, logg))
			r.Get("/summary", controllers.OrdersSummary(deps.OrdersService, logg))
			r.Post("/{orderId}/pay", controllers.PayOrder(deps.OrdersService, logg))
			r.Post("/{orderId}/deliver", controllers.DeliverOrder(deps.OrdersService, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(deps.OrdersService, logg))
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.UsersService, logg))
			r.Patch("/{userId}", controllers.AdminUpdateUser(deps.UsersService, logg))
			r.Delete("/{userId}", controllers.AdminDeleteUser(deps.UsersService, logg))
		})
		r.Get("/settings", controllers.GetSettings(deps.SettingsService, logg))
		r.Put("/settings", controllers.AdminUpdateSettings(deps.SettingsService, logg))
	})

	return r
}
