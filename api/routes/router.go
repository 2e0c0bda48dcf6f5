package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adityaverma/getmeachai-backend/api/controllers"
	webhookcontrollers "github.com/adityaverma/getmeachai-backend/api/controllers/webhooks"
	"github.com/adityaverma/getmeachai-backend/api/middleware"
	"github.com/adityaverma/getmeachai-backend/internal/auth"
	"github.com/adityaverma/getmeachai-backend/internal/payments"
	"github.com/adityaverma/getmeachai-backend/internal/users"
	stripewebhook "github.com/adityaverma/getmeachai-backend/internal/webhooks/stripe"
	"github.com/adityaverma/getmeachai-backend/pkg/config"
	"github.com/adityaverma/getmeachai-backend/pkg/db"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
	"github.com/adityaverma/getmeachai-backend/pkg/redis"
	"github.com/adityaverma/getmeachai-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	authService auth.Service,
	userService *users.Service,
	paymentService *payments.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Web),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/checkout", controllers.PaymentCheckout(paymentService, logg))
		r.Get("/success", controllers.PaymentSuccess(paymentService, cfg.Web, logg))
		r.Get("/supporters", controllers.PaymentSupporters(paymentService, logg))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/me", controllers.UserMe(userService, logg))
			r.Put("/me", controllers.UserUpdateMe(userService, logg))
			r.Get("/ping", controllers.PrivatePing())
		})
		r.Get("/search", controllers.UserSearch(userService, logg))
		r.Get("/{username}", controllers.UserPublicProfile(userService, logg))
	})

	return r
}
