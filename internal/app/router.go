package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/config"
	"github.com/prperemyshlev/starterkit-auth/internal/email"
	"github.com/prperemyshlev/starterkit-auth/internal/handler"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"github.com/prperemyshlev/starterkit-auth/internal/utils"
	"github.com/prperemyshlev/starterkit-auth/pkg/database"
	"github.com/prperemyshlev/starterkit-auth/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "starterkit-auth"

// RouterDeps are the collaborators the HTTP router is built from
type RouterDeps struct {
	Repos          *repository.Repositories
	Redis          *database.Redis
	Notifier       email.Notifier
	Verifier       service.IdentityVerifier
	Logger         *zap.Logger
	Metrics        *observability.AuthMetrics
	MetricsHandler http.Handler
	Health         *HealthChecker
}

// NewRouter wires services and handlers and registers every route
func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	jwtManager := utils.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	serviceDeps := service.Dependencies{
		Repos:               deps.Repos,
		JWT:                 jwtManager,
		Hasher:              utils.NewPasswordHasher(cfg.Security.BCryptCost),
		Revoker:             service.NewSessionRevoker(deps.Redis, cfg.JWT.AccessTokenExpiry.Duration),
		Verifier:            deps.Verifier,
		Notifier:            deps.Notifier,
		Logger:              deps.Logger,
		Metrics:             deps.Metrics,
		PasswordResetExpiry: cfg.Security.PasswordResetExpiry.Duration,
	}

	authService := service.NewAuthService(serviceDeps)
	userService := service.NewUserService(serviceDeps)

	handler.UseJSONFieldNames()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(deps.Logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	limit := handler.RateLimit{
		Limiter: service.NewRateLimiter(deps.Redis),
		Limit:   cfg.Security.RateLimitRequests,
		Window:  cfg.Security.RateLimitWindow.Duration,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}

	setupRoutes(router, routes{
		auth:           handler.NewAuthHandler(authService, deps.Logger),
		users:          handler.NewUserHandler(userService, deps.Logger),
		payments:       handler.NewPaymentHandler(userService, deps.Logger),
		webhookSecret:  cfg.Payments.WebhookSecret,
		authService:    authService,
		userService:    userService,
		limit:          limit,
		health:         deps.Health,
		metricsHandler: deps.MetricsHandler,
		logger:         deps.Logger,
	})

	return router
}

type routes struct {
	auth           *handler.AuthHandler
	users          *handler.UserHandler
	payments       *handler.PaymentHandler
	webhookSecret  string
	authService    service.AuthService
	userService    service.UserService
	limit          handler.RateLimit
	health         *HealthChecker
	metricsHandler http.Handler
	logger         *zap.Logger
}

func setupRoutes(router *gin.Engine, r routes) {
	if r.metricsHandler != nil {
		router.GET("/metrics", observability.PrometheusHandler(r.metricsHandler))
	}
	if r.health != nil {
		router.GET("/health", r.health.Handler)
	}

	limited := func(route string) gin.HandlerFunc {
		return handler.RateLimitMiddleware(r.limit, route, handler.IPBasedKey)
	}
	requireAuth := handler.AuthMiddleware(r.authService, r.logger)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limited("register"), r.auth.Register)
			auth.POST("/login", limited("login"), r.auth.Login)
			auth.POST("/google", limited("google"), r.auth.GoogleLogin)
			auth.POST("/verify-email", r.auth.VerifyEmail)
			auth.POST("/resend-verification", limited("resend_verification"), r.auth.ResendVerification)
			auth.POST("/refresh-token", r.auth.RefreshToken)
			auth.POST("/logout", r.auth.Logout)
			auth.POST("/forgot-password", limited("forgot_password"), r.auth.ForgotPassword)
			auth.POST("/reset-password", r.auth.ResetPassword)
			auth.GET("/profile", requireAuth, r.auth.GetProfile)
		}

		users := api.Group("/users",
			requireAuth,
			handler.LoadUser(r.userService, r.logger),
			handler.RequireVerified(r.logger),
		)
		{
			users.GET("/profile", r.users.GetProfile)
			users.PUT("/profile", r.users.UpdateProfile)
			users.PUT("/password", r.users.ChangePassword)
			users.DELETE("/account", r.users.DeleteAccount)
			users.GET("/payments", r.users.ListPayments)
			users.GET("/premium", handler.RequirePremium(r.logger), r.users.Premium)
		}

		webhooks := api.Group("/webhooks", handler.RequireWebhookSecret(r.webhookSecret, r.logger))
		{
			webhooks.POST("/payments", r.payments.RecordPayment)
		}
	}
}
