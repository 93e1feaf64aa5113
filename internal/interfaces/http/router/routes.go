package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remotive/saleshub/internal/infrastructure/auth"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/remotive/saleshub/internal/infrastructure/logger"
	"github.com/remotive/saleshub/internal/interfaces/http/handler"
	"github.com/remotive/saleshub/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	System     *handler.SystemHandler
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Tenant     *handler.TenantHandler
	Customer   *handler.CustomerHandler
	Inbound    *handler.InboundHandler
	Unit       *handler.UnitHandler
	Delivery   *handler.DeliveryHandler
	Finance    *handler.FinanceHandler
	Quote      *handler.QuoteHandler
	Onboarding *handler.OnboardingHandler
	Dashboard  *handler.DashboardHandler
}

// EngineConfig carries what the middleware chain needs besides handlers.
type EngineConfig struct {
	HTTP config.HTTPConfig
	// Tracing enables the otelgin span middleware.
	Tracing     bool
	ServiceName string

	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	Inbound   middleware.InboundAuthenticator
	Logger    *zap.Logger
}

// NewEngine builds the gin engine with the full middleware chain and every
// SalesHub route mounted.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order: request ID, tracing, recovery, access log, security headers,
	// CORS, body limit, then the optional global rate limit.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.Tracing,
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health checks live outside API versioning.
	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     cfg.JWT,
		TokenBlacklist: cfg.Blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/leads/inbound",
			"/api/v1/system/info",
		},
		Logger: log,
	}))
	r.Use(middleware.TracingAttributeInjector())

	for _, g := range DomainGroups(cfg, h) {
		r.Register(g)
	}
	r.Setup()
	return engine
}

// DomainGroups returns the versioned route groups. Paths are relative to
// /api/v1.
func DomainGroups(cfg EngineConfig, h Handlers) []*DomainGroup {
	authWindow := cfg.HTTP.AuthRateLimitWindow
	if authWindow <= 0 {
		authWindow = time.Minute
	}
	authLimit := cfg.HTTP.AuthRateLimitRequests
	if authLimit <= 0 {
		authLimit = 10
	}
	inboundLimit := cfg.HTTP.InboundRateLimit
	if inboundLimit <= 0 {
		inboundLimit = 60
	}
	authLimiter := middleware.NewRateLimiter(authLimit, authWindow)
	inboundLimiter := middleware.NewRateLimiter(inboundLimit, time.Minute)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", middleware.AuthRateLimit(authLimiter), h.Auth.Login)
	authRoutes.POST("/refresh", middleware.AuthRateLimit(authLimiter), h.Auth.Refresh)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)
	authRoutes.PUT("/password", h.Auth.ChangePassword)

	// Lead feeds authenticate by API key and are limited per key.
	leadRoutes := NewDomainGroup("leads", "/leads")
	leadRoutes.POST("/inbound",
		middleware.InboundRateLimit(inboundLimiter),
		middleware.InboundAPIKey(cfg.Inbound, cfg.Logger),
		h.Inbound.Receive,
	)

	userRoutes := NewDomainGroup("users", "/users")
	userRoutes.GET("", h.User.List)
	userRoutes.POST("", middleware.RequireTeamManager(), h.User.Create)
	userRoutes.GET("/:id", h.User.Get)
	userRoutes.PATCH("/:id", h.User.Update)
	userRoutes.GET("/:id/team", middleware.RequireTeamManager(), h.User.ListTeam)

	tenantRoutes := NewDomainGroup("tenant", "/tenant")
	tenantRoutes.GET("", h.Tenant.Get)
	tenantRoutes.PUT("/settings", middleware.RequireAdmin(), h.Tenant.UpdateSettings)
	tenantRoutes.POST("/inbound-key", middleware.RequireAdmin(), h.Tenant.RotateInboundKey)

	crmRoutes := NewDomainGroup("crm", "/crm")
	crmRoutes.GET("/pipeline", h.Customer.Pipeline)
	customers := crmRoutes.Group("customers", "/customers")
	customers.POST("", h.Customer.Create)
	customers.GET("", h.Customer.List)
	customers.GET("/export", h.Customer.Export)
	customers.POST("/import", middleware.RequireTeamManager(), h.Customer.Import)
	customers.GET("/:id", h.Customer.Get)
	customers.PATCH("/:id", h.Customer.Update)
	customers.DELETE("/:id", middleware.RequireAdmin(), h.Customer.Delete)
	customers.PUT("/:id/stage", h.Customer.ChangeStage)
	customers.PUT("/:id/assign", middleware.RequireTeamManager(), h.Customer.Reassign)
	customers.POST("/:id/activities", h.Customer.AddActivity)
	customers.GET("/:id/activities", h.Customer.ListActivities)
	customers.POST("/:id/messages", h.Customer.SendMessage)
	customers.GET("/:id/messages", h.Customer.ListMessages)
	customers.GET("/:id/quotes", h.Quote.ListByCustomer)

	inventoryRoutes := NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/summary", h.Unit.Summary)
	inventoryRoutes.POST("/price-preview", h.Unit.PricePreview)
	units := inventoryRoutes.Group("units", "/units")
	units.POST("", h.Unit.Create)
	units.GET("", h.Unit.List)
	units.GET("/:id", h.Unit.Get)
	units.PATCH("/:id", h.Unit.Update)
	units.POST("/:id/hold", h.Unit.Hold)
	units.POST("/:id/release", h.Unit.Release)
	units.POST("/:id/sold", h.Unit.MarkSold)

	salesRoutes := NewDomainGroup("sales", "/sales")
	salesRoutes.GET("/commissions", h.Delivery.CommissionReport)
	deliveries := salesRoutes.Group("deliveries", "/deliveries")
	deliveries.POST("", h.Delivery.Schedule)
	deliveries.GET("", h.Delivery.List)
	deliveries.GET("/:id", h.Delivery.Get)
	deliveries.PUT("/:id/schedule", h.Delivery.Reschedule)
	deliveries.POST("/:id/complete", h.Delivery.Complete)
	deliveries.POST("/:id/cancel", h.Delivery.Cancel)

	financeRoutes := NewDomainGroup("finance", "/finance")
	financeRoutes.POST("/calculate", h.Finance.Calculate)
	financeRoutes.GET("/options", h.Finance.Options)

	quoteRoutes := NewDomainGroup("quotes", "/quotes")
	quoteRoutes.POST("", h.Quote.Create)
	quoteRoutes.GET("/:id", h.Quote.Get)
	quoteRoutes.GET("/:id/html", h.Quote.HTML)
	quoteRoutes.GET("/:id/pdf", h.Quote.PDF)
	quoteRoutes.POST("/:id/send", h.Quote.MarkSent)
	quoteRoutes.POST("/:id/accept", h.Quote.MarkAccepted)

	onboardingRoutes := NewDomainGroup("onboarding", "/onboarding")
	onboardingRoutes.GET("/me", h.Onboarding.Mine)
	onboardingRoutes.POST("/me/steps/:step", h.Onboarding.CompleteStep)
	onboardingRoutes.GET("/team", middleware.RequireTeamManager(), h.Onboarding.TeamProgress)

	dashboardRoutes := NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.GET("", h.Dashboard.Summary)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.Info)

	return []*DomainGroup{
		authRoutes, leadRoutes, userRoutes, tenantRoutes, crmRoutes,
		inventoryRoutes, salesRoutes, financeRoutes, quoteRoutes,
		onboardingRoutes, dashboardRoutes, systemRoutes,
	}
}
