package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	crmapp "github.com/remotive/saleshub/internal/application/crm"
	dashboardapp "github.com/remotive/saleshub/internal/application/dashboard"
	financeapp "github.com/remotive/saleshub/internal/application/finance"
	identityapp "github.com/remotive/saleshub/internal/application/identity"
	inventoryapp "github.com/remotive/saleshub/internal/application/inventory"
	messagingapp "github.com/remotive/saleshub/internal/application/messaging"
	onboardingapp "github.com/remotive/saleshub/internal/application/onboarding"
	quoteapp "github.com/remotive/saleshub/internal/application/quote"
	salesapp "github.com/remotive/saleshub/internal/application/sales"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/infrastructure/auth"
	"github.com/remotive/saleshub/internal/infrastructure/cache"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/remotive/saleshub/internal/infrastructure/event"
	"github.com/remotive/saleshub/internal/infrastructure/logger"
	"github.com/remotive/saleshub/internal/infrastructure/notify"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/internal/infrastructure/printing"
	"github.com/remotive/saleshub/internal/infrastructure/scheduler"
	"github.com/remotive/saleshub/internal/infrastructure/storage"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"github.com/remotive/saleshub/internal/interfaces/http/handler"
	"github.com/remotive/saleshub/internal/interfaces/http/middleware"
	"github.com/remotive/saleshub/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//	@title			SalesHub API
//	@version		1.0
//	@description	Multi-tenant CRM backend for trailer dealerships.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@securityDefinitions.apikey	InboundKey
//	@in							header
//	@name						X-API-Key

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer logger.Sync(log)

	log.Info("Starting SalesHub",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	salesMetrics, err := telemetry.NewSalesMetrics(mp.Meter())
	if err != nil {
		log.Fatal("Failed to create sales metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, cfg.Log, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the blacklist, login throttle and round robin cursor.
	// Without it each falls back to process memory.
	var (
		redisClient *redis.Client
		blacklist   auth.TokenBlacklist       = auth.NewInMemoryTokenBlacklist()
		throttle    identityapp.LoginThrottle = cache.NewInMemoryLoginThrottle(cache.DefaultThrottleConfig())
		roundRobin  crmapp.RoundRobin         = cache.NewInMemoryRoundRobin()
	)
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-process stores", zap.Error(err))
		} else {
			defer redisClient.Close()
			blacklist = auth.NewRedisTokenBlacklist(redisClient)
			throttle = cache.NewRedisLoginThrottle(redisClient, cache.DefaultThrottleConfig())
			roundRobin = cache.NewRedisRoundRobin(redisClient)
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	bus := event.NewInMemoryEventBus(log)

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	unitRepo := persistence.NewGormUnitRepository(db.DB)
	deliveryRepo := persistence.NewGormDeliveryRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	checklistRepo := persistence.NewGormChecklistRepository(db.DB)
	dealTx := persistence.NewGormDealTransaction(db.DB)

	// Outbound messaging
	sender, err := notify.NewSender(cfg.CRM.DefaultMessageSender, log)
	if err != nil {
		log.Fatal("Failed to configure message sender", zap.Error(err))
	}
	messageRenderer, err := messaging.NewRenderer()
	if err != nil {
		log.Fatal("Failed to load message templates", zap.Error(err))
	}

	// Quote documents
	templates, err := printing.NewTemplateEngine("")
	if err != nil {
		log.Fatal("Failed to parse quote template", zap.Error(err))
	}
	quoteOpts := []quoteapp.QuoteServiceOption{quoteapp.WithDefaultValidDays(cfg.CRM.QuoteValidDays)}
	if cfg.PDF.Enabled {
		pdf := printing.NewChromedpRenderer(cfg.PDF, log)
		defer pdf.Close()
		quoteOpts = append(quoteOpts, quoteapp.WithPDFRenderer(pdf))
	}
	if cfg.Storage.Bucket != "" {
		archive, err := storage.NewS3ObjectStorage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to configure quote archive", zap.Error(err))
		}
		quoteOpts = append(quoteOpts, quoteapp.WithDocumentStore(archive))
		log.Info("Quote archival enabled", zap.String("bucket", archive.Bucket()))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	assigner := crmapp.NewAssigner(userRepo, roundRobin, log)
	authService := identityapp.NewAuthService(tenantRepo, userRepo, jwtService, blacklist, throttle, log)
	userService := identityapp.NewUserService(userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, bus, log)
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo, cfg.CRM.DealershipSettings(), bus, log)
	customerService := crmapp.NewCustomerService(customerRepo, activityRepo, userRepo, assigner, bus, cfg.CRM.ExportMaxRows, log)
	inboundService := crmapp.NewInboundService(tenantRepo, customerRepo, activityRepo, userRepo, assigner, bus, log)
	unitService := inventoryapp.NewUnitService(unitRepo, tenantRepo, customerRepo, userRepo, log)
	deliveryService := salesapp.NewDeliveryService(deliveryRepo, unitRepo, customerRepo, userRepo, tenantRepo, dealTx, bus, log)
	calculatorService := financeapp.NewCalculatorService(tenantRepo, log)
	quoteService := quoteapp.NewQuoteService(quoteRepo, customerRepo, activityRepo, unitRepo, userRepo, tenantRepo, templates, bus, log, quoteOpts...)
	messageService := messagingapp.NewMessageService(messageRepo, customerRepo, activityRepo, userRepo, tenantRepo, messageRenderer, sender, bus, log)
	checklistService := onboardingapp.NewChecklistService(checklistRepo, userRepo, log)
	dashboardService := dashboardapp.NewDashboardService(customerRepo, deliveryRepo, unitRepo, userRepo, log)
	assigner.SetSalesMetrics(salesMetrics)
	customerService.SetSalesMetrics(salesMetrics)
	inboundService.SetSalesMetrics(salesMetrics)
	quoteService.SetSalesMetrics(salesMetrics)

	// Event subscribers
	bus.Subscribe(crmapp.NewTimelineHandler(activityRepo, userRepo, log))
	bus.Subscribe(onboardingapp.NewMilestoneHandler(checklistService, log))
	if cfg.CRM.NotifyRepOnAssignment {
		bus.Subscribe(messagingapp.NewLeadAssignedHandler(messageService, log))
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Nightly maintenance
	maintenance := scheduler.NewScheduler(scheduler.SchedulerConfig{
		MaxConcurrentJobs: cfg.Jobs.Workers,
		JobTimeout:        cfg.Jobs.JobTimeout,
		RetryAttempts:     cfg.Jobs.RetryAttempts,
		RetryDelay:        cfg.Jobs.RetryDelay,
	}, scheduler.NewMaintenanceExecutor(quoteService, customerService), log)
	maintenance.SetSalesMetrics(salesMetrics)
	var trigger *scheduler.CronTrigger
	if cfg.Jobs.Enabled {
		hour, minute, err := scheduler.ParseDailySchedule(cfg.Jobs.Schedule)
		if err != nil {
			log.Fatal("Invalid jobs schedule", zap.Error(err))
		}
		loc, _ := time.LoadLocation(cfg.Jobs.Timezone)
		if err := maintenance.Start(ctx); err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		trigger = scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			Hour:     hour,
			Minute:   minute,
			Location: loc,
		}, maintenance, tenantRepo, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start maintenance trigger", zap.Error(err))
		}
	}

	// Readiness checks
	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		Tracing:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		JWT:         jwtService,
		Blacklist:   blacklist,
		Inbound:     inboundService,
		Logger:      log,
	}, router.Handlers{
		System:     handler.NewSystemHandler(version, checks),
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(userService),
		Tenant:     handler.NewTenantHandler(tenantService),
		Customer:   handler.NewCustomerHandler(customerService, messageService),
		Inbound:    handler.NewInboundHandler(inboundService),
		Unit:       handler.NewUnitHandler(unitService),
		Delivery:   handler.NewDeliveryHandler(deliveryService),
		Finance:    handler.NewFinanceHandler(calculatorService),
		Quote:      handler.NewQuoteHandler(quoteService),
		Onboarding: handler.NewOnboardingHandler(checklistService),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Maintenance trigger stop failed", zap.Error(err))
		}
	}
	if err := maintenance.Stop(shutdownCtx); err != nil {
		log.Error("Maintenance scheduler stop failed", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus stop failed", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
	log.Info("Server exited")
}
