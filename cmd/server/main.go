package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	accountapp "github.com/datapadi/web/internal/application/account"
	identityapp "github.com/datapadi/web/internal/application/identity"
	printingapp "github.com/datapadi/web/internal/application/printing"
	purchaseapp "github.com/datapadi/web/internal/application/purchase"
	vtuapp "github.com/datapadi/web/internal/application/vtu"
	domainprinting "github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/shared/valueobject"
	"github.com/datapadi/web/internal/infrastructure/auth"
	"github.com/datapadi/web/internal/infrastructure/cache"
	"github.com/datapadi/web/internal/infrastructure/config"
	"github.com/datapadi/web/internal/infrastructure/logger"
	"github.com/datapadi/web/internal/infrastructure/migration"
	"github.com/datapadi/web/internal/infrastructure/persistence"
	"github.com/datapadi/web/internal/infrastructure/printing"
	"github.com/datapadi/web/internal/infrastructure/scheduler"
	"github.com/datapadi/web/internal/infrastructure/storage"
	"github.com/datapadi/web/internal/infrastructure/telemetry"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/datapadi/web/internal/interfaces/http/handler"
	"github.com/datapadi/web/internal/interfaces/http/middleware"
	"github.com/datapadi/web/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Once the OTLP log bridge is up, every record is teed to it
	if providers.Logs.IsEnabled() {
		bridged, err := logger.New(logCfg, providers.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			log.Fatal("Failed to attach OTLP log bridge", zap.Error(err))
		}
		log = bridged
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("Starting DataPadi web",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db := openDatabase(cfg, providers, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	stores, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithSessionTTL(cfg.Flow.SessionTTL),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to initialize stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	docStorage := openStorage(ctx, cfg, log)

	serviceMetrics, err := telemetry.NewServiceMetrics(providers.Meter.Meter("datapadi-web/services"))
	if err != nil {
		log.Fatal("Failed to create service metrics", zap.Error(err))
	}

	backend, err := vtuapi.New(vtuapi.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		RateBurst: cfg.Backend.RateBurst,
		UserAgent: cfg.Backend.UserAgent,
		Observer:  serviceMetrics,
	})
	if err != nil {
		log.Fatal("Failed to create backend client", zap.Error(err))
	}

	currency, err := valueobject.NewCurrency(cfg.Printing.CurrencyCode, cfg.Printing.CurrencySymbol, cfg.Printing.CurrencyLocale)
	if err != nil {
		log.Fatal("Invalid currency configuration", zap.Error(err))
	}

	layout, err := domainprinting.NewSheetLayout(
		domainprinting.PaperSize(strings.ToUpper(cfg.Printing.Paper)),
		cfg.Printing.Columns,
		cfg.Printing.CardHeightMM,
		domainprinting.Margins{},
	)
	if err != nil {
		log.Fatal("Invalid sheet layout configuration", zap.Error(err))
	}

	renderer, err := printing.NewLayoutRenderer(printing.LayoutConfig{
		Layout:    layout,
		Currency:  currency,
		BrandName: cfg.Printing.BrandName,
	})
	if err != nil {
		log.Fatal("Failed to create layout renderer", zap.Error(err))
	}

	rasterizer := printing.NewChromedpRasterizer(printing.ChromedpConfig{
		Timeout:     cfg.Printing.RenderTimeout,
		RemoteURL:   cfg.Printing.RemoteChromeURL,
		DeviceScale: cfg.Printing.DeviceScale,
		NoSandbox:   cfg.Printing.NoSandbox,
		Logger:      log.Named("rasterizer"),
	})
	defer func() {
		if err := rasterizer.Close(); err != nil {
			log.Error("Error closing browser", zap.Error(err))
		}
	}()

	// Application services
	voucherService := printingapp.NewVoucherService(printingapp.ServiceConfig{
		Pins:       backend,
		Renderer:   renderer,
		Rasterizer: rasterizer,
		Assembler:  printing.NewPDFAssembler(cfg.Printing.BrandName+" vouchers", cfg.App.Name, log.Named("pdf")),
		Workbook:   printing.NewWorkbookWriter(currency),
		Storage:    docStorage,
		Jobs:       persistence.NewGormExportJobRepository(db.DB),
		Flag:       stores.ExportFlag,
		Metrics:    serviceMetrics,
		Logger:     log.Named("vouchers"),
		FlagTTL:    cfg.Printing.ExportFlagTTL,
		PreviewDPI: cfg.Printing.PreviewDPI,
	})
	flowService := purchaseapp.NewFlowService(stores.Sessions, stores.PaymentGuard, backend, currency,
		serviceMetrics, log.Named("flows"), purchaseapp.WithPaymentGuardTTL(paymentGuardTTL(cfg.Backend.Timeout)))
	accountService := accountapp.NewService(backend, currency, log.Named("account"))
	vtuService := vtuapp.NewService(backend, currency, log.Named("vtu"))
	authService := identityapp.NewAuthService(backend, auth.NewTokenInspector(), stores.Blacklist,
		identityapp.AuthServiceConfig{SessionMaxAge: cfg.Cookie.MaxAge}, log.Named("auth"))

	cleanupCfg := scheduler.DefaultCleanupTriggerConfig()
	cleanupCfg.Retention = cfg.Printing.JobRetention
	cleanupTrigger, err := scheduler.NewCleanupTrigger(cleanupCfg, voucherService, log.Named("cleanup"))
	if err != nil {
		log.Fatal("Failed to create cleanup trigger", zap.Error(err))
	}
	if err := cleanupTrigger.Start(ctx); err != nil {
		log.Fatal("Failed to start cleanup trigger", zap.Error(err))
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Order matters: the request id feeds the logger and the span attributes
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if providers.Tracer.IsEnabled() {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName)...)
	}
	if providers.Meter.IsEnabled() {
		httpMetrics, err := middleware.HTTPMetrics(providers.Meter.Meter("http.server"))
		if err != nil {
			log.Fatal("Failed to create HTTP metrics", zap.Error(err))
		}
		engine.Use(httpMetrics)
	}
	if providers.Profiler.IsEnabled() {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
	}

	var credentialsGuard gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
		credentialsGuard = middleware.AuthRateLimit(authLimiter)
	}

	healthHandler := handler.NewHealthHandler(db)
	engine.GET("/health", healthHandler.Check)

	router.NewRouter(engine).Register(router.APIGroups(router.Handlers{
		Health: healthHandler,
		Auth: handler.NewAuthHandler(authService, handler.CookieConfig{
			Name:     cfg.Cookie.Name,
			Domain:   cfg.Cookie.Domain,
			Path:     cfg.Cookie.Path,
			Secure:   cfg.Cookie.Secure,
			SameSite: handler.ParseSameSite(cfg.Cookie.SameSite),
		}),
		Account:   handler.NewAccountHandler(accountService),
		VTU:       handler.NewVTUHandler(vtuService),
		Bills:     handler.NewBillsHandler(vtuService),
		Vouchers:  handler.NewVoucherHandler(voucherService),
		PrintJobs: handler.NewPrintJobHandler(voucherService),
		Flows:     handler.NewFlowHandler(flowService),
	}, router.Guards{
		Session: middleware.Session(middleware.SessionConfig{
			Authenticator: authService,
			CookieName:    cfg.Cookie.Name,
			Logger:        log,
		}),
		Credentials: credentialsGuard,
	})...).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cleanupTrigger.Stop(shutdownCtx); err != nil {
		log.Warn("Cleanup trigger did not stop cleanly", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openDatabase connects the export job database, instruments it and applies
// the bundled migrations
func openDatabase(cfg *config.Config, providers *telemetry.Providers, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log.Named("gorm"), logger.GormConfig{
		Level:         logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		FullSQL:       cfg.Telemetry.DBLogFullSQL,
	})
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	var dbMetrics *telemetry.DBMetrics
	if providers.Meter.IsEnabled() {
		dbMetrics, err = telemetry.NewDBMetrics(providers.Meter.Meter("datapadi-web/db"), sqlDB)
		if err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if db.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	instrumentation := telemetry.NewDBInstrumentation(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, dbMetrics, log)
	if err := instrumentation.Register(db.DB); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	// The migrator shares sqlDB, so it is not closed here
	migrator, err := migration.New(sqlDB, db.Driver, log.Named("migrate"))
	if err != nil {
		log.Fatal("Failed to load migrations", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	return db
}

// openStorage returns the configured artifact store
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) printing.DocumentStorage {
	if cfg.Storage.Type == "s3" {
		s3Storage, err := storage.NewS3DocumentStorage(&cfg.Storage,
			storage.WithLogger(log.Named("s3")),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to create S3 storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("S3 bucket unavailable", zap.String("bucket", s3Storage.GetBucket()), zap.Error(err))
		}
		log.Info("Storing exports in S3", zap.String("bucket", s3Storage.GetBucket()))
		return s3Storage
	}

	fsStorage, err := printing.NewFileSystemStorage(printing.FileSystemStorageConfig{
		BasePath: cfg.Storage.BasePath,
		Logger:   log.Named("storage"),
	})
	if err != nil {
		log.Fatal("Failed to create file storage", zap.Error(err))
	}
	log.Info("Storing exports on disk", zap.String("path", cfg.Storage.BasePath))
	return fsStorage
}

// paymentGuardTTL keeps a flow locked for longer than the backend call can take
func paymentGuardTTL(backendTimeout time.Duration) time.Duration {
	if ttl := 2 * backendTimeout; ttl > purchaseapp.DefaultPaymentGuardTTL {
		return ttl
	}
	return purchaseapp.DefaultPaymentGuardTTL
}
