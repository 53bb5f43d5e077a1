package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/files"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/application/ledger"
	appnotification "github.com/erp/stockledger/internal/application/notification"
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/auth"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/event"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/infrastructure/migration"
	"github.com/erp/stockledger/internal/infrastructure/notification"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/printing"
	"github.com/erp/stockledger/internal/infrastructure/storage"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	version           = "1.0.0"
	timeFormat        = "2006-01-02T15:04:05.000Z07:00"
	shutdownTimeout   = 30 * time.Second
	lowStockInterval  = 5 * time.Minute
	processedEventTTL = 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: timeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Logs go to the collector as well once the bridge is up
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	bridged, err := telemetry.BridgeLogger(log, logsProvider, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatal("Failed to bridge logger", zap.Error(err))
	}
	log = bridged
	defer logger.Sync(log)

	log.Info("Starting stock ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	// Database
	var gormOpts []logger.GormLoggerOption
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	tracingCfg := telemetry.DefaultDBTracingConfig()
	tracingCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracingCfg.DBSystem = db.Driver
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(tracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.Enabled = meterProvider.IsEnabled()
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider.Meter("stockledger/db"), dbMetricsCfg, log)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(db, log); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	// Metrics shared by the engine, the cache and the notifier
	meter := meterProvider.Meter("stockledger")
	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:         meter,
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		ledgerMetrics.StartPeriodicCollection(ctx, telemetry.NewGormCompanyProvider(db.DB), lowStockInterval)
	}

	// Cache and locks
	cacheResult, err := cache.NewStoreFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	var locker shared.Locker = cache.NewLocalLocker()
	if cacheResult.Redis != nil {
		locker = cache.NewLocker(cacheResult.Redis, cfg.Cache.KeyPrefix)
	}
	companyCache := companycache.New(cacheResult.Store,
		companycache.WithTTLs(companycache.TTLs{
			Long:    cfg.Cache.LongTTL,
			Default: cfg.Cache.DefaultTTL,
			Short:   cfg.Cache.ShortTTL,
		}),
		companycache.WithRecorder(ledgerMetrics),
	)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	notifier := notification.New(cfg.Notification)
	eventBus.Subscribe(event.NewIdempotentHandler(
		appnotification.NewLedgerHandler(notifier, cfg.Notification.Recipients, ledgerMetrics),
		cacheResult.Store, processedEventTTL, log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories and services
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	ownership := persistence.NewGormOwnershipLookup(db.DB)

	pdfPrinter := printing.NewChromedpPrinter(printing.ChromedpConfig{
		DefaultTimeout: cfg.Report.PDFTimeout,
		ExecPath:       cfg.Report.ChromePath,
		NoSandbox:      true,
		Logger:         log,
	})
	financeService := financeapp.NewService(scope, repos,
		financeapp.WithCache(companyCache),
		financeapp.WithOwnershipLookup(ownership),
		financeapp.WithRenderers(
			printing.NewXLSXRenderer(cfg.Report.Locale),
			printing.NewPDFRenderer(pdfPrinter, cfg.Report.Locale),
		),
	)
	engine := ledger.NewEngine(scope, repos, financeService,
		ledger.WithCache(companyCache),
		ledger.WithPublisher(eventBus),
		ledger.WithMetrics(ledgerMetrics),
		ledger.WithMaxAttempts(cfg.Ledger.MaxRetries),
	)
	stockService := stock.NewService(scope, repos, financeService,
		stock.WithCache(companyCache),
		stock.WithLocker(locker),
		stock.WithOwnershipLookup(ownership),
		stock.WithRecomputer(engine.Recomputer()),
		stock.WithSKUPolicy(cfg.Ledger.SKULockTTL, cfg.Ledger.SKUMaxAttempts),
	)
	fileStorage, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize file storage", zap.Error(err))
	}
	fileService := files.NewService(fileStorage, cfg.Storage.MaxFileSize)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpEngine := gin.New()
	httpEngine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(middleware.CORSFromConfig(cfg.HTTP)),
		middleware.SecureWithConfig(middleware.DefaultSecurityConfig()),
		middleware.BodyLimit(max(cfg.HTTP.MaxBodySize, cfg.Storage.MaxFileSize+1<<20)),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.HTTPMetrics(meter),
		middleware.Profiling(cfg.Profiling.Enabled),
		middleware.AuditInfo(),
	)

	identity := middleware.DefaultIdentityConfig(jwtService)
	identity.AllowHeaderIdentity = cfg.Auth.AllowHeaderIdentity
	identity.Logger = log

	handlers := handler.Handlers{
		Categories:    handler.NewStockCategoryHandler(stockService),
		SubCategories: handler.NewStockSubCategoryHandler(stockService),
		Items:         handler.NewStockItemHandler(stockService),
		Records:       handler.NewStockRecordHandler(engine),
		Recompute:     handler.NewRecomputeHandler(engine),
		Finance:       handler.NewFinanceHandler(financeService),
		Reports:       handler.NewReportHandler(financeService),
		Files:         handler.NewFileHandler(fileService),
		Cache:         handler.NewCacheHandler(companyCache, stockService, financeService),
		Health: handler.NewHealthHandler(version, map[string]handler.Pinger{
			"database": handler.PingFunc(func(context.Context) error { return db.Ping() }),
		}),
	}
	handlers.RegisterHealth(httpEngine)

	r := router.NewRouter(httpEngine,
		router.WithMiddleware(
			middleware.Identity(identity),
			middleware.ActorSpanAttributes(),
			middleware.SpanErrorMarker(),
		),
	)
	handlers.Register(r)
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      httpEngine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	ledgerMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Log exporter shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema brings the schema up to date: versioned migrations on
// PostgreSQL, gorm's AutoMigrate on sqlite.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return persistence.AutoMigrate(db.DB)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migration.Source(""), log)
	if err != nil {
		return err
	}
	return m.Up()
}
