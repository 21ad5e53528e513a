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
	bulkapp "github.com/rotem1230/gal1/internal/application/bulk"
	cartapp "github.com/rotem1230/gal1/internal/application/cart"
	catalogapp "github.com/rotem1230/gal1/internal/application/catalog"
	partnerapp "github.com/rotem1230/gal1/internal/application/partner"
	printingapp "github.com/rotem1230/gal1/internal/application/printing"
	tradeapp "github.com/rotem1230/gal1/internal/application/trade"
	"github.com/rotem1230/gal1/internal/infrastructure/cache"
	"github.com/rotem1230/gal1/internal/infrastructure/config"
	"github.com/rotem1230/gal1/internal/infrastructure/logger"
	"github.com/rotem1230/gal1/internal/infrastructure/persistence"
	infraprinting "github.com/rotem1230/gal1/internal/infrastructure/printing"
	"github.com/rotem1230/gal1/internal/infrastructure/storage"
	"github.com/rotem1230/gal1/internal/infrastructure/telemetry"
	"github.com/rotem1230/gal1/internal/interfaces/http/handler"
	"github.com/rotem1230/gal1/internal/interfaces/http/middleware"
	"github.com/rotem1230/gal1/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry first, so the log bridge and the DB plugin see the providers
	tel, err := telemetry.Setup(context.Background(), cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := tel.Logger(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database with the zap backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.SlowQueryThresh = cfg.Database.SlowThreshold
		if cfg.Database.Driver == "sqlite" {
			dbTracing.DBSystem = "sqlite"
		}
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Cart store: Redis when configured, process memory otherwise
	carts, err := cache.NewCartStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create cart store", zap.Error(err))
	}
	defer func() {
		if err := carts.Close(); err != nil {
			log.Error("Error closing cart store", zap.Error(err))
		}
	}()

	images := newImageStore(cfg, log)

	// Repositories
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	exchangeRepo := persistence.NewGormExchangeRepository(db.DB)

	// Application services
	cartService := cartapp.NewService(carts, productRepo, customerRepo, log)
	settlementService := tradeapp.NewSettlementService(orderRepo, customerRepo, cartService, log,
		tradeapp.WithMetrics(tel.Metrics))
	categoryService := catalogapp.NewCategoryService(categoryRepo, images, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, carts, images, log)
	customerService := partnerapp.NewCustomerService(customerRepo)
	bulkService := bulkapp.NewService(exchangeRepo, categoryRepo, images, log,
		bulkapp.WithMetrics(tel.Metrics),
		bulkapp.WithLimits(cfg.Bulk.MaxErrors, cfg.Bulk.MaxUploadSize),
		bulkapp.WithTempDir(cfg.Bulk.TempDir),
	)
	printService, closeRenderer := newPrintService(cfg, settlementService, tel, log)
	defer closeRenderer()

	// HTTP
	opts := router.DefaultOptions()
	opts.ServiceName = cfg.Telemetry.ServiceName
	opts.Tracing = tel.Tracer.IsEnabled()
	if tel.Meter.IsEnabled() {
		opts.Meter = tel.Meter.Meter(telemetry.TracerName + "/http")
	}
	opts.Profiling = tel.Profiler.IsEnabled()
	opts.Session = middleware.SessionConfig{
		CookieName: cfg.Session.CookieName,
		HeaderName: cfg.Session.HeaderName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
	}
	opts.CORS.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	opts.MaxBodySize = cfg.HTTP.MaxBodySize
	opts.TrustedProxies = cfg.HTTP.TrustedProxies

	engine, err := router.NewEngine(log, opts, router.Handlers{
		Cart:     handler.NewCartHandler(cartService),
		Order:    handler.NewOrderHandler(settlementService),
		Document: handler.NewDocumentHandler(printService),
		Bulk:     handler.NewBulkHandler(bulkService, cfg.Bulk.MaxUploadSize),
		Category: handler.NewCategoryHandler(categoryService),
		Product:  handler.NewProductHandler(productService),
		Customer: handler.NewCustomerHandler(customerService),
		System: handler.NewSystemHandler(printService.Enabled(), map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
		}),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tel.Shutdown(ctx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newImageStore returns the S3 store when storage is enabled and the local
// directory store otherwise.
func newImageStore(cfg *config.Config, log *zap.Logger) catalogapp.ImageStore {
	if !cfg.Storage.Enabled {
		log.Info("Using local image directory", zap.String("path", cfg.Storage.LocalPath))
		return storage.NewLocalImageStore(cfg.Storage.LocalPath)
	}

	store, err := storage.NewS3ImageStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create S3 image store", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("Image bucket unavailable", zap.String("bucket", store.GetBucket()), zap.Error(err))
	}
	log.Info("Using S3 image store", zap.String("bucket", store.GetBucket()))
	return store
}

// newPrintService starts the headless Chrome renderer when printing is
// enabled. Without it the service still serves HTML previews.
func newPrintService(
	cfg *config.Config,
	settler printingapp.Settler,
	tel *telemetry.Telemetry,
	log *zap.Logger,
) (*printingapp.Service, func()) {
	templates, err := infraprinting.NewTemplateEngine(cfg.Printing.LogoPath)
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}

	opts := []printingapp.Option{
		printingapp.WithMetrics(tel.Metrics),
		printingapp.WithTimeout(cfg.Printing.Timeout),
	}
	if !cfg.Printing.Enabled {
		log.Info("PDF printing disabled")
		return printingapp.NewService(settler, templates, nil, log, opts...), func() {}
	}

	if cfg.Printing.StoragePath != "" {
		archive, err := infraprinting.NewFileSystemStorage(&infraprinting.FileSystemStorageConfig{
			BasePath: cfg.Printing.StoragePath,
			Logger:   log,
		})
		if err != nil {
			log.Fatal("Failed to prepare PDF archive", zap.Error(err))
		}
		opts = append(opts, printingapp.WithStorage(archive))
	}

	renderer := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
		DefaultTimeout: cfg.Printing.Timeout,
		ExecPath:       cfg.Printing.ChromePath,
		NoSandbox:      os.Geteuid() == 0,
		Logger:         log,
	})
	log.Info("PDF printing enabled", zap.String("chrome", cfg.Printing.ChromePath))

	return printingapp.NewService(settler, templates, renderer, log, opts...), func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}
}
