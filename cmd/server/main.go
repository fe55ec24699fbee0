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
	cashregisterapp "github.com/sklad/pos/internal/application/cashregister"
	checkoutapp "github.com/sklad/pos/internal/application/checkout"
	closingapp "github.com/sklad/pos/internal/application/closing"
	giftcardapp "github.com/sklad/pos/internal/application/giftcard"
	inventoryapp "github.com/sklad/pos/internal/application/inventory"
	partnerapp "github.com/sklad/pos/internal/application/partner"
	returnsapp "github.com/sklad/pos/internal/application/returns"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/infrastructure/cache"
	"github.com/sklad/pos/internal/infrastructure/config"
	"github.com/sklad/pos/internal/infrastructure/event"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/infrastructure/persistence"
	"github.com/sklad/pos/internal/infrastructure/printing"
	"github.com/sklad/pos/internal/infrastructure/telemetry"
	"github.com/sklad/pos/internal/interfaces/http/handler"
	"github.com/sklad/pos/internal/interfaces/http/middleware"
	"github.com/sklad/pos/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

//	@title			Sklad POS API
//	@version		1.0
//	@description	Point-of-sale backend: catalog, checkout, returns, cash register and daily close.

//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Name:       cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	// Telemetry; every provider is a no-op unless enabled
	ctx := context.Background()
	tel := cfg.Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		SamplingRatio:     tel.SamplingRatio,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tel.Enabled && tel.MetricsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ExportInterval:    tel.MetricsInterval,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tel.Enabled && tel.LogsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	log = telemetry.Bridge(log, lp, cfg.App.Name, level)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.App.Name,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		Profiles:          cfg.Profiling.Extended,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx := context.Background()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Tracer shutdown failed", zap.Error(err))
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Error("Meter shutdown failed", zap.Error(err))
		}
		if err := profiler.Stop(); err != nil {
			log.Error("Profiler stop failed", zap.Error(err))
		}
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Error("Log export shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting POS backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowQueryThreshold),
		logger.WithParams(cfg.Database.LogParams))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         tel.Enabled && tel.DBTraceEnabled,
		LogFullSQL:      tel.DBLogFullSQL,
		SlowQueryThresh: tel.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if err := db.Migrate(&event.JournalEntry{}); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready")

	// Mutable shop settings (session start and last close dates)
	shop := settings.ShopIdentity{
		Name:     cfg.Shop.Name,
		Address:  cfg.Shop.Address,
		TaxID:    cfg.Shop.TaxID,
		VatID:    cfg.Shop.VatID,
		Currency: cfg.Shop.Currency,
		Locale:   cfg.Shop.Locale,
		VatPayer: cfg.Shop.VatPayer,
	}
	var store settings.Store = settings.NewMemoryStore(shop)
	if cfg.Settings.Path != "" {
		vs, err := settings.NewViperStore(cfg.Settings.Path, shop)
		if err != nil {
			log.Fatal("Failed to open settings", zap.String("path", cfg.Settings.Path), zap.Error(err))
		}
		store = vs
	}

	// Event bus feeding the audit journal and the business metrics
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	journal := event.NewGormJournal(db.DB, serializer)
	posMetrics, err := telemetry.NewPOSMetrics(mp.Meter(telemetry.MeterName))
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewJournalHandler(journal, log))
	bus.Subscribe(posMetrics)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	scope := persistence.NewGormTransactionScope(db.DB)

	stockService := inventoryapp.NewStockService(scope, log)
	giftCardService := giftcardapp.NewGiftCardService(scope, log)
	giftCardService.SetEventPublisher(bus)
	checkoutService := checkoutapp.NewCheckoutService(scope, store, log)
	checkoutService.SetEventPublisher(bus)
	returnService := returnsapp.NewReturnService(scope, log)
	returnService.SetEventPublisher(bus)
	ledgerService := cashregisterapp.NewLedgerService(scope, store, log)
	ledgerService.SetEventPublisher(bus)
	ledgerService.SetDayCloseCeiling(cfg.CashRegister.DayCloseCeiling)
	closeService := closingapp.NewCloseService(scope, store, log)
	closeService.SetEventPublisher(bus)
	if cfg.Printing.Enabled {
		renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.ChromeURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		defer func() {
			_ = renderer.Close()
		}()
		closeService.SetPDFRenderer(renderer)
		log.Info("PDF exports enabled", zap.Bool("remote_chrome", cfg.Printing.ChromeURL != ""))
	}
	customerService := partnerapp.NewCustomerService(scope, log)

	if !cfg.HTTP.Enabled {
		log.Info("HTTP API disabled, nothing to serve")
		return
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := router.EngineOptions{
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           middleware.DefaultCORSConfig(),
		ReplayTTL:      cfg.Idempotency.TTL,
	}
	if tp.IsEnabled() {
		opts.TracingService = cfg.App.Name
	}
	if cfg.Idempotency.Enabled {
		replays, err := cache.NewReplayStoreFactory(cfg.Idempotency, cfg.Redis, cache.WithLogger(log)).CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			_ = replays.Close()
		}()
		opts.Replays = replays
	}
	engine, err := router.NewEngine(log, opts)
	if err != nil {
		log.Fatal("Failed to configure HTTP engine", zap.Error(err))
	}
	router.Mount(engine, router.Handlers{
		System:       handler.NewSystemHandler(cfg.App.Name, version, db),
		Product:      handler.NewProductHandler(stockService),
		GiftCard:     handler.NewGiftCardHandler(giftCardService),
		Receipt:      handler.NewReceiptHandler(checkoutService, returnService),
		CashRegister: handler.NewCashRegisterHandler(ledgerService),
		DailyClose:   handler.NewDailyCloseHandler(closeService),
		Customer:     handler.NewCustomerHandler(customerService),
		Journal:      handler.NewJournalHandler(journal),
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

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(stopCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(stopCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
