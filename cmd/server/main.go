package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/config"
	"github.com/erp/apcontrols/internal/infrastructure/event"
	"github.com/erp/apcontrols/internal/infrastructure/fiscal"
	"github.com/erp/apcontrols/internal/infrastructure/logger"
	"github.com/erp/apcontrols/internal/infrastructure/permission"
	"github.com/erp/apcontrols/internal/infrastructure/persistence"
	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/erp/apcontrols/internal/interfaces/http/handler"
	"github.com/erp/apcontrols/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			AP Controls API
//	@version		1.0
//	@description	Three-way match and payment execution controls for accounts payable

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	TenantHeader
//	@in							header
//	@name						X-Tenant-ID

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = lp.Shutdown(context.Background()) }()
	if lp.IsEnabled() {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		log = telemetry.NewBridgedLogger(log, telemetry.NewZapOTELCore(serviceName, lp, level), zap.AddCaller())
	}

	log.Info("Starting AP controls service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)),
		persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Events
	publisher, publisherCloser, err := event.NewPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = publisherCloser.Close() }()

	controlMetrics, err := telemetry.NewControlMetrics(telemetry.ControlMetricsConfig{
		Meter:  mp.Meter("apcontrols"),
		Logger: log,
	})
	if err != nil {
		return err
	}

	// Ports
	fallbackPolicy, err := persistence.MatchPolicyFromConfig(cfg.Match)
	if err != nil {
		return err
	}
	var glPoster finance.GLPoster
	if cfg.Payment.GLPostingEnabled {
		glPoster = persistence.NewGormGLPostingQueue(db.DB)
	}
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Services
	matchService := financeapp.NewMatchService(financeapp.MatchServiceConfig{
		Invoices:       persistence.NewGormInvoiceReader(db.DB),
		PurchaseOrders: persistence.NewGormPurchaseOrderReader(db.DB),
		GoodsReceipts:  persistence.NewGormGoodsReceiptReader(db.DB),
		Policies:       persistence.NewGormMatchPolicyProvider(db.DB, fallbackPolicy),
		MatchRepo:      persistence.NewGormMatchResultRepository(db.DB),
		TxScope:        txScope,
		EventPublisher: publisher,
		Metrics:        controlMetrics,
		Logger:         log,
	})
	overrideService := financeapp.NewOverrideService(financeapp.OverrideServiceConfig{
		Permissions:    permission.NewRoleChecker(cfg.Override.AllowedRoles),
		TxScope:        txScope,
		EventPublisher: publisher,
		Metrics:        controlMetrics,
		Logger:         log,
	})
	exceptionService := financeapp.NewExceptionService(financeapp.ExceptionServiceConfig{
		ExceptionRepo:  persistence.NewGormMatchExceptionRepository(db.DB),
		TxScope:        txScope,
		EventPublisher: publisher,
		Metrics:        controlMetrics,
		Logger:         log,
	})
	var calendar finance.FiscalCalendar = persistence.NewGormFiscalCalendar(db.DB, cfg.Fiscal.RequireDefinedPeriod)
	if cfg.Fiscal.Source == config.FiscalSourceConfig {
		if calendar, err = fiscal.FromConfig(cfg.Fiscal); err != nil {
			return err
		}
		log.Info("Fiscal calendar loaded from config", zap.Int("periods", len(cfg.Fiscal.Periods)))
	}
	paymentService := financeapp.NewPaymentService(financeapp.PaymentServiceConfig{
		PaymentRepo:    persistence.NewGormPaymentRepository(db.DB),
		Calendar:       calendar,
		TxScope:        txScope,
		EventPublisher: publisher,
		Metrics:        controlMetrics,
		Logger:         log,
	})
	approvalService := financeapp.NewApprovalService(financeapp.ApprovalServiceConfig{
		ApprovalRepo:   persistence.NewGormPaymentApprovalRepository(db.DB),
		TxScope:        txScope,
		EventPublisher: publisher,
		Metrics:        controlMetrics,
		Logger:         log,
	})
	executionService := financeapp.NewExecutionService(financeapp.ExecutionServiceConfig{
		TxScope:        txScope,
		GLPoster:       glPoster,
		EventPublisher: publisher,
		Metrics:        controlMetrics,
		Logger:         log,
	})

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    serviceName,
		TracingEnabled: tp.IsEnabled(),
		MeterProvider:  mp,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Logger:         log,
	}, router.Handlers{
		Match:     handler.NewMatchHandler(matchService, overrideService),
		Exception: handler.NewExceptionHandler(exceptionService),
		Payment:   handler.NewPaymentHandler(paymentService, approvalService, executionService),
		System:    handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("Server exited")
	return nil
}
