package router

import (
	"fmt"

	"github.com/erp/apcontrols/internal/infrastructure/logger"
	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/erp/apcontrols/internal/interfaces/http/handler"
	"github.com/erp/apcontrols/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Match     *handler.MatchHandler
	Exception *handler.ExceptionHandler
	Payment   *handler.PaymentHandler
	System    *handler.SystemHandler
}

// EngineConfig configures the gin engine and its global middleware
type EngineConfig struct {
	ServiceName    string
	TracingEnabled bool
	MeterProvider  *telemetry.MeterProvider
	MaxBodySize    int64
	TrustedProxies []string
	Logger         *zap.Logger
}

// NewEngine builds the gin engine with the global middleware chain, the probe
// endpoints and the versioned AP routes.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		logger.Recovery(log, handler.PanicResponse),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		middleware.RequestID(),
		logger.RequestLogger(log),
		middleware.Secure(),
		middleware.HTTPMetrics(cfg.MeterProvider),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	engine.NoRoute(handler.NoRoute)
	engine.NoMethod(handler.NoRoute)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	groups := []*RouteGroup{APGroup(h)}
	if h.System != nil {
		groups = append(groups, NewRouteGroup("system", "/system").GET("/info", h.System.GetSystemInfo))
	}
	routes := Mount(engine, DefaultAPIVersion, groups...)
	log.Debug("Routes mounted", zap.Int("count", len(routes)), zap.Strings("routes", routes))

	return engine, nil
}

// APGroup declares the accounts payable routes. Every route requires the
// caller identity headers.
func APGroup(h Handlers) *RouteGroup {
	ap := NewRouteGroup("ap", "/ap", middleware.Actor(), middleware.SpanEnricher())

	if h.Match != nil {
		ap.Child("matches", "/matches").
			POST("", h.Match.Evaluate).
			GET("/:id", h.Match.Get).
			POST("/:id/override", h.Match.Override)
		ap.Child("invoices", "/invoices").
			GET("/:id/match", h.Match.GetByInvoice)
	}

	if h.Exception != nil {
		ap.Child("exceptions", "/exceptions").
			GET("", h.Exception.List).
			GET("/:id", h.Exception.Get).
			POST("/:id/resolve", h.Exception.Resolve)
	}

	if h.Payment != nil {
		ap.Child("payments", "/payments").
			POST("", h.Payment.Create).
			GET("/:id", h.Payment.Get).
			GET("/:id/approvals", h.Payment.Approvals).
			POST("/:id/submit", h.Payment.Submit()).
			POST("/:id/approve", h.Payment.Approve).
			POST("/:id/execute", h.Payment.Execute()).
			POST("/:id/complete", h.Payment.Complete()).
			POST("/:id/fail", h.Payment.Fail).
			POST("/:id/retry", h.Payment.Retry())
	}

	return ap
}
