package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/config"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"github.com/tuition/backend/internal/interfaces/http/handler"
	"github.com/tuition/backend/internal/interfaces/http/middleware"
	"github.com/tuition/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type routes struct {
	sessions middleware.SessionResolver
	replay   shared.IdempotencyStore
	fees     *handler.FeeHandler
	session  *handler.SessionHandler
	system   *handler.SystemHandler
}

// newEngine builds the gin engine. Middleware order:
// request ID, recovery, tracing, access log, metrics, security headers, CORS,
// body limit; the versioned API additionally authenticates.
func newEngine(cfg *config.Config, log *zap.Logger, meter metric.Meter, r routes) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(meter),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", r.system.Health)

	mounted := router.NewAPI("v1").
		Use(
			middleware.Authenticate(middleware.AuthConfig{Resolver: r.sessions, Logger: log}),
			middleware.SessionSpanAttributes(),
			middleware.SpanErrorMarker(),
		).
		Add(
			router.StudentRoutes(r.fees, middleware.Idempotency(middleware.IdempotencyConfig{
				Store:  r.replay,
				TTL:    cfg.HTTP.IdempotencyTTL,
				Logger: log,
			})),
			router.FeeRoutes(r.fees),
			router.SessionRoutes(r.session),
		).
		Mount(engine)
	for _, route := range mounted {
		log.Debug("Route mounted", zap.Stringer("route", route))
	}

	return engine
}
