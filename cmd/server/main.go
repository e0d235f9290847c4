package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	appfee "github.com/tuition/backend/internal/application/fee"
	appsession "github.com/tuition/backend/internal/application/session"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/auth"
	"github.com/tuition/backend/internal/infrastructure/cache"
	"github.com/tuition/backend/internal/infrastructure/config"
	"github.com/tuition/backend/internal/infrastructure/event"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"github.com/tuition/backend/internal/infrastructure/migration"
	"github.com/tuition/backend/internal/infrastructure/notification"
	"github.com/tuition/backend/internal/infrastructure/persistence"
	"github.com/tuition/backend/internal/infrastructure/persistence/models"
	"github.com/tuition/backend/internal/infrastructure/session"
	"github.com/tuition/backend/internal/infrastructure/strategy/allocation"
	"github.com/tuition/backend/internal/infrastructure/telemetry"
	"github.com/tuition/backend/internal/interfaces/http/handler"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

//	@title			Tuition Fee Ledger API
//	@version		1.0
//	@description	Term fee schedules, payments and manual ledger edits for a tuition roster
//
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
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
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting tuition fee backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx := context.Background()

	// Telemetry first so the database plugin and services see the global providers
	otelProviders, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracesEnabled:     cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	exportLevel, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		exportLevel = zapcore.InfoLevel
	}
	log = otelProviders.Bridge(log, cfg.Telemetry.ServiceName, exportLevel)
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	feeMetrics, err := telemetry.NewFeeMetrics(otelProviders.Meter("tuition-backend/fee"))
	if err != nil {
		log.Fatal("Failed to create fee metrics", zap.Error(err))
	}

	db := openDatabase(cfg, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// Sessions
	clock := shared.SystemClock{}
	sessionBackend, err := session.Open(ctx, cfg, clock)
	if err != nil {
		log.Fatal("Failed to open session store", zap.Error(err))
	}
	defer func() {
		if err := sessionBackend.Close(); err != nil {
			log.Error("Error closing session store", zap.Error(err))
		}
	}()
	if sessionBackend.Kind == config.SessionStoreMemory {
		log.Warn("Sessions are kept in memory; tokens minted by cmd/token will not resolve")
	}
	// Idempotency keys live next to the sessions
	var replay shared.IdempotencyStore
	if sessionBackend.Redis != nil {
		replay = cache.NewRedisIdempotencyStore(sessionBackend.Redis, cache.DefaultIdempotencyPrefix)
	} else {
		replay = cache.NewInMemoryIdempotencyStore(clock, 5*time.Minute)
	}
	defer func() {
		_ = replay.Close()
	}()

	jwtService := auth.NewJWTService(cfg.JWT)
	sessionService := appsession.NewService(sessionBackend.Store, jwtService, clock, cfg.Session.TTL, log)

	// Events are published after commit and only audited
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(appfee.NewLedgerAuditHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	allocator, err := allocation.New(cfg.Fee.AllocationStrategy)
	if err != nil {
		log.Fatal("Failed to select allocation strategy", zap.Error(err))
	}
	log.Info("Allocation strategy selected", zap.String("strategy", allocator.Name()))

	deps := appfee.Dependencies{
		Students:  persistence.NewGormStudentRepository(db.DB),
		Terms:     persistence.NewGormTermLedgerRepository(db.DB),
		Payments:  persistence.NewGormPaymentRecordRepository(db.DB),
		TxScope:   persistence.NewGormTransactionScope(db.DB),
		Allocator: allocator,
		Events:    eventBus,
		Notifier:  notification.NewZapNotifier(log),
		Metrics:   feeMetrics,
		Clock:     clock,
		Logger:    log,
	}

	feeHandler := handler.NewFeeHandler(
		appfee.NewScheduleService(deps),
		appfee.NewPaymentService(deps),
		appfee.NewLedgerEditorService(deps),
		appfee.NewReportService(deps),
		cfg.Fee.Currency,
	)
	sessionHandler := handler.NewSessionHandler(sessionService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
		"database": db.Ping,
		"sessions": sessionBackend.Ping,
	})

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := newEngine(cfg, log, otelProviders.Meter("tuition-backend/http"), routes{
		sessions: sessionService,
		replay:   replay,
		fees:     feeHandler,
		session:  sessionHandler,
		system:   systemHandler,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// openDatabase connects with the zap-backed GORM logger and SQL tracing, then
// brings the schema up to date: AutoMigrate on sqlite, the embedded
// golang-migrate files on postgres.
func openDatabase(cfg *config.Config, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.GormConfig{
		Level:         logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		FullSQL:       cfg.Telemetry.DBLogFullSQL,
	})
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        persistence.DBSystem(cfg.Database.Driver),
	}, log)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithTracing(tracing),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.DB.AutoMigrate(models.All()...); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
		return db
	}

	// The migrator closes its handle, so it gets its own
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open migration connection", zap.Error(err))
	}
	migrator, err := migration.New(sqlDB, "", log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	return db
}
