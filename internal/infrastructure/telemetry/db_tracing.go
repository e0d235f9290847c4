package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

const (
	attrRowsAffected = attribute.Key("db.rows_affected")
	attrTable        = attribute.Key("db.sql.table")
	attrSlowQuery    = attribute.Key("db.slow_query")
	attrQueryMillis  = attribute.Key("db.query_duration_ms")
)

// statement-scoped setting holding the time a callback chain started
const startedAtSetting = "tuition:query_started_at"

// DBTracingConfig controls the otelgorm plugin.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound values in db.statement. Ledger amounts and
	// student ids end up in the trace backend when it is set.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DBTracingPlugin attaches otelgorm spans to a GORM handle and marks slow
// statements on them.
type DBTracingPlugin struct {
	cfg DBTracingConfig
	log *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	return &DBTracingPlugin{cfg: cfg, log: log.Named("db_tracing")}
}

// Register is a no-op when tracing is disabled. Registering twice on the
// same handle fails because gorm refuses duplicate plugin names.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.cfg.Enabled {
		p.log.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.hook(db); err != nil {
		return err
	}

	p.log.Info("Database tracing enabled",
		zap.String("db_system", p.cfg.DBSystem),
		zap.Bool("full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query", p.cfg.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) hook(db *gorm.DB) error {
	cb := db.Callback()
	return multierr.Combine(
		cb.Create().Before("gorm:create").Register("tuition:start_create", startTimer),
		cb.Create().After("gorm:create").Register("tuition:finish_create", p.finish),
		cb.Query().Before("gorm:query").Register("tuition:start_query", startTimer),
		cb.Query().After("gorm:query").Register("tuition:finish_query", p.finish),
		cb.Update().Before("gorm:update").Register("tuition:start_update", startTimer),
		cb.Update().After("gorm:update").Register("tuition:finish_update", p.finish),
		cb.Delete().Before("gorm:delete").Register("tuition:start_delete", startTimer),
		cb.Delete().After("gorm:delete").Register("tuition:finish_delete", p.finish),
		cb.Row().Before("gorm:row").Register("tuition:start_row", startTimer),
		cb.Row().After("gorm:row").Register("tuition:finish_row", p.finish),
		cb.Raw().Before("gorm:raw").Register("tuition:start_raw", startTimer),
		cb.Raw().After("gorm:raw").Register("tuition:finish_raw", p.finish),
	)
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(startedAtSetting, time.Now())
}

// finish decorates the otelgorm span of the statement that just ran.
// Not-found is an expected outcome for ledger lookups and stays unmarked.
func (p *DBTracingPlugin) finish(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	stmt := db.Statement
	if stmt.RowsAffected >= 0 {
		span.SetAttributes(attrRowsAffected.Int64(stmt.RowsAffected))
	}
	if stmt.Table != "" {
		span.SetAttributes(attrTable.String(stmt.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	v, ok := db.InstanceGet(startedAtSetting)
	if !ok {
		return
	}
	started, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(started)
	if elapsed <= p.cfg.SlowQueryThresh {
		return
	}
	span.SetAttributes(attrSlowQuery.Bool(true), attrQueryMillis.Int64(elapsed.Milliseconds()))
	span.AddEvent("slow_query", trace.WithAttributes(
		attribute.Int64("threshold_ms", p.cfg.SlowQueryThresh.Milliseconds()),
	))
}
