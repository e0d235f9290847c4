package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig tunes the GORM bridge
type GormConfig struct {
	Level gormlogger.LogLevel
	// SlowThreshold turns a statement into a warning; 0 disables the check
	SlowThreshold time.Duration
	// FullSQL keeps bound values in logged statements. Off, amounts and
	// remarks stay out of the logs and placeholders are printed instead.
	FullSQL bool
}

// GormLogger routes GORM's statement log through zap, with the request's
// correlation fields attached. Record-not-found is never logged: the
// repositories translate it into shared.ErrNotFound.
type GormLogger struct {
	log *zap.Logger
	cfg GormConfig
}

// NewGormLogger creates a GORM logger writing to the "gorm" child of log
func NewGormLogger(log *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{log: log.Named("gorm"), cfg: cfg}
}

// LogMode returns a copy at the given level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.cfg.Level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Info {
		Enrich(ctx, l.log).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Warn {
		Enrich(ctx, l.log).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Error {
		Enrich(ctx, l.log).Sugar().Errorf(msg, data...)
	}
}

// ParamsFilter drops bound values unless FullSQL is set. GORM calls it before
// rendering the statement passed to Trace.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.cfg.FullSQL {
		return sql, params
	}
	return sql, nil
}

// Trace logs one executed statement: errors at error level, slow statements
// at warn, everything else at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold > 0 && elapsed >= l.cfg.SlowThreshold
	if !(err != nil && l.cfg.Level >= gormlogger.Error) &&
		!(slow && l.cfg.Level >= gormlogger.Warn) &&
		l.cfg.Level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	log := Enrich(ctx, l.log).With(
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)
	switch {
	case err != nil && l.cfg.Level >= gormlogger.Error:
		log.Error("SQL Error", zap.Error(err))
	case slow && l.cfg.Level >= gormlogger.Warn:
		log.Warn("Slow SQL", zap.Duration("threshold", l.cfg.SlowThreshold))
	default:
		log.Debug("SQL Query")
	}
}

// MapGormLogLevel maps the application log level to a GORM level.
// Only debug logging prints every statement.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

var _ gorm.ParamsFilter = (*GormLogger)(nil)
