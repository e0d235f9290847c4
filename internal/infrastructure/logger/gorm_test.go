package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "UPDATE term_ledger_entries SET total_paid = 500", 1 }
	newLogger := func(cfg GormConfig) (*GormLogger, *observer.ObservedLogs) {
		core, recorded := observer.New(zapcore.DebugLevel)
		return NewGormLogger(zap.New(core), cfg), recorded
	}

	t.Run("logs errors with request id", func(t *testing.T) {
		gl, recorded := newLogger(GormConfig{Level: gormlogger.Warn})
		ctx := WithRequestID(context.Background(), "req-9")

		gl.Trace(ctx, time.Now(), sql, errors.New("deadlock detected"))

		logs := recorded.FilterMessage("SQL Error").All()
		require.Len(t, logs, 1)
		assert.Equal(t, "req-9", logs[0].ContextMap()["request_id"])
		assert.Equal(t, int64(1), logs[0].ContextMap()["rows"])
	})

	t.Run("skips record not found", func(t *testing.T) {
		gl, recorded := newLogger(GormConfig{Level: gormlogger.Info})

		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		gl, recorded := newLogger(GormConfig{Level: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond})

		gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
		assert.Equal(t, "Slow SQL", logs[0].Message)
	})

	t.Run("fast queries are quiet at warn", func(t *testing.T) {
		called := false
		gl, recorded := newLogger(GormConfig{Level: gormlogger.Warn, SlowThreshold: time.Minute})

		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			called = true
			return sql()
		}, nil)
		assert.Zero(t, recorded.Len())
		assert.False(t, called, "the statement is not rendered when nothing is logged")
	})

	t.Run("debug at info level", func(t *testing.T) {
		gl, recorded := newLogger(GormConfig{Level: gormlogger.Info})

		gl.Trace(context.Background(), time.Now(), sql, nil)
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, zapcore.DebugLevel, recorded.All()[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gl, recorded := newLogger(GormConfig{Level: gormlogger.Warn})
		silent := gl.LogMode(gormlogger.Silent)

		silent.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	const stmt = "UPDATE payment_records SET amount = ? WHERE id = ?"

	redacted := NewGormLogger(zap.NewNop(), GormConfig{})
	sql, params := redacted.ParamsFilter(context.Background(), stmt, "1500.00", "rec-1")
	assert.Equal(t, stmt, sql)
	assert.Nil(t, params)

	full := NewGormLogger(zap.NewNop(), GormConfig{FullSQL: true})
	_, params = full.ParamsFilter(context.Background(), stmt, "1500.00", "rec-1")
	assert.Equal(t, []any{"1500.00", "rec-1"}, params)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
}
