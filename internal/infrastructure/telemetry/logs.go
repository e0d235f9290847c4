package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Bridge tees log to the OTLP log pipeline at minLevel and above. It returns log
// unchanged when log export is disabled.
func (p *Providers) Bridge(log *zap.Logger, name string, minLevel zapcore.Level) *zap.Logger {
	if p.logs == nil {
		return log
	}
	return bridge(log, p.logs, name, minLevel)
}

func bridge(log *zap.Logger, provider otellog.LoggerProvider, name string, minLevel zapcore.Level) *zap.Logger {
	otelCore := &levelFilterCore{
		Core: otelzap.NewCore(name, otelzap.WithLoggerProvider(provider)),
		min:  minLevel,
	}
	return log.WithOptions(zap.WrapCore(func(base zapcore.Core) zapcore.Core {
		return zapcore.NewTee(base, otelCore)
	}))
}

// levelFilterCore drops entries below min; the otelzap core has no level of its own
type levelFilterCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), min: c.min}
}
