package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type exportedLog struct {
	body     string
	severity otellog.Severity
	attrs    map[string]string
}

type memoryLogExporter struct {
	mu   sync.Mutex
	logs []exportedLog
}

func (e *memoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		attrs := map[string]string{}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			attrs[kv.Key] = kv.Value.String()
			return true
		})
		e.logs = append(e.logs, exportedLog{body: r.Body().AsString(), severity: r.Severity(), attrs: attrs})
	}
	return nil
}

func (e *memoryLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryLogExporter) exported() []exportedLog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]exportedLog(nil), e.logs...)
}

func TestBridge(t *testing.T) {
	exporter := &memoryLogExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	base, local := observer.New(zapcore.DebugLevel)
	log := bridge(zap.New(base), provider, "tuition-backend", zapcore.InfoLevel)

	log.Debug("allocation plan built")
	log.Info("payment recorded", zap.String("student_id", "s-1"))
	log.With(zap.Int("term", 2)).Warn("term overdue")

	assert.Equal(t, 3, local.Len(), "local output keeps every level")

	logs := exporter.exported()
	require.Len(t, logs, 2)
	assert.Equal(t, "payment recorded", logs[0].body)
	assert.Equal(t, otellog.SeverityInfo, logs[0].severity)
	assert.Equal(t, "s-1", logs[0].attrs["student_id"])
	assert.Equal(t, "term overdue", logs[1].body)
	assert.Equal(t, otellog.SeverityWarn, logs[1].severity)
	assert.Equal(t, "2", logs[1].attrs["term"])
}

func TestProviders_Bridge_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "tuition-backend"}, zap.NewNop())
	require.NoError(t, err)

	log := zap.NewNop()
	assert.Same(t, log, p.Bridge(log, "tuition-backend", zapcore.InfoLevel))
}
