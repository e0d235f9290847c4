package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
)

// Metric attribute keys
var (
	AttrPaymentMethod  = attribute.Key("payment_method")
	AttrOutcome        = attribute.Key("outcome")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)

// HTTPDurationBuckets are latency boundaries in seconds
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Counter is a monotonic int64 counter
type Counter struct {
	counter metric.Int64Counter
}

func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram is a float64 distribution
type Histogram struct {
	histogram metric.Float64Histogram
}

func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Instruments creates instruments on one meter and keeps the first failures,
// so a metrics set can be declared as a flat list and checked once with Err.
type Instruments struct {
	meter metric.Meter
	err   error
}

// NewInstruments starts an instrument set on meter
func NewInstruments(meter metric.Meter) *Instruments {
	return &Instruments{meter: meter}
}

// Counter creates a counter; a failure is reported by Err
func (in *Instruments) Counter(name, description, unit string) *Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.err = multierr.Append(in.err, fmt.Errorf("counter %s: %w", name, err))
	}
	return &Counter{counter: c}
}

// Histogram creates a histogram, with explicit buckets when given
func (in *Instruments) Histogram(name, description, unit string, buckets ...float64) *Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := in.meter.Float64Histogram(name, opts...)
	if err != nil {
		in.err = multierr.Append(in.err, fmt.Errorf("histogram %s: %w", name, err))
	}
	return &Histogram{histogram: h}
}

// UpDownCounter creates a gauge-like counter
func (in *Instruments) UpDownCounter(name, description, unit string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.err = multierr.Append(in.err, fmt.Errorf("up-down counter %s: %w", name, err))
	}
	return c
}

// Err reports every instrument that could not be created
func (in *Instruments) Err() error {
	return in.err
}
