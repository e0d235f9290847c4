package fee

import (
	"context"

	"github.com/shopspring/decimal"
)

// Metrics records ledger activity counters
type Metrics interface {
	RecordPayment(ctx context.Context, method string, amount decimal.Decimal, ok bool)
	RecordScheduleGenerated(ctx context.Context, terms int)
	RecordManualEdit(ctx context.Context, updated, failed int)
}

// NopMetrics discards measurements
type NopMetrics struct{}

func (NopMetrics) RecordPayment(context.Context, string, decimal.Decimal, bool) {}
func (NopMetrics) RecordScheduleGenerated(context.Context, int) {}
func (NopMetrics) RecordManualEdit(context.Context, int, int) {}
