package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// FeeMetrics counts ledger activity.
type FeeMetrics struct {
	paymentsTotal     *Counter
	allocatedPaise    *Counter
	paymentAmount     *Histogram
	schedulesTotal    *Counter
	termsCreatedTotal *Counter
	termEditsTotal    *Counter
}

// NewFeeMetrics registers the fee ledger instruments on meter.
func NewFeeMetrics(meter metric.Meter) (*FeeMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	in := NewInstruments(meter)
	fm := &FeeMetrics{
		paymentsTotal:  in.Counter("fee_payments_total", "Payments submitted", "{payments}"),
		allocatedPaise: in.Counter("fee_allocated_amount_total", "Amount allocated to terms in paise", "{paise}"),
		paymentAmount: in.Histogram("fee_payment_amount", "Distribution of payment amounts", "{rupees}",
			500, 1000, 2500, 5000, 10000, 25000, 50000),
		schedulesTotal:    in.Counter("fee_schedules_generated_total", "Fee cycles generated", "{cycles}"),
		termsCreatedTotal: in.Counter("fee_terms_created_total", "Term ledger entries created", "{terms}"),
		termEditsTotal:    in.Counter("fee_term_edits_total", "Manual term edits by outcome", "{terms}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return fm, nil
}

// RecordPayment counts a payment attempt; amount is added only when it succeeded.
func (fm *FeeMetrics) RecordPayment(ctx context.Context, method string, amount decimal.Decimal, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failed"
	}
	fm.paymentsTotal.Inc(ctx, AttrPaymentMethod.String(method), AttrOutcome.String(outcome))
	if ok {
		fm.allocatedPaise.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), AttrPaymentMethod.String(method))
		fm.paymentAmount.Record(ctx, amount.InexactFloat64(), AttrPaymentMethod.String(method))
	}
}

// RecordScheduleGenerated counts one generated cycle of terms.
func (fm *FeeMetrics) RecordScheduleGenerated(ctx context.Context, terms int) {
	fm.schedulesTotal.Inc(ctx)
	fm.termsCreatedTotal.Add(ctx, int64(terms))
}

// RecordManualEdit counts the outcome of a manual edit batch.
func (fm *FeeMetrics) RecordManualEdit(ctx context.Context, updated, failed int) {
	if updated > 0 {
		fm.termEditsTotal.Add(ctx, int64(updated), AttrOutcome.String("success"))
	}
	if failed > 0 {
		fm.termEditsTotal.Add(ctx, int64(failed), AttrOutcome.String("failed"))
	}
}
