package fee

import (
	"context"

	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerAuditHandler writes an audit line for every ledger event
type LedgerAuditHandler struct {
	logger *zap.Logger
}

// NewLedgerAuditHandler creates a new LedgerAuditHandler
func NewLedgerAuditHandler(logger *zap.Logger) *LedgerAuditHandler {
	return &LedgerAuditHandler{logger: logger.Named("ledger_audit")}
}

// EventTypes returns the ledger event types
func (h *LedgerAuditHandler) EventTypes() []string {
	return []string{
		fee.EventTypeScheduleGenerated,
		fee.EventTypeTermPaymentApplied,
		fee.EventTypeTermFullyPaid,
		fee.EventTypeTermAdjusted,
		fee.EventTypeCycleDeleted,
	}
}

// Handle logs the event with its ledger fields
func (h *LedgerAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *fee.ScheduleGeneratedEvent:
		fields = append(fields,
			zap.String("student_id", e.StudentID.String()),
			zap.Int("cycle_number", e.CycleNumber),
			zap.Int("term_count", e.TermCount),
			zap.String("yearly_fee", e.YearlyFee.String()),
		)
	case *fee.TermPaymentAppliedEvent:
		fields = append(fields,
			zap.String("student_id", e.StudentID.String()),
			zap.Int("term_number", e.TermNumber),
			zap.String("applied", e.AppliedAmount.String()),
			zap.String("remaining", e.RemainingAmount.String()),
			zap.String("status", e.Status.String()),
		)
	case *fee.TermFullyPaidEvent:
		fields = append(fields,
			zap.String("student_id", e.StudentID.String()),
			zap.Int("term_number", e.TermNumber),
			zap.Time("paid_date", e.PaidDate),
		)
	case *fee.TermAdjustedEvent:
		fields = append(fields,
			zap.String("student_id", e.StudentID.String()),
			zap.Int("term_number", e.TermNumber),
			zap.String("previous_total_paid", e.PreviousTotalPaid.String()),
			zap.String("total_paid", e.TotalPaid.String()),
			zap.String("status", e.Status.String()),
		)
	case *fee.CycleDeletedEvent:
		fields = append(fields,
			zap.String("student_id", e.StudentID.String()),
			zap.Int("cycle_number", e.CycleNumber),
			zap.Int64("entries_deleted", e.EntriesDeleted),
		)
	}

	h.logger.Info("ledger event", fields...)
	return nil
}

var _ shared.EventHandler = (*LedgerAuditHandler)(nil)
