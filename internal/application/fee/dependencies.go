package fee

import (
	"context"
	"time"

	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/domain/student"
	"go.uber.org/zap"
)

// Dependencies are the collaborators shared by the fee services.
// Optional fields get no-op defaults.
type Dependencies struct {
	Students  student.Repository
	Terms     fee.TermLedgerRepository
	Payments  fee.PaymentRecordRepository
	TxScope   TransactionScope
	Allocator fee.AllocationStrategy
	Events    shared.EventPublisher
	Notifier  Notifier
	Metrics   Metrics
	Clock     shared.Clock
	Logger    *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.TxScope == nil {
		d.TxScope = NewNoOpTransactionScope(d.Terms, d.Payments)
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Metrics == nil {
		d.Metrics = NopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = shared.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// publish sends events after commit. Handler failures are logged by the bus;
// a publish error never undoes a committed write.
func (d Dependencies) publish(ctx context.Context, events []shared.DomainEvent) {
	if d.Events == nil || len(events) == 0 {
		return
	}
	if err := d.Events.Publish(ctx, events...); err != nil {
		d.Logger.Warn("failed to publish ledger events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// today returns midnight of the clock's current date
func (d Dependencies) today() time.Time {
	now := d.Clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// collectEvents drains pending domain events from the given entries
func collectEvents(entries ...*fee.TermLedgerEntry) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, e := range entries {
		events = append(events, e.PendingEvents()...)
		e.ClearEvents()
	}
	return events
}
