package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/shared"
)

// Event type names
const (
	EventTypeScheduleGenerated  = "FeeScheduleGenerated"
	EventTypeTermPaymentApplied = "TermPaymentApplied"
	EventTypeTermFullyPaid      = "TermFullyPaid"
	EventTypeTermAdjusted       = "TermAdjusted"
	EventTypeCycleDeleted       = "FeeCycleDeleted"
)

const aggregateTypeTerm = "TermLedgerEntry"

// TermPaymentAppliedEvent is raised when the allocator applies money to a term
type TermPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	StudentID       uuid.UUID       `json:"student_id"`
	CycleNumber     int             `json:"cycle_number"`
	TermNumber      int             `json:"term_number"`
	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          TermStatus      `json:"status"`
}

// NewTermPaymentAppliedEvent creates a new TermPaymentAppliedEvent
func NewTermPaymentAppliedEvent(e *TermLedgerEntry, applied decimal.Decimal) *TermPaymentAppliedEvent {
	return &TermPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTermPaymentApplied, aggregateTypeTerm, e.ID, e.UpdatedAt),
		StudentID:       e.StudentID,
		CycleNumber:     e.CycleNumber,
		TermNumber:      e.TermNumber,
		AppliedAmount:   applied,
		TotalPaid:       e.TotalPaid,
		RemainingAmount: e.RemainingAmount,
		Status:          e.Status,
	}
}

// TermFullyPaidEvent is raised when a term's remaining amount reaches zero
type TermFullyPaidEvent struct {
	shared.BaseDomainEvent
	StudentID   uuid.UUID       `json:"student_id"`
	CycleNumber int             `json:"cycle_number"`
	TermNumber  int             `json:"term_number"`
	Amount      decimal.Decimal `json:"amount"`
	PaidDate    time.Time       `json:"paid_date"`
}

// NewTermFullyPaidEvent creates a new TermFullyPaidEvent
func NewTermFullyPaidEvent(e *TermLedgerEntry) *TermFullyPaidEvent {
	paidDate := e.UpdatedAt
	if e.PaidDate != nil {
		paidDate = *e.PaidDate
	}
	return &TermFullyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTermFullyPaid, aggregateTypeTerm, e.ID, e.UpdatedAt),
		StudentID:       e.StudentID,
		CycleNumber:     e.CycleNumber,
		TermNumber:      e.TermNumber,
		Amount:          e.Amount,
		PaidDate:        paidDate,
	}
}

// TermAdjustedEvent is raised when an administrator overwrites a term's paid total
type TermAdjustedEvent struct {
	shared.BaseDomainEvent
	StudentID         uuid.UUID       `json:"student_id"`
	CycleNumber       int             `json:"cycle_number"`
	TermNumber        int             `json:"term_number"`
	PreviousTotalPaid decimal.Decimal `json:"previous_total_paid"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Status            TermStatus      `json:"status"`
}

// NewTermAdjustedEvent creates a new TermAdjustedEvent
func NewTermAdjustedEvent(e *TermLedgerEntry, previous decimal.Decimal) *TermAdjustedEvent {
	return &TermAdjustedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTermAdjusted, aggregateTypeTerm, e.ID, e.UpdatedAt),
		StudentID:         e.StudentID,
		CycleNumber:       e.CycleNumber,
		TermNumber:        e.TermNumber,
		PreviousTotalPaid: previous,
		TotalPaid:         e.TotalPaid,
		Status:            e.Status,
	}
}

// ScheduleGeneratedEvent is raised once per generated cycle
type ScheduleGeneratedEvent struct {
	shared.BaseDomainEvent
	StudentID   uuid.UUID       `json:"student_id"`
	CycleNumber int             `json:"cycle_number"`
	TermCount   int             `json:"term_count"`
	YearlyFee   decimal.Decimal `json:"yearly_fee"`
}

// NewScheduleGeneratedEvent creates a new ScheduleGeneratedEvent
func NewScheduleGeneratedEvent(studentID uuid.UUID, cycle int, entries []*TermLedgerEntry, at time.Time) *ScheduleGeneratedEvent {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return &ScheduleGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScheduleGenerated, "Student", studentID, at),
		StudentID:       studentID,
		CycleNumber:     cycle,
		TermCount:       len(entries),
		YearlyFee:       total,
	}
}

// CycleDeletedEvent is raised when a student's cycle is removed with its payments
type CycleDeletedEvent struct {
	shared.BaseDomainEvent
	StudentID      uuid.UUID `json:"student_id"`
	CycleNumber    int       `json:"cycle_number"`
	EntriesDeleted int64     `json:"entries_deleted"`
}

// NewCycleDeletedEvent creates a new CycleDeletedEvent. Cycle 0 means every cycle.
func NewCycleDeletedEvent(studentID uuid.UUID, cycle int, deleted int64, at time.Time) *CycleDeletedEvent {
	return &CycleDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCycleDeleted, "Student", studentID, at),
		StudentID:       studentID,
		CycleNumber:     cycle,
		EntriesDeleted:  deleted,
	}
}
