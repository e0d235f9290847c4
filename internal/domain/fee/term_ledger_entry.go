package fee

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/shared"
)

// TermStatus represents the payment state of a term
type TermStatus string

const (
	TermStatusPending       TermStatus = "pending"
	TermStatusPartiallyPaid TermStatus = "partially_paid"
	TermStatusPaid          TermStatus = "paid"
)

// IsValid checks if the status is a valid TermStatus
func (s TermStatus) IsValid() bool {
	switch s {
	case TermStatusPending, TermStatusPartiallyPaid, TermStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of TermStatus
func (s TermStatus) String() string {
	return string(s)
}

// DeriveStatus computes the status from the due amount and what has been paid.
// paid iff nothing remains, partially_paid iff something but not all was paid.
func DeriveStatus(amount, totalPaid decimal.Decimal) TermStatus {
	if RemainingOf(amount, totalPaid).LessThanOrEqual(decimal.Zero) {
		return TermStatusPaid
	}
	if totalPaid.IsPositive() {
		return TermStatusPartiallyPaid
	}
	return TermStatusPending
}

// RemainingOf returns max(0, amount - totalPaid)
func RemainingOf(amount, totalPaid decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, amount.Sub(totalPaid))
}

// TermLedgerEntry is one billing term owed by a student within a cycle
type TermLedgerEntry struct {
	shared.BaseAggregateRoot
	StudentID       uuid.UUID       `json:"student_id"`
	CycleNumber     int             `json:"cycle_number"`
	TermNumber      int             `json:"term_number"`
	Amount          decimal.Decimal `json:"amount"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          TermStatus      `json:"status"`
	DueDate         time.Time       `json:"due_date"`
	PaidDate        *time.Time      `json:"paid_date"`
}

// NewTermLedgerEntry creates a pending term with nothing paid
func NewTermLedgerEntry(studentID uuid.UUID, cycle, term int, amount decimal.Decimal, dueDate, now time.Time) (*TermLedgerEntry, error) {
	if studentID == uuid.Nil {
		return nil, ErrNoStudentSelected
	}
	if cycle < 1 || term < 1 {
		return nil, shared.NewDomainError(CodeInvalidTerm, "Cycle and term numbers start at 1")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Term amount must be positive")
	}
	if err := CheckMoneyScale(amount, "Term amount"); err != nil {
		return nil, err
	}

	return &TermLedgerEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		StudentID:         studentID,
		CycleNumber:       cycle,
		TermNumber:        term,
		Amount:            amount,
		TotalPaid:         decimal.Zero,
		RemainingAmount:   amount,
		Status:            TermStatusPending,
		DueDate:           dueDate,
	}, nil
}

// ApplyPayment adds amount to what has been paid on this term. paidOn is the
// business date of the payment; now stamps the audit time.
// The amount must be positive and must not exceed the remaining balance.
func (e *TermLedgerEntry) ApplyPayment(amount decimal.Decimal, paidOn, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAmount, "Payment amount must be positive")
	}
	if err := CheckMoneyScale(amount, "Payment amount"); err != nil {
		return err
	}
	if e.RemainingAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(CodeTermAlreadyPaid, fmt.Sprintf("Term %d is already paid", e.TermNumber))
	}
	if amount.GreaterThan(e.RemainingAmount) {
		return shared.NewDomainError(CodeExceedsOutstanding,
			fmt.Sprintf("Payment %s exceeds remaining %s on term %d", amount.StringFixed(2), e.RemainingAmount.StringFixed(2), e.TermNumber))
	}

	before := e.Status
	e.TotalPaid = e.TotalPaid.Add(amount)
	e.recompute(&paidOn)
	e.Touch(now)

	e.Raise(NewTermPaymentAppliedEvent(e, amount))
	if e.Status == TermStatusPaid && before != TermStatusPaid {
		e.Raise(NewTermFullyPaidEvent(e))
	}
	e.IncrementVersion()
	return nil
}

// SetPaid overwrites the paid total, as an administrator correction.
// Overpayment is accepted; remaining is floored at zero. Without paidDate a
// term that stays paid keeps its paid date, and a term that becomes paid is
// dated now.
func (e *TermLedgerEntry) SetPaid(totalPaid decimal.Decimal, paidDate *time.Time, now time.Time) error {
	if totalPaid.IsNegative() {
		return shared.NewDomainError(CodeInvalidAmount, "Total paid cannot be negative")
	}
	if err := CheckMoneyScale(totalPaid, "Total paid"); err != nil {
		return err
	}

	previous := e.TotalPaid
	e.TotalPaid = totalPaid
	if paidDate == nil && e.PaidDate == nil {
		paidDate = &now
	}
	e.recompute(paidDate)
	e.Touch(now)

	e.Raise(NewTermAdjustedEvent(e, previous))
	e.IncrementVersion()
	return nil
}

// recompute refreshes the derived fields after TotalPaid changed. A nil
// paidOn leaves the current paid date alone when the term stays paid.
func (e *TermLedgerEntry) recompute(paidOn *time.Time) {
	e.RemainingAmount = RemainingOf(e.Amount, e.TotalPaid)
	e.Status = DeriveStatus(e.Amount, e.TotalPaid)
	if e.Status != TermStatusPaid {
		e.PaidDate = nil
		return
	}
	if paidOn != nil {
		d := *paidOn
		e.PaidDate = &d
	}
}

// IsPaid returns true when nothing remains on the term
func (e *TermLedgerEntry) IsPaid() bool {
	return e.Status == TermStatusPaid
}

// IsOverdue returns true if the term is not fully paid and its due date has passed
func (e *TermLedgerEntry) IsOverdue(now time.Time) bool {
	return !e.IsPaid() && e.DueDate.Before(now)
}

// DaysOverdue returns the number of whole days past the due date, or 0
func (e *TermLedgerEntry) DaysOverdue(now time.Time) int {
	if !e.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(e.DueDate).Hours() / 24)
}

// Precedes reports whether e comes before other in allocation order:
// earlier cycle first, then lower term number.
func (e *TermLedgerEntry) Precedes(other *TermLedgerEntry) bool {
	if e.CycleNumber != other.CycleNumber {
		return e.CycleNumber < other.CycleNumber
	}
	return e.TermNumber < other.TermNumber
}

// SortEntries orders entries in place by cycle then term number
func SortEntries(entries []*TermLedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Precedes(entries[j])
	})
}
