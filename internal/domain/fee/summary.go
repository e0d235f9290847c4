package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSummary holds portfolio-wide totals
type LedgerSummary struct {
	TotalCollected     decimal.Decimal `json:"total_collected"`
	TotalPending       decimal.Decimal `json:"total_pending"`
	OverdueCount       int             `json:"overdue_count"`
	PaidCount          int             `json:"paid_count"`
	PartiallyPaidCount int             `json:"partially_paid_count"`
	PendingCount       int             `json:"pending_count"`
	StudentCount       int             `json:"student_count"`
	OrphanedCount      int             `json:"orphaned_count"`
}

// Summarize totals the ledger. Entries of students not in existing are
// counted as orphaned and left out of every total.
func Summarize(entries []*TermLedgerEntry, existing map[uuid.UUID]bool, now time.Time) LedgerSummary {
	s := LedgerSummary{
		TotalCollected: decimal.Zero,
		TotalPending:   decimal.Zero,
	}
	students := make(map[uuid.UUID]struct{})

	for _, e := range entries {
		if !existing[e.StudentID] {
			s.OrphanedCount++
			continue
		}
		students[e.StudentID] = struct{}{}
		s.TotalCollected = s.TotalCollected.Add(e.TotalPaid)
		s.TotalPending = s.TotalPending.Add(e.RemainingAmount)
		if e.IsOverdue(now) {
			s.OverdueCount++
		}
		switch e.Status {
		case TermStatusPaid:
			s.PaidCount++
		case TermStatusPartiallyPaid:
			s.PartiallyPaidCount++
		default:
			s.PendingCount++
		}
	}

	s.StudentCount = len(students)
	return s
}

// StudentTotals are the per-student figures shown on a ledger page
type StudentTotals struct {
	YearlyFee    decimal.Decimal `json:"yearly_fee"`
	TotalDue     decimal.Decimal `json:"total_due"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	OverdueCount int             `json:"overdue_count"`
	NextDue      *time.Time      `json:"next_due,omitempty"`
}

// TotalsFor computes a single student's totals from their entries
func TotalsFor(plan FeePlan, entries []*TermLedgerEntry, now time.Time) StudentTotals {
	t := StudentTotals{
		YearlyFee:    plan.YearlyFee(),
		TotalDue:     decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}
	for _, e := range entries {
		t.TotalDue = t.TotalDue.Add(e.Amount)
		t.TotalPaid = t.TotalPaid.Add(e.TotalPaid)
		t.TotalPending = t.TotalPending.Add(e.RemainingAmount)
		if e.IsOverdue(now) {
			t.OverdueCount++
		}
		if !e.IsPaid() && (t.NextDue == nil || e.DueDate.Before(*t.NextDue)) {
			due := e.DueDate
			t.NextDue = &due
		}
	}
	return t
}
