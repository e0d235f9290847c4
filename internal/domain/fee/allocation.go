package fee

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TermBalance is the allocator's view of one term
type TermBalance struct {
	EntryID     uuid.UUID
	CycleNumber int
	TermNumber  int
	Remaining   decimal.Decimal
}

// TermAllocation is the share of a payment applied to one term
type TermAllocation struct {
	EntryID         uuid.UUID       `json:"entry_id"`
	CycleNumber     int             `json:"cycle_number"`
	TermNumber      int             `json:"term_number"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingBefore decimal.Decimal `json:"remaining_before"`
	RemainingAfter  decimal.Decimal `json:"remaining_after"`
}

// AllocationPlan is the result of splitting one payment across terms
type AllocationPlan struct {
	Allocations    []TermAllocation
	TotalAllocated decimal.Decimal
	Unallocated    decimal.Decimal
}

// AllocationStrategy splits a payment across a student's outstanding terms
type AllocationStrategy interface {
	Name() string
	Plan(ctx context.Context, amount decimal.Decimal, terms []TermBalance) (AllocationPlan, error)
}

// BalancesOf projects ledger entries onto the allocator's view
func BalancesOf(entries []*TermLedgerEntry) []TermBalance {
	out := make([]TermBalance, 0, len(entries))
	for _, e := range entries {
		out = append(out, TermBalance{
			EntryID:     e.ID,
			CycleNumber: e.CycleNumber,
			TermNumber:  e.TermNumber,
			Remaining:   e.RemainingAmount,
		})
	}
	return out
}

// TotalOutstanding sums the positive remaining amounts
func TotalOutstanding(entries []*TermLedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.RemainingAmount.IsPositive() {
			total = total.Add(e.RemainingAmount)
		}
	}
	return total
}
