package allocation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
)

// TermOrderStrategyName is the registered name of the term-order strategy
const TermOrderStrategyName = "term_order"

// TermOrderStrategy allocates payments to the earliest outstanding term first:
// lowest cycle, then lowest term number. Paid terms are skipped.
type TermOrderStrategy struct{}

// NewTermOrderStrategy creates a new term-order allocation strategy
func NewTermOrderStrategy() *TermOrderStrategy {
	return &TermOrderStrategy{}
}

// Name returns the strategy name
func (s *TermOrderStrategy) Name() string {
	return TermOrderStrategyName
}

// Plan splits amount across terms without mutating them
func (s *TermOrderStrategy) Plan(
	ctx context.Context,
	amount decimal.Decimal,
	terms []fee.TermBalance,
) (fee.AllocationPlan, error) {
	sorted := make([]fee.TermBalance, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CycleNumber != sorted[j].CycleNumber {
			return sorted[i].CycleNumber < sorted[j].CycleNumber
		}
		return sorted[i].TermNumber < sorted[j].TermNumber
	})

	left := amount
	allocations := make([]fee.TermAllocation, 0)
	totalAllocated := decimal.Zero

	for _, term := range sorted {
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		if term.Remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}

		applied := decimal.Min(left, term.Remaining)
		allocations = append(allocations, fee.TermAllocation{
			EntryID:         term.EntryID,
			CycleNumber:     term.CycleNumber,
			TermNumber:      term.TermNumber,
			Amount:          applied,
			RemainingBefore: term.Remaining,
			RemainingAfter:  term.Remaining.Sub(applied),
		})

		left = left.Sub(applied)
		totalAllocated = totalAllocated.Add(applied)
	}

	return fee.AllocationPlan{
		Allocations:    allocations,
		TotalAllocated: totalAllocated,
		Unallocated:    left,
	}, nil
}

var _ fee.AllocationStrategy = (*TermOrderStrategy)(nil)
