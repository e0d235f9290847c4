package fee

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	alive := uuid.New()
	gone := uuid.New()

	paid := newTestEntry(t, 1, 1000)
	paid.StudentID = alive
	require.NoError(t, paid.ApplyPayment(dec(1000), testNow, testNow))

	partial := newTestEntry(t, 2, 1000)
	partial.StudentID = alive
	require.NoError(t, partial.ApplyPayment(dec(300), testNow, testNow))
	partial.DueDate = testNow.AddDate(0, -1, 0)

	pending := newTestEntry(t, 3, 1000)
	pending.StudentID = alive
	pending.DueDate = testNow.AddDate(0, 1, 0)

	orphan := newTestEntry(t, 1, 5000)
	orphan.StudentID = gone
	require.NoError(t, orphan.ApplyPayment(dec(100), testNow, testNow))
	orphan.DueDate = testNow.AddDate(-1, 0, 0)

	s := Summarize([]*TermLedgerEntry{paid, partial, pending, orphan}, map[uuid.UUID]bool{alive: true}, testNow)

	assert.True(t, s.TotalCollected.Equal(dec(1300)), s.TotalCollected.String())
	assert.True(t, s.TotalPending.Equal(dec(1700)), s.TotalPending.String())
	assert.Equal(t, 1, s.OverdueCount)
	assert.Equal(t, 1, s.PaidCount)
	assert.Equal(t, 1, s.PartiallyPaidCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.Equal(t, 1, s.StudentCount)
	assert.Equal(t, 1, s.OrphanedCount)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil, testNow)
	assert.True(t, s.TotalCollected.IsZero())
	assert.True(t, s.TotalPending.IsZero())
	assert.Zero(t, s.OverdueCount)
}

func TestTotalsFor(t *testing.T) {
	plan, err := NewFeePlan(dec(1000), TermTypeFourMonths, CategoryMonthly)
	require.NoError(t, err)
	entries, err := GenerateSchedule(uuid.New(), plan, 1, testNow.AddDate(0, -5, 0))
	require.NoError(t, err)
	require.NoError(t, entries[0].ApplyPayment(dec(1000), testNow, testNow))

	totals := TotalsFor(plan, entries, testNow)
	assert.True(t, totals.YearlyFee.Equal(dec(3000)))
	assert.True(t, totals.TotalDue.Equal(dec(3000)))
	assert.True(t, totals.TotalPaid.Equal(dec(1000)))
	assert.True(t, totals.TotalPending.Equal(dec(2000)))
	// term 2 was due a month ago
	assert.Equal(t, 1, totals.OverdueCount)
	require.NotNil(t, totals.NextDue)
	assert.Equal(t, entries[1].DueDate, *totals.NextDue)
}
