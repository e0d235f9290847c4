package fee

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTermLedgerEntry(t *testing.T) {
	e := newTestEntry(t, 1, 1000)

	assert.Equal(t, TermStatusPending, e.Status)
	assert.True(t, e.TotalPaid.IsZero())
	assert.True(t, e.RemainingAmount.Equal(dec(1000)))
	assert.Nil(t, e.PaidDate)
	assert.Equal(t, 1, e.GetVersion())
}

func TestNewTermLedgerEntry_Validation(t *testing.T) {
	_, err := NewTermLedgerEntry(uuid.Nil, 1, 1, dec(100), testNow, testNow)
	assert.Equal(t, CodeNoStudentSelected, codeOf(err))

	_, err = NewTermLedgerEntry(uuid.New(), 1, 0, dec(100), testNow, testNow)
	assert.Equal(t, CodeInvalidTerm, codeOf(err))

	_, err = NewTermLedgerEntry(uuid.New(), 1, 1, decimal.Zero, testNow, testNow)
	assert.Equal(t, CodeInvalidAmount, codeOf(err))

	_, err = NewTermLedgerEntry(uuid.New(), 1, 1, decimal.RequireFromString("100.001"), testNow, testNow)
	assert.Equal(t, CodeInvalidAmount, codeOf(err))
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		totalPaid int64
		want      TermStatus
	}{
		{"nothing paid", 1000, 0, TermStatusPending},
		{"some paid", 1000, 1, TermStatusPartiallyPaid},
		{"almost paid", 1000, 999, TermStatusPartiallyPaid},
		{"exactly paid", 1000, 1000, TermStatusPaid},
		{"overpaid", 1000, 1200, TermStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(dec(tt.amount), dec(tt.totalPaid)))
		})
	}
}

func TestTermLedgerEntry_ApplyPayment(t *testing.T) {
	t.Run("partial then full", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		paidOn := testNow.AddDate(0, 0, 3)

		require.NoError(t, e.ApplyPayment(dec(400), paidOn, paidOn))
		assert.Equal(t, TermStatusPartiallyPaid, e.Status)
		assert.True(t, e.RemainingAmount.Equal(dec(600)))
		assert.Nil(t, e.PaidDate)
		assert.Equal(t, 2, e.GetVersion())

		require.NoError(t, e.ApplyPayment(dec(600), paidOn, paidOn))
		assert.Equal(t, TermStatusPaid, e.Status)
		assert.True(t, e.RemainingAmount.IsZero())
		require.NotNil(t, e.PaidDate)
		assert.Equal(t, paidOn, *e.PaidDate)

		types := make([]string, 0)
		for _, ev := range e.PendingEvents() {
			types = append(types, ev.EventType())
		}
		assert.Equal(t, []string{EventTypeTermPaymentApplied, EventTypeTermPaymentApplied, EventTypeTermFullyPaid}, types)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		err := e.ApplyPayment(decimal.Zero, testNow, testNow)
		assert.Equal(t, CodeInvalidAmount, codeOf(err))
		assert.True(t, e.TotalPaid.IsZero())
	})

	t.Run("rejects more than remaining", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		err := e.ApplyPayment(dec(1001), testNow, testNow)
		assert.Equal(t, CodeExceedsOutstanding, codeOf(err))
		assert.True(t, e.TotalPaid.IsZero())
		assert.Equal(t, 1, e.GetVersion())
	})

	t.Run("rejects paid term", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.ApplyPayment(dec(1000), testNow, testNow))
		err := e.ApplyPayment(dec(1), testNow, testNow)
		assert.Equal(t, CodeTermAlreadyPaid, codeOf(err))
	})

	t.Run("back-dated payment keeps audit time at now", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		receivedOn := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

		require.NoError(t, e.ApplyPayment(dec(1000), receivedOn, testNow))
		require.NotNil(t, e.PaidDate)
		assert.Equal(t, receivedOn, *e.PaidDate)
		assert.Equal(t, testNow, e.UpdatedAt)
	})

	t.Run("rejects sub-paisa amount", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		err := e.ApplyPayment(decimal.RequireFromString("0.00004"), testNow, testNow)
		assert.Equal(t, CodeInvalidAmount, codeOf(err))
		assert.True(t, e.TotalPaid.IsZero())
		assert.Equal(t, TermStatusPending, e.Status)
		assert.Equal(t, 1, e.GetVersion())
	})
}

func TestTermLedgerEntry_SetPaid(t *testing.T) {
	paidDate := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	t.Run("sets absolute values", func(t *testing.T) {
		e := newTestEntry(t, 3, 1000)
		require.NoError(t, e.ApplyPayment(dec(200), testNow, testNow))

		require.NoError(t, e.SetPaid(dec(700), nil, testNow))
		assert.True(t, e.TotalPaid.Equal(dec(700)))
		assert.True(t, e.RemainingAmount.Equal(dec(300)))
		assert.Equal(t, TermStatusPartiallyPaid, e.Status)
		assert.Nil(t, e.PaidDate)
	})

	t.Run("paid with explicit date", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.SetPaid(dec(1000), &paidDate, testNow))
		assert.Equal(t, TermStatusPaid, e.Status)
		require.NotNil(t, e.PaidDate)
		assert.Equal(t, paidDate, *e.PaidDate)
	})

	t.Run("paid without date uses now", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.SetPaid(dec(1000), nil, testNow))
		require.NotNil(t, e.PaidDate)
		assert.Equal(t, testNow, *e.PaidDate)
	})

	t.Run("re-saving a paid term keeps its paid date", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		receivedOn := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
		require.NoError(t, e.ApplyPayment(dec(1000), receivedOn, receivedOn))

		require.NoError(t, e.SetPaid(dec(1000), nil, testNow))
		require.NotNil(t, e.PaidDate)
		assert.Equal(t, receivedOn, *e.PaidDate)

		require.NoError(t, e.SetPaid(dec(1200), nil, testNow))
		assert.Equal(t, receivedOn, *e.PaidDate)
		assert.Equal(t, testNow, e.UpdatedAt)
	})

	t.Run("explicit date replaces an existing paid date", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.SetPaid(dec(1000), nil, testNow.AddDate(0, -1, 0)))

		require.NoError(t, e.SetPaid(dec(1000), &paidDate, testNow))
		assert.Equal(t, paidDate, *e.PaidDate)
	})

	t.Run("paid again after a reset is dated now", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.SetPaid(dec(1000), &paidDate, testNow))
		require.NoError(t, e.SetPaid(dec(500), nil, testNow))
		require.Nil(t, e.PaidDate)

		require.NoError(t, e.SetPaid(dec(1000), nil, testNow))
		assert.Equal(t, testNow, *e.PaidDate)
	})

	t.Run("rejects sub-paisa total", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		err := e.SetPaid(decimal.RequireFromString("999.995"), nil, testNow)
		assert.Equal(t, CodeInvalidAmount, codeOf(err))
		assert.True(t, e.TotalPaid.IsZero())
	})

	t.Run("overpayment floors remaining at zero", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.SetPaid(dec(1500), nil, testNow))
		assert.True(t, e.RemainingAmount.IsZero())
		assert.Equal(t, TermStatusPaid, e.Status)
	})

	t.Run("reset to zero clears paid date", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		require.NoError(t, e.SetPaid(dec(1000), &paidDate, testNow))
		require.NoError(t, e.SetPaid(decimal.Zero, nil, testNow))
		assert.Equal(t, TermStatusPending, e.Status)
		assert.True(t, e.RemainingAmount.Equal(dec(1000)))
		assert.Nil(t, e.PaidDate)
	})

	t.Run("rejects negative", func(t *testing.T) {
		e := newTestEntry(t, 1, 1000)
		err := e.SetPaid(dec(-1), nil, testNow)
		assert.Equal(t, CodeInvalidAmount, codeOf(err))
	})
}

func TestTermLedgerEntry_IsOverdue(t *testing.T) {
	e := newTestEntry(t, 1, 1000)
	e.DueDate = testNow.AddDate(0, 0, -1)

	assert.True(t, e.IsOverdue(testNow))
	assert.Equal(t, 1, e.DaysOverdue(testNow))
	assert.False(t, e.IsOverdue(testNow.AddDate(0, 0, -2)))

	// due exactly now is not strictly in the past
	e.DueDate = testNow
	assert.False(t, e.IsOverdue(testNow))

	e.DueDate = testNow.AddDate(0, 0, -10)
	require.NoError(t, e.SetPaid(dec(1000), nil, testNow))
	assert.False(t, e.IsOverdue(testNow))
	assert.Equal(t, 0, e.DaysOverdue(testNow))
}

func TestSortEntries(t *testing.T) {
	c2t1 := newTestEntry(t, 1, 100)
	c2t1.CycleNumber = 2
	c1t2 := newTestEntry(t, 2, 100)
	c1t1 := newTestEntry(t, 1, 100)

	entries := []*TermLedgerEntry{c2t1, c1t2, c1t1}
	SortEntries(entries)

	assert.Equal(t, []*TermLedgerEntry{c1t1, c1t2, c2t1}, entries)
}
