package fee

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("Bank Transfer")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodBankTransfer, m)

	m, err = ParsePaymentMethod("CASH")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, m)

	_, err = ParsePaymentMethod("barter")
	assert.Equal(t, CodeInvalidPaymentMethod, codeOf(err))
}

func TestNewPaymentRecord(t *testing.T) {
	term := newTestEntry(t, 2, 1000)

	r, err := NewPaymentRecord(term, dec(250), testNow, testNow, PaymentMethodOnline, "UPI ref 42")
	require.NoError(t, err)
	assert.Equal(t, term.ID, r.TermEntryID)
	assert.Equal(t, term.StudentID, r.StudentID)
	assert.Equal(t, 2, r.TermNumber)
	assert.Equal(t, RecordSourceAllocation, r.Source)

	_, err = NewPaymentRecord(term, dec(0), testNow, testNow, PaymentMethodOnline, "")
	assert.Equal(t, CodeInvalidAmount, codeOf(err))

	_, err = NewPaymentRecord(term, dec(10), testNow, testNow, PaymentMethod("gold"), "")
	assert.Equal(t, CodeInvalidPaymentMethod, codeOf(err))

	_, err = NewPaymentRecord(term, decimal.RequireFromString("0.001"), testNow, testNow, PaymentMethodCash, "")
	assert.Equal(t, CodeInvalidAmount, codeOf(err))
}

func TestNewPaymentRecord_BackDated(t *testing.T) {
	term := newTestEntry(t, 1, 1000)
	receivedOn := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	r, err := NewPaymentRecord(term, dec(1000), receivedOn, testNow, PaymentMethodCheque, "")
	require.NoError(t, err)
	assert.Equal(t, receivedOn, r.PaymentDate)
	assert.Equal(t, testNow, r.CreatedAt)
	assert.Equal(t, testNow, r.UpdatedAt)
}

func TestManualPaymentRecord_MirrorTerm(t *testing.T) {
	term := newTestEntry(t, 1, 1000)
	require.NoError(t, term.SetPaid(dec(600), nil, testNow))

	r := NewManualPaymentRecord(term, testNow, testNow)
	assert.True(t, r.Amount.Equal(dec(600)))
	assert.Equal(t, RecordSourceManual, r.Source)
	assert.Equal(t, testNow, r.PaymentDate)

	paidDate := testNow.AddDate(0, 0, -2)
	require.NoError(t, term.SetPaid(dec(1000), &paidDate, testNow))
	r.MirrorTerm(term, paidDate, testNow)
	assert.True(t, r.Amount.Equal(dec(1000)))
	assert.Equal(t, paidDate, r.PaymentDate)
}
