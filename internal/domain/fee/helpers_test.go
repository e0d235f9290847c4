package fee

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tuition/backend/internal/domain/shared"
)

var testNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func codeOf(err error) string { return shared.ErrorCode(err) }

func newTestEntry(t *testing.T, term int, amount int64) *TermLedgerEntry {
	t.Helper()
	e, err := NewTermLedgerEntry(uuid.New(), 1, term, dec(amount), testNow, testNow)
	require.NoError(t, err)
	return e
}
