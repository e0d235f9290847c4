package fee

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/shared"
)

// MoneyScale is the number of decimal places a ledger amount may carry: the
// minor unit of the billing currency. The schema stores four places, so any
// value that passes this check is persisted exactly.
const MoneyScale int32 = 2

// CheckMoneyScale rejects amounts finer than the currency's minor unit.
// what names the amount in the error message.
func CheckMoneyScale(amount decimal.Decimal, what string) error {
	if amount.Equal(amount.Truncate(MoneyScale)) {
		return nil
	}
	return shared.NewDomainError(CodeInvalidAmount,
		fmt.Sprintf("%s %s has more than %d decimal places", what, amount.String(), MoneyScale))
}
