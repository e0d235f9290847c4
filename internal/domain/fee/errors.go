package fee

import (
	"errors"

	"github.com/tuition/backend/internal/domain/shared"
)

// Error codes raised by the fee ledger
const (
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeExceedsOutstanding   = "EXCEEDS_OUTSTANDING"
	CodeNoStudentSelected    = "NO_STUDENT_SELECTED"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeInvalidTermType      = "INVALID_TERM_TYPE"
	CodeInvalidFeePlan       = "INVALID_FEE_PLAN"
	CodeInvalidTerm          = "INVALID_TERM"
	CodeTermAlreadyPaid      = "TERM_ALREADY_PAID"
	CodeNoOutstandingTerms   = "NO_OUTSTANDING_TERMS"
	CodeTermNotInLedger      = "TERM_NOT_IN_LEDGER"
	CodePersistenceFailed    = "PERSISTENCE_FAILED"
)

var validationCodes = map[string]bool{
	CodeInvalidAmount:        true,
	CodeExceedsOutstanding:   true,
	CodeNoStudentSelected:    true,
	CodeInvalidPaymentMethod: true,
	CodeInvalidTermType:      true,
	CodeInvalidFeePlan:       true,
	CodeInvalidTerm:          true,
	CodeTermAlreadyPaid:      true,
	CodeNoOutstandingTerms:   true,
	CodeTermNotInLedger:      true,

	shared.ErrInvalidInput.Code: true,
}

// ErrNoStudentSelected is returned when an operation needs a student and got none
var ErrNoStudentSelected = shared.NewDomainError(CodeNoStudentSelected, "No student selected")

// NewPersistenceError wraps a record store failure
func NewPersistenceError(op string, cause error) error {
	return shared.WrapDomainError(CodePersistenceFailed, "Failed to "+op, cause)
}

// IsValidationError reports whether err was raised before any write
func IsValidationError(err error) bool {
	return validationCodes[shared.ErrorCode(err)]
}

// IsPersistenceError reports whether err came from the record store
func IsPersistenceError(err error) bool {
	return errors.Is(err, shared.ErrPersistence)
}
