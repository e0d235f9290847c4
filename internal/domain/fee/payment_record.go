package fee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/shared"
)

// PaymentMethod is how the money was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodOnline, PaymentMethodCheque, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// ParsePaymentMethod normalizes user input such as "Bank Transfer"
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if !m.IsValid() {
		return "", shared.NewDomainError(CodeInvalidPaymentMethod, "Payment method must be cash, online, cheque or bank_transfer")
	}
	return m, nil
}

// RecordSource tells which path wrote a payment record
type RecordSource string

const (
	RecordSourceAllocation RecordSource = "allocation"
	RecordSourceManual     RecordSource = "manual_adjustment"
)

// PaymentRecord is one receipt applied to one term
type PaymentRecord struct {
	shared.BaseEntity
	StudentID   uuid.UUID       `json:"student_id"`
	TermEntryID uuid.UUID       `json:"term_entry_id"`
	TermNumber  int             `json:"term_number"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      PaymentMethod   `json:"method"`
	Remarks     string          `json:"remarks,omitempty"`
	Source      RecordSource    `json:"source"`
}

// NewPaymentRecord creates a record for money the allocator applied to a term.
// paidOn becomes the payment date; now stamps the audit fields.
func NewPaymentRecord(term *TermLedgerEntry, amount decimal.Decimal, paidOn, now time.Time, method PaymentMethod, remarks string) (*PaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Payment record amount must be positive")
	}
	if err := CheckMoneyScale(amount, "Payment record amount"); err != nil {
		return nil, err
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidPaymentMethod, "Payment method is not valid")
	}
	return &PaymentRecord{
		BaseEntity:  shared.NewBaseEntity(now),
		StudentID:   term.StudentID,
		TermEntryID: term.ID,
		TermNumber:  term.TermNumber,
		Amount:      amount,
		PaymentDate: paidOn,
		Method:      method,
		Remarks:     remarks,
		Source:      RecordSourceAllocation,
	}, nil
}

// ManualAdjustmentRemark is stored on records synthesized by a manual edit
const ManualAdjustmentRemark = "Manual ledger adjustment"

// NewManualPaymentRecord synthesizes the single record that mirrors an edited term
func NewManualPaymentRecord(term *TermLedgerEntry, paidOn, now time.Time) *PaymentRecord {
	return &PaymentRecord{
		BaseEntity:  shared.NewBaseEntity(now),
		StudentID:   term.StudentID,
		TermEntryID: term.ID,
		TermNumber:  term.TermNumber,
		Amount:      term.TotalPaid,
		PaymentDate: paidOn,
		Method:      PaymentMethodCash,
		Remarks:     ManualAdjustmentRemark,
		Source:      RecordSourceManual,
	}
}

// MirrorTerm rewrites the record so it alone accounts for the term's paid total
func (r *PaymentRecord) MirrorTerm(term *TermLedgerEntry, paidOn, now time.Time) {
	r.Amount = term.TotalPaid
	r.PaymentDate = paidOn
	r.Source = RecordSourceManual
	r.Touch(now)
}
