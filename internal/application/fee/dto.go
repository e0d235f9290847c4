package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
)

// TermEntryResponse is the read model of a term ledger entry
type TermEntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	StudentID       uuid.UUID       `json:"student_id"`
	CycleNumber     int             `json:"cycle_number"`
	TermNumber      int             `json:"term_number"`
	Amount          decimal.Decimal `json:"amount"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	DueDate         time.Time       `json:"due_date"`
	PaidDate        *time.Time      `json:"paid_date,omitempty"`
	Overdue         bool            `json:"overdue"`
	Version         int             `json:"version"`
}

// ToTermEntryResponse converts a domain entry, flagging overdue relative to now
func ToTermEntryResponse(e *fee.TermLedgerEntry, now time.Time) TermEntryResponse {
	return TermEntryResponse{
		ID:              e.ID,
		StudentID:       e.StudentID,
		CycleNumber:     e.CycleNumber,
		TermNumber:      e.TermNumber,
		Amount:          e.Amount,
		TotalPaid:       e.TotalPaid,
		RemainingAmount: e.RemainingAmount,
		Status:          e.Status.String(),
		DueDate:         e.DueDate,
		PaidDate:        e.PaidDate,
		Overdue:         e.IsOverdue(now),
		Version:         e.GetVersion(),
	}
}

// ToTermEntryResponses converts a slice of entries
func ToTermEntryResponses(entries []*fee.TermLedgerEntry, now time.Time) []TermEntryResponse {
	return lo.Map(entries, func(e *fee.TermLedgerEntry, _ int) TermEntryResponse {
		return ToTermEntryResponse(e, now)
	})
}

// PaymentRecordResponse is the read model of a payment record
type PaymentRecordResponse struct {
	ID          uuid.UUID       `json:"id"`
	StudentID   uuid.UUID       `json:"student_id"`
	TermEntryID uuid.UUID       `json:"term_entry_id"`
	TermNumber  int             `json:"term_number"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      string          `json:"method"`
	Remarks     string          `json:"remarks,omitempty"`
	Source      string          `json:"source"`
}

// ToPaymentRecordResponse converts a domain payment record
func ToPaymentRecordResponse(r *fee.PaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:          r.ID,
		StudentID:   r.StudentID,
		TermEntryID: r.TermEntryID,
		TermNumber:  r.TermNumber,
		Amount:      r.Amount,
		PaymentDate: r.PaymentDate,
		Method:      string(r.Method),
		Remarks:     r.Remarks,
		Source:      string(r.Source),
	}
}

// ToPaymentRecordResponses converts a slice of records
func ToPaymentRecordResponses(records []*fee.PaymentRecord) []PaymentRecordResponse {
	return lo.Map(records, func(r *fee.PaymentRecord, _ int) PaymentRecordResponse {
		return ToPaymentRecordResponse(r)
	})
}
