package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appfee "github.com/tuition/backend/internal/application/fee"
	"github.com/tuition/backend/internal/domain/fee"
)

// DateLayout is the calendar-date format accepted for payment and paid dates
const DateLayout = "2006-01-02"

// RecordPaymentRequest is the body of POST /students/:id/payments
type RecordPaymentRequest struct {
	Amount              decimal.Decimal  `json:"amount"`
	PaymentDate         string           `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Method              string           `json:"method" binding:"required"`
	Remarks             string           `json:"remarks" binding:"max=500"`
	ExpectedOutstanding *decimal.Decimal `json:"expected_outstanding,omitempty"`
}

// ToCommand converts the body to a service request. A missing payment date
// is left zero and the service uses today.
func (r RecordPaymentRequest) ToCommand(studentID uuid.UUID) (appfee.RecordPaymentRequest, error) {
	var date time.Time
	if r.PaymentDate != "" {
		parsed, err := time.Parse(DateLayout, r.PaymentDate)
		if err != nil {
			return appfee.RecordPaymentRequest{}, fmt.Errorf("payment_date: %w", err)
		}
		date = parsed
	}
	method, err := fee.ParsePaymentMethod(r.Method)
	if err != nil {
		return appfee.RecordPaymentRequest{}, err
	}
	return appfee.RecordPaymentRequest{
		StudentID:           studentID,
		Amount:              r.Amount,
		PaymentDate:         date,
		Method:              method,
		Remarks:             r.Remarks,
		ExpectedOutstanding: r.ExpectedOutstanding,
	}, nil
}

// TermEditRequest overwrites one term's paid total
type TermEditRequest struct {
	EntryID   string          `json:"entry_id" binding:"required,uuid"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	PaidDate  *string         `json:"paid_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// EditLedgerRequest is the body of PUT /students/:id/ledger
type EditLedgerRequest struct {
	Edits []TermEditRequest `json:"edits" binding:"required,min=1,max=60,dive"`
}

// ToCommand converts the body to a service request
func (r EditLedgerRequest) ToCommand(studentID uuid.UUID) (appfee.EditTermsRequest, error) {
	edits := make([]appfee.TermEdit, 0, len(r.Edits))
	for i, e := range r.Edits {
		id, err := uuid.Parse(e.EntryID)
		if err != nil {
			return appfee.EditTermsRequest{}, fmt.Errorf("edits[%d].entry_id: %w", i, err)
		}
		edit := appfee.TermEdit{EntryID: id, TotalPaid: e.TotalPaid}
		if e.PaidDate != nil && *e.PaidDate != "" {
			d, err := time.Parse(DateLayout, *e.PaidDate)
			if err != nil {
				return appfee.EditTermsRequest{}, fmt.Errorf("edits[%d].paid_date: %w", i, err)
			}
			edit.PaidDate = &d
		}
		edits = append(edits, edit)
	}
	return appfee.EditTermsRequest{StudentID: studentID, Edits: edits}, nil
}

// SummaryRequest holds the query parameters of GET /fees/summary
type SummaryRequest struct {
	ClassName string `form:"class_name" binding:"max=50"`
	Board     string `form:"board" binding:"max=50"`
	Active    *bool  `form:"active"`
	Search    string `form:"search" binding:"max=200"`
}

// ToQuery converts the parameters to a report query
func (r SummaryRequest) ToQuery() appfee.SummaryQuery {
	return appfee.SummaryQuery{
		ClassName: r.ClassName,
		Board:     r.Board,
		Active:    r.Active,
		Search:    r.Search,
	}
}
