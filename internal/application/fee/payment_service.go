package fee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/telemetry"
)

// PaymentService allocates incoming payments across a student's terms
type PaymentService struct {
	deps Dependencies
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(deps Dependencies) *PaymentService {
	return &PaymentService{deps: deps.withDefaults()}
}

// RecordPaymentRequest is one payment submitted for one student
type RecordPaymentRequest struct {
	StudentID   uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      fee.PaymentMethod
	Remarks     string
	// ExpectedOutstanding is the balance the caller saw. When set, a payment
	// larger than it is rejected even if the stored balance has since grown.
	ExpectedOutstanding *decimal.Decimal
}

// PaymentResult reports how a payment was split
type PaymentResult struct {
	StudentID         uuid.UUID               `json:"student_id"`
	Amount            decimal.Decimal         `json:"amount"`
	OutstandingBefore decimal.Decimal         `json:"outstanding_before"`
	OutstandingAfter  decimal.Decimal         `json:"outstanding_after"`
	Allocations       []fee.TermAllocation    `json:"allocations"`
	Records           []PaymentRecordResponse `json:"records"`
}

// RecordPayment applies the payment to the earliest outstanding terms.
// Validation happens before any write; the allocation itself runs in one
// transaction and every touched term is saved with a version check.
func (s *PaymentService) RecordPayment(ctx context.Context, sess *identity.Session, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrStudentID.String(req.StudentID.String()),
		telemetry.AttrAmount.String(req.Amount.String()),
		telemetry.AttrPaymentMethod.String(string(req.Method)),
	)

	fail := func(err error) (*PaymentResult, error) {
		telemetry.RecordError(span, err)
		s.deps.Metrics.RecordPayment(ctx, string(req.Method), req.Amount, false)
		notifyFailure(ctx, s.deps, ActionRecordPayment, req.StudentID, 0, err)
		return nil, err
	}

	if err := s.validate(sess, req); err != nil {
		return fail(err)
	}
	now := s.deps.Clock.Now()
	if req.PaymentDate.IsZero() {
		req.PaymentDate = now
	}
	if _, err := s.deps.Students.FindByID(ctx, req.StudentID); err != nil {
		return fail(fmt.Errorf("failed to load student: %w", err))
	}

	result := &PaymentResult{StudentID: req.StudentID, Amount: req.Amount}
	var touched []*fee.TermLedgerEntry
	var records []*fee.PaymentRecord

	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		touched, records = nil, nil

		entries, err := repos.TermRepo().FindByStudent(ctx, req.StudentID)
		if err != nil {
			return fee.NewPersistenceError("load ledger", err)
		}

		outstanding := fee.TotalOutstanding(entries)
		if !outstanding.IsPositive() {
			return shared.NewDomainError(fee.CodeNoOutstandingTerms, "Student has no outstanding terms")
		}
		if req.Amount.GreaterThan(outstanding) {
			return shared.NewDomainError(fee.CodeExceedsOutstanding,
				fmt.Sprintf("Payment %s exceeds outstanding balance %s", req.Amount.StringFixed(2), outstanding.StringFixed(2)))
		}
		result.OutstandingBefore = outstanding

		plan, err := s.deps.Allocator.Plan(ctx, req.Amount, fee.BalancesOf(entries))
		if err != nil {
			return fmt.Errorf("failed to plan allocation: %w", err)
		}
		result.Allocations = plan.Allocations

		byID := make(map[uuid.UUID]*fee.TermLedgerEntry, len(entries))
		for _, e := range entries {
			byID[e.ID] = e
		}

		for _, alloc := range plan.Allocations {
			entry := byID[alloc.EntryID]

			record, err := fee.NewPaymentRecord(entry, alloc.Amount, req.PaymentDate, now, req.Method, req.Remarks)
			if err != nil {
				return err
			}
			if err := repos.PaymentRepo().Create(ctx, record); err != nil {
				return fee.NewPersistenceError(fmt.Sprintf("record payment for term %d", entry.TermNumber), err)
			}

			if err := entry.ApplyPayment(alloc.Amount, req.PaymentDate, now); err != nil {
				return err
			}
			if err := repos.TermRepo().SaveWithLock(ctx, entry); err != nil {
				if errors.Is(err, shared.ErrConcurrencyConflict) {
					return err
				}
				return fee.NewPersistenceError(fmt.Sprintf("update term %d", entry.TermNumber), err)
			}

			telemetry.Event(span, "term_allocated",
				telemetry.AttrTermNumber.Int(entry.TermNumber),
				telemetry.AttrCycleNumber.Int(entry.CycleNumber),
				telemetry.AttrAmount.String(alloc.Amount.String()),
			)
			touched = append(touched, entry)
			records = append(records, record)
		}

		result.OutstandingAfter = fee.TotalOutstanding(entries)
		return nil
	})
	if err != nil {
		return fail(err)
	}

	result.Records = ToPaymentRecordResponses(records)
	s.deps.publish(ctx, collectEvents(touched...))
	s.deps.Metrics.RecordPayment(ctx, string(req.Method), req.Amount, true)
	s.deps.Notifier.Notify(ctx, Notification{
		Action:    ActionRecordPayment,
		Level:     LevelSuccess,
		StudentID: req.StudentID,
		Message:   fmt.Sprintf("Payment of %s recorded across %d term(s)", req.Amount.StringFixed(2), len(records)),
	})
	span.SetAttributes(telemetry.AttrTermCount.Int(len(records)))
	telemetry.SetOK(span)
	return result, nil
}

func (s *PaymentService) validate(sess *identity.Session, req RecordPaymentRequest) error {
	if req.StudentID == uuid.Nil {
		return fee.ErrNoStudentSelected
	}
	if err := sess.Require(identity.CapRecordPayment, req.StudentID); err != nil {
		return err
	}
	if !req.Amount.IsPositive() {
		return shared.NewDomainError(fee.CodeInvalidAmount, "Payment amount must be greater than zero")
	}
	if err := fee.CheckMoneyScale(req.Amount, "Payment amount"); err != nil {
		return err
	}
	if !req.Method.IsValid() {
		return shared.NewDomainError(fee.CodeInvalidPaymentMethod, "Payment method is not valid")
	}
	if req.ExpectedOutstanding != nil && req.Amount.GreaterThan(*req.ExpectedOutstanding) {
		return shared.NewDomainError(fee.CodeExceedsOutstanding,
			fmt.Sprintf("Payment %s exceeds remaining balance %s", req.Amount.StringFixed(2), req.ExpectedOutstanding.StringFixed(2)))
	}
	return nil
}

// ListPayments returns a student's payment history, newest first
func (s *PaymentService) ListPayments(ctx context.Context, sess *identity.Session, studentID uuid.UUID) ([]PaymentRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "list")
	defer span.End()

	if studentID == uuid.Nil {
		return nil, fee.ErrNoStudentSelected
	}
	if err := sess.Require(identity.CapViewLedger, studentID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	records, err := s.deps.Payments.FindByStudent(ctx, studentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payment history: %w", err)
	}
	return ToPaymentRecordResponses(records), nil
}
