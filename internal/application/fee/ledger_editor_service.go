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
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LedgerEditorService lets an administrator overwrite paid totals directly.
// It does not follow allocation order: any term may be edited.
type LedgerEditorService struct {
	deps Dependencies
}

// NewLedgerEditorService creates a new LedgerEditorService
func NewLedgerEditorService(deps Dependencies) *LedgerEditorService {
	return &LedgerEditorService{deps: deps.withDefaults()}
}

// TermEdit sets one term's paid total
type TermEdit struct {
	EntryID   uuid.UUID
	TotalPaid decimal.Decimal
	PaidDate  *time.Time
}

// EditTermsRequest is a batch of edits for one student
type EditTermsRequest struct {
	StudentID uuid.UUID
	Edits     []TermEdit
}

// TermFailure describes why one edit was not applied
type TermFailure struct {
	EntryID    uuid.UUID `json:"entry_id"`
	TermNumber int       `json:"term_number,omitempty"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
}

// EditTermsResult lists what was applied and what failed
type EditTermsResult struct {
	StudentID uuid.UUID           `json:"student_id"`
	Updated   []TermEntryResponse `json:"updated"`
	Failures  []TermFailure       `json:"failures"`
}

// HasFailures reports whether any edit failed
func (r *EditTermsResult) HasFailures() bool {
	return len(r.Failures) > 0
}

// EditTerms applies each edit in its own transaction so one bad term does not
// block the rest. The returned error combines every per-term failure.
func (s *LedgerEditorService) EditTerms(ctx context.Context, sess *identity.Session, req EditTermsRequest) (*EditTermsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger_editor", "edit_terms")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrStudentID.String(req.StudentID.String()),
		telemetry.AttrEditCount.Int(len(req.Edits)),
	)

	if err := s.validate(sess, req); err != nil {
		telemetry.RecordError(span, err)
		notifyFailure(ctx, s.deps, ActionEditLedger, req.StudentID, 0, err)
		return nil, err
	}

	result := &EditTermsResult{
		StudentID: req.StudentID,
		Updated:   make([]TermEntryResponse, 0, len(req.Edits)),
		Failures:  make([]TermFailure, 0),
	}
	var errs error
	var events []shared.DomainEvent
	now := s.deps.Clock.Now()

	for _, edit := range req.Edits {
		entry, err := s.applyEdit(ctx, req.StudentID, edit, now)
		if err != nil {
			failure := TermFailure{
				EntryID: edit.EntryID,
				Code:    shared.ErrorCode(err),
				Message: err.Error(),
			}
			if entry != nil {
				failure.TermNumber = entry.TermNumber
			}
			if failure.Code == "" {
				failure.Code = fee.CodePersistenceFailed
			}
			result.Failures = append(result.Failures, failure)
			errs = multierr.Append(errs, fmt.Errorf("term %s: %w", edit.EntryID, err))
			notifyFailure(ctx, s.deps, ActionEditLedger, req.StudentID, failure.TermNumber, err)
			continue
		}
		events = append(events, collectEvents(entry)...)
		result.Updated = append(result.Updated, ToTermEntryResponse(entry, now))
	}

	s.deps.publish(ctx, events)
	s.deps.Metrics.RecordManualEdit(ctx, len(result.Updated), len(result.Failures))

	if errs != nil {
		telemetry.RecordError(span, errs)
		s.deps.Logger.Warn("manual ledger edit finished with failures",
			zap.String("student_id", req.StudentID.String()),
			zap.Int("updated", len(result.Updated)),
			zap.Int("failed", len(result.Failures)),
		)
		return result, errs
	}

	s.deps.Notifier.Notify(ctx, Notification{
		Action:    ActionEditLedger,
		Level:     LevelSuccess,
		StudentID: req.StudentID,
		Message:   fmt.Sprintf("Updated %d term(s)", len(result.Updated)),
	})
	telemetry.SetOK(span)
	return result, nil
}

func (s *LedgerEditorService) validate(sess *identity.Session, req EditTermsRequest) error {
	if req.StudentID == uuid.Nil {
		return fee.ErrNoStudentSelected
	}
	if err := sess.Require(identity.CapManageLedger, req.StudentID); err != nil {
		return err
	}
	if len(req.Edits) == 0 {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "No terms to update")
	}
	seen := make(map[uuid.UUID]bool, len(req.Edits))
	for _, edit := range req.Edits {
		if edit.EntryID == uuid.Nil {
			return shared.NewDomainError(fee.CodeInvalidTerm, "Term entry ID is required")
		}
		if seen[edit.EntryID] {
			return shared.NewDomainError(fee.CodeInvalidTerm, fmt.Sprintf("Term %s is edited twice", edit.EntryID))
		}
		seen[edit.EntryID] = true
		if edit.TotalPaid.IsNegative() {
			return shared.NewDomainError(fee.CodeInvalidAmount, "Total paid cannot be negative")
		}
		if err := fee.CheckMoneyScale(edit.TotalPaid, "Total paid"); err != nil {
			return err
		}
	}
	return nil
}

// applyEdit updates the entry first, then makes its payment records agree.
// The returned entry is non-nil whenever it belongs to the student, even on
// failure.
func (s *LedgerEditorService) applyEdit(ctx context.Context, studentID uuid.UUID, edit TermEdit, now time.Time) (*fee.TermLedgerEntry, error) {
	var entry *fee.TermLedgerEntry
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.TermRepo().FindByID(ctx, edit.EntryID)
		if err != nil {
			entry = nil
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError(fee.CodeTermNotInLedger, "Term does not exist")
			}
			return fee.NewPersistenceError("load term", err)
		}
		if entry.StudentID != studentID {
			entry = nil
			return shared.NewDomainError(fee.CodeTermNotInLedger, "Term belongs to another student")
		}

		if err := entry.SetPaid(edit.TotalPaid, edit.PaidDate, now); err != nil {
			return err
		}
		if err := repos.TermRepo().SaveWithLock(ctx, entry); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return err
			}
			return fee.NewPersistenceError(fmt.Sprintf("update term %d", entry.TermNumber), err)
		}

		if err := reconcileRecords(ctx, repos.PaymentRepo(), entry, recordDate(entry, edit, now), now); err != nil {
			return fee.NewPersistenceError(fmt.Sprintf("reconcile payments for term %d", entry.TermNumber), err)
		}
		return nil
	})
	return entry, err
}

// recordDate is the payment date the reconciled record carries: the supplied
// date, else the term's paid date, else now.
func recordDate(entry *fee.TermLedgerEntry, edit TermEdit, now time.Time) time.Time {
	switch {
	case edit.PaidDate != nil:
		return *edit.PaidDate
	case entry.PaidDate != nil:
		return *entry.PaidDate
	}
	return now
}

// reconcileRecords leaves exactly one record equal to the term's paid total,
// or none when nothing is paid.
func reconcileRecords(ctx context.Context, repo fee.PaymentRecordRepository, entry *fee.TermLedgerEntry, paidOn, now time.Time) error {
	records, err := repo.FindByTermEntry(ctx, entry.ID)
	if err != nil {
		return err
	}

	if entry.TotalPaid.IsZero() {
		for _, r := range records {
			if err := repo.Delete(ctx, r.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if len(records) == 0 {
		return repo.Create(ctx, fee.NewManualPaymentRecord(entry, paidOn, now))
	}

	first := records[0]
	first.MirrorTerm(entry, paidOn, now)
	if err := repo.Update(ctx, first); err != nil {
		return err
	}
	for _, extra := range records[1:] {
		if err := repo.Delete(ctx, extra.ID); err != nil {
			return err
		}
	}
	return nil
}
