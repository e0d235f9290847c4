package fee

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ScheduleService starts and removes fee cycles
type ScheduleService struct {
	deps Dependencies
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(deps Dependencies) *ScheduleService {
	return &ScheduleService{deps: deps.withDefaults()}
}

// ScheduleResult describes a generated cycle
type ScheduleResult struct {
	StudentID   uuid.UUID           `json:"student_id"`
	CycleNumber int                 `json:"cycle_number"`
	YearlyFee   string              `json:"yearly_fee"`
	Entries     []TermEntryResponse `json:"entries"`
}

// GenerateSchedule creates the next cycle of terms for a student from their
// fee plan. All terms are written in one transaction.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, sess *identity.Session, studentID uuid.UUID) (*ScheduleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_schedule", "generate")
	defer span.End()
	span.SetAttributes(telemetry.AttrStudentID.String(studentID.String()))

	fail := func(err error) (*ScheduleResult, error) {
		telemetry.RecordError(span, err)
		s.notifyError(ctx, ActionGenerateSchedule, studentID, err)
		return nil, err
	}

	if studentID == uuid.Nil {
		return fail(fee.ErrNoStudentSelected)
	}
	if err := sess.Require(identity.CapManageLedger, studentID); err != nil {
		return fail(err)
	}

	st, err := s.deps.Students.FindByID(ctx, studentID)
	if err != nil {
		return fail(fmt.Errorf("failed to load student: %w", err))
	}

	today := s.deps.today()
	var entries []*fee.TermLedgerEntry
	var cycle int
	err = s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		latest, err := repos.TermRepo().LatestCycle(ctx, studentID)
		if err != nil {
			return fee.NewPersistenceError("read latest cycle", err)
		}
		cycle = latest + 1

		entries, err = fee.GenerateSchedule(studentID, st.FeePlan, cycle, today)
		if err != nil {
			return err
		}
		if err := repos.TermRepo().SaveBatch(ctx, entries); err != nil {
			return fee.NewPersistenceError("save fee schedule", err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(telemetry.AttrCycleNumber.Int(cycle), telemetry.AttrTermCount.Int(len(entries)))
	s.deps.publish(ctx, []shared.DomainEvent{fee.NewScheduleGeneratedEvent(studentID, cycle, entries, s.deps.Clock.Now())})
	s.deps.Metrics.RecordScheduleGenerated(ctx, len(entries))
	s.deps.Notifier.Notify(ctx, Notification{
		Action:    ActionGenerateSchedule,
		Level:     LevelSuccess,
		StudentID: studentID,
		Message:   fmt.Sprintf("Generated %d terms for %s (cycle %d)", len(entries), st.Name, cycle),
	})
	telemetry.SetOK(span)

	return &ScheduleResult{
		StudentID:   studentID,
		CycleNumber: cycle,
		YearlyFee:   st.FeePlan.YearlyFee().StringFixed(2),
		Entries:     ToTermEntryResponses(entries, s.deps.Clock.Now()),
	}, nil
}

// DeleteCycle removes one cycle of a student's terms together with their payment records
func (s *ScheduleService) DeleteCycle(ctx context.Context, sess *identity.Session, studentID uuid.UUID, cycle int) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_schedule", "delete_cycle")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrStudentID.String(studentID.String()),
		telemetry.AttrCycleNumber.Int(cycle),
	)

	if cycle < 1 {
		err := shared.NewDomainError(fee.CodeInvalidTerm, "Cycle number starts at 1")
		telemetry.RecordError(span, err)
		s.notifyError(ctx, ActionDeleteCycle, studentID, err)
		return err
	}
	err := s.deleteLedger(ctx, sess, ActionDeleteCycle, studentID, func(e *fee.TermLedgerEntry) bool {
		return e.CycleNumber == cycle
	}, func(repo fee.TermLedgerRepository) (int64, error) {
		return repo.DeleteByStudentCycle(ctx, studentID, cycle)
	}, cycle)
	telemetry.RecordError(span, err)
	return err
}

// RemoveStudentLedger removes every term and payment record of a student.
// Called when the student leaves the roster.
func (s *ScheduleService) RemoveStudentLedger(ctx context.Context, sess *identity.Session, studentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_schedule", "delete_ledger")
	defer span.End()
	span.SetAttributes(telemetry.AttrStudentID.String(studentID.String()))

	err := s.deleteLedger(ctx, sess, ActionDeleteLedger, studentID, func(*fee.TermLedgerEntry) bool {
		return true
	}, func(repo fee.TermLedgerRepository) (int64, error) {
		return repo.DeleteByStudent(ctx, studentID)
	}, 0)
	telemetry.RecordError(span, err)
	return err
}

func (s *ScheduleService) deleteLedger(
	ctx context.Context,
	sess *identity.Session,
	action Action,
	studentID uuid.UUID,
	match func(*fee.TermLedgerEntry) bool,
	deleteTerms func(fee.TermLedgerRepository) (int64, error),
	cycle int,
) error {
	if studentID == uuid.Nil {
		s.notifyError(ctx, action, studentID, fee.ErrNoStudentSelected)
		return fee.ErrNoStudentSelected
	}
	if err := sess.Require(identity.CapManageLedger, studentID); err != nil {
		s.notifyError(ctx, action, studentID, err)
		return err
	}

	var deleted int64
	err := s.deps.TxScope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.TermRepo().FindByStudent(ctx, studentID)
		if err != nil {
			return fee.NewPersistenceError("load ledger", err)
		}
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			if match(e) {
				ids = append(ids, e.ID)
			}
		}
		if len(ids) == 0 {
			return shared.ErrNotFound
		}

		if _, err := repos.PaymentRepo().DeleteByTermEntries(ctx, ids); err != nil {
			return fee.NewPersistenceError("delete payment records", err)
		}
		if deleted, err = deleteTerms(repos.TermRepo()); err != nil {
			return fee.NewPersistenceError("delete term entries", err)
		}
		return nil
	})
	if err != nil {
		s.notifyError(ctx, action, studentID, err)
		return err
	}

	s.deps.publish(ctx, []shared.DomainEvent{fee.NewCycleDeletedEvent(studentID, cycle, deleted, s.deps.Clock.Now())})
	s.deps.Notifier.Notify(ctx, Notification{
		Action:    action,
		Level:     LevelSuccess,
		StudentID: studentID,
		Message:   fmt.Sprintf("Deleted %d terms", deleted),
	})
	return nil
}

func (s *ScheduleService) notifyError(ctx context.Context, action Action, studentID uuid.UUID, err error) {
	notifyFailure(ctx, s.deps, action, studentID, 0, err)
}

// notifyFailure emits an error notification and logs persistence failures
func notifyFailure(ctx context.Context, deps Dependencies, action Action, studentID uuid.UUID, term int, err error) {
	if fee.IsPersistenceError(err) || errors.Is(err, shared.ErrConcurrencyConflict) {
		deps.Logger.Error("ledger write failed",
			zap.String("action", string(action)),
			zap.String("student_id", studentID.String()),
			zap.Int("term_number", term),
			zap.Error(err),
		)
	}
	deps.Notifier.Notify(ctx, Notification{
		Action:     action,
		Level:      LevelError,
		StudentID:  studentID,
		TermNumber: term,
		Code:       shared.ErrorCode(err),
		Message:    err.Error(),
	})
}
