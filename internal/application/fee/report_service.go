package fee

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/domain/student"
	"github.com/tuition/backend/internal/infrastructure/telemetry"
)

// ReportService computes dashboard figures from the ledger
type ReportService struct {
	deps Dependencies
}

// NewReportService creates a new ReportService
func NewReportService(deps Dependencies) *ReportService {
	return &ReportService{deps: deps.withDefaults()}
}

// StudentBalance is one row of the outstanding-balance list
type StudentBalance struct {
	StudentID    uuid.UUID       `json:"student_id"`
	Name         string          `json:"name"`
	ClassName    string          `json:"class_name"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	OverdueCount int             `json:"overdue_count"`
}

// SummaryResponse is the portfolio-wide dashboard
type SummaryResponse struct {
	fee.LedgerSummary
	Currency string           `json:"currency"`
	Students []StudentBalance `json:"students"`
}

// SummaryQuery narrows the dashboard to part of the roster. The zero value
// covers every student.
type SummaryQuery struct {
	ClassName string
	Board     string
	Active    *bool
	Search    string
}

func (q SummaryQuery) filter() (shared.Filter, bool) {
	f := shared.Filter{Search: strings.TrimSpace(q.Search), Filters: map[string]interface{}{}}
	if v := strings.TrimSpace(q.ClassName); v != "" {
		f.Filters["class_name"] = v
	}
	if v := strings.TrimSpace(q.Board); v != "" {
		f.Filters["board"] = v
	}
	if q.Active != nil {
		f.Filters["active"] = *q.Active
	}
	return f, f.Search != "" || len(f.Filters) > 0
}

// Summary totals every ledger entry whose student is still on the roster.
// A narrowed query leaves orphaned entries out of the totals and the count.
func (s *ReportService) Summary(ctx context.Context, sess *identity.Session, currency string, query SummaryQuery) (*SummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_report", "summary")
	defer span.End()

	if err := sess.Require(identity.CapViewReports, uuid.Nil); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entries, err := s.deps.Terms.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	filter, narrowed := query.filter()
	students, _, err := s.deps.Students.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	now := s.deps.Clock.Now()
	roster := lo.SliceToMap(students, func(st *student.Student) (uuid.UUID, *student.Student) {
		return st.ID, st
	})
	existing := lo.MapValues(roster, func(*student.Student, uuid.UUID) bool { return true })
	if narrowed {
		entries = lo.Filter(entries, func(e *fee.TermLedgerEntry, _ int) bool {
			return existing[e.StudentID]
		})
	}

	summary := fee.Summarize(entries, existing, now)

	live := lo.Filter(entries, func(e *fee.TermLedgerEntry, _ int) bool {
		return existing[e.StudentID]
	})
	byStudent := lo.GroupBy(live, func(e *fee.TermLedgerEntry) uuid.UUID {
		return e.StudentID
	})
	balances := lo.MapToSlice(byStudent, func(id uuid.UUID, terms []*fee.TermLedgerEntry) StudentBalance {
		st := roster[id]
		totals := fee.TotalsFor(st.FeePlan, terms, now)
		return StudentBalance{
			StudentID:    id,
			Name:         st.Name,
			ClassName:    st.ClassName,
			TotalPaid:    totals.TotalPaid,
			TotalPending: totals.TotalPending,
			OverdueCount: totals.OverdueCount,
		}
	})
	sort.Slice(balances, func(i, j int) bool {
		if !balances[i].TotalPending.Equal(balances[j].TotalPending) {
			return balances[i].TotalPending.GreaterThan(balances[j].TotalPending)
		}
		return balances[i].Name < balances[j].Name
	})

	span.SetAttributes(
		telemetry.AttrOverdueCount.Int(summary.OverdueCount),
		telemetry.AttrOrphanedCount.Int(summary.OrphanedCount),
	)
	telemetry.SetOK(span)
	return &SummaryResponse{LedgerSummary: summary, Currency: currency, Students: balances}, nil
}

// StudentLedgerResponse is everything shown on one student's fee page
type StudentLedgerResponse struct {
	StudentID uuid.UUID               `json:"student_id"`
	Name      string                  `json:"name"`
	ClassName string                  `json:"class_name"`
	TermFee   decimal.Decimal         `json:"term_fee"`
	TermType  string                  `json:"term_type"`
	Category  string                  `json:"category"`
	Totals    fee.StudentTotals       `json:"totals"`
	Entries   []TermEntryResponse     `json:"entries"`
	Payments  []PaymentRecordResponse `json:"payments"`
}

// StudentLedger returns one student's terms, totals and payment history
func (s *ReportService) StudentLedger(ctx context.Context, sess *identity.Session, studentID uuid.UUID) (*StudentLedgerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_report", "student_ledger")
	defer span.End()
	span.SetAttributes(telemetry.AttrStudentID.String(studentID.String()))

	if studentID == uuid.Nil {
		return nil, fee.ErrNoStudentSelected
	}
	if err := sess.Require(identity.CapViewLedger, studentID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	st, err := s.deps.Students.FindByID(ctx, studentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	entries, err := s.deps.Terms.FindByStudent(ctx, studentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	payments, err := s.deps.Payments.FindByStudent(ctx, studentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payment history: %w", err)
	}

	now := s.deps.Clock.Now()
	return &StudentLedgerResponse{
		StudentID: st.ID,
		Name:      st.Name,
		ClassName: st.ClassName,
		TermFee:   st.FeePlan.TermFee,
		TermType:  st.FeePlan.TermType.String(),
		Category:  string(st.FeePlan.Category),
		Totals:    fee.TotalsFor(st.FeePlan, entries, now),
		Entries:   ToTermEntryResponses(entries, now),
		Payments:  ToPaymentRecordResponses(payments),
	}, nil
}
