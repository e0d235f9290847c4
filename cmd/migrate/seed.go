package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/student"
	"go.uber.org/multierr"
)

// rosterRow is one student in a seed file
type rosterRow struct {
	Name      string          `json:"name"`
	ClassName string          `json:"class_name"`
	Board     string          `json:"board"`
	TermFee   decimal.Decimal `json:"term_fee"`
	TermType  string          `json:"term_type"`
	Category  string          `json:"category"`
	Inactive  bool            `json:"inactive"`
}

func (r rosterRow) toStudent(now time.Time) (*student.Student, error) {
	termType, err := fee.ParseTermType(r.TermType)
	if err != nil {
		return nil, err
	}
	category := fee.Category(strings.ToUpper(strings.TrimSpace(r.Category)))
	if category == "" {
		category = fee.CategoryMonthly
	}
	plan, err := fee.NewFeePlan(r.TermFee, termType, category)
	if err != nil {
		return nil, err
	}
	st, err := student.NewStudent(r.Name, r.ClassName, r.Board, plan, now)
	if err != nil {
		return nil, err
	}
	st.Active = !r.Inactive
	return st, nil
}

// seedStudents saves every row of a JSON roster. Nothing is written when any
// row is invalid; all bad rows are reported together.
func seedStudents(ctx context.Context, repo student.Repository, r io.Reader, now time.Time) (int, error) {
	var rows []rosterRow
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rows); err != nil {
		return 0, fmt.Errorf("failed to parse roster: %w", err)
	}

	var errs error
	students := make([]*student.Student, 0, len(rows))
	for i, row := range rows {
		st, err := row.toStudent(now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d (%s): %w", i+1, row.Name, err))
			continue
		}
		students = append(students, st)
	}
	if errs != nil {
		return 0, errs
	}

	for i, st := range students {
		if err := repo.Save(ctx, st); err != nil {
			return i, fmt.Errorf("failed to save %s: %w", st.Name, err)
		}
	}
	return len(students), nil
}
