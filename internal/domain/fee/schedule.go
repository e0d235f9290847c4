package fee

import (
	"time"

	"github.com/google/uuid"
)

// GenerateSchedule materializes one cycle of pending terms for a student.
// Term i is due (i-1) term durations after today, in calendar months.
func GenerateSchedule(studentID uuid.UUID, plan FeePlan, cycle int, today time.Time) ([]*TermLedgerEntry, error) {
	if studentID == uuid.Nil {
		return nil, ErrNoStudentSelected
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	terms := plan.TermsPerCycle()
	months := plan.TermDurationMonths()
	entries := make([]*TermLedgerEntry, 0, terms)
	for i := 1; i <= terms; i++ {
		due := today.AddDate(0, (i-1)*months, 0)
		entry, err := NewTermLedgerEntry(studentID, cycle, i, plan.TermFee, due, today)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
