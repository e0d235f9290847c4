package fee

import (
	"context"

	"github.com/google/uuid"
)

// TermLedgerRepository persists term ledger entries
type TermLedgerRepository interface {
	// FindByID returns shared.ErrNotFound when the entry does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*TermLedgerEntry, error)
	// FindByStudent returns a student's entries ordered by cycle then term number
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*TermLedgerEntry, error)
	// FindAll returns every entry, for portfolio reporting
	FindAll(ctx context.Context) ([]*TermLedgerEntry, error)
	// LatestCycle returns the highest cycle number for a student, 0 if none
	LatestCycle(ctx context.Context, studentID uuid.UUID) (int, error)
	// SaveBatch inserts new entries
	SaveBatch(ctx context.Context, entries []*TermLedgerEntry) error
	// SaveWithLock updates an entry only if its stored version is Version-1
	SaveWithLock(ctx context.Context, entry *TermLedgerEntry) error
	// DeleteByStudentCycle removes one cycle and returns the number of rows removed.
	// Payment records of those entries must be deleted first.
	DeleteByStudentCycle(ctx context.Context, studentID uuid.UUID, cycle int) (int64, error)
	// DeleteByStudent removes every entry of a student
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)
}

// PaymentRecordRepository persists payment records
type PaymentRecordRepository interface {
	Create(ctx context.Context, record *PaymentRecord) error
	Update(ctx context.Context, record *PaymentRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByTermEntry returns records of one term, oldest first
	FindByTermEntry(ctx context.Context, termEntryID uuid.UUID) ([]*PaymentRecord, error)
	// FindByStudent returns a student's payment history, newest first
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*PaymentRecord, error)
	DeleteByTermEntries(ctx context.Context, termEntryIDs []uuid.UUID) (int64, error)
}
