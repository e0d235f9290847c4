package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTermLedgerRepository implements fee.TermLedgerRepository using GORM
type GormTermLedgerRepository struct {
	db *gorm.DB
}

// NewGormTermLedgerRepository creates a new GormTermLedgerRepository
func NewGormTermLedgerRepository(db *gorm.DB) *GormTermLedgerRepository {
	return &GormTermLedgerRepository{db: db}
}

// FindByID finds a term ledger entry by ID
func (r *GormTermLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*fee.TermLedgerEntry, error) {
	var model models.TermLedgerEntryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByStudent returns a student's entries ordered by cycle then term
func (r *GormTermLedgerRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*fee.TermLedgerEntry, error) {
	var rows []models.TermLedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("cycle_number ASC, term_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return termEntriesToDomain(rows), nil
}

// FindAll returns every entry in a stable order
func (r *GormTermLedgerRepository) FindAll(ctx context.Context) ([]*fee.TermLedgerEntry, error) {
	var rows []models.TermLedgerEntryModel
	err := r.db.WithContext(ctx).
		Order("student_id ASC, cycle_number ASC, term_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return termEntriesToDomain(rows), nil
}

// LatestCycle returns the highest cycle number of a student, 0 when none exist
func (r *GormTermLedgerRepository) LatestCycle(ctx context.Context, studentID uuid.UUID) (int, error) {
	var latest int
	err := r.db.WithContext(ctx).
		Model(&models.TermLedgerEntryModel{}).
		Where("student_id = ?", studentID).
		Select("COALESCE(MAX(cycle_number), 0)").
		Scan(&latest).Error
	if err != nil {
		return 0, err
	}
	return latest, nil
}

// SaveBatch inserts new entries in one statement
func (r *GormTermLedgerRepository) SaveBatch(ctx context.Context, entries []*fee.TermLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.TermLedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.TermLedgerEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// SaveWithLock updates an entry whose stored version is entry.Version-1.
// Returns shared.ErrConcurrencyConflict when another writer got there first.
func (r *GormTermLedgerRepository) SaveWithLock(ctx context.Context, entry *fee.TermLedgerEntry) error {
	model := models.TermLedgerEntryModelFromDomain(entry)
	// Select("*") so zero values (remaining 0, nil paid_date) are written too
	result := r.db.WithContext(ctx).
		Model(&models.TermLedgerEntryModel{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteByStudentCycle removes one cycle of a student
func (r *GormTermLedgerRepository) DeleteByStudentCycle(ctx context.Context, studentID uuid.UUID, cycle int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("student_id = ? AND cycle_number = ?", studentID, cycle).
		Delete(&models.TermLedgerEntryModel{})
	return result.RowsAffected, result.Error
}

// DeleteByStudent removes every entry of a student
func (r *GormTermLedgerRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.TermLedgerEntryModel{})
	return result.RowsAffected, result.Error
}

func termEntriesToDomain(rows []models.TermLedgerEntryModel) []*fee.TermLedgerEntry {
	out := make([]*fee.TermLedgerEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// Ensure GormTermLedgerRepository implements fee.TermLedgerRepository
var _ fee.TermLedgerRepository = (*GormTermLedgerRepository)(nil)
