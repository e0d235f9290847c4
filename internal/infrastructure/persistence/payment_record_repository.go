package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRecordRepository implements fee.PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// Create inserts a payment record
func (r *GormPaymentRecordRepository) Create(ctx context.Context, record *fee.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(models.PaymentRecordModelFromDomain(record)).Error
}

// Update overwrites the mutable columns of a record
func (r *GormPaymentRecordRepository) Update(ctx context.Context, record *fee.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("id = ?", record.ID).
		Select("amount", "payment_date", "method", "remarks", "source", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a record
func (r *GormPaymentRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByTermEntry returns the records of one term, oldest first
func (r *GormPaymentRecordRepository) FindByTermEntry(ctx context.Context, termEntryID uuid.UUID) ([]*fee.PaymentRecord, error) {
	var rows []models.PaymentRecordModel
	err := r.db.WithContext(ctx).
		Where("term_entry_id = ?", termEntryID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return paymentRecordsToDomain(rows), nil
}

// FindByStudent returns a student's payment history, newest first
func (r *GormPaymentRecordRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*fee.PaymentRecord, error) {
	var rows []models.PaymentRecordModel
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("payment_date DESC, created_at DESC, term_number DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return paymentRecordsToDomain(rows), nil
}

// DeleteByTermEntries removes every record attached to the given entries
func (r *GormPaymentRecordRepository) DeleteByTermEntries(ctx context.Context, termEntryIDs []uuid.UUID) (int64, error) {
	if len(termEntryIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("term_entry_id IN ?", termEntryIDs).
		Delete(&models.PaymentRecordModel{})
	return result.RowsAffected, result.Error
}

func paymentRecordsToDomain(rows []models.PaymentRecordModel) []*fee.PaymentRecord {
	out := make([]*fee.PaymentRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormPaymentRecordRepository implements fee.PaymentRecordRepository
var _ fee.PaymentRecordRepository = (*GormPaymentRecordRepository)(nil)
