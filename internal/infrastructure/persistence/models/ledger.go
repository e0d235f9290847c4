package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
)

// TermLedgerEntryModel is the persistence model for one term of a fee cycle
type TermLedgerEntryModel struct {
	VersionedRow
	StudentID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_term_ledger_student_cycle_term,priority:1"`
	CycleNumber     int             `gorm:"not null;uniqueIndex:idx_term_ledger_student_cycle_term,priority:2"`
	TermNumber      int             `gorm:"not null;uniqueIndex:idx_term_ledger_student_cycle_term,priority:3"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPaid       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate         time.Time       `gorm:"not null;index"`
	PaidDate        *time.Time
}

// TableName returns the table name for GORM
func (TermLedgerEntryModel) TableName() string {
	return "term_ledger_entries"
}

// ToDomain converts the persistence model to a domain TermLedgerEntry
func (m *TermLedgerEntryModel) ToDomain() *fee.TermLedgerEntry {
	return &fee.TermLedgerEntry{
		BaseAggregateRoot: m.VersionedRow.aggregate(),
		StudentID:         m.StudentID,
		CycleNumber:       m.CycleNumber,
		TermNumber:        m.TermNumber,
		Amount:            m.Amount,
		TotalPaid:         m.TotalPaid,
		RemainingAmount:   m.RemainingAmount,
		Status:            fee.TermStatus(m.Status),
		DueDate:           m.DueDate,
		PaidDate:          m.PaidDate,
	}
}

// TermLedgerEntryModelFromDomain creates a persistence model from a domain entry
func TermLedgerEntryModelFromDomain(e *fee.TermLedgerEntry) *TermLedgerEntryModel {
	return &TermLedgerEntryModel{
		VersionedRow:    versionedRowOf(e.BaseAggregateRoot),
		StudentID:       e.StudentID,
		CycleNumber:     e.CycleNumber,
		TermNumber:      e.TermNumber,
		Amount:          e.Amount,
		TotalPaid:       e.TotalPaid,
		RemainingAmount: e.RemainingAmount,
		Status:          string(e.Status),
		DueDate:         e.DueDate,
		PaidDate:        e.PaidDate,
	}
}

// PaymentRecordModel is the persistence model for money applied to one term
type PaymentRecordModel struct {
	Row
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	TermEntryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	TermNumber  int             `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentDate time.Time       `gorm:"not null;index"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Remarks     string          `gorm:"type:varchar(500)"`
	Source      string          `gorm:"type:varchar(30);not null;default:'allocation'"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain PaymentRecord
func (m *PaymentRecordModel) ToDomain() *fee.PaymentRecord {
	return &fee.PaymentRecord{
		BaseEntity:  m.Row.entity(),
		StudentID:   m.StudentID,
		TermEntryID: m.TermEntryID,
		TermNumber:  m.TermNumber,
		Amount:      m.Amount,
		PaymentDate: m.PaymentDate,
		Method:      fee.PaymentMethod(m.Method),
		Remarks:     m.Remarks,
		Source:      fee.RecordSource(m.Source),
	}
}

// PaymentRecordModelFromDomain creates a persistence model from a domain record
func PaymentRecordModelFromDomain(r *fee.PaymentRecord) *PaymentRecordModel {
	return &PaymentRecordModel{
		Row:         rowOf(r.BaseEntity),
		StudentID:   r.StudentID,
		TermEntryID: r.TermEntryID,
		TermNumber:  r.TermNumber,
		Amount:      r.Amount,
		PaymentDate: r.PaymentDate,
		Method:      string(r.Method),
		Remarks:     r.Remarks,
		Source:      string(r.Source),
	}
}

// All lists every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{&StudentModel{}, &TermLedgerEntryModel{}, &PaymentRecordModel{}}
}
