package persistence

import (
	"context"

	appfee "github.com/tuition/backend/internal/application/fee"
	"github.com/tuition/backend/internal/domain/fee"
	"gorm.io/gorm"
)

// GormTransactionScope implements appfee.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one database transaction.
// Rolled back when fn returns an error or panics, committed otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfee.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// TermRepo returns the term ledger repository bound to the transaction.
func (r *gormTransactionalRepositories) TermRepo() fee.TermLedgerRepository {
	return NewGormTermLedgerRepository(r.tx)
}

// PaymentRepo returns the payment record repository bound to the transaction.
func (r *gormTransactionalRepositories) PaymentRepo() fee.PaymentRecordRepository {
	return NewGormPaymentRecordRepository(r.tx)
}

var _ appfee.TransactionScope = (*GormTransactionScope)(nil)
var _ appfee.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
