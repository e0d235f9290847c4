package fee

import (
	"context"

	"github.com/tuition/backend/internal/domain/fee"
)

// TransactionScope runs ledger writes atomically.
// If fn returns an error the transaction is rolled back, otherwise committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories share the same underlying database transaction.
type TransactionalRepositories interface {
	TermRepo() fee.TermLedgerRepository
	PaymentRepo() fee.PaymentRecordRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by tests and by stores that have no transaction support.
type NoOpTransactionScope struct {
	termRepo    fee.TermLedgerRepository
	paymentRepo fee.PaymentRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(termRepo fee.TermLedgerRepository, paymentRepo fee.PaymentRecordRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{termRepo: termRepo, paymentRepo: paymentRepo}
}

// Execute runs fn directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// TermRepo returns the term ledger repository.
func (s *NoOpTransactionScope) TermRepo() fee.TermLedgerRepository {
	return s.termRepo
}

// PaymentRepo returns the payment record repository.
func (s *NoOpTransactionScope) PaymentRepo() fee.PaymentRecordRepository {
	return s.paymentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
