package fee

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/tuition/backend/internal/domain/fee"
)

// Mock implementations

type mockTermLedgerRepository struct {
	mock.Mock
}

func (m *mockTermLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*fee.TermLedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.TermLedgerEntry), args.Error(1)
}

func (m *mockTermLedgerRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*fee.TermLedgerEntry, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fee.TermLedgerEntry), args.Error(1)
}

func (m *mockTermLedgerRepository) FindAll(ctx context.Context) ([]*fee.TermLedgerEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fee.TermLedgerEntry), args.Error(1)
}

func (m *mockTermLedgerRepository) LatestCycle(ctx context.Context, studentID uuid.UUID) (int, error) {
	args := m.Called(ctx, studentID)
	return args.Int(0), args.Error(1)
}

func (m *mockTermLedgerRepository) SaveBatch(ctx context.Context, entries []*fee.TermLedgerEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *mockTermLedgerRepository) SaveWithLock(ctx context.Context, entry *fee.TermLedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockTermLedgerRepository) DeleteByStudentCycle(ctx context.Context, studentID uuid.UUID, cycle int) (int64, error) {
	args := m.Called(ctx, studentID, cycle)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTermLedgerRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordPayment(ctx context.Context, method string, amount decimal.Decimal, ok bool) {
	m.Called(ctx, method, amount.String(), ok)
}

func (m *mockMetrics) RecordScheduleGenerated(ctx context.Context, terms int) {
	m.Called(ctx, terms)
}

func (m *mockMetrics) RecordManualEdit(ctx context.Context, updated, failed int) {
	m.Called(ctx, updated, failed)
}
