package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appfee "github.com/tuition/backend/internal/application/fee"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/shared"
)

var ledgerToday = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func mustPlan(t *testing.T, termFee string) fee.FeePlan {
	t.Helper()
	plan, err := fee.NewFeePlan(decimal.RequireFromString(termFee), fee.TermTypeThreeMonths, fee.CategoryMonthly)
	require.NoError(t, err)
	return plan
}

func seedCycle(t *testing.T, repo *GormTermLedgerRepository, studentID uuid.UUID, cycle int) []*fee.TermLedgerEntry {
	t.Helper()
	entries, err := fee.GenerateSchedule(studentID, mustPlan(t, "1200"), cycle, ledgerToday)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(context.Background(), entries))
	return entries
}

func TestGormTermLedgerRepository_SaveAndFind(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTermLedgerRepository(db.DB)
	ctx := context.Background()
	studentID := uuid.New()

	seedCycle(t, repo, studentID, 2)
	first := seedCycle(t, repo, studentID, 1)

	got, err := repo.FindByStudent(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, got, 8)
	for i, e := range got {
		assert.Equal(t, i/4+1, e.CycleNumber)
		assert.Equal(t, i%4+1, e.TermNumber)
	}

	one, err := repo.FindByID(ctx, first[2].ID)
	require.NoError(t, err)
	assert.True(t, one.Amount.Equal(decimal.NewFromInt(1200)))
	assert.True(t, one.RemainingAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, fee.TermStatusPending, one.Status)
	assert.True(t, one.DueDate.Equal(ledgerToday.AddDate(0, 6, 0)))
	assert.Nil(t, one.PaidDate)
	assert.Equal(t, 1, one.Version)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTermLedgerRepository_UniqueTermPerCycle(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTermLedgerRepository(db.DB)
	studentID := uuid.New()

	seedCycle(t, repo, studentID, 1)

	dup, err := fee.GenerateSchedule(studentID, mustPlan(t, "1200"), 1, ledgerToday)
	require.NoError(t, err)
	assert.Error(t, repo.SaveBatch(context.Background(), dup))
}

func TestGormTermLedgerRepository_LatestCycle(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTermLedgerRepository(db.DB)
	ctx := context.Background()
	studentID := uuid.New()

	latest, err := repo.LatestCycle(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, 0, latest)

	seedCycle(t, repo, studentID, 1)
	seedCycle(t, repo, studentID, 3)
	seedCycle(t, repo, uuid.New(), 7)

	latest, err = repo.LatestCycle(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest)
}

func TestGormTermLedgerRepository_SaveWithLock(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTermLedgerRepository(db.DB)
	ctx := context.Background()
	entries := seedCycle(t, repo, uuid.New(), 1)

	t.Run("applies payment and bumps version", func(t *testing.T) {
		entry, err := repo.FindByID(ctx, entries[0].ID)
		require.NoError(t, err)
		require.NoError(t, entry.ApplyPayment(decimal.NewFromInt(1200), ledgerToday, ledgerToday))
		require.NoError(t, repo.SaveWithLock(ctx, entry))

		stored, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version)
		assert.Equal(t, fee.TermStatusPaid, stored.Status)
		assert.True(t, stored.RemainingAmount.IsZero())
		require.NotNil(t, stored.PaidDate)
		assert.True(t, stored.PaidDate.Equal(ledgerToday))
	})

	t.Run("zero values are written back", func(t *testing.T) {
		entry, err := repo.FindByID(ctx, entries[0].ID)
		require.NoError(t, err)
		require.NoError(t, entry.SetPaid(decimal.Zero, nil, ledgerToday))
		require.NoError(t, repo.SaveWithLock(ctx, entry))

		stored, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalPaid.IsZero())
		assert.Equal(t, fee.TermStatusPending, stored.Status)
		assert.Nil(t, stored.PaidDate)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		a, err := repo.FindByID(ctx, entries[1].ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, entries[1].ID)
		require.NoError(t, err)

		require.NoError(t, a.ApplyPayment(decimal.NewFromInt(100), ledgerToday, ledgerToday))
		require.NoError(t, repo.SaveWithLock(ctx, a))

		require.NoError(t, b.ApplyPayment(decimal.NewFromInt(200), ledgerToday, ledgerToday))
		assert.ErrorIs(t, repo.SaveWithLock(ctx, b), shared.ErrConcurrencyConflict)

		stored, err := repo.FindByID(ctx, entries[1].ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalPaid.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, fee.TermStatusPartiallyPaid, stored.Status)
	})
}

func TestGormTermLedgerRepository_Delete(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTermLedgerRepository(db.DB)
	ctx := context.Background()
	studentID := uuid.New()
	other := uuid.New()

	seedCycle(t, repo, studentID, 1)
	seedCycle(t, repo, studentID, 2)
	seedCycle(t, repo, other, 1)

	n, err := repo.DeleteByStudentCycle(ctx, studentID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = repo.DeleteByStudentCycle(ctx, studentID, 9)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteByStudent(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, e := range all {
		assert.Equal(t, other, e.StudentID)
	}
}

func TestGormPaymentRecordRepository(t *testing.T) {
	db := newTestDatabase(t)
	terms := NewGormTermLedgerRepository(db.DB)
	repo := NewGormPaymentRecordRepository(db.DB)
	ctx := context.Background()
	studentID := uuid.New()
	entries := seedCycle(t, terms, studentID, 1)

	early, err := fee.NewPaymentRecord(entries[0], decimal.RequireFromString("700.50"), ledgerToday, ledgerToday, fee.PaymentMethodCash, "first")
	require.NoError(t, err)
	late, err := fee.NewPaymentRecord(entries[0], decimal.RequireFromString("499.50"), ledgerToday.AddDate(0, 0, 3), ledgerToday.AddDate(0, 0, 3), fee.PaymentMethodOnline, "")
	require.NoError(t, err)
	second, err := fee.NewPaymentRecord(entries[1], decimal.NewFromInt(100), ledgerToday.AddDate(0, 0, 3), ledgerToday.AddDate(0, 0, 3), fee.PaymentMethodCheque, "")
	require.NoError(t, err)

	for _, r := range []*fee.PaymentRecord{early, late, second} {
		require.NoError(t, repo.Create(ctx, r))
	}

	t.Run("term records oldest first", func(t *testing.T) {
		got, err := repo.FindByTermEntry(ctx, entries[0].ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, early.ID, got[0].ID)
		assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("700.50")))
		assert.Equal(t, fee.RecordSourceAllocation, got[0].Source)
		assert.Equal(t, late.ID, got[1].ID)
	})

	t.Run("student history newest first", func(t *testing.T) {
		got, err := repo.FindByStudent(ctx, studentID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, early.ID, got[2].ID)
		assert.Equal(t, 2, got[0].TermNumber)
	})

	t.Run("update mirrors a manual edit", func(t *testing.T) {
		late.Amount = decimal.NewFromInt(50)
		late.Remarks = fee.ManualAdjustmentRemark
		late.Source = fee.RecordSourceManual
		require.NoError(t, repo.Update(ctx, late))

		got, err := repo.FindByTermEntry(ctx, entries[0].ID)
		require.NoError(t, err)
		assert.True(t, got[1].Amount.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, fee.RecordSourceManual, got[1].Source)

		missing := *late
		missing.ID = uuid.New()
		assert.ErrorIs(t, repo.Update(ctx, &missing), shared.ErrNotFound)
	})

	t.Run("delete single and by term", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		assert.ErrorIs(t, repo.Delete(ctx, second.ID), shared.ErrNotFound)

		n, err := repo.DeleteByTermEntries(ctx, []uuid.UUID{entries[0].ID, entries[3].ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.DeleteByTermEntries(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		got, err := repo.FindByStudent(ctx, studentID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGormTransactionScope_SQLiteRollback(t *testing.T) {
	db := newTestDatabase(t)
	terms := NewGormTermLedgerRepository(db.DB)
	ctx := context.Background()
	studentID := uuid.New()
	entries := seedCycle(t, terms, studentID, 1)

	scope := NewGormTransactionScope(db.DB)
	err := scope.Execute(ctx, func(repos appfee.TransactionalRepositories) error {
		entry, err := repos.TermRepo().FindByID(ctx, entries[0].ID)
		if err != nil {
			return err
		}
		if err := entry.ApplyPayment(decimal.NewFromInt(600), ledgerToday, ledgerToday); err != nil {
			return err
		}
		if err := repos.TermRepo().SaveWithLock(ctx, entry); err != nil {
			return err
		}
		record, err := fee.NewPaymentRecord(entry, decimal.NewFromInt(600), ledgerToday, ledgerToday, fee.PaymentMethodCash, "")
		if err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, record); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	stored, err := terms.FindByID(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalPaid.IsZero())
	assert.Equal(t, 1, stored.Version)

	records, err := NewGormPaymentRecordRepository(db.DB).FindByStudent(ctx, studentID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
