package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDraft(t *testing.T, repo payroll.PayrollRepository) {
	t.Helper()
	_, err := repo.UpsertDraft(context.Background(), payroll.Payroll{ID: "p-1", EmployeeID: "emp-1", PeriodMonth: 1, PeriodYear: 2024})
	require.NoError(t, err)
}

func TestWithinTx_RollbackUndoesTransactionWrites(t *testing.T) {
	store := NewStore()
	repo := NewPayrollRepository(store)
	seedDraft(t, repo)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		if _, err := repo.MarkPaid(txCtx, "emp-1", 1, 2024, "finance", time.Now()); err != nil {
			return err
		}
		return errors.New("ledger unavailable")
	})
	assert.EqualError(t, err, "ledger unavailable")

	p, err := repo.GetByPeriod(ctx, "emp-1", 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusDraft, p.Status)
}

func TestWithinTx_RollbackKeepsWritesMadeOutside(t *testing.T) {
	store := NewStore()
	repo := NewPayrollRepository(store)
	seedDraft(t, repo)
	ctx := context.Background()

	inTx := make(chan struct{})
	release := make(chan struct{})
	txErr := make(chan error, 1)
	go func() {
		txErr <- store.WithinTx(ctx, func(context.Context) error {
			close(inTx)
			<-release
			return errors.New("ledger unavailable")
		})
	}()
	<-inTx

	paidErr := make(chan error, 1)
	go func() {
		_, err := repo.MarkPaid(ctx, "emp-1", 1, 2024, "finance", time.Now())
		paidErr <- err
	}()
	close(release)

	assert.EqualError(t, <-txErr, "ledger unavailable")
	require.NoError(t, <-paidErr)

	p, err := repo.GetByPeriod(ctx, "emp-1", 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusPaid, p.Status)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	store := NewStore()
	repo := NewPayrollRepository(store)
	seedDraft(t, repo)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		return store.WithinTx(txCtx, func(innerCtx context.Context) error {
			_, err := repo.UpdateAdjustments(innerCtx, "emp-1", 1, 2024, decimal.NewFromInt(10), decimal.Zero)
			return err
		})
	})
	require.NoError(t, err)
}
