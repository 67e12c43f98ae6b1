package service

import (
	"context"
	"testing"
	"time"

	"go-pos-ledger/internal/logging"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supplierTxn(typ model.TransactionType, amount string) SupplierTransactionRequest {
	return SupplierTransactionRequest{Amount: dec(amount), Type: typ, BillNo: "INV-1"}
}

func (e *testEnv) supplierBalance(t *testing.T, id uint) string {
	t.Helper()
	s, err := e.suppliers.FindByID(e.ctx, id)
	require.NoError(t, err)
	return s.Balance.String()
}

func TestSupplierTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")

	txn, err := env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "500"), testActor)
	require.NoError(t, err)
	assert.Equal(t, "500", env.supplierBalance(t, sup.ID))

	_, err = env.supplierSvc.EditTransaction(env.ctx, txn.ID, supplierTxn(model.TxPayment, "500"), testActor)
	require.NoError(t, err)
	assert.Equal(t, "-500", env.supplierBalance(t, sup.ID))

	deleted, err := env.supplierSvc.DeleteTransaction(env.ctx, txn.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, sup.ID, deleted.SupplierID)
	assert.Equal(t, "0", env.supplierBalance(t, sup.ID))

	check, err := env.supplierSvc.VerifyBalance(env.ctx, sup.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
}

func TestSupplierStatementAgreesWithStoredBalance(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")

	day := func(d int) *time.Time {
		v := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	steps := []SupplierTransactionRequest{
		{Date: day(5), Amount: dec("1200"), Type: model.TxPurchase},
		{Date: day(1), Amount: dec("300.50"), Type: model.TxPurchase},
		{Date: day(3), Amount: dec("400"), Type: model.TxPayment},
		{Date: day(5), Amount: dec("100"), Type: model.TxPayment},
	}
	var ids []uint
	for _, req := range steps {
		txn, err := env.supplierSvc.AddTransaction(env.ctx, sup.ID, req, testActor)
		require.NoError(t, err)
		ids = append(ids, txn.ID)
	}
	_, err := env.supplierSvc.EditTransaction(env.ctx, ids[0], SupplierTransactionRequest{Amount: dec("1000"), Type: model.TxPurchase}, testActor)
	require.NoError(t, err)
	_, err = env.supplierSvc.DeleteTransaction(env.ctx, ids[3], testActor)
	require.NoError(t, err)

	st, err := env.supplierSvc.GetSupplierStatement(env.ctx, sup.ID)
	require.NoError(t, err)
	requireDecimal(t, "900.50", st.Balance)
	requireDecimal(t, "900.50", st.Recomputed)

	require.Len(t, st.Rows, 3)
	assert.Equal(t, ids[1], st.Rows[0].TransactionID, "ordered by date ascending")
	requireDecimal(t, "300.50", st.Rows[0].Balance)
	requireDecimal(t, "400", st.Rows[1].Payment)
	requireDecimal(t, "-99.50", st.Rows[1].Balance)
	requireDecimal(t, "1000", st.Rows[2].Purchase)
	requireDecimal(t, "900.50", st.Rows[2].Balance)
}

func TestSupplierTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")

	_, err := env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "0"), testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn("refund", "10"), testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "10.005"), testActor)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "0", env.supplierBalance(t, sup.ID))

	_, err = env.supplierSvc.AddTransaction(env.ctx, 999, supplierTxn(model.TxPurchase, "10"), testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.supplierSvc.EditTransaction(env.ctx, 999, supplierTxn(model.TxPurchase, "10"), testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.supplierSvc.DeleteTransaction(env.ctx, 999, testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "0", env.supplierBalance(t, sup.ID))
}

func TestSupplierWriteOff(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")

	_, err := env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "250"), testActor)
	require.NoError(t, err)

	err = env.supplierSvc.WriteOffBalance(env.ctx, sup.ID, testActor)
	require.ErrorIs(t, err, ErrBalanceNotZero)
	assert.Equal(t, "250", env.supplierBalance(t, sup.ID))

	_, err = env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPayment, "249.99"), testActor)
	require.NoError(t, err)

	require.NoError(t, env.supplierSvc.WriteOffBalance(env.ctx, sup.ID, testActor))
	assert.Equal(t, "0", env.supplierBalance(t, sup.ID))

	st, err := env.supplierSvc.GetSupplierStatement(env.ctx, sup.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Rows)
	assert.Contains(t, env.events.actions(), "ledger_cleared")
}

func TestDeleteSupplierUnlinksItems(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")
	item, err := env.catalog.CreateItem(env.ctx, &model.Item{
		Name: "Rice", Quantity: dec("5"), Unit: "kg", PurchasePrice: dec("30"), SalePrice: dec("50"), SupplierID: &sup.ID,
	}, testActor)
	require.NoError(t, err)
	_, err = env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "150"), testActor)
	require.NoError(t, err)

	detail, err := env.supplierSvc.GetSupplier(env.ctx, sup.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Recent, 1)
	require.Len(t, detail.Items, 1)

	require.NoError(t, env.supplierSvc.DeleteSupplier(env.ctx, sup.ID, testActor))

	_, err = env.supplierSvc.GetSupplier(env.ctx, sup.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := env.catalog.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SupplierID)
}

// racingTransactions lets a competing operation run right after the first
// unlocked read of a supplier transaction, the window READ COMMITTED leaves
// open between that read and the supplier row lock.
type racingTransactions struct {
	repository.TransactionRepository
	race  func(ctx context.Context)
	fired bool
}

func (r *racingTransactions) FindByID(ctx context.Context, id uint) (*model.SupplierTransaction, error) {
	txn, err := r.TransactionRepository.FindByID(ctx, id)
	if err == nil && !r.fired {
		r.fired = true
		r.race(ctx)
	}
	return txn, err
}

func TestSupplierTransactionIsNotReversedTwice(t *testing.T) {
	for _, tc := range []struct {
		name string
		run  func(svc SupplierService, ctx context.Context, id uint) error
	}{
		{name: "delete", run: func(svc SupplierService, ctx context.Context, id uint) error {
			_, err := svc.DeleteTransaction(ctx, id, testActor)
			return err
		}},
		{name: "edit", run: func(svc SupplierService, ctx context.Context, id uint) error {
			_, err := svc.EditTransaction(ctx, id, supplierTxn(model.TxPayment, "200"), testActor)
			return err
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			sup := env.createSupplier(t, "Acme Traders")
			txn, err := env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "500"), testActor)
			require.NoError(t, err)

			var raceErr error
			racing := &racingTransactions{
				TransactionRepository: env.transactions,
				race: func(ctx context.Context) {
					_, raceErr = env.supplierSvc.DeleteTransaction(ctx, txn.ID, testActor)
				},
			}
			svc := NewSupplierService(repository.NewTransactor(env.db), env.suppliers, racing, env.items,
				env.events, Clock(func() time.Time { return env.now }), logging.Discard())

			err = tc.run(svc, env.ctx, txn.ID)
			require.NoError(t, raceErr)
			require.ErrorIs(t, err, ErrNotFound)

			check, err := env.supplierSvc.VerifyBalance(env.ctx, sup.ID)
			require.NoError(t, err)
			assert.True(t, check.Consistent, "stored %s recomputed %s", check.Stored, check.Recomputed)
		})
	}
}

func TestDeleteSupplierTransactionTwice(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")
	txn, err := env.supplierSvc.AddTransaction(env.ctx, sup.ID, supplierTxn(model.TxPurchase, "500"), testActor)
	require.NoError(t, err)

	_, err = env.supplierSvc.DeleteTransaction(env.ctx, txn.ID, testActor)
	require.NoError(t, err)
	_, err = env.supplierSvc.DeleteTransaction(env.ctx, txn.ID, testActor)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.supplierSvc.EditTransaction(env.ctx, txn.ID, supplierTxn(model.TxPurchase, "10"), testActor)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "0", env.supplierBalance(t, sup.ID))
}
