package service

import (
	"errors"
	"testing"

	"go-pos-ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveAndRelease(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Flour", "2.5", "40", "45")

	got, err := env.catalog.Reserve(env.ctx, item.ID, dec("1.5"), testActor)
	require.NoError(t, err)
	requireDecimal(t, "1", got.Quantity)

	_, err = env.catalog.Reserve(env.ctx, item.ID, dec("1.25"), testActor)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	requireDecimal(t, "1", stockErr.Available)
	requireDecimal(t, "1.25", stockErr.Requested)
	assert.Contains(t, err.Error(), "Available: 1 pcs")
	requireDecimal(t, "1", env.stockOf(t, item.ID))

	got, err = env.catalog.Release(env.ctx, item.ID, dec("4"), testActor)
	require.NoError(t, err)
	requireDecimal(t, "5", got.Quantity)

	_, err = env.catalog.Reserve(env.ctx, item.ID, dec("0"), testActor)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.catalog.Reserve(env.ctx, item.ID, dec("0.0005"), testActor)
	assert.ErrorIs(t, err, ErrValidation)
	requireDecimal(t, "5", env.stockOf(t, item.ID))

	_, err = env.catalog.CreateItem(env.ctx, &model.Item{
		Name: "Ghee", Quantity: dec("1"), Unit: "kg", PurchasePrice: dec("10"), SalePrice: dec("12.499"),
	}, testActor)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.catalog.Release(env.ctx, 999, dec("1"), testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveExactQuantityEmptiesStock(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Flour", "3", "40", "45")

	_, err := env.catalog.Reserve(env.ctx, item.ID, dec("3"), testActor)
	require.NoError(t, err)
	requireDecimal(t, "0", env.stockOf(t, item.ID))

	available, err := env.catalog.ListAvailableItems(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestItemAdministration(t *testing.T) {
	env := newTestEnv(t)
	sup := env.createSupplier(t, "Acme Traders")

	_, err := env.catalog.CreateItem(env.ctx, &model.Item{Name: "Bad", Unit: "pcs", Quantity: dec("-1")}, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	missing := uint(999)
	_, err = env.catalog.CreateItem(env.ctx, &model.Item{Name: "Orphan", Unit: "pcs", SupplierID: &missing}, testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	item := env.createItem(t, "Basmati Rice", "10", "80", "95")
	updated, err := env.catalog.UpdateItem(env.ctx, item.ID, &model.Item{
		Name: "Basmati Rice 1kg", Quantity: dec("12"), Unit: "kg", PurchasePrice: dec("82"), SalePrice: dec("99"), SupplierID: &sup.ID,
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "kg", updated.Unit)
	requireDecimal(t, "12", env.stockOf(t, item.ID))

	got, err := env.catalog.GetItem(env.ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "Acme Traders", got.Supplier.Name)

	env.createItem(t, "Salt", "1", "10", "15")
	found, err := env.catalog.ListItems(env.ctx, "RICE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, item.ID, found[0].ID)

	_, err = env.catalog.UpdateItem(env.ctx, 999, &model.Item{Name: "x", Unit: "pcs"}, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItemInUse(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Rice", "10", "30", "50")
	_, err := env.saleSvc.CreateSale(env.ctx, cashSale("0", line(item, "1")), testActor)
	require.NoError(t, err)

	assert.ErrorIs(t, env.catalog.DeleteItem(env.ctx, item.ID, testActor), ErrItemInUse)

	spare := env.createItem(t, "Salt", "1", "10", "15")
	require.NoError(t, env.catalog.DeleteItem(env.ctx, spare.ID, testActor))
	_, err = env.catalog.GetItem(env.ctx, spare.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.catalog.DeleteItem(env.ctx, spare.ID, testActor), ErrNotFound)
}
