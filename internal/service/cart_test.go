package service

import (
	"testing"

	"go-pos-ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartItem(id uint, name, qty, sale string) *model.Item {
	item := &model.Item{Name: name, Quantity: dec(qty), Unit: "kg", PurchasePrice: dec("1"), SalePrice: dec(sale)}
	item.ID = id
	return item
}

func TestCartMergesAndChecksStock(t *testing.T) {
	rice := cartItem(1, "Rice", "5", "50")
	salt := cartItem(2, "Salt", "10", "15")

	cart := NewCart()
	require.NoError(t, cart.Add(rice, dec("2")))
	require.NoError(t, cart.Add(salt, dec("1")))
	require.NoError(t, cart.Add(rice, dec("3")))

	require.Equal(t, 2, cart.Len())
	requireDecimal(t, "5", cart.Lines()[0].Quantity)
	requireDecimal(t, "265", cart.Subtotal())

	err := cart.Add(rice, dec("0.5"))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	requireDecimal(t, "5", cart.Lines()[0].Quantity)

	assert.ErrorIs(t, cart.Add(salt, dec("0")), ErrValidation)
}

func TestCartRemoveAndSaleRequest(t *testing.T) {
	rice := cartItem(1, "Rice", "5", "50")
	salt := cartItem(2, "Salt", "10", "15")

	cart := NewCart()
	require.NoError(t, cart.Add(rice, dec("1")))
	require.NoError(t, cart.Add(salt, dec("2")))
	cart.Remove(1)
	cart.Remove(42)

	customer := uint(7)
	req := cart.SaleRequest(&customer, model.PaymentSplit, dec("30"), dec("10"), dec("20"))
	require.Len(t, req.Lines, 1)
	assert.Equal(t, uint(2), req.Lines[0].ItemID)
	assert.Equal(t, "kg", req.Lines[0].Unit)
	requireDecimal(t, "15", req.Lines[0].SalePrice)
	assert.Equal(t, model.PaymentSplit, req.PaymentMethod)
	assert.Equal(t, &customer, req.CustomerID)
	assert.Equal(t, "cart(1 lines, 30.00)", cart.String())
}

func TestCartLinesAreCopies(t *testing.T) {
	cart := NewCart(CartLine{ItemID: 1, Quantity: dec("1"), SalePrice: dec("2")})
	lines := cart.Lines()
	lines[0].Quantity = dec("100")
	requireDecimal(t, "1", cart.Lines()[0].Quantity)
}

func TestFormatBillNumber(t *testing.T) {
	assert.Equal(t, "202603140001", FormatBillNumber(testNow, 1))
	assert.Equal(t, "202603140123", FormatBillNumber(testNow, 123))
	assert.Equal(t, "2026031412345", FormatBillNumber(testNow, 12345))
}
