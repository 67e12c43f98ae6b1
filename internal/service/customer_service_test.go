package service

import (
	"testing"
	"time"

	"go-pos-ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func march(d int) time.Time {
	return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC)
}

func (e *testEnv) pay(t *testing.T, customerID uint, amount string, day time.Time) uint {
	t.Helper()
	p, err := e.customerSvc.AddPayment(e.ctx, customerID, PaymentRequest{Amount: dec(amount), PaymentDate: &day}, testActor)
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) creditSale(t *testing.T, customerID uint, received string, day time.Time, lines ...SaleLineRequest) *SaleSummary {
	t.Helper()
	e.now = day
	req := cashSale(received, lines...)
	req.CustomerID = &customerID
	summary, err := e.saleSvc.CreateSale(e.ctx, req, testActor)
	require.NoError(t, err)
	return summary
}

func TestCustomerLedgerRunningBalance(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Rice", "100", "30", "50")
	cust := env.createCustomer(t, "Asha")

	first := env.creditSale(t, cust.ID, "150", march(10), line(item, "4"))
	firstPay := env.pay(t, cust.ID, "30", march(10))
	secondPay := env.pay(t, cust.ID, "20", march(11))
	second := env.creditSale(t, cust.ID, "0", march(12), line(item, "2"))

	ledger, err := env.customerSvc.GetCustomerLedger(env.ctx, cust.ID)
	require.NoError(t, err)
	requireDecimal(t, "100", ledger.Balance)
	require.Len(t, ledger.Entries, 4)

	// Newest first; balances were accumulated oldest first.
	e := ledger.Entries
	assert.Equal(t, SourceSale, e[0].Source)
	assert.Equal(t, second.SaleID, e[0].RefID)
	requireDecimal(t, "100", e[0].Balance)

	assert.Equal(t, secondPay, e[1].RefID)
	requireDecimal(t, "0", e[1].Amount)
	requireDecimal(t, "20", e[1].Paid)
	requireDecimal(t, "0", e[1].Balance)

	assert.Equal(t, firstPay, e[2].RefID)
	assert.Equal(t, "Payment", e[2].Description)
	requireDecimal(t, "20", e[2].Balance)

	assert.Equal(t, first.SaleID, e[3].RefID)
	assert.Equal(t, "Sale #"+first.BillNumber, e[3].Description)
	requireDecimal(t, "200", e[3].Amount)
	requireDecimal(t, "150", e[3].Paid)
	requireDecimal(t, "50", e[3].Balance)

	balance, err := env.customerSvc.Balance(env.ctx, cust.ID)
	require.NoError(t, err)
	requireDecimal(t, "100", balance)
}

func TestCustomerWriteOff(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Rice", "100", "30", "50")
	cust := env.createCustomer(t, "Asha")

	sale := env.creditSale(t, cust.ID, "20", march(10), line(item, "2"))

	err := env.customerSvc.WriteOffBalance(env.ctx, cust.ID, testActor)
	require.ErrorIs(t, err, ErrBalanceNotZero)

	env.pay(t, cust.ID, "80", march(11))
	require.NoError(t, env.customerSvc.WriteOffBalance(env.ctx, cust.ID, testActor))

	ledger, err := env.customerSvc.GetCustomerLedger(env.ctx, cust.ID)
	require.NoError(t, err)
	requireDecimal(t, "0", ledger.Balance)
	assert.Empty(t, ledger.Entries)

	got, err := env.saleSvc.GetSale(env.ctx, sale.SaleID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomerID)
	requireDecimal(t, "0", got.DueAmount)
	requireDecimal(t, "100", got.ReceivedAmount)

	payments, err := env.payments.FindByCustomer(env.ctx, cust.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCustomerWriteOffToleratesRounding(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Rice", "100", "30", "50")
	cust := env.createCustomer(t, "Asha")

	env.creditSale(t, cust.ID, "0", march(10), line(item, "1"))
	env.pay(t, cust.ID, "49.99", march(10))

	require.NoError(t, env.customerSvc.WriteOffBalance(env.ctx, cust.ID, testActor))
	assert.ErrorIs(t, env.customerSvc.WriteOffBalance(env.ctx, 999, testActor), ErrNotFound)
}

func TestPaymentsBelongToTheirCustomer(t *testing.T) {
	env := newTestEnv(t)
	asha := env.createCustomer(t, "Asha")
	ravi := env.createCustomer(t, "Ravi")
	paymentID := env.pay(t, asha.ID, "40", march(10))

	_, err := env.customerSvc.EditPayment(env.ctx, ravi.ID, paymentID, PaymentRequest{Amount: dec("10")}, testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	edited, err := env.customerSvc.EditPayment(env.ctx, asha.ID, paymentID, PaymentRequest{Amount: dec("25"), Description: "cash at counter"}, testActor)
	require.NoError(t, err)
	requireDecimal(t, "25", edited.Amount)
	assert.True(t, edited.PaymentDate.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))

	_, err = env.customerSvc.AddPayment(env.ctx, asha.ID, PaymentRequest{Amount: dec("1.005")}, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.customerSvc.AddPayment(env.ctx, asha.ID, PaymentRequest{Amount: dec("-5")}, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	deleted, err := env.customerSvc.DeletePayment(env.ctx, paymentID, testActor)
	require.NoError(t, err)
	assert.Equal(t, asha.ID, deleted.CustomerID)

	balance, err := env.customerSvc.Balance(env.ctx, asha.ID)
	require.NoError(t, err)
	requireDecimal(t, "0", balance)
}

func TestDeleteCustomerKeepsSales(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Rice", "100", "30", "50")
	cust := env.createCustomer(t, "Asha")
	sale := env.creditSale(t, cust.ID, "0", march(10), line(item, "1"))
	env.pay(t, cust.ID, "10", march(10))

	require.NoError(t, env.customerSvc.DeleteCustomer(env.ctx, cust.ID, testActor))

	_, err := env.customerSvc.GetCustomer(env.ctx, cust.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := env.saleSvc.GetSale(env.ctx, sale.SaleID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomerID)
	requireDecimal(t, "50", got.DueAmount, "a plain delete does not write anything off")
}

func TestListCustomersSumsOutstanding(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "Rice", "100", "30", "50")
	asha := env.createCustomer(t, "Asha")
	ravi := env.createCustomer(t, "Ravi")

	env.creditSale(t, asha.ID, "0", march(10), line(item, "2"))
	env.pay(t, ravi.ID, "30", march(10))

	list, err := env.customerSvc.ListCustomers(env.ctx, "")
	require.NoError(t, err)
	require.Len(t, list.Customers, 2)
	assert.Equal(t, "Asha", list.Customers[0].Name)
	requireDecimal(t, "100", list.Customers[0].Balance)
	requireDecimal(t, "-30", list.Customers[1].Balance)
	requireDecimal(t, "100", list.Outstanding)

	found, err := env.customerSvc.ListCustomers(env.ctx, "rav")
	require.NoError(t, err)
	require.Len(t, found.Customers, 1)
	assert.Equal(t, ravi.ID, found.Customers[0].ID)
}

func TestCreateCustomerRequiresName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.customerSvc.CreateCustomer(env.ctx, &model.Customer{Name: "   "}, testActor)
	assert.ErrorIs(t, err, ErrValidation)
}
