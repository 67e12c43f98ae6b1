package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSummarisesToday(t *testing.T) {
	env := newTestEnv(t)
	rice := env.createItem(t, "Rice", "10", "30", "50")
	salt := env.createItem(t, "Salt", "3", "10", "15")

	env.now = testNow.AddDate(0, 0, -1)
	_, err := env.saleSvc.CreateSale(env.ctx, cashSale("50", line(rice, "1")), testActor)
	require.NoError(t, err)

	env.now = testNow
	env.createCustomer(t, "Asha")
	_, err = env.saleSvc.CreateSale(env.ctx, cashSale("100", line(rice, "2"), line(salt, "2")), testActor)
	require.NoError(t, err)

	d, err := env.reportSvc.Dashboard(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Today.Count)
	requireDecimal(t, "130", d.Today.TotalSales)
	requireDecimal(t, "100", d.Today.TotalReceived)
	requireDecimal(t, "30", d.Today.TotalDue)
	requireDecimal(t, "50", d.Today.TotalProfit)
	assert.Equal(t, int64(1), d.NewCustomers)
	require.Len(t, d.LowStock, 1)
	assert.Equal(t, salt.ID, d.LowStock[0].ID)
	assert.Len(t, d.RecentSales, 2)
}

func TestSalesReportRange(t *testing.T) {
	env := newTestEnv(t)
	rice := env.createItem(t, "Rice", "100", "30", "50")

	for _, offset := range []int{-40, -10, 0} {
		env.now = testNow.AddDate(0, 0, offset)
		_, err := env.saleSvc.CreateSale(env.ctx, cashSale("0", line(rice, "1")), testActor)
		require.NoError(t, err)
	}
	env.now = testNow

	report, err := env.reportSvc.SalesReport(env.ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, report.Sales, 2, "default window is the last 30 days")
	requireDecimal(t, "100", report.Totals.TotalSales)
	requireDecimal(t, "100", report.Totals.TotalDue)

	start := testNow.AddDate(0, 0, -45)
	end := testNow.AddDate(0, 0, -5)
	report, err = env.reportSvc.SalesReport(env.ctx, &start, &end)
	require.NoError(t, err)
	require.Len(t, report.Sales, 2)
	assert.True(t, report.Sales[0].SaleDate.After(report.Sales[1].SaleDate))

	_, err = env.reportSvc.SalesReport(env.ctx, &end, &start)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSalesReportCapsRows(t *testing.T) {
	env := newTestEnv(t)
	rice := env.createItem(t, "Rice", "100", "30", "50")
	for i := 0; i < reportMaxRows+2; i++ {
		_, err := env.saleSvc.CreateSale(env.ctx, cashSale("50", line(rice, "1")), testActor)
		require.NoError(t, err)
	}
	day := testNow.Truncate(24 * time.Hour)
	report, err := env.reportSvc.SalesReport(env.ctx, &day, &day)
	require.NoError(t, err)
	assert.Len(t, report.Sales, reportMaxRows)
}
