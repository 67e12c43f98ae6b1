package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go-pos-ledger/internal/logging"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/ws"
	"go-pos-ledger/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testActor = "tester"

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(e ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	ctx    context.Context
	db     *gorm.DB
	events *recordingPublisher
	now    time.Time

	items        repository.ItemRepository
	sales        repository.SaleRepository
	customers    repository.CustomerRepository
	payments     repository.PaymentRepository
	suppliers    repository.SupplierRepository
	transactions repository.TransactionRepository
	users        repository.UserRepository

	catalog     CatalogService
	saleSvc     SaleService
	customerSvc CustomerService
	supplierSvc SupplierService
	reportSvc   ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		ctx:          context.Background(),
		db:           db,
		events:       &recordingPublisher{},
		now:          testNow,
		items:        repository.NewItemRepo(db),
		sales:        repository.NewSaleRepo(db),
		customers:    repository.NewCustomerRepo(db),
		payments:     repository.NewPaymentRepo(db),
		suppliers:    repository.NewSupplierRepo(db),
		transactions: repository.NewTransactionRepo(db),
		users:        repository.NewUserRepo(db),
	}
	clock := Clock(func() time.Time { return env.now })
	log := logging.Discard()
	tx := repository.NewTransactor(db)

	env.catalog = NewCatalogService(tx, env.items, env.suppliers, env.events, log)
	env.saleSvc = NewSaleService(tx, env.sales, env.customers, env.catalog, NewBillNumberer(env.sales), env.events, clock, log)
	env.customerSvc = NewCustomerService(tx, env.customers, env.payments, env.sales, env.events, clock, log)
	env.supplierSvc = NewSupplierService(tx, env.suppliers, env.transactions, env.items, env.events, clock, log)
	env.reportSvc = NewReportService(env.sales, env.customers, env.items, decimal.NewFromInt(2), clock, log)
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *testEnv) createItem(t *testing.T, name, qty, purchase, sale string) *model.Item {
	t.Helper()
	item, err := e.catalog.CreateItem(e.ctx, &model.Item{
		Name:          name,
		Quantity:      dec(qty),
		Unit:          "pcs",
		PurchasePrice: dec(purchase),
		SalePrice:     dec(sale),
	}, testActor)
	require.NoError(t, err)
	return item
}

func (e *testEnv) stockOf(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	item, err := e.items.FindByID(e.ctx, id)
	require.NoError(t, err)
	return item.Quantity
}

func (e *testEnv) createCustomer(t *testing.T, name string) *model.Customer {
	t.Helper()
	c, err := e.customerSvc.CreateCustomer(e.ctx, &model.Customer{Name: name, Mobile: "9000000000"}, testActor)
	require.NoError(t, err)
	return c
}

func (e *testEnv) createSupplier(t *testing.T, name string) *model.Supplier {
	t.Helper()
	s, err := e.supplierSvc.CreateSupplier(e.ctx, &model.Supplier{Name: name, GSTIN: "27ABCDE1234F1Z5"}, testActor)
	require.NoError(t, err)
	return s
}

func line(item *model.Item, qty string) SaleLineRequest {
	return SaleLineRequest{
		ItemID:        item.ID,
		Quantity:      dec(qty),
		Unit:          item.Unit,
		PurchasePrice: item.PurchasePrice,
		SalePrice:     item.SalePrice,
	}
}

func cashSale(received string, lines ...SaleLineRequest) SaleRequest {
	return SaleRequest{
		PaymentMethod:  model.PaymentCash,
		ReceivedAmount: dec(received),
		CashAmount:     dec(received),
		Lines:          lines,
	}
}

// requireDecimal compares by value so 6 and 6.000 are equal.
func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
