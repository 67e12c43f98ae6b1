package service

import (
	"context"
	"log/slog"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardRecentSales = 10
	reportMaxRows        = 30
	reportDefaultDays    = 30
)

// SalesTotals sums the money columns of a set of sales.
type SalesTotals struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalDue      decimal.Decimal `json:"total_due"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	Count         int             `json:"count"`
}

func sumSales(sales []model.Sale) SalesTotals {
	var t SalesTotals
	for _, s := range sales {
		t.TotalSales = t.TotalSales.Add(s.TotalAmount)
		t.TotalReceived = t.TotalReceived.Add(s.ReceivedAmount)
		t.TotalDue = t.TotalDue.Add(s.DueAmount)
		t.TotalProfit = t.TotalProfit.Add(s.TotalProfit)
	}
	t.Count = len(sales)
	return t
}

type Dashboard struct {
	Date         time.Time    `json:"date"`
	Today        SalesTotals  `json:"today"`
	NewCustomers int64        `json:"new_customers"`
	LowStock     []model.Item `json:"low_stock"`
	RecentSales  []model.Sale `json:"recent_sales"`
}

type SalesReport struct {
	Start  time.Time    `json:"start_date"`
	End    time.Time    `json:"end_date"`
	Sales  []model.Sale `json:"sales"`
	Totals SalesTotals  `json:"totals"`
}

type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	// SalesReport lists sales in [start, end]. Nil bounds default to the
	// last 30 days ending today.
	SalesReport(ctx context.Context, start, end *time.Time) (*SalesReport, error)
}

type reportService struct {
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	items     repository.ItemRepository
	lowStock  decimal.Decimal
	clock     Clock
	log       *slog.Logger
}

func NewReportService(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	items repository.ItemRepository,
	lowStockThreshold decimal.Decimal,
	clock Clock,
	log *slog.Logger,
) ReportService {
	return &reportService{
		sales:     sales,
		customers: customers,
		items:     items,
		lowStock:  lowStockThreshold,
		clock:     clock,
		log:       log,
	}
}

func (s *reportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	today := model.DateOnly(s.clock.now())
	data := &Dashboard{Date: today}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sales, err := s.sales.FindByDate(ctx, today)
		if err != nil {
			return err
		}
		data.Today = sumSales(sales)
		return nil
	})

	g.Go(func() error {
		n, err := s.customers.CountAddedOn(ctx, today)
		if err != nil {
			return err
		}
		data.NewCustomers = n
		return nil
	})

	g.Go(func() error {
		items, err := s.items.FindLowStock(ctx, s.lowStock)
		if err != nil {
			return err
		}
		data.LowStock = items
		return nil
	})

	g.Go(func() error {
		recent, err := s.sales.Search(ctx, "", dashboardRecentSales)
		if err != nil {
			return err
		}
		data.RecentSales = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Error("dashboard query failed", "error", err)
		return nil, err
	}
	return data, nil
}

func (s *reportService) SalesReport(ctx context.Context, start, end *time.Time) (*SalesReport, error) {
	to := model.DateOnly(s.clock.now())
	if end != nil && !end.IsZero() {
		to = model.DateOnly(*end)
	}
	from := to.AddDate(0, 0, -reportDefaultDays)
	if start != nil && !start.IsZero() {
		from = model.DateOnly(*start)
	}
	if from.After(to) {
		return nil, &ValidationError{Field: "start_date", Reason: "must not be after end_date"}
	}

	sales, err := s.sales.FindInRange(ctx, from, to, reportMaxRows)
	if err != nil {
		return nil, err
	}
	return &SalesReport{Start: from, End: to, Sales: sales, Totals: sumSales(sales)}, nil
}
