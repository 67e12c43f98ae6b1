package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/ws"

	"github.com/shopspring/decimal"
)

const recentSalesLimit = 50

// SaleLineRequest is one line of a create or update. SaleItemID tags an
// existing line to update in place; nil means a new line.
type SaleLineRequest struct {
	SaleItemID    *uint           `json:"id,omitempty"`
	ItemID        uint            `json:"item_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit          string          `json:"unit" validate:"required"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gte=0"`
	SalePrice     decimal.Decimal `json:"sale_price" validate:"gte=0"`
}

// SaleRequest carries a full line list. On update it replaces every line
// of the sale.
type SaleRequest struct {
	CustomerID     *uint               `json:"customer_id"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
	ReceivedAmount decimal.Decimal     `json:"received_amount" validate:"gte=0"`
	CashAmount     decimal.Decimal     `json:"cash_amount" validate:"gte=0"`
	OnlineAmount   decimal.Decimal     `json:"online_amount" validate:"gte=0"`
	Lines          []SaleLineRequest   `json:"items" validate:"dive"`
}

func (r *SaleRequest) validate() error {
	if len(r.Lines) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(string(r.PaymentMethod)) == "" {
		return ErrMissingPaymentMethod
	}
	if err := validateStruct(r); err != nil {
		return err
	}
	rules := []placesRule{
		money("received_amount", r.ReceivedAmount),
		money("cash_amount", r.CashAmount),
		money("online_amount", r.OnlineAmount),
	}
	for i, line := range r.Lines {
		rules = append(rules,
			quantity(fmt.Sprintf("items[%d].quantity", i), line.Quantity),
			money(fmt.Sprintf("items[%d].purchase_price", i), line.PurchasePrice),
			money(fmt.Sprintf("items[%d].sale_price", i), line.SalePrice),
		)
	}
	return checkPlaces(rules...)
}

// SaleSummary is what create and update report back.
type SaleSummary struct {
	SaleID         uint            `json:"sale_id"`
	BillNumber     string          `json:"bill_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	Lines          int             `json:"lines"`
	Stock          []StockLevel    `json:"stock,omitempty"`
}

type saleTotals struct {
	Total  decimal.Decimal
	Profit decimal.Decimal
	Due    decimal.Decimal
}

func computeTotals(lines []SaleLineRequest, received decimal.Decimal) saleTotals {
	var t saleTotals
	for _, line := range lines {
		t.Total = t.Total.Add(model.LineAmount(line.SalePrice, line.Quantity))
		t.Profit = t.Profit.Add(model.LineProfit(line.SalePrice, line.PurchasePrice, line.Quantity))
	}
	t.Due = decimal.Max(decimal.Zero, t.Total.Sub(received))
	return t
}

type SaleService interface {
	CreateSale(ctx context.Context, req SaleRequest, actor string) (*SaleSummary, error)
	UpdateSale(ctx context.Context, id uint, req SaleRequest, actor string) (*SaleSummary, error)
	DeleteSale(ctx context.Context, id uint, actor string) error
	GetSale(ctx context.Context, id uint) (*model.Sale, error)
	ListSales(ctx context.Context, billNumber string) ([]model.Sale, error)
}

type saleService struct {
	tx        repository.Transactor
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	catalog   CatalogService
	numbers   BillNumberer
	events    ws.Publisher
	clock     Clock
	log       *slog.Logger
}

func NewSaleService(
	tx repository.Transactor,
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	catalog CatalogService,
	numbers BillNumberer,
	events ws.Publisher,
	clock Clock,
	log *slog.Logger,
) SaleService {
	return &saleService{
		tx:        tx,
		sales:     sales,
		customers: customers,
		catalog:   catalog,
		numbers:   numbers,
		events:    publisherOrDiscard(events),
		clock:     clock,
		log:       log,
	}
}

func (s *saleService) CreateSale(ctx context.Context, req SaleRequest, actor string) (*SaleSummary, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	req.CustomerID = normalizeID(req.CustomerID)
	totals := computeTotals(req.Lines, req.ReceivedAmount)
	now := s.clock.now()
	touched := stockChanges{}

	var sale *model.Sale
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkCustomer(ctx, req.CustomerID); err != nil {
			return err
		}
		billNumber, err := s.numbers.Next(ctx, now)
		if err != nil {
			return err
		}
		if err := s.catalog.Lock(ctx, lineItemIDs(req.Lines)); err != nil {
			return err
		}

		sale = &model.Sale{
			BillNumber: billNumber,
			CustomerID: req.CustomerID,
			SaleDate:   model.DateOnly(now),
			SaleTime:   now.Format("15:04:05"),
		}
		sale.Stamp(actor)
		applyPayment(sale, &req, totals)

		// Lines naming the same item reserve once for their sum, so a
		// shortfall reports the stock that existed before this sale.
		net := map[uint]decimal.Decimal{}
		for _, line := range req.Lines {
			net[line.ItemID] = net[line.ItemID].Sub(line.Quantity)
			sale.Items = append(sale.Items, newSaleItem(line, actor))
		}
		if err := s.applyNetStock(ctx, net, touched, actor); err != nil {
			return err
		}
		return s.sales.Create(ctx, sale)
	})
	if err != nil {
		err = translateStorageError(err)
		s.log.Warn("sale create rolled back", "actor", actor, "lines", len(req.Lines), "error", err)
		return nil, err
	}

	summary := summarize(sale, touched)
	s.log.Info("sale created",
		"sale_id", sale.ID,
		"bill_number", sale.BillNumber,
		"total", sale.TotalAmount.String(),
		"actor", actor,
	)
	s.publish("sale_created", summary, actor, fmt.Sprintf("%s created bill %s", actor, sale.BillNumber))
	return summary, nil
}

// UpdateSale replaces the line list of a sale. Stock is reconciled on the
// net change per item: every old line that is kept or dropped gives its
// quantity back, every new or kept line takes its new quantity, and only
// the difference touches the catalog. Releases are applied before
// reservations so that moving quantity between lines of one item never
// fails on stock it already holds.
func (s *saleService) UpdateSale(ctx context.Context, id uint, req SaleRequest, actor string) (*SaleSummary, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	req.CustomerID = normalizeID(req.CustomerID)
	totals := computeTotals(req.Lines, req.ReceivedAmount)
	touched := stockChanges{}

	var sale *model.Sale
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.sales.FindForUpdate(ctx, id)
		if err != nil {
			return notFound("sale", id, err)
		}
		if err := s.checkCustomer(ctx, req.CustomerID); err != nil {
			return err
		}

		existing := make(map[uint]*model.SaleItem, len(sale.Items))
		lockIDs := lineItemIDs(req.Lines)
		for i := range sale.Items {
			existing[sale.Items[i].ID] = &sale.Items[i]
			lockIDs = append(lockIDs, sale.Items[i].ItemID)
		}

		net := make(map[uint]decimal.Decimal)
		kept := make(map[uint]bool, len(req.Lines))
		for _, line := range req.Lines {
			net[line.ItemID] = net[line.ItemID].Sub(line.Quantity)
			if line.SaleItemID == nil || *line.SaleItemID == 0 {
				continue
			}
			old, ok := existing[*line.SaleItemID]
			if !ok {
				return &NotFoundError{Entity: "sale item", ID: *line.SaleItemID}
			}
			if kept[old.ID] {
				return &ValidationError{Field: "items", Reason: fmt.Sprintf("sale item %d listed more than once", old.ID)}
			}
			kept[old.ID] = true
		}
		for _, old := range sale.Items {
			net[old.ItemID] = net[old.ItemID].Add(old.Quantity)
		}

		if err := s.catalog.Lock(ctx, lockIDs); err != nil {
			return err
		}
		if err := s.applyNetStock(ctx, net, touched, actor); err != nil {
			return err
		}

		for _, line := range req.Lines {
			if line.SaleItemID == nil || *line.SaleItemID == 0 {
				row := newSaleItem(line, actor)
				row.SaleID = sale.ID
				if err := s.sales.CreateItem(ctx, &row); err != nil {
					return err
				}
				continue
			}
			row := existing[*line.SaleItemID]
			row.ItemID = line.ItemID
			row.Quantity = line.Quantity
			row.Unit = line.Unit
			row.PurchasePrice = line.PurchasePrice
			row.SalePrice = line.SalePrice
			row.Profit = model.LineProfit(line.SalePrice, line.PurchasePrice, line.Quantity)
			row.UpdatedBy = actor
			if err := s.sales.UpdateItem(ctx, row); err != nil {
				return err
			}
		}
		for _, old := range sale.Items {
			if !kept[old.ID] {
				if err := s.sales.DeleteItem(ctx, old.ID); err != nil {
					return err
				}
			}
		}

		sale.CustomerID = req.CustomerID
		sale.UpdatedBy = actor
		applyPayment(sale, &req, totals)
		if err := s.sales.UpdateHeader(ctx, sale); err != nil {
			return err
		}
		sale.Items = nil
		return nil
	})
	if err != nil {
		err = translateStorageError(err)
		s.log.Warn("sale update rolled back", "sale_id", id, "actor", actor, "error", err)
		return nil, err
	}

	summary := summarize(sale, touched)
	summary.Lines = len(req.Lines)
	s.log.Info("sale updated",
		"sale_id", sale.ID,
		"bill_number", sale.BillNumber,
		"total", sale.TotalAmount.String(),
		"actor", actor,
	)
	s.publish("sale_updated", summary, actor, fmt.Sprintf("%s updated bill %s", actor, sale.BillNumber))
	return summary, nil
}

func (s *saleService) DeleteSale(ctx context.Context, id uint, actor string) error {
	touched := stockChanges{}
	var sale *model.Sale
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.sales.FindForUpdate(ctx, id)
		if err != nil {
			return notFound("sale", id, err)
		}
		net := make(map[uint]decimal.Decimal)
		ids := make([]uint, 0, len(sale.Items))
		for _, line := range sale.Items {
			net[line.ItemID] = net[line.ItemID].Add(line.Quantity)
			ids = append(ids, line.ItemID)
		}
		if err := s.catalog.Lock(ctx, ids); err != nil {
			return err
		}
		if err := s.applyNetStock(ctx, net, touched, actor); err != nil {
			return err
		}
		return s.sales.Delete(ctx, sale)
	})
	if err != nil {
		err = translateStorageError(err)
		s.log.Warn("sale delete rolled back", "sale_id", id, "actor", actor, "error", err)
		return err
	}

	s.log.Info("sale deleted", "sale_id", sale.ID, "bill_number", sale.BillNumber, "actor", actor)
	s.publish("sale_deleted", summarize(sale, touched), actor, fmt.Sprintf("%s deleted bill %s", actor, sale.BillNumber))
	return nil
}

func (s *saleService) GetSale(ctx context.Context, id uint) (*model.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("sale", id, err)
	}
	return sale, nil
}

// ListSales searches by bill number, or returns the most recent sales when
// billNumber is empty.
func (s *saleService) ListSales(ctx context.Context, billNumber string) ([]model.Sale, error) {
	billNumber = strings.TrimSpace(billNumber)
	if billNumber != "" {
		return s.sales.Search(ctx, billNumber, 0)
	}
	return s.sales.Search(ctx, "", recentSalesLimit)
}

// applyNetStock releases every positive net change and then reserves every
// negative one, each pass in ascending item id order.
func (s *saleService) applyNetStock(ctx context.Context, net map[uint]decimal.Decimal, touched stockChanges, actor string) error {
	ids := make([]uint, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if delta := net[id]; delta.IsPositive() {
			item, err := s.catalog.Release(ctx, id, delta, actor)
			if err != nil {
				return err
			}
			touched.record(item)
		}
	}
	for _, id := range ids {
		if delta := net[id]; delta.IsNegative() {
			item, err := s.catalog.Reserve(ctx, id, delta.Neg(), actor)
			if err != nil {
				return err
			}
			touched.record(item)
		}
	}
	return nil
}

func (s *saleService) checkCustomer(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.customers.FindByID(ctx, *id); err != nil {
		return notFound("customer", *id, err)
	}
	return nil
}

func (s *saleService) publish(action string, summary *SaleSummary, actor, message string) {
	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  action,
		Data:    summary,
		User:    actor,
		Message: message,
	})
}

// applyPayment writes totals and the payment split onto sale. Portions the
// method does not carry are stored as zero.
func applyPayment(sale *model.Sale, req *SaleRequest, t saleTotals) {
	sale.TotalAmount = t.Total
	sale.TotalProfit = t.Profit
	sale.ReceivedAmount = req.ReceivedAmount
	sale.DueAmount = t.Due
	sale.PaymentMethod = req.PaymentMethod
	sale.CashAmount = decimal.Zero
	sale.OnlineAmount = decimal.Zero
	if req.PaymentMethod.TakesCash() {
		sale.CashAmount = req.CashAmount
	}
	if req.PaymentMethod.TakesOnline() {
		sale.OnlineAmount = req.OnlineAmount
	}
}

func newSaleItem(line SaleLineRequest, actor string) model.SaleItem {
	row := model.SaleItem{
		ItemID:        line.ItemID,
		Quantity:      line.Quantity,
		Unit:          line.Unit,
		PurchasePrice: line.PurchasePrice,
		SalePrice:     line.SalePrice,
		Profit:        model.LineProfit(line.SalePrice, line.PurchasePrice, line.Quantity),
	}
	row.Stamp(actor)
	return row
}

func lineItemIDs(lines []SaleLineRequest) []uint {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	return ids
}

func summarize(sale *model.Sale, touched stockChanges) *SaleSummary {
	return &SaleSummary{
		SaleID:         sale.ID,
		BillNumber:     sale.BillNumber,
		TotalAmount:    sale.TotalAmount,
		TotalProfit:    sale.TotalProfit,
		ReceivedAmount: sale.ReceivedAmount,
		DueAmount:      sale.DueAmount,
		Lines:          len(sale.Items),
		Stock:          touched.levels(),
	}
}
