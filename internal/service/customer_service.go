package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/ws"

	"github.com/shopspring/decimal"
)

// LedgerSource tells statement rows coming from sales and payments apart.
type LedgerSource string

const (
	SourceSale    LedgerSource = "sale"
	SourcePayment LedgerSource = "payment"
)

// CustomerLedgerEntry is one statement row. Sales show the bill total in
// Amount and what was received in Paid; payments have a zero Amount.
type CustomerLedgerEntry struct {
	Date        time.Time       `json:"date"`
	Source      LedgerSource    `json:"source"`
	RefID       uint            `json:"ref_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        decimal.Decimal `json:"paid"`
	Balance     decimal.Decimal `json:"balance"`
}

type CustomerLedger struct {
	Customer *model.Customer      `json:"customer"`
	Balance  decimal.Decimal      `json:"balance"`
	Entries  []CustomerLedgerEntry `json:"entries"`
}

type CustomerBalance struct {
	model.Customer
	Balance decimal.Decimal `json:"balance"`
}

type CustomerList struct {
	Customers []CustomerBalance `json:"customers"`
	// Outstanding sums only the positive balances.
	Outstanding decimal.Decimal `json:"outstanding"`
}

type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentDate *time.Time      `json:"payment_date"`
	Description string          `json:"description" validate:"max=200"`
}

func (r PaymentRequest) validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return checkPlaces(money("amount", r.Amount))
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *model.Customer, actor string) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id uint, req *model.Customer, actor string) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id uint, actor string) error
	GetCustomer(ctx context.Context, id uint) (*model.Customer, error)
	ListCustomers(ctx context.Context, search string) (*CustomerList, error)

	AddPayment(ctx context.Context, customerID uint, req PaymentRequest, actor string) (*model.Payment, error)
	EditPayment(ctx context.Context, customerID, paymentID uint, req PaymentRequest, actor string) (*model.Payment, error)
	DeletePayment(ctx context.Context, paymentID uint, actor string) (*model.Payment, error)

	Balance(ctx context.Context, customerID uint) (decimal.Decimal, error)
	GetCustomerLedger(ctx context.Context, customerID uint) (*CustomerLedger, error)
	// WriteOffBalance clears a settled customer ledger by rewriting
	// history: sales are unlinked and marked fully paid, payments deleted.
	// It is not an audit preserving close.
	WriteOffBalance(ctx context.Context, customerID uint, actor string) error
}

type customerService struct {
	tx        repository.Transactor
	customers repository.CustomerRepository
	payments  repository.PaymentRepository
	sales     repository.SaleRepository
	events    ws.Publisher
	clock     Clock
	log       *slog.Logger
}

func NewCustomerService(
	tx repository.Transactor,
	customers repository.CustomerRepository,
	payments repository.PaymentRepository,
	sales repository.SaleRepository,
	events ws.Publisher,
	clock Clock,
	log *slog.Logger,
) CustomerService {
	return &customerService{
		tx:        tx,
		customers: customers,
		payments:  payments,
		sales:     sales,
		events:    publisherOrDiscard(events),
		clock:     clock,
		log:       log,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, req *model.Customer, actor string) (*model.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	req.ID = 0
	req.DateAdded = model.DateOnly(s.clock.now())
	req.Stamp(actor)
	if err := s.customers.Create(ctx, req); err != nil {
		return nil, err
	}
	s.log.Info("customer created", "customer_id", req.ID, "actor", actor)
	return req, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id uint, req *model.Customer, actor string) (*model.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("customer", id, err)
	}
	existing.Name = req.Name
	existing.Mobile = req.Mobile
	existing.Address = req.Address
	existing.Aadhar = req.Aadhar
	if req.PhotoPath != "" {
		existing.PhotoPath = req.PhotoPath
	}
	existing.UpdatedBy = actor
	if err := s.customers.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteCustomer removes the customer and its payments. Its sales stay on
// record without a customer.
func (s *customerService) DeleteCustomer(ctx context.Context, id uint, actor string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.customers.FindForUpdate(ctx, id); err != nil {
			return notFound("customer", id, err)
		}
		if err := s.payments.DeleteByCustomer(ctx, id); err != nil {
			return err
		}
		if err := s.sales.UnlinkCustomer(ctx, id); err != nil {
			return err
		}
		return s.customers.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("customer deleted", "customer_id", id, "actor", actor)
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uint) (*model.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("customer", id, err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string) (*CustomerList, error) {
	customers, err := s.customers.FindAll(ctx, search)
	if err != nil {
		return nil, err
	}
	list := &CustomerList{Customers: make([]CustomerBalance, 0, len(customers))}
	for _, c := range customers {
		balance, err := s.balance(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		list.Customers = append(list.Customers, CustomerBalance{Customer: c, Balance: balance})
		if balance.IsPositive() {
			list.Outstanding = list.Outstanding.Add(balance)
		}
	}
	return list, nil
}

func (s *customerService) AddPayment(ctx context.Context, customerID uint, req PaymentRequest, actor string) (*model.Payment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, notFound("customer", customerID, err)
	}
	payment := &model.Payment{
		CustomerID:  customerID,
		Amount:      req.Amount,
		PaymentDate: s.paymentDate(req.PaymentDate),
		Description: strings.TrimSpace(req.Description),
	}
	payment.Stamp(actor)
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	s.log.Info("payment recorded", "customer_id", customerID, "payment_id", payment.ID, "amount", payment.Amount.String(), "actor", actor)
	s.publishLedger(customerID, "payment_added", actor)
	return payment, nil
}

func (s *customerService) EditPayment(ctx context.Context, customerID, paymentID uint, req PaymentRequest, actor string) (*model.Payment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, notFound("payment", paymentID, err)
	}
	if payment.CustomerID != customerID {
		return nil, &NotFoundError{Entity: "payment", ID: paymentID}
	}
	payment.Amount = req.Amount
	if req.PaymentDate != nil {
		payment.PaymentDate = model.DateOnly(*req.PaymentDate)
	}
	payment.Description = strings.TrimSpace(req.Description)
	payment.UpdatedBy = actor
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	s.publishLedger(customerID, "payment_updated", actor)
	return payment, nil
}

// DeletePayment returns the removed payment so callers know which
// customer's statement changed.
func (s *customerService) DeletePayment(ctx context.Context, paymentID uint, actor string) (*model.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, notFound("payment", paymentID, err)
	}
	if err := s.payments.Delete(ctx, paymentID); err != nil {
		return nil, err
	}
	s.log.Info("payment deleted", "customer_id", payment.CustomerID, "payment_id", paymentID, "actor", actor)
	s.publishLedger(payment.CustomerID, "payment_deleted", actor)
	return payment, nil
}

func (s *customerService) Balance(ctx context.Context, customerID uint) (decimal.Decimal, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return decimal.Zero, notFound("customer", customerID, err)
	}
	return s.balance(ctx, customerID)
}

// GetCustomerLedger builds the statement from sales and payments. The
// running balance accumulates oldest first (by date, sales before
// payments on the same day, then id) and the rows are returned newest
// first, so the first row carries the current balance.
func (s *customerService) GetCustomerLedger(ctx context.Context, customerID uint) (*CustomerLedger, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, notFound("customer", customerID, err)
	}
	sales, err := s.sales.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	entries := make([]CustomerLedgerEntry, 0, len(sales)+len(payments))
	for _, sale := range sales {
		entries = append(entries, CustomerLedgerEntry{
			Date:        sale.SaleDate,
			Source:      SourceSale,
			RefID:       sale.ID,
			Description: "Sale #" + sale.BillNumber,
			Amount:      sale.TotalAmount,
			Paid:        sale.ReceivedAmount,
			Balance:     sale.DueAmount,
		})
	}
	for _, p := range payments {
		desc := p.Description
		if desc == "" {
			desc = "Payment"
		}
		entries = append(entries, CustomerLedgerEntry{
			Date:        p.PaymentDate,
			Source:      SourcePayment,
			RefID:       p.ID,
			Description: desc,
			Amount:      decimal.Zero,
			Paid:        p.Amount,
			Balance:     p.Amount.Neg(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return ledgerBefore(entries[i], entries[j])
	})

	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Balance)
		entries[i].Balance = balance
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return &CustomerLedger{Customer: customer, Balance: balance, Entries: entries}, nil
}

func (s *customerService) WriteOffBalance(ctx context.Context, customerID uint, actor string) error {
	var balance decimal.Decimal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.customers.FindForUpdate(ctx, customerID); err != nil {
			return notFound("customer", customerID, err)
		}
		var err error
		balance, err = s.balance(ctx, customerID)
		if err != nil {
			return err
		}
		if !isSettled(balance) {
			return fmt.Errorf("%w: customer %d owes %s", ErrBalanceNotZero, customerID, balance.StringFixed(2))
		}
		if err := s.sales.WriteOffCustomer(ctx, customerID, actor); err != nil {
			return err
		}
		return s.payments.DeleteByCustomer(ctx, customerID)
	})
	if err != nil {
		err = translateStorageError(err)
		s.log.Warn("customer write-off refused", "customer_id", customerID, "actor", actor, "error", err)
		return err
	}
	s.log.Info("customer ledger written off", "customer_id", customerID, "balance", balance.String(), "actor", actor)
	s.publishLedger(customerID, "ledger_cleared", actor)
	return nil
}

func (s *customerService) balance(ctx context.Context, customerID uint) (decimal.Decimal, error) {
	sales, err := s.sales.FindByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.payments.FindByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, sale := range sales {
		balance = balance.Add(sale.DueAmount)
	}
	for _, p := range payments {
		balance = balance.Sub(p.Amount)
	}
	return balance, nil
}

func (s *customerService) paymentDate(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		return model.DateOnly(s.clock.now())
	}
	return model.DateOnly(*d)
}

func (s *customerService) publishLedger(customerID uint, action, actor string) {
	s.events.Publish(ws.Event{
		Type:   "customer_ledger",
		Action: action,
		Data:   map[string]uint{"customer_id": customerID},
		User:   actor,
	})
}

func ledgerBefore(a, b CustomerLedgerEntry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Source != b.Source {
		return a.Source == SourceSale
	}
	return a.RefID < b.RefID
}
