package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/ws"

	"github.com/shopspring/decimal"
)

const recentSupplierTransactions = 10

type SupplierTransactionRequest struct {
	Date        *time.Time            `json:"date"`
	BillNo      string                `json:"bill_no" validate:"max=50"`
	Description string                `json:"description" validate:"max=200"`
	Amount      decimal.Decimal       `json:"amount" validate:"gt=0"`
	Type        model.TransactionType `json:"transaction_type" validate:"required"`
}

func (r *SupplierTransactionRequest) validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return &ValidationError{Field: "transaction_type", Reason: fmt.Sprintf("unknown type %q", r.Type)}
	}
	return checkPlaces(money("amount", r.Amount))
}

// StatementRow is one line of the recomputed supplier statement.
type StatementRow struct {
	TransactionID uint            `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	BillNo        string          `json:"bill_no"`
	Description   string          `json:"description"`
	Purchase      decimal.Decimal `json:"purchase"`
	Payment       decimal.Decimal `json:"payment"`
	Balance       decimal.Decimal `json:"balance"`
}

// SupplierStatement carries both the stored balance and the balance
// recomputed from history.
type SupplierStatement struct {
	Supplier   *model.Supplier `json:"supplier"`
	Balance    decimal.Decimal `json:"balance"`
	Recomputed decimal.Decimal `json:"recomputed"`
	Rows       []StatementRow  `json:"rows"`
}

type BalanceCheck struct {
	SupplierID uint            `json:"supplier_id"`
	Stored     decimal.Decimal `json:"stored"`
	Recomputed decimal.Decimal `json:"recomputed"`
	Consistent bool            `json:"consistent"`
}

type SupplierDetail struct {
	Supplier *model.Supplier             `json:"supplier"`
	Recent   []model.SupplierTransaction `json:"recent_transactions"`
	Items    []model.Item                `json:"items"`
}

type SupplierService interface {
	CreateSupplier(ctx context.Context, req *model.Supplier, actor string) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id uint, req *model.Supplier, actor string) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, id uint, actor string) error
	GetSupplier(ctx context.Context, id uint) (*SupplierDetail, error)
	ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error)

	AddTransaction(ctx context.Context, supplierID uint, req SupplierTransactionRequest, actor string) (*model.SupplierTransaction, error)
	EditTransaction(ctx context.Context, txnID uint, req SupplierTransactionRequest, actor string) (*model.SupplierTransaction, error)
	DeleteTransaction(ctx context.Context, txnID uint, actor string) (*model.SupplierTransaction, error)

	GetSupplierStatement(ctx context.Context, supplierID uint) (*SupplierStatement, error)
	VerifyBalance(ctx context.Context, supplierID uint) (*BalanceCheck, error)
	// WriteOffBalance deletes every transaction of a settled supplier and
	// resets the balance to zero. History is not kept.
	WriteOffBalance(ctx context.Context, supplierID uint, actor string) error
}

type supplierService struct {
	tx           repository.Transactor
	suppliers    repository.SupplierRepository
	transactions repository.TransactionRepository
	items        repository.ItemRepository
	events       ws.Publisher
	clock        Clock
	log          *slog.Logger
}

func NewSupplierService(
	tx repository.Transactor,
	suppliers repository.SupplierRepository,
	transactions repository.TransactionRepository,
	items repository.ItemRepository,
	events ws.Publisher,
	clock Clock,
	log *slog.Logger,
) SupplierService {
	return &supplierService{
		tx:           tx,
		suppliers:    suppliers,
		transactions: transactions,
		items:        items,
		events:       publisherOrDiscard(events),
		clock:        clock,
		log:          log,
	}
}

func (s *supplierService) CreateSupplier(ctx context.Context, req *model.Supplier, actor string) (*model.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	supplier := &model.Supplier{
		Name:      req.Name,
		Mobile:    req.Mobile,
		Address:   req.Address,
		GSTIN:     req.GSTIN,
		DateAdded: model.DateOnly(s.clock.now()),
		Balance:   decimal.Zero,
	}
	supplier.Stamp(actor)
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.log.Info("supplier created", "supplier_id", supplier.ID, "actor", actor)
	return supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id uint, req *model.Supplier, actor string) (*model.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supplier", id, err)
	}
	existing.Name = req.Name
	existing.Mobile = req.Mobile
	existing.Address = req.Address
	existing.GSTIN = req.GSTIN
	existing.UpdatedBy = actor
	if err := s.suppliers.UpdateProfile(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteSupplier detaches the supplier's items and removes its ledger.
func (s *supplierService) DeleteSupplier(ctx context.Context, id uint, actor string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.suppliers.FindForUpdate(ctx, id); err != nil {
			return notFound("supplier", id, err)
		}
		if err := s.items.UnlinkSupplier(ctx, id); err != nil {
			return err
		}
		if err := s.transactions.DeleteBySupplier(ctx, id); err != nil {
			return err
		}
		return s.suppliers.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("supplier deleted", "supplier_id", id, "actor", actor)
	return nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id uint) (*SupplierDetail, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supplier", id, err)
	}
	recent, err := s.transactions.FindRecentBySupplier(ctx, id, recentSupplierTransactions)
	if err != nil {
		return nil, err
	}
	items, err := s.items.FindBySupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SupplierDetail{Supplier: supplier, Recent: recent, Items: items}, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error) {
	return s.suppliers.FindAll(ctx, search)
}

func (s *supplierService) AddTransaction(ctx context.Context, supplierID uint, req SupplierTransactionRequest, actor string) (*model.SupplierTransaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	txn := &model.SupplierTransaction{
		SupplierID:  supplierID,
		Date:        s.transactionDate(req.Date),
		BillNo:      strings.TrimSpace(req.BillNo),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Type:        req.Type,
	}
	txn.Stamp(actor)

	var balance decimal.Decimal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supplier, err := s.suppliers.FindForUpdate(ctx, supplierID)
		if err != nil {
			return notFound("supplier", supplierID, err)
		}
		if err := s.transactions.Create(ctx, txn); err != nil {
			return err
		}
		balance = supplier.Balance.Add(txn.Effect())
		return s.suppliers.UpdateBalance(ctx, supplierID, balance, actor)
	})
	if err != nil {
		return nil, translateStorageError(err)
	}

	s.log.Info("supplier transaction added",
		"supplier_id", supplierID,
		"transaction_id", txn.ID,
		"type", txn.Type,
		"amount", txn.Amount.String(),
		"balance", balance.String(),
		"actor", actor,
	)
	s.publishLedger(supplierID, "transaction_added", balance, actor)
	return txn, nil
}

// EditTransaction reverses the old effect and applies the new one in the
// same transaction as the balance write.
func (s *supplierService) EditTransaction(ctx context.Context, txnID uint, req SupplierTransactionRequest, actor string) (*model.SupplierTransaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		txn     *model.SupplierTransaction
		balance decimal.Decimal
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supplier, locked, err := s.lockTransaction(ctx, txnID)
		if err != nil {
			return err
		}
		txn = locked

		balance = supplier.Balance.Sub(txn.Effect())
		if req.Date != nil {
			txn.Date = model.DateOnly(*req.Date)
		}
		txn.BillNo = strings.TrimSpace(req.BillNo)
		txn.Description = strings.TrimSpace(req.Description)
		txn.Amount = req.Amount
		txn.Type = req.Type
		txn.UpdatedBy = actor
		balance = balance.Add(txn.Effect())

		if err := s.transactions.Update(ctx, txn); err != nil {
			return notFound("supplier transaction", txnID, err)
		}
		return s.suppliers.UpdateBalance(ctx, supplier.ID, balance, actor)
	})
	if err != nil {
		return nil, translateStorageError(err)
	}

	s.log.Info("supplier transaction edited",
		"supplier_id", txn.SupplierID,
		"transaction_id", txn.ID,
		"balance", balance.String(),
		"actor", actor,
	)
	s.publishLedger(txn.SupplierID, "transaction_updated", balance, actor)
	return txn, nil
}

func (s *supplierService) DeleteTransaction(ctx context.Context, txnID uint, actor string) (*model.SupplierTransaction, error) {
	var (
		txn     *model.SupplierTransaction
		balance decimal.Decimal
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supplier, locked, err := s.lockTransaction(ctx, txnID)
		if err != nil {
			return err
		}
		txn = locked

		balance = supplier.Balance.Sub(txn.Effect())
		if err := s.transactions.Delete(ctx, txn.ID); err != nil {
			return notFound("supplier transaction", txnID, err)
		}
		return s.suppliers.UpdateBalance(ctx, supplier.ID, balance, actor)
	})
	if err != nil {
		return nil, translateStorageError(err)
	}

	s.log.Info("supplier transaction deleted",
		"supplier_id", txn.SupplierID,
		"transaction_id", txn.ID,
		"balance", balance.String(),
		"actor", actor,
	)
	s.publishLedger(txn.SupplierID, "transaction_deleted", balance, actor)
	return txn, nil
}

// lockTransaction locks the owning supplier and then re-reads the
// transaction under that lock. The first read only finds the supplier id;
// the effect that gets reversed always comes from the locked read, so a
// concurrent edit or delete of the same row is seen and never applied twice.
func (s *supplierService) lockTransaction(ctx context.Context, txnID uint) (*model.Supplier, *model.SupplierTransaction, error) {
	first, err := s.transactions.FindByID(ctx, txnID)
	if err != nil {
		return nil, nil, notFound("supplier transaction", txnID, err)
	}
	supplier, err := s.suppliers.FindForUpdate(ctx, first.SupplierID)
	if err != nil {
		return nil, nil, notFound("supplier", first.SupplierID, err)
	}
	txn, err := s.transactions.FindForUpdate(ctx, txnID)
	if err != nil {
		return nil, nil, notFound("supplier transaction", txnID, err)
	}
	if txn.SupplierID != supplier.ID {
		return nil, nil, ErrConcurrentModification
	}
	return supplier, txn, nil
}

// GetSupplierStatement recomputes the running balance over every
// transaction ordered by date then id.
func (s *supplierService) GetSupplierStatement(ctx context.Context, supplierID uint) (*SupplierStatement, error) {
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, notFound("supplier", supplierID, err)
	}
	txns, err := s.transactions.FindBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	running := decimal.Zero
	rows := make([]StatementRow, 0, len(txns))
	for _, t := range txns {
		running = running.Add(t.Effect())
		row := StatementRow{
			TransactionID: t.ID,
			Date:          t.Date,
			BillNo:        t.BillNo,
			Description:   t.Description,
			Purchase:      decimal.Zero,
			Payment:       decimal.Zero,
			Balance:       running,
		}
		if t.Type == model.TxPurchase {
			row.Purchase = t.Amount
		} else {
			row.Payment = t.Amount
		}
		rows = append(rows, row)
	}
	return &SupplierStatement{
		Supplier:   supplier,
		Balance:    supplier.Balance,
		Recomputed: running,
		Rows:       rows,
	}, nil
}

func (s *supplierService) VerifyBalance(ctx context.Context, supplierID uint) (*BalanceCheck, error) {
	st, err := s.GetSupplierStatement(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	check := &BalanceCheck{
		SupplierID: supplierID,
		Stored:     st.Balance,
		Recomputed: st.Recomputed,
		Consistent: isSettled(st.Balance.Sub(st.Recomputed)),
	}
	if !check.Consistent {
		s.log.Warn("supplier balance drift",
			"supplier_id", supplierID,
			"stored", check.Stored.String(),
			"recomputed", check.Recomputed.String(),
		)
	}
	return check, nil
}

func (s *supplierService) WriteOffBalance(ctx context.Context, supplierID uint, actor string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supplier, err := s.suppliers.FindForUpdate(ctx, supplierID)
		if err != nil {
			return notFound("supplier", supplierID, err)
		}
		if !isSettled(supplier.Balance) {
			return fmt.Errorf("%w: supplier %d balance %s", ErrBalanceNotZero, supplierID, supplier.Balance.StringFixed(2))
		}
		if err := s.transactions.DeleteBySupplier(ctx, supplierID); err != nil {
			return err
		}
		return s.suppliers.UpdateBalance(ctx, supplierID, decimal.Zero, actor)
	})
	if err != nil {
		err = translateStorageError(err)
		s.log.Warn("supplier write-off refused", "supplier_id", supplierID, "actor", actor, "error", err)
		return err
	}
	s.log.Info("supplier ledger written off", "supplier_id", supplierID, "actor", actor)
	s.publishLedger(supplierID, "ledger_cleared", decimal.Zero, actor)
	return nil
}

func (s *supplierService) transactionDate(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		return model.DateOnly(s.clock.now())
	}
	return model.DateOnly(*d)
}

func (s *supplierService) publishLedger(supplierID uint, action string, balance decimal.Decimal, actor string) {
	s.events.Publish(ws.Event{
		Type:   "supplier_ledger",
		Action: action,
		Data: map[string]interface{}{
			"supplier_id": supplierID,
			"balance":     balance,
		},
		User: actor,
	})
}
