package repository

import (
	"context"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository stores supplier ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, txn *model.SupplierTransaction) error
	Update(ctx context.Context, txn *model.SupplierTransaction) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.SupplierTransaction, error)
	FindForUpdate(ctx context.Context, id uint) (*model.SupplierTransaction, error)
	FindBySupplier(ctx context.Context, supplierID uint) ([]model.SupplierTransaction, error)
	FindRecentBySupplier(ctx context.Context, supplierID uint, limit int) ([]model.SupplierTransaction, error)
	DeleteBySupplier(ctx context.Context, supplierID uint) error
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(ctx context.Context, txn *model.SupplierTransaction) error {
	return conn(ctx, r.db).Create(txn).Error
}

// Update and Delete report gorm.ErrRecordNotFound when no live row matched,
// so a write against a row another transaction already removed is never
// mistaken for success.
func (r *transactionRepo) Update(ctx context.Context, txn *model.SupplierTransaction) error {
	res := conn(ctx, r.db).Model(&model.SupplierTransaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]interface{}{
			"date":             txn.Date,
			"bill_no":          txn.BillNo,
			"description":      txn.Description,
			"amount":           txn.Amount,
			"transaction_type": txn.Type,
			"updated_by":       txn.UpdatedBy,
		})
	return singleRow(res)
}

func (r *transactionRepo) Delete(ctx context.Context, id uint) error {
	return singleRow(conn(ctx, r.db).Delete(&model.SupplierTransaction{}, id))
}

func (r *transactionRepo) FindByID(ctx context.Context, id uint) (*model.SupplierTransaction, error) {
	var txn model.SupplierTransaction
	if err := conn(ctx, r.db).First(&txn, id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindForUpdate locks the transaction row. Callers take the supplier lock
// first, the same order WriteOff and DeleteSupplier use.
func (r *transactionRepo) FindForUpdate(ctx context.Context, id uint) (*model.SupplierTransaction, error) {
	var txn model.SupplierTransaction
	if err := forUpdate(conn(ctx, r.db)).First(&txn, id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindBySupplier returns the ledger in statement order: (date, id) ascending.
func (r *transactionRepo) FindBySupplier(ctx context.Context, supplierID uint) ([]model.SupplierTransaction, error) {
	var txns []model.SupplierTransaction
	err := conn(ctx, r.db).
		Where("supplier_id = ?", supplierID).
		Order("date ASC").
		Order("id ASC").
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepo) FindRecentBySupplier(ctx context.Context, supplierID uint, limit int) ([]model.SupplierTransaction, error) {
	var txns []model.SupplierTransaction
	err := conn(ctx, r.db).
		Where("supplier_id = ?", supplierID).
		Order("date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepo) DeleteBySupplier(ctx context.Context, supplierID uint) error {
	return conn(ctx, r.db).Where("supplier_id = ?", supplierID).Delete(&model.SupplierTransaction{}).Error
}
