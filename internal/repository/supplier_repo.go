package repository

import (
	"context"
	"strings"

	"go-pos-ledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	UpdateProfile(ctx context.Context, supplier *model.Supplier) error
	UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal, updatedBy string) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Supplier, error)
	FindForUpdate(ctx context.Context, id uint) (*model.Supplier, error)
	FindAll(ctx context.Context, search string) ([]model.Supplier, error)
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	return conn(ctx, r.db).Omit("Items", "Transactions").Create(supplier).Error
}

// UpdateProfile writes contact fields only. The balance column is owned by
// UpdateBalance.
func (r *supplierRepo) UpdateProfile(ctx context.Context, supplier *model.Supplier) error {
	return conn(ctx, r.db).Model(&model.Supplier{}).
		Where("id = ?", supplier.ID).
		Updates(map[string]interface{}{
			"name":       supplier.Name,
			"mobile":     supplier.Mobile,
			"address":    supplier.Address,
			"gstin":      supplier.GSTIN,
			"updated_by": supplier.UpdatedBy,
		}).Error
}

// UpdateBalance must run inside the caller's transaction, after FindForUpdate.
func (r *supplierRepo) UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal, updatedBy string) error {
	return conn(ctx, r.db).Model(&model.Supplier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_by": updatedBy,
		}).Error
}

func (r *supplierRepo) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&model.Supplier{}, id).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uint) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := conn(ctx, r.db).First(&supplier, id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindForUpdate(ctx context.Context, id uint) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := forUpdate(conn(ctx, r.db)).First(&supplier, id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindAll(ctx context.Context, search string) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	q := conn(ctx, r.db)
	if search = strings.TrimSpace(search); search != "" {
		p := likePattern(strings.ToLower(search))
		q = q.Where("LOWER(name) LIKE ? OR LOWER(mobile) LIKE ? OR LOWER(gstin) LIKE ?", p, p, p)
	}
	err := q.Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}
