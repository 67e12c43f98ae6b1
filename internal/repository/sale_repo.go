package repository

import (
	"context"
	"strings"
	"time"

	"go-pos-ledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uint) (*model.Sale, error)
	FindForUpdate(ctx context.Context, id uint) (*model.Sale, error)
	UpdateHeader(ctx context.Context, sale *model.Sale) error
	Delete(ctx context.Context, sale *model.Sale) error

	CreateItem(ctx context.Context, line *model.SaleItem) error
	UpdateItem(ctx context.Context, line *model.SaleItem) error
	DeleteItem(ctx context.Context, id uint) error

	CountByBillPrefix(ctx context.Context, prefix string) (int64, error)
	Search(ctx context.Context, billNumber string, limit int) ([]model.Sale, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error)
	FindByDate(ctx context.Context, day time.Time) ([]model.Sale, error)
	FindInRange(ctx context.Context, start, end time.Time, limit int) ([]model.Sale, error)

	UnlinkCustomer(ctx context.Context, customerID uint) error
	WriteOffCustomer(ctx context.Context, customerID uint, updatedBy string) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

// Create inserts the sale header and its lines in one statement batch.
func (r *saleRepo) Create(ctx context.Context, sale *model.Sale) error {
	return conn(ctx, r.db).Create(sale).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	var sale model.Sale
	err := conn(ctx, r.db).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Item").
		First(&sale, id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindForUpdate locks the sale header and loads its current lines.
func (r *saleRepo) FindForUpdate(ctx context.Context, id uint) (*model.Sale, error) {
	db := conn(ctx, r.db)
	var sale model.Sale
	if err := forUpdate(db).First(&sale, id).Error; err != nil {
		return nil, err
	}
	if err := db.Where("sale_id = ?", sale.ID).Order("id ASC").Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) UpdateHeader(ctx context.Context, sale *model.Sale) error {
	return conn(ctx, r.db).Model(&model.Sale{}).
		Where("id = ?", sale.ID).
		Updates(map[string]interface{}{
			"customer_id":     sale.CustomerID,
			"payment_method":  sale.PaymentMethod,
			"total_amount":    sale.TotalAmount,
			"received_amount": sale.ReceivedAmount,
			"due_amount":      sale.DueAmount,
			"total_profit":    sale.TotalProfit,
			"cash_amount":     sale.CashAmount,
			"online_amount":   sale.OnlineAmount,
			"updated_by":      sale.UpdatedBy,
		}).Error
}

// Delete removes the lines, then the header.
func (r *saleRepo) Delete(ctx context.Context, sale *model.Sale) error {
	db := conn(ctx, r.db)
	if err := db.Where("sale_id = ?", sale.ID).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Sale{}, sale.ID).Error
}

func (r *saleRepo) CreateItem(ctx context.Context, line *model.SaleItem) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(line).Error
}

func (r *saleRepo) UpdateItem(ctx context.Context, line *model.SaleItem) error {
	return conn(ctx, r.db).Model(&model.SaleItem{}).
		Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"item_id":        line.ItemID,
			"quantity":       line.Quantity,
			"unit":           line.Unit,
			"purchase_price": line.PurchasePrice,
			"sale_price":     line.SalePrice,
			"profit":         line.Profit,
			"updated_by":     line.UpdatedBy,
		}).Error
}

func (r *saleRepo) DeleteItem(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&model.SaleItem{}, id).Error
}

// CountByBillPrefix counts every bill ever issued with the prefix,
// including deleted sales, so a number is never handed out twice.
func (r *saleRepo) CountByBillPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Unscoped().Model(&model.Sale{}).
		Where("bill_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *saleRepo) Search(ctx context.Context, billNumber string, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	q := conn(ctx, r.db).Preload("Customer")
	if billNumber = strings.TrimSpace(billNumber); billNumber != "" {
		q = q.Where("bill_number LIKE ?", likePattern(billNumber))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("sale_date DESC").Order("id DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByCustomer(ctx context.Context, customerID uint) ([]model.Sale, error) {
	var sales []model.Sale
	err := conn(ctx, r.db).Where("customer_id = ?", customerID).Order("id ASC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByDate(ctx context.Context, day time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := conn(ctx, r.db).Where("sale_date = ?", model.DateOnly(day)).Order("id ASC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindInRange(ctx context.Context, start, end time.Time, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	q := conn(ctx, r.db).
		Preload("Customer").
		Where("sale_date >= ? AND sale_date <= ?", model.DateOnly(start), model.DateOnly(end)).
		Order("sale_date DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sales).Error
	return sales, err
}

func (r *saleRepo) UnlinkCustomer(ctx context.Context, customerID uint) error {
	return conn(ctx, r.db).Model(&model.Sale{}).
		Where("customer_id = ?", customerID).
		Update("customer_id", nil).Error
}

// WriteOffCustomer marks every sale of the customer fully paid and
// detaches it from the customer.
func (r *saleRepo) WriteOffCustomer(ctx context.Context, customerID uint, updatedBy string) error {
	return conn(ctx, r.db).Model(&model.Sale{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"received_amount": gorm.Expr("total_amount"),
			"due_amount":      decimal.Zero,
			"customer_id":     nil,
			"updated_by":      updatedBy,
		}).Error
}
