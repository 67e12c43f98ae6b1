package repository

import (
	"context"
	"sort"
	"strings"

	"go-pos-ledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Item, error)
	FindForUpdate(ctx context.Context, id uint) (*model.Item, error)
	LockByIDs(ctx context.Context, ids []uint) error
	UpdateStock(ctx context.Context, id uint, newQuantity decimal.Decimal, updatedBy string) error
	FindAll(ctx context.Context, search string) ([]model.Item, error)
	FindAvailable(ctx context.Context) ([]model.Item, error)
	FindLowStock(ctx context.Context, threshold decimal.Decimal) ([]model.Item, error)
	FindBySupplier(ctx context.Context, supplierID uint) ([]model.Item, error)
	CountSaleReferences(ctx context.Context, id uint) (int64, error)
	UnlinkSupplier(ctx context.Context, supplierID uint) error
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(item).Error
}

func (r *itemRepo) Update(ctx context.Context, item *model.Item) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(item).Error
}

func (r *itemRepo) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&model.Item{}, id).Error
}

func (r *itemRepo) FindByID(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := conn(ctx, r.db).Preload("Supplier").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindForUpdate(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := forUpdate(conn(ctx, r.db)).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LockByIDs locks every listed item row in ascending id order, so two
// operations touching overlapping items always acquire locks in the same
// sequence.
func (r *itemRepo) LockByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	sorted := uniqueSorted(ids)
	var locked []model.Item
	return forUpdate(conn(ctx, r.db)).
		Select("id").
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&locked).Error
}

// UpdateStock must run inside the caller's transaction, after FindForUpdate.
func (r *itemRepo) UpdateStock(ctx context.Context, id uint, newQuantity decimal.Decimal, updatedBy string) error {
	return conn(ctx, r.db).Model(&model.Item{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   newQuantity,
			"updated_by": updatedBy,
		}).Error
}

func (r *itemRepo) FindAll(ctx context.Context, search string) ([]model.Item, error) {
	var items []model.Item
	q := conn(ctx, r.db)
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(strings.ToLower(search))).Order("name ASC")
	} else {
		q = q.Order("id ASC")
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *itemRepo) FindAvailable(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := conn(ctx, r.db).Where("quantity > 0").Order("name ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) FindLowStock(ctx context.Context, threshold decimal.Decimal) ([]model.Item, error) {
	var items []model.Item
	err := conn(ctx, r.db).
		Where("quantity < ?", threshold.InexactFloat64()).
		Order("quantity ASC").
		Find(&items).Error
	return items, err
}

func (r *itemRepo) FindBySupplier(ctx context.Context, supplierID uint) ([]model.Item, error) {
	var items []model.Item
	err := conn(ctx, r.db).Where("supplier_id = ?", supplierID).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) CountSaleReferences(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.SaleItem{}).Where("item_id = ?", id).Count(&count).Error
	return count, err
}

func (r *itemRepo) UnlinkSupplier(ctx context.Context, supplierID uint) error {
	return conn(ctx, r.db).Model(&model.Item{}).
		Where("supplier_id = ?", supplierID).
		Update("supplier_id", nil).Error
}

func uniqueSorted(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
