package repository

import (
	"context"
	"strings"
	"time"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	FindForUpdate(ctx context.Context, id uint) (*model.Customer, error)
	FindAll(ctx context.Context, search string) ([]model.Customer, error)
	CountAddedOn(ctx context.Context, day time.Time) (int64, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return conn(ctx, r.db).Create(customer).Error
}

func (r *customerRepo) Update(ctx context.Context, customer *model.Customer) error {
	return conn(ctx, r.db).Save(customer).Error
}

func (r *customerRepo) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&model.Customer{}, id).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := conn(ctx, r.db).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindForUpdate locks the customer row; ledger writes for one customer are
// serialized through it.
func (r *customerRepo) FindForUpdate(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := forUpdate(conn(ctx, r.db)).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindAll(ctx context.Context, search string) ([]model.Customer, error) {
	var customers []model.Customer
	q := conn(ctx, r.db)
	if search = strings.TrimSpace(search); search != "" {
		p := likePattern(strings.ToLower(search))
		q = q.Where("LOWER(name) LIKE ? OR LOWER(mobile) LIKE ? OR LOWER(address) LIKE ?", p, p, p)
	}
	err := q.Order("name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) CountAddedOn(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Customer{}).
		Where("date_added = ?", model.DateOnly(day)).
		Count(&count).Error
	return count, err
}
