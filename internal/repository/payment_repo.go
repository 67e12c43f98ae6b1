package repository

import (
	"context"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Update(ctx context.Context, payment *model.Payment) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Payment, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]model.Payment, error)
	DeleteByCustomer(ctx context.Context, customerID uint) error
}

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return conn(ctx, r.db).Create(payment).Error
}

func (r *paymentRepo) Update(ctx context.Context, payment *model.Payment) error {
	return conn(ctx, r.db).Save(payment).Error
}

func (r *paymentRepo) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&model.Payment{}, id).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	var payment model.Payment
	if err := conn(ctx, r.db).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) FindByCustomer(ctx context.Context, customerID uint) ([]model.Payment, error) {
	var payments []model.Payment
	err := conn(ctx, r.db).Where("customer_id = ?", customerID).Order("id ASC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) DeleteByCustomer(ctx context.Context, customerID uint) error {
	return conn(ctx, r.db).Where("customer_id = ?", customerID).Delete(&model.Payment{}).Error
}
