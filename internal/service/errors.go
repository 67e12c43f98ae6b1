package service

import (
	"errors"
	"fmt"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/pkg/validator"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is wrapped by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is wrapped by every *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrBalanceNotZero guards the write-off operations.
	ErrBalanceNotZero = errors.New("balance is not zero")
	// ErrConcurrentModification reports a storage level conflict on a row
	// another operation was writing at the same time.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrItemInUse blocks deleting an item that appears on a sale.
	ErrItemInUse = errors.New("item exists in sales records")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrSessionExpired     = errors.New("session expired (logged in on another device)")
)

var (
	ErrEmptyCart            = &ValidationError{Field: "items", Reason: "cart is empty"}
	ErrMissingPaymentMethod = &ValidationError{Field: "payment_method", Reason: "payment method is required"}
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError names the item whose reservation failed and what
// was left of it.
type InsufficientStockError struct {
	ItemID    uint
	ItemName  string
	Unit      string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. Available: %s %s, requested %s",
		e.ItemName, e.Available.String(), e.Unit, e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func notFound(entity string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

// translateStorageError maps driver level conflicts onto
// ErrConcurrentModification and leaves every other error untouched.
func translateStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
		}
	}
	return err
}

type placesRule struct {
	field  string
	value  decimal.Decimal
	places int32
}

func money(field string, v decimal.Decimal) placesRule {
	return placesRule{field: field, value: v, places: model.MoneyPlaces}
}

func quantity(field string, v decimal.Decimal) placesRule {
	return placesRule{field: field, value: v, places: model.QuantityPlaces}
}

// checkPlaces rejects values with more decimal places than their column
// stores. Nothing is rounded on the way in.
func checkPlaces(rules ...placesRule) error {
	for _, r := range rules {
		if !r.value.Equal(r.value.Truncate(r.places)) {
			return &ValidationError{Field: r.field, Reason: fmt.Sprintf("at most %d decimal places", r.places)}
		}
	}
	return nil
}

// validQuantity accepts a positive quantity that fits the quantity column.
func validQuantity(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	return checkPlaces(quantity("quantity", qty))
}

// validateStruct runs the struct tags and reports the first failure.
func validateStruct(data interface{}) error {
	errs := validator.ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return &ValidationError{
		Field:  first.FailedField,
		Reason: fmt.Sprintf("failed on tag '%s'", first.Tag),
	}
}
