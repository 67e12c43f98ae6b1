package model

import "github.com/shopspring/decimal"

// Item is a catalog entry. Quantity is only changed through stock
// reservations and releases made by the sale engine, or by an explicit
// administrative edit.
type Item struct {
	BaseModel
	Name          string          `gorm:"type:varchar(100);not null;index" json:"name" validate:"required"`
	Quantity      decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity" validate:"gte=0"`
	Unit          string          `gorm:"type:varchar(20);not null" json:"unit" validate:"required"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"purchase_price" validate:"gte=0"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"sale_price" validate:"gte=0"`

	// Relasi
	SupplierID *uint     `gorm:"index" json:"supplier_id,omitempty"`
	Supplier   *Supplier `json:"supplier,omitempty" validate:"-"`
}
