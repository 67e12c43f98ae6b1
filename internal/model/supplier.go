package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier keeps a stored running balance of what is owed to it.
// Balance is only written together with a SupplierTransaction change.
type Supplier struct {
	BaseModel
	Name      string          `gorm:"type:varchar(100);not null;index" json:"name" validate:"required"`
	Mobile    string          `gorm:"type:varchar(15)" json:"mobile"`
	Address   string          `gorm:"type:varchar(200)" json:"address"`
	GSTIN     string          `gorm:"column:gstin;type:varchar(20)" json:"gstin"`
	DateAdded time.Time       `gorm:"type:date" json:"date_added"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"balance"`

	Items        []Item                `json:"items,omitempty"`
	Transactions []SupplierTransaction `json:"transactions,omitempty"`
}
