package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer has no stored balance; it is derived from sales and payments.
type Customer struct {
	BaseModel
	Name      string    `gorm:"type:varchar(100);not null;index" json:"name" validate:"required"`
	Mobile    string    `gorm:"type:varchar(15)" json:"mobile"`
	Address   string    `gorm:"type:varchar(200)" json:"address"`
	Aadhar    string    `gorm:"type:varchar(20)" json:"aadhar"`
	PhotoPath string    `gorm:"type:varchar(200)" json:"photo_path,omitempty"`
	DateAdded time.Time `gorm:"type:date;index" json:"date_added"`
}

// Payment is money received from a customer outside of a sale.
type Payment struct {
	BaseModel
	CustomerID  uint            `gorm:"not null;index" json:"customer_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Description string          `gorm:"type:varchar(200)" json:"description"`
}
