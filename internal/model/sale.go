package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentOnline PaymentMethod = "Online"
	PaymentSplit  PaymentMethod = "Split"
)

// TakesCash reports whether the method carries a cash portion.
func (m PaymentMethod) TakesCash() bool {
	return m == PaymentCash || m == PaymentSplit
}

// TakesOnline reports whether the method carries an online portion.
func (m PaymentMethod) TakesOnline() bool {
	return m == PaymentOnline || m == PaymentSplit
}

// Sale is the header of a bill. It exclusively owns its line items.
type Sale struct {
	BaseModel
	BillNumber string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"bill_number"`
	CustomerID *uint     `gorm:"index" json:"customer_id"`
	Customer   *Customer `json:"customer,omitempty"`
	SaleDate   time.Time `gorm:"type:date;not null;index" json:"sale_date"`
	SaleTime   string    `gorm:"type:varchar(10);not null" json:"sale_time"`

	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	ReceivedAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"received_amount"`
	DueAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"due_amount"`
	TotalProfit    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_profit"`

	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	CashAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"cash_amount"`
	OnlineAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"online_amount"`

	Items []SaleItem `gorm:"constraint:OnDelete:CASCADE;" json:"items,omitempty"`
}

// SaleItem is one line of a sale. Prices are snapshots taken when the line
// was written and never follow later catalog price changes.
type SaleItem struct {
	BaseModel
	SaleID        uint            `gorm:"not null;index" json:"sale_id"`
	ItemID        uint            `gorm:"not null;index" json:"item_id"`
	Item          *Item           `json:"item,omitempty"`
	Quantity      decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	Unit          string          `gorm:"type:varchar(20);not null" json:"unit"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"sale_price"`
	Profit        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"profit"`
}

// Decimal places of the money and quantity columns.
const (
	MoneyPlaces    int32 = 2
	QuantityPlaces int32 = 3
)

// LineAmount returns sale_price * quantity rounded to the money column.
func LineAmount(salePrice, qty decimal.Decimal) decimal.Decimal {
	return salePrice.Mul(qty).Round(MoneyPlaces)
}

// LineProfit returns (sale_price - purchase_price) * quantity rounded to the
// money column, so the stored line profits add up to the sale's profit.
func LineProfit(salePrice, purchasePrice, qty decimal.Decimal) decimal.Decimal {
	return salePrice.Sub(purchasePrice).Mul(qty).Round(MoneyPlaces)
}
