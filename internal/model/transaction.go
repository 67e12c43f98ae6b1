package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxPurchase TransactionType = "purchase"
	TxPayment  TransactionType = "payment"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TxPurchase || t == TxPayment
}

// SupplierTransaction is one entry of a supplier ledger.
type SupplierTransaction struct {
	BaseModel
	SupplierID  uint            `gorm:"not null;index" json:"supplier_id"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	BillNo      string          `gorm:"type:varchar(50)" json:"bill_no"`
	Description string          `gorm:"type:varchar(200)" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Type        TransactionType `gorm:"column:transaction_type;type:varchar(20);not null" json:"transaction_type"`
}

// Effect is the signed change this transaction makes to the supplier
// balance: purchases add, payments subtract.
func (t *SupplierTransaction) Effect() decimal.Decimal {
	return SignedAmount(t.Type, t.Amount)
}

// SignedAmount applies the sign of typ to amount.
func SignedAmount(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	if typ == TxPayment {
		return amount.Neg()
	}
	return amount
}
