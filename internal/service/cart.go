package service

import (
	"fmt"

	"go-pos-ledger/internal/model"

	"github.com/shopspring/decimal"
)

// CartLine is one pending line of a cart, priced from the catalog at the
// moment it was added.
type CartLine struct {
	ItemID        uint            `json:"item_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
}

// Total is sale price times quantity, rounded to cents.
func (l CartLine) Total() decimal.Decimal {
	return model.LineAmount(l.SalePrice, l.Quantity)
}

// Cart is a per-session list of lines waiting to become a sale. It is a
// plain value owned by the caller; nothing about it is shared.
type Cart struct {
	lines []CartLine
}

// NewCart rebuilds a cart from lines a client sent back.
func NewCart(lines ...CartLine) *Cart {
	c := &Cart{}
	c.lines = append(c.lines, lines...)
	return c
}

// Add puts qty of item into the cart, merging with an existing line for
// the same item. The merged quantity may not exceed the item's stock.
func (c *Cart) Add(item *model.Item, qty decimal.Decimal) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	idx := c.indexOf(item.ID)
	want := qty
	if idx >= 0 {
		want = want.Add(c.lines[idx].Quantity)
	}
	if want.GreaterThan(item.Quantity) {
		return &InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Unit:      item.Unit,
			Available: item.Quantity,
			Requested: want,
		}
	}
	if idx >= 0 {
		c.lines[idx].Quantity = want
		return nil
	}
	c.lines = append(c.lines, CartLine{
		ItemID:        item.ID,
		Name:          item.Name,
		Quantity:      qty,
		Unit:          item.Unit,
		PurchasePrice: item.PurchasePrice,
		SalePrice:     item.SalePrice,
	})
	return nil
}

// Remove drops the line for itemID. Removing an absent item is a no-op.
func (c *Cart) Remove(itemID uint) {
	if idx := c.indexOf(itemID); idx >= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	}
}

func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// SaleRequest turns the cart into a create request.
func (c *Cart) SaleRequest(customerID *uint, method model.PaymentMethod, received, cash, online decimal.Decimal) SaleRequest {
	req := SaleRequest{
		CustomerID:     customerID,
		PaymentMethod:  method,
		ReceivedAmount: received,
		CashAmount:     cash,
		OnlineAmount:   online,
		Lines:          make([]SaleLineRequest, 0, len(c.lines)),
	}
	for _, l := range c.lines {
		req.Lines = append(req.Lines, SaleLineRequest{
			ItemID:        l.ItemID,
			Quantity:      l.Quantity,
			Unit:          l.Unit,
			PurchasePrice: l.PurchasePrice,
			SalePrice:     l.SalePrice,
		})
	}
	return req
}

func (c *Cart) indexOf(itemID uint) int {
	for i, l := range c.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// String is used in log lines.
func (c *Cart) String() string {
	return fmt.Sprintf("cart(%d lines, %s)", len(c.lines), c.Subtotal().StringFixed(2))
}
