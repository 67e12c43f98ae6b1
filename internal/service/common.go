package service

import (
	"sort"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/ws"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time. The HTTP shell passes time.Now; tests
// pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// balanceTolerance is the largest absolute balance treated as settled.
var balanceTolerance = decimal.RequireFromString("0.01")

func isSettled(balance decimal.Decimal) bool {
	return balance.Abs().LessThanOrEqual(balanceTolerance)
}

func publisherOrDiscard(p ws.Publisher) ws.Publisher {
	if p == nil {
		return ws.Discard
	}
	return p
}

// StockLevel is the post-commit quantity of one touched item.
type StockLevel struct {
	ItemID   uint            `json:"item_id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// stockChanges remembers the latest state of every item an operation
// reserved from or released to.
type stockChanges map[uint]*model.Item

func (s stockChanges) record(item *model.Item) {
	if item != nil {
		s[item.ID] = item
	}
}

func (s stockChanges) levels() []StockLevel {
	out := make([]StockLevel, 0, len(s))
	for _, item := range s {
		out = append(out, StockLevel{ItemID: item.ID, Name: item.Name, Quantity: item.Quantity, Unit: item.Unit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func normalizeID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
