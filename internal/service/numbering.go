package service

import (
	"context"
	"fmt"
	"time"

	"go-pos-ledger/internal/repository"
)

const billDateLayout = "20060102"

// BillNumberer hands out the next bill number for a calendar day.
type BillNumberer interface {
	Next(ctx context.Context, day time.Time) (string, error)
}

type dailyBillNumberer struct {
	sales repository.SaleRepository
}

func NewBillNumberer(sales repository.SaleRepository) BillNumberer {
	return &dailyBillNumberer{sales: sales}
}

// Next counts every sale ever numbered on day, soft-deleted ones included,
// so a number is never handed out twice. Two writers racing on the same
// number are caught by the unique index on bill_number.
func (n *dailyBillNumberer) Next(ctx context.Context, day time.Time) (string, error) {
	count, err := n.sales.CountByBillPrefix(ctx, day.Format(billDateLayout))
	if err != nil {
		return "", err
	}
	return FormatBillNumber(day, count+1), nil
}

// FormatBillNumber renders YYYYMMDD followed by a zero padded sequence of
// at least four digits.
func FormatBillNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%04d", day.Format(billDateLayout), seq)
}
