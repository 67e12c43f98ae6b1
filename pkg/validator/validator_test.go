package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ItemID   uint            `validate:"required"`
	Quantity decimal.Decimal `validate:"gt=0"`
	Price    decimal.Decimal `validate:"gte=0"`
}

func TestValidateStructDecimalRules(t *testing.T) {
	errs := ValidateStruct(&line{ItemID: 1, Quantity: decimal.NewFromFloat(0.5), Price: decimal.Zero})
	assert.Empty(t, errs)

	errs = ValidateStruct(&line{ItemID: 1, Quantity: decimal.Zero, Price: decimal.NewFromInt(-1)})
	require.Len(t, errs, 2)
	assert.Equal(t, "line.Quantity", errs[0].FailedField)
	assert.Equal(t, "gt", errs[0].Tag)
	assert.Equal(t, "line.Price", errs[1].FailedField)
	assert.Equal(t, "gte", errs[1].Tag)
}

func TestValidateStructRequired(t *testing.T) {
	errs := ValidateStruct(&line{Quantity: decimal.NewFromInt(1)})
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Tag)
}
