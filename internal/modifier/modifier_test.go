package modifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/webtorque7/shop/internal/types/attribute"
)

func TestFlatTaxExclusive(t *testing.T) {
	tax := NewFlatTax("GST", decimal.NewFromFloat(0.15), true, 2)

	v := tax.Value(decimal.NewFromInt(100))
	assert.True(t, v.Equal(decimal.NewFromInt(15)), "expected 15, got %s", v)
	assert.Equal(t, attribute.Chargable, tax.Type())
}

func TestFlatTaxInclusive(t *testing.T) {
	tax := NewFlatTax("GST", decimal.NewFromFloat(0.15), false, 2)

	// 115 - round(115/1.15, 2) = 115 - 100 = 15
	v := tax.Value(decimal.NewFromInt(115))
	assert.True(t, v.Equal(decimal.NewFromInt(15)), "expected 15, got %s", v)
	assert.Equal(t, attribute.Ignored, tax.Type())
}

func TestFlatTaxInclusiveRounding(t *testing.T) {
	tax := NewFlatTax("GST", decimal.NewFromFloat(0.15), false, 2)

	// 99.99 / 1.15 = 86.9478... -> 86.95
	v := tax.Value(decimal.NewFromFloat(99.99))
	assert.True(t, v.Equal(decimal.NewFromFloat(13.04)), "expected 13.04, got %s", v)
}

func TestFlatTaxTitle(t *testing.T) {
	exclusive := NewFlatTax("GST", decimal.NewFromFloat(0.15), true, 2)
	assert.Equal(t, "GST @ 15.00%", exclusive.TableTitle())

	inclusive := NewFlatTax("GST", decimal.NewFromFloat(0.15), false, 2)
	assert.Equal(t, "GST @ 15.00% (inclusive)", inclusive.TableTitle())
}

func TestNewChainRejectsDuplicateKinds(t *testing.T) {
	_, err := NewChain(
		NewFlatTax("GST", decimal.NewFromFloat(0.15), true, 2),
		NewFlatTax("VAT", decimal.NewFromFloat(0.20), true, 2),
	)
	assert.Error(t, err)
}

func TestChainRows(t *testing.T) {
	chain, err := NewChain(NewFlatTax("GST", decimal.NewFromFloat(0.15), false, 2))
	assert.NoError(t, err)

	rows := chain.Rows(42)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].OrderID)
	assert.Equal(t, "tax", rows[0].Kind)
	assert.Equal(t, attribute.Ignored, rows[0].Type)
	assert.True(t, rows[0].Rate.Equal(decimal.NewFromFloat(0.15)), "expected rate 0.15, got %s", rows[0].Rate)
	assert.True(t, rows[0].Inclusive)
}

func TestChainRowsExclusiveRate(t *testing.T) {
	chain, err := NewChain(NewFlatTax("GST", decimal.NewFromFloat(0.15), true, 2))
	assert.NoError(t, err)

	rows := chain.Rows(7)
	assert.True(t, rows[0].Rate.Equal(decimal.NewFromFloat(0.15)))
	assert.False(t, rows[0].Inclusive)
}
