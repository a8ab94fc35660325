package attribute

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItemTotal(t *testing.T) {
	it := &Item{Quantity: 3}
	it.SetUnitPrice(decimal.NewFromFloat(9.95))
	assert.True(t, it.Total().Equal(decimal.NewFromFloat(29.85)))
}

func TestSetUnitPriceClampsNegative(t *testing.T) {
	it := &Item{Quantity: 1}
	it.SetUnitPrice(decimal.NewFromInt(-5))
	assert.True(t, it.UnitPrice.IsZero())
}

func TestItemTitles(t *testing.T) {
	it := &Item{}
	assert.Equal(t, "Order Item", it.TableTitle())
	assert.Equal(t, it.TableTitle(), it.CartTitle())
	assert.True(t, it.ShowInTable())

	it.Title = "Pinot Noir 2019"
	assert.Equal(t, "Pinot Noir 2019", it.TableTitle())
}

func TestUniqueDataKeyIsStable(t *testing.T) {
	a := UniqueData{"Colour": "red", "Size": "L"}
	b := UniqueData{"Size": "L", "Colour": "red"}
	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Matches(b))
}

func TestUniqueDataMismatch(t *testing.T) {
	a := UniqueData{"Colour": "red"}
	b := UniqueData{"Colour": "blue"}
	assert.False(t, a.Matches(b))
}

func TestParseKeyRoundTrip(t *testing.T) {
	u := UniqueData{"Colour": "red", "Size": "L"}
	parsed, err := ParseKey(u.Key())
	assert.NoError(t, err)
	assert.True(t, u.Matches(parsed))

	empty, err := ParseKey("")
	assert.NoError(t, err)
	assert.Len(t, empty, 0)
}
