package modifier

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/types/attribute"
	"github.com/webtorque7/shop/internal/util/money"
)

// FlatTax charges a flat-rate sales tax on the running order total.
//
// Exclusive tax is added on top of the incoming amount (Chargable).
// Inclusive tax is already embedded in item prices, so the value is
// extracted for display only (Ignored) and never added again.
type FlatTax struct {
	name      string
	rate      decimal.Decimal
	exclusive bool
	precision int32
}

func NewFlatTax(name string, rate decimal.Decimal, exclusive bool, precision int32) *FlatTax {
	return &FlatTax{name: name, rate: rate, exclusive: exclusive, precision: precision}
}

func (t *FlatTax) Kind() string { return "tax" }

func (t *FlatTax) Rate() decimal.Decimal { return t.rate }

func (t *FlatTax) Inclusive() bool { return !t.exclusive }

func (t *FlatTax) Type() attribute.ModifierType {
	if t.exclusive {
		return attribute.Chargable
	}
	return attribute.Ignored
}

func (t *FlatTax) Value(incoming decimal.Decimal) decimal.Decimal {
	if t.exclusive {
		return incoming.Mul(t.rate)
	}
	// inclusive tax requires a different calculation: back the net
	// amount out of the gross and keep the difference
	one := decimal.NewFromInt(1)
	net := money.Round(incoming.Div(one.Add(t.rate)), t.precision)
	return incoming.Sub(net)
}

func (t *FlatTax) TableTitle() string {
	pct, _ := t.rate.Mul(decimal.NewFromInt(100)).Float64()
	title := fmt.Sprintf("%s @ %.2f%%", t.name, pct)
	if !t.exclusive {
		title += " (inclusive)"
	}
	return title
}
