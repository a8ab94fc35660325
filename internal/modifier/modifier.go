package modifier

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/types/attribute"
)

// Evaluator computes one modifier's value against the running order
// total. Earlier entries in the chain have already been folded into the
// incoming amount, so placement in the chain decides e.g. whether a
// discount applies before or after tax.
type Evaluator interface {
	// Kind identifies the evaluator, e.g. "tax". Stored on the
	// modifier row so a placed order stays self-describing.
	Kind() string
	// Type reports how the computed value contributes to the total.
	Type() attribute.ModifierType
	// Value computes the modifier amount for the incoming cumulative
	// total.
	Value(incoming decimal.Decimal) decimal.Decimal
	// TableTitle is the display title, e.g. "GST @ 15.00%".
	TableTitle() string
}

// Rated is implemented by evaluators backed by a percentage rate, so
// the rate and its inclusive/exclusive mode can be stored on the
// modifier row alongside the computed value.
type Rated interface {
	Rate() decimal.Decimal
	Inclusive() bool
}

// Chain is the ordered list of modifiers applied to every order. The
// order is explicit and validated once at startup rather than inferred
// from registration sequence.
type Chain struct {
	evaluators []Evaluator
	byKind     map[string]Evaluator
}

// NewChain validates the declared modifier order: no empty or duplicate
// kinds.
func NewChain(evaluators ...Evaluator) (*Chain, error) {
	byKind := make(map[string]Evaluator, len(evaluators))
	for _, e := range evaluators {
		if e.Kind() == "" {
			return nil, fmt.Errorf("modifier chain: evaluator with empty kind")
		}
		if _, dup := byKind[e.Kind()]; dup {
			return nil, fmt.Errorf("modifier chain: duplicate kind %q", e.Kind())
		}
		byKind[e.Kind()] = e
	}
	return &Chain{evaluators: evaluators, byKind: byKind}, nil
}

// Evaluators returns the chain in application order.
func (c *Chain) Evaluators() []Evaluator {
	return c.evaluators
}

// ByKind resolves the evaluator for a stored modifier row.
func (c *Chain) ByKind(kind string) (Evaluator, bool) {
	e, ok := c.byKind[kind]
	return e, ok
}

// Rows builds the modifier attribute rows appended to a new cart, one
// per chain entry in chain order. Modifier rows sort among themselves;
// items always fold before modifiers.
func (c *Chain) Rows(orderID int64) []*attribute.Modifier {
	rows := make([]*attribute.Modifier, 0, len(c.evaluators))
	for n, e := range c.evaluators {
		row := &attribute.Modifier{
			OrderID: orderID,
			Sort:    n,
			Kind:    e.Kind(),
			Type:    e.Type(),
			Name:    e.TableTitle(),
		}
		if r, ok := e.(Rated); ok {
			row.Rate = r.Rate()
			row.Inclusive = r.Inclusive()
		}
		rows = append(rows, row)
	}
	return rows
}
