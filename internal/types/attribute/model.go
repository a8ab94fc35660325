package attribute

import (
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ModifierType controls whether a modifier's computed value changes the
// running order total.
type ModifierType string

const (
	// Chargable adds the computed value to the running total.
	Chargable ModifierType = "Chargable"
	// Deducted subtracts the computed value from the running total.
	Deducted ModifierType = "Deducted"
	// Ignored stores the computed value for display only. Used for tax
	// already embedded in item prices, so it is not counted twice.
	Ignored ModifierType = "Ignored"
)

// Attribute is a single row contributing to an order's total: either an
// Item or a Modifier. Attribute rows are never created or deleted
// directly; they only change through cart operations while the owning
// order is still a cart.
type Attribute interface {
	AttributeID() int64
	Calculated() decimal.Decimal
	TableTitle() string
	CartTitle() string
	ShowInTable() bool
}

var (
	_ Attribute = (*Item)(nil)
	_ Attribute = (*Modifier)(nil)
)

// Item is a product added to an order, ready for purchase.
type Item struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	Sort            int             `db:"sort"`
	ProductID       int64           `db:"product_id"`
	Quantity        int             `db:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	CalculatedTotal decimal.Decimal `db:"calculated_total"`
	Title           string          `db:"title"`
	Unique          UniqueData      `db:"unique_data"`
}

func (i *Item) AttributeID() int64          { return i.ID }
func (i *Item) Calculated() decimal.Decimal { return i.CalculatedTotal }
func (i *Item) ShowInTable() bool           { return true }

func (i *Item) TableTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return "Order Item"
}

func (i *Item) CartTitle() string { return i.TableTitle() }

// Total is the item's contribution at its current unit price.
func (i *Item) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SetUnitPrice stores the price, clamping negatives to zero.
func (i *Item) SetUnitPrice(p decimal.Decimal) {
	if p.IsNegative() {
		p = decimal.Zero
	}
	i.UnitPrice = p
}

// UniqueData is the reduced key an item is matched on when added to a
// cart: adding an item whose product and unique data equal an existing
// line's increments that line's quantity instead of inserting a new row.
type UniqueData map[string]string

// Key returns a stable serialisation usable as a comparison or URL key.
// Fields are sorted so two equal maps always produce the same key.
func (u UniqueData) Key() string {
	if len(u) == 0 {
		return ""
	}
	fields := make([]string, 0, len(u))
	for f := range u {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	for n, f := range fields {
		if n > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f)
		b.WriteByte('=')
		b.WriteString(u[f])
	}
	return b.String()
}

// Matches reports whether two projections are field-for-field equal.
func (u UniqueData) Matches(other UniqueData) bool {
	return u.Key() == other.Key()
}

// ParseKey rebuilds a projection from its Key serialisation.
func ParseKey(key string) (UniqueData, error) {
	if key == "" {
		return UniqueData{}, nil
	}
	values, err := url.ParseQuery(key)
	if err != nil {
		return nil, err
	}
	u := UniqueData{}
	for field := range values {
		u[field] = values.Get(field)
	}
	return u, nil
}

// Modifier is an order adjustment row such as tax, shipping or a
// discount. Its configuration is stored with the order so a placed
// order remains self-describing; the computed value lives in
// CalculatedTotal once sealed.
type Modifier struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	Sort            int             `db:"sort"`
	Kind            string          `db:"kind"`
	Type            ModifierType    `db:"type"`
	Name            string          `db:"name"`
	Rate            decimal.Decimal `db:"rate"`
	Inclusive       bool            `db:"inclusive"`
	CalculatedTotal decimal.Decimal `db:"calculated_total"`
}

func (m *Modifier) AttributeID() int64          { return m.ID }
func (m *Modifier) Calculated() decimal.Decimal { return m.CalculatedTotal }
func (m *Modifier) ShowInTable() bool           { return true }

func (m *Modifier) TableTitle() string {
	if m.Name != "" {
		return m.Name
	}
	return "Modifier"
}

func (m *Modifier) CartTitle() string { return m.TableTitle() }
