package hooks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/types/order"
)

// Point names an extension point in the order lifecycle.
type Point string

const (
	// UpdateTotal fires while the cart total is computed; listeners may
	// rewrite the running value.
	UpdateTotal Point = "updateTotal"
	// OnPlacement fires once when a cart is placed.
	OnPlacement Point = "onPlacement"
	// OnPayment fires once when an order is fully paid.
	OnPayment Point = "onPayment"
)

// Listener observes a lifecycle event. The returned value replaces the
// one passed in; listeners that only observe return it unchanged.
type Listener func(ctx context.Context, o *order.Order, v decimal.Decimal) decimal.Decimal

// Registry holds the listeners for each extension point. Registration
// happens during startup wiring; Fire folds the value through the
// listeners in registration order.
type Registry struct {
	listeners map[Point][]Listener
}

func NewRegistry() *Registry {
	return &Registry{listeners: make(map[Point][]Listener)}
}

func (r *Registry) Register(p Point, l Listener) {
	r.listeners[p] = append(r.listeners[p], l)
}

func (r *Registry) Fire(ctx context.Context, p Point, o *order.Order, v decimal.Decimal) decimal.Decimal {
	for _, l := range r.listeners[p] {
		v = l(ctx, o, v)
	}
	return v
}
