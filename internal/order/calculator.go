package order

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/hooks"
	"github.com/webtorque7/shop/internal/modifier"
	"github.com/webtorque7/shop/internal/types/attribute"
	"github.com/webtorque7/shop/internal/types/order"
	"github.com/webtorque7/shop/internal/util/money"
)

// Calculator derives an order's total. While the order is a cart the
// total is recomputed from live prices on every call; once placed, the
// sealed value is returned untouched so historical invoices never move.
type Calculator struct {
	attrs     AttributeRepository
	prices    PriceSource
	chain     *modifier.Chain
	hooks     *hooks.Registry
	precision int32
}

func NewCalculator(attrs AttributeRepository, prices PriceSource, chain *modifier.Chain, registry *hooks.Registry, precision int32) *Calculator {
	return &Calculator{attrs: attrs, prices: prices, chain: chain, hooks: registry, precision: precision}
}

// Total returns the order total. Cart orders are recomputed and the
// per-attribute results persisted; anything else returns the sealed
// total.
func (c *Calculator) Total(ctx context.Context, o *order.Order) (decimal.Decimal, error) {
	if !o.IsCart() {
		return o.CalculatedTotal, nil
	}
	return c.calculate(ctx, o)
}

// calculate folds the attribute sequence left to right: items first,
// then the modifier rows in chain order, each seeing the cumulative
// value of everything before it.
func (c *Calculator) calculate(ctx context.Context, o *order.Order) (decimal.Decimal, error) {
	items, err := c.attrs.ListItems(ctx, o.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list items: %w", err)
	}
	mods, err := c.attrs.ListModifiers(ctx, o.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list modifiers: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Sort < items[j].Sort })
	sort.Slice(mods, func(i, j int) bool { return mods[i].Sort < mods[j].Sort })

	running := decimal.Zero
	for _, it := range items {
		// quantity never drops below 1 while in the cart
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		price, err := c.prices.SellingPrice(ctx, it.ProductID)
		if err != nil {
			// product gone from the catalog: keep the last known price
			price = it.UnitPrice
		}
		it.SetUnitPrice(price)
		it.CalculatedTotal = it.Total()
		if err := c.attrs.UpdateItem(ctx, it); err != nil {
			return decimal.Zero, fmt.Errorf("update item %d: %w", it.ID, err)
		}
		running = running.Add(it.CalculatedTotal)
	}

	for _, m := range mods {
		ev, ok := c.chain.ByKind(m.Kind)
		if !ok {
			return decimal.Zero, fmt.Errorf("no evaluator for modifier kind %q", m.Kind)
		}
		v := ev.Value(running)
		m.CalculatedTotal = v
		m.Name = ev.TableTitle()
		if err := c.attrs.UpdateModifier(ctx, m); err != nil {
			return decimal.Zero, fmt.Errorf("update modifier %d: %w", m.ID, err)
		}
		switch m.Type {
		case attribute.Chargable:
			running = running.Add(v)
		case attribute.Deducted:
			running = running.Sub(v)
		case attribute.Ignored:
		}
	}

	running = c.hooks.Fire(ctx, hooks.UpdateTotal, o, running)
	return money.Round(running, c.precision), nil
}
