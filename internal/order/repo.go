package order

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/types/attribute"
	"github.com/webtorque7/shop/internal/types/order"
)

type OrderRepository interface {
	FindOrder(ctx context.Context, id int64) (*order.Order, error)
	FindOrderByReference(ctx context.Context, reference string) (*order.Order, error)
	ListOrdersByMember(ctx context.Context, memberID int64) ([]order.Order, error)
	// SealOrder commits the Cart -> Placed transition: status, sealed
	// total, placement time and every attribute's frozen total in one
	// transaction, guarded on the order still being a cart. Returns
	// false when the guard fails.
	SealOrder(ctx context.Context, o *order.Order) (bool, error)
	// UpdateOrderStatus moves the order to the given status, guarded on
	// the current status still being one of allowedFrom. Returns false
	// when the guard fails.
	UpdateOrderStatus(ctx context.Context, orderID int64, to order.OrderStatus, cancelledBy *int64, allowedFrom []order.OrderStatus) (bool, error)
}

type AttributeRepository interface {
	ListItems(ctx context.Context, orderID int64) ([]*attribute.Item, error)
	ListModifiers(ctx context.Context, orderID int64) ([]*attribute.Modifier, error)
	UpdateItem(ctx context.Context, it *attribute.Item) error
	UpdateModifier(ctx context.Context, m *attribute.Modifier) error
}

// PriceSource resolves the current selling price of a buyable. Cart
// items always re-derive their unit price through it.
type PriceSource interface {
	SellingPrice(ctx context.Context, productID int64) (decimal.Decimal, error)
}

// SettledFunds reports how much has already been successfully paid
// toward an order.
type SettledFunds interface {
	SumSettled(ctx context.Context, orderID int64) (decimal.Decimal, error)
}
