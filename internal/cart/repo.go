package cart

import (
	"context"

	"github.com/webtorque7/shop/internal/types/attribute"
	"github.com/webtorque7/shop/internal/types/order"
	"github.com/webtorque7/shop/internal/types/product"
)

// CartRepository is the only write path for attribute rows. Attributes
// cannot be created or deleted through any other API surface.
type CartRepository interface {
	FindCartByMember(ctx context.Context, memberID int64) (*order.Order, error)
	CreateOrder(ctx context.Context, o *order.Order) error
	CreateItem(ctx context.Context, it *attribute.Item) error
	CreateModifiers(ctx context.Context, rows []*attribute.Modifier) error
	ListItems(ctx context.Context, orderID int64) ([]*attribute.Item, error)
	ListModifiers(ctx context.Context, orderID int64) ([]*attribute.Modifier, error)
	UpdateItem(ctx context.Context, it *attribute.Item) error
	DeleteItem(ctx context.Context, itemID int64) error
}

type ProductRepository interface {
	FindProduct(ctx context.Context, id int64) (*product.Product, error)
}
