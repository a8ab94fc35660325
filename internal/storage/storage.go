package storage

import (
	"context"

	"github.com/webtorque7/shop/internal/admin"
	"github.com/webtorque7/shop/internal/cart"
	"github.com/webtorque7/shop/internal/catalog"
	"github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/payment"
	postgres "github.com/webtorque7/shop/internal/storage/postgres"
)

// Storage combines every repository the service needs. The concrete
// implementation lives in storage/postgres.
type Storage interface {
	order.OrderRepository
	order.AttributeRepository
	cart.CartRepository
	payment.PaymentRepository
	payment.OrderRepository
	catalog.ProductRepository
	admin.OrderProjection

	Ping(ctx context.Context) error
	Close() error
}

var _ Storage = (*postgres.PostgresStorage)(nil)
