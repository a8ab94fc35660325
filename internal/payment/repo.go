package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/types/order"
	"github.com/webtorque7/shop/internal/types/payment"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *payment.Payment) error
	FindPayment(ctx context.Context, id string) (*payment.Payment, error)
	FindPaymentByGatewayRef(ctx context.Context, ref string) (*payment.Payment, error)
	UpdatePayment(ctx context.Context, id string, status payment.PaymentStatus, gatewayRef string, settledAt *time.Time) error
	SumSettled(ctx context.Context, orderID int64) (decimal.Decimal, error)
	ListProcessingPayments(ctx context.Context) ([]payment.Payment, error)
}

type OrderRepository interface {
	FindOrder(ctx context.Context, id int64) (*order.Order, error)
	// MarkOrderPaid is the compare-and-set completing payment: it moves
	// the order to Paid and records the receipt marker in one
	// statement, winning only when the current status is still
	// pre-payment. Returns false when the order was already settled.
	MarkOrderPaid(ctx context.Context, orderID int64, allowedFrom []order.OrderStatus) (bool, error)
}
