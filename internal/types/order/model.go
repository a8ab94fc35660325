package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCart            OrderStatus = "Cart"
	StatusPlaced          OrderStatus = "Placed"
	StatusAwaitingPayment OrderStatus = "AwaitingPayment"
	StatusPaid            OrderStatus = "Paid"
	StatusProcessing      OrderStatus = "Processing"
	StatusShipped         OrderStatus = "Shipped"
	StatusComplete        OrderStatus = "Complete"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusMemberCancelled OrderStatus = "MemberCancelled"
	StatusPaymentFailed   OrderStatus = "PaymentFailed"
)

type Order struct {
	ID              int64           `db:"id" json:"-"`
	Reference       string          `db:"reference" json:"reference"`
	MemberID        int64           `db:"member_id" json:"-"`
	MemberName      string          `db:"member_name" json:"-"`
	Status          OrderStatus     `db:"status" json:"status"`
	CalculatedTotal decimal.Decimal `db:"calculated_total" json:"total"`
	ReceiptSent     bool            `db:"receipt_sent" json:"-"`
	CancelledBy     *int64          `db:"cancelled_by" json:"-"`
	PlacedAt        *time.Time      `db:"placed_at" json:"placed_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// IsCart reports whether the order is still editable.
func (o *Order) IsCart() bool {
	return o.Status == StatusCart
}

// IsPaid reports whether payment has settled, i.e. the order reached
// Paid or any later fulfilment state.
func (o *Order) IsPaid() bool {
	switch o.Status {
	case StatusPaid, StatusProcessing, StatusShipped, StatusComplete:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case StatusComplete, StatusCancelled, StatusMemberCancelled, StatusPaymentFailed:
		return true
	}
	return false
}
