package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/hooks"
	"github.com/webtorque7/shop/internal/receipt"
	"github.com/webtorque7/shop/internal/types/order"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrStillCart          = errors.New("order is still a cart")
	ErrCancellingDisabled = errors.New("cancelling orders is disabled")
	ErrPayingDisabled     = errors.New("paying orders is disabled")
)

// Flags are the feature switches governing member actions on placed
// orders.
type Flags struct {
	AllowPaying     bool
	AllowCancelling bool
}

type Service struct {
	repo     OrderRepository
	calc     *Calculator
	settled  SettledFunds
	hooks    *hooks.Registry
	receipts receipt.Sender
	flags    Flags
}

func NewService(repo OrderRepository, calc *Calculator, settled SettledFunds, registry *hooks.Registry, receipts receipt.Sender, flags Flags) *Service {
	return &Service{repo: repo, calc: calc, settled: settled, hooks: registry, receipts: receipts, flags: flags}
}

func (s *Service) Find(ctx context.Context, reference string) (*order.Order, error) {
	return s.repo.FindOrderByReference(ctx, reference)
}

// Total returns the live or sealed total depending on order state.
func (s *Service) Total(ctx context.Context, o *order.Order) (decimal.Decimal, error) {
	return s.calc.Total(ctx, o)
}

// Outstanding is the sealed total minus amounts already settled.
func (s *Service) Outstanding(ctx context.Context, o *order.Order) (decimal.Decimal, error) {
	if o.IsCart() {
		return decimal.Zero, ErrStillCart
	}
	paid, err := s.settled.SumSettled(ctx, o.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return o.CalculatedTotal.Sub(paid), nil
}

// CanPay reports whether a payment may be started: a payable state, a
// positive outstanding balance, and the feature flag on.
func (s *Service) CanPay(ctx context.Context, o *order.Order) (bool, error) {
	if !s.flags.AllowPaying {
		return false, nil
	}
	if !statusIn(o.Status, PrePaidStatuses()) {
		return false, nil
	}
	outstanding, err := s.Outstanding(ctx, o)
	if err != nil {
		return false, err
	}
	return outstanding.IsPositive(), nil
}

// CanCancel reports whether the member may still cancel, independent of
// whether payment is possible.
func (s *Service) CanCancel(o *order.Order) bool {
	return s.flags.AllowCancelling && statusIn(o.Status, CancellableStatuses())
}

// Place seals a cart: the live total is computed one final time, every
// attribute's contribution is frozen, and the order moves to Placed in
// the same transaction. After this nothing recomputes.
func (s *Service) Place(ctx context.Context, o *order.Order) error {
	if err := CheckTransition(o.Status, order.StatusPlaced); err != nil {
		return err
	}
	total, err := s.calc.Total(ctx, o)
	if err != nil {
		return fmt.Errorf("compute total: %w", err)
	}

	prev := o.Status
	now := time.Now().UTC()
	o.CalculatedTotal = total
	o.Status = order.StatusPlaced
	o.PlacedAt = &now

	sealed, err := s.repo.SealOrder(ctx, o)
	if err != nil {
		return fmt.Errorf("seal order: %w", err)
	}
	if !sealed {
		// someone else placed or cancelled it first
		return &StateError{From: prev, To: order.StatusPlaced}
	}
	s.hooks.Fire(ctx, hooks.OnPlacement, o, total)
	return nil
}

// Cancel moves the order to MemberCancelled, recording who cancelled.
func (s *Service) Cancel(ctx context.Context, o *order.Order, memberID int64) error {
	if !s.flags.AllowCancelling {
		return ErrCancellingDisabled
	}
	if !statusIn(o.Status, CancellableStatuses()) {
		return &StateError{From: o.Status, To: order.StatusMemberCancelled}
	}
	moved, err := s.repo.UpdateOrderStatus(ctx, o.ID, order.StatusMemberCancelled, &memberID, CancellableStatuses())
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !moved {
		return &StateError{From: o.Status, To: order.StatusMemberCancelled}
	}
	o.Status = order.StatusMemberCancelled
	o.CancelledBy = &memberID
	if err := s.receipts.SendCancellation(ctx, o); err != nil {
		return nil // notification failure never unwinds the cancellation
	}
	return nil
}

// SetStatus drives fulfilment transitions (Paid -> Processing ->
// Shipped -> Complete, or a payment-failure branch) through the
// transition table. Used by the admin surface, never by members.
func (s *Service) SetStatus(ctx context.Context, o *order.Order, to order.OrderStatus) error {
	if err := CheckTransition(o.Status, to); err != nil {
		return err
	}
	moved, err := s.repo.UpdateOrderStatus(ctx, o.ID, to, nil, []order.OrderStatus{o.Status})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !moved {
		return &StateError{From: o.Status, To: to}
	}
	o.Status = to
	return nil
}
