package order

import (
	"fmt"

	"github.com/webtorque7/shop/internal/types/order"
)

// StateError reports a transition that is not permitted from the
// current status. The order is left untouched.
type StateError struct {
	From order.OrderStatus
	To   order.OrderStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// transitions is the mandatory edge set. Cancellation branches are
// reachable from the pre-payment states only; fulfilment is a straight
// line once paid.
var transitions = map[order.OrderStatus][]order.OrderStatus{
	order.StatusCart:            {order.StatusPlaced, order.StatusCancelled},
	order.StatusPlaced:          {order.StatusAwaitingPayment, order.StatusPaid, order.StatusCancelled, order.StatusMemberCancelled, order.StatusPaymentFailed},
	order.StatusAwaitingPayment: {order.StatusPaid, order.StatusCancelled, order.StatusMemberCancelled, order.StatusPaymentFailed},
	order.StatusPaid:            {order.StatusProcessing},
	order.StatusProcessing:      {order.StatusShipped},
	order.StatusShipped:         {order.StatusComplete},
}

// CanTransition reports whether the edge from -> to exists.
func CanTransition(from, to order.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a StateError when the edge is not permitted.
func CheckTransition(from, to order.OrderStatus) error {
	if !CanTransition(from, to) {
		return &StateError{From: from, To: to}
	}
	return nil
}

// PrePaidStatuses are the states a successful payment may arrive in.
// The Paid compare-and-set only wins from one of these.
func PrePaidStatuses() []order.OrderStatus {
	return []order.OrderStatus{order.StatusPlaced, order.StatusAwaitingPayment}
}

// CancellableStatuses are the states a member may cancel from.
func CancellableStatuses() []order.OrderStatus {
	return []order.OrderStatus{order.StatusPlaced, order.StatusAwaitingPayment}
}

func statusIn(s order.OrderStatus, set []order.OrderStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
