package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/webtorque7/shop/internal/hooks"
	orderSvc "github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/receipt"
	"github.com/webtorque7/shop/internal/types/order"
	"github.com/webtorque7/shop/internal/types/payment"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrCannotPay         = errors.New("order cannot be paid")
	ErrPaymentNotFound   = errors.New("payment not found")
	// ErrPaymentDeclined is the user-facing gateway failure: the
	// payment is marked failed, the order stays where it was.
	ErrPaymentDeclined = errors.New("payment was declined")
)

// Coordinator bridges an order's outstanding balance to the external
// gateway and drives the lifecycle transition on settlement. It holds
// no in-memory continuation: a Processing attempt is resumed later
// purely from the persisted payment row.
type Coordinator struct {
	payments PaymentRepository
	orders   OrderRepository
	svc      *orderSvc.Service
	registry *MethodRegistry
	gateway  GatewayClient
	receipts receipt.Sender
	hooks    *hooks.Registry
	log      *zap.SugaredLogger
}

func NewCoordinator(
	payments PaymentRepository,
	orders OrderRepository,
	svc *orderSvc.Service,
	registry *MethodRegistry,
	gateway GatewayClient,
	receipts receipt.Sender,
	registryHooks *hooks.Registry,
	log *zap.SugaredLogger,
) *Coordinator {
	return &Coordinator{
		payments: payments,
		orders:   orders,
		svc:      svc,
		registry: registry,
		gateway:  gateway,
		receipts: receipts,
		hooks:    registryHooks,
		log:      log,
	}
}

// CreatePayment validates the method and the order's payability, then
// binds a pending payment at the current outstanding amount. Nothing is
// written when validation fails.
func (c *Coordinator) CreatePayment(ctx context.Context, o *order.Order, method string) (*payment.Payment, error) {
	if !c.registry.Has(method) {
		return nil, ErrUnsupportedMethod
	}
	canPay, err := c.svc.CanPay(ctx, o)
	if err != nil {
		return nil, err
	}
	if !canPay {
		return nil, ErrCannotPay
	}
	outstanding, err := c.svc.Outstanding(ctx, o)
	if err != nil {
		return nil, err
	}
	p := &payment.Payment{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		Method:    method,
		Amount:    outstanding,
		Status:    payment.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.payments.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

// SubmitResult is what the caller needs after an attempt: a redirect
// target when the gateway suspended the flow, nothing otherwise.
type SubmitResult struct {
	Status      payment.PaymentStatus
	RedirectURL string
}

// Submit hands the payment to the gateway and settles the outcome.
func (c *Coordinator) Submit(ctx context.Context, p *payment.Payment, returnURL string, form map[string]string) (*SubmitResult, error) {
	o, err := c.orders.FindOrder(ctx, p.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	resp, err := c.gateway.Submit(ctx, &GatewayRequest{
		Method:    p.Method,
		Amount:    p.Amount,
		Reference: p.ID,
		ReturnURL: returnURL,
		Form:      form,
	})
	if err != nil {
		// processor unreachable: the attempt failed, the order is untouched
		if uerr := c.markPayment(ctx, p, payment.StatusFailure, "", true); uerr != nil {
			c.log.Errorw("mark payment failed", "payment", p.ID, "error", uerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}

	switch resp.Status {
	case GatewaySuccess:
		if err := c.markPayment(ctx, p, payment.StatusSuccess, resp.Ref, true); err != nil {
			return nil, err
		}
		if err := c.CompletePayment(ctx, o); err != nil {
			return nil, err
		}
		return &SubmitResult{Status: payment.StatusSuccess}, nil
	case GatewayProcessing:
		if err := c.markPayment(ctx, p, payment.StatusProcessing, resp.Ref, false); err != nil {
			return nil, err
		}
		return &SubmitResult{Status: payment.StatusProcessing, RedirectURL: resp.RedirectURL}, nil
	default:
		if err := c.markPayment(ctx, p, payment.StatusFailure, resp.Ref, true); err != nil {
			return nil, err
		}
		return nil, ErrPaymentDeclined
	}
}

// CompletePayment moves the order to Paid and fires the receipt and
// payment hooks exactly once. A duplicate call for an already settled
// order is a silent no-op: the compare-and-set loses and nothing fires
// again.
func (c *Coordinator) CompletePayment(ctx context.Context, o *order.Order) error {
	won, err := c.orders.MarkOrderPaid(ctx, o.ID, orderSvc.PrePaidStatuses())
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !won {
		c.log.Debugw("payment already completed", "order", o.Reference)
		return nil
	}
	o.Status = order.StatusPaid
	o.ReceiptSent = true
	if err := c.receipts.SendReceipt(ctx, o); err != nil {
		c.log.Errorw("send receipt", "order", o.Reference, "error", err)
	}
	c.hooks.Fire(ctx, hooks.OnPayment, o, decimal.Zero)
	c.log.Infow("order paid", "order", o.Reference)
	return nil
}

// Resolve settles a Processing payment from an out-of-band
// notification or a poll result. Duplicate deliveries are no-ops.
func (c *Coordinator) Resolve(ctx context.Context, gatewayRef string, status GatewayStatus) error {
	p, err := c.payments.FindPaymentByGatewayRef(ctx, gatewayRef)
	if err != nil {
		return ErrPaymentNotFound
	}
	if p.IsTerminal() {
		return nil
	}
	switch status {
	case GatewaySuccess:
		if err := c.markPayment(ctx, p, payment.StatusSuccess, gatewayRef, true); err != nil {
			return err
		}
		o, err := c.orders.FindOrder(ctx, p.OrderID)
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		return c.CompletePayment(ctx, o)
	case GatewayFailure:
		return c.markPayment(ctx, p, payment.StatusFailure, gatewayRef, true)
	default:
		// still processing, nothing to do
		return nil
	}
}

func (c *Coordinator) FindPayment(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := c.payments.FindPayment(ctx, id)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (c *Coordinator) markPayment(ctx context.Context, p *payment.Payment, status payment.PaymentStatus, ref string, settled bool) error {
	var settledAt *time.Time
	if settled {
		now := time.Now().UTC()
		settledAt = &now
	}
	if ref == "" {
		ref = p.GatewayRef
	}
	if err := c.payments.UpdatePayment(ctx, p.ID, status, ref, settledAt); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	p.Status = status
	p.GatewayRef = ref
	p.SettledAt = settledAt
	return nil
}
