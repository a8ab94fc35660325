package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/webtorque7/shop/internal/hooks"
	orderSvc "github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/types/order"
	"github.com/webtorque7/shop/internal/types/payment"
)

type mockPaymentRepo struct {
	payments map[string]*payment.Payment
	settled  decimal.Decimal
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[string]*payment.Payment), settled: decimal.Zero}
}

func (m *mockPaymentRepo) CreatePayment(ctx context.Context, p *payment.Payment) error {
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) FindPayment(ctx context.Context, id string) (*payment.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) FindPaymentByGatewayRef(ctx context.Context, ref string) (*payment.Payment, error) {
	for _, p := range m.payments {
		if p.GatewayRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockPaymentRepo) UpdatePayment(ctx context.Context, id string, status payment.PaymentStatus, gatewayRef string, settledAt *time.Time) error {
	p, ok := m.payments[id]
	if !ok {
		return errors.New("not found")
	}
	p.Status = status
	p.GatewayRef = gatewayRef
	p.SettledAt = settledAt
	return nil
}

func (m *mockPaymentRepo) SumSettled(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	return m.settled, nil
}

func (m *mockPaymentRepo) ListProcessingPayments(ctx context.Context) ([]payment.Payment, error) {
	var result []payment.Payment
	for _, p := range m.payments {
		if p.Status == payment.StatusProcessing {
			result = append(result, *p)
		}
	}
	return result, nil
}

type mockOrderStore struct {
	order *order.Order
	paid  bool
}

func (m *mockOrderStore) FindOrder(ctx context.Context, id int64) (*order.Order, error) {
	cp := *m.order
	return &cp, nil
}

// MarkOrderPaid mimics the database compare-and-set: only the first
// call from a pre-payment status wins.
func (m *mockOrderStore) MarkOrderPaid(ctx context.Context, orderID int64, allowedFrom []order.OrderStatus) (bool, error) {
	if m.paid {
		return false, nil
	}
	for _, st := range allowedFrom {
		if m.order.Status == st {
			m.paid = true
			m.order.Status = order.StatusPaid
			m.order.ReceiptSent = true
			return true, nil
		}
	}
	return false, nil
}

type mockOrderRepoForSvc struct {
	o *order.Order
}

func (m *mockOrderRepoForSvc) FindOrder(ctx context.Context, id int64) (*order.Order, error) {
	return m.o, nil
}
func (m *mockOrderRepoForSvc) FindOrderByReference(ctx context.Context, reference string) (*order.Order, error) {
	return m.o, nil
}
func (m *mockOrderRepoForSvc) ListOrdersByMember(ctx context.Context, memberID int64) ([]order.Order, error) {
	return nil, nil
}
func (m *mockOrderRepoForSvc) SealOrder(ctx context.Context, o *order.Order) (bool, error) {
	return true, nil
}
func (m *mockOrderRepoForSvc) UpdateOrderStatus(ctx context.Context, orderID int64, to order.OrderStatus, cancelledBy *int64, allowedFrom []order.OrderStatus) (bool, error) {
	return true, nil
}

type mockGateway struct {
	submitFn func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error)
	statusFn func(ctx context.Context, ref string) (*GatewayResponse, error)
}

func (m *mockGateway) Submit(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
	return m.submitFn(ctx, req)
}

func (m *mockGateway) Status(ctx context.Context, ref string) (*GatewayResponse, error) {
	return m.statusFn(ctx, ref)
}

type countingReceipts struct {
	receipts      int
	cancellations int
}

func (m *countingReceipts) SendReceipt(ctx context.Context, o *order.Order) error {
	m.receipts++
	return nil
}

func (m *countingReceipts) SendCancellation(ctx context.Context, o *order.Order) error {
	m.cancellations++
	return nil
}

func testCoordinator(t *testing.T, o *order.Order, gateway GatewayClient) (*Coordinator, *mockPaymentRepo, *mockOrderStore, *countingReceipts) {
	t.Helper()
	payments := newMockPaymentRepo()
	orders := &mockOrderStore{order: o}
	receipts := &countingReceipts{}

	svc := orderSvc.NewService(&mockOrderRepoForSvc{o: o}, nil, payments, hooks.NewRegistry(), receipts, orderSvc.Flags{AllowPaying: true, AllowCancelling: true})
	registry := NewMethodRegistry(map[string]string{"card": "Credit Card"})
	coord := NewCoordinator(payments, orders, svc, registry, gateway, receipts, hooks.NewRegistry(), zap.NewNop().Sugar())
	return coord, payments, orders, receipts
}

func TestCreatePaymentUnsupportedMethod(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	coord, payments, _, _ := testCoordinator(t, o, &mockGateway{})

	_, err := coord.CreatePayment(context.Background(), o, "bitcoin")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Empty(t, payments.payments)
}

func TestCreatePaymentRequiresPayableOrder(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusComplete, CalculatedTotal: decimal.NewFromInt(115)}
	coord, payments, _, _ := testCoordinator(t, o, &mockGateway{})

	_, err := coord.CreatePayment(context.Background(), o, "card")
	assert.ErrorIs(t, err, ErrCannotPay)
	assert.Empty(t, payments.payments)
}

func TestCreatePaymentBindsOutstandingAmount(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	coord, payments, _, _ := testCoordinator(t, o, &mockGateway{})
	payments.settled = decimal.NewFromInt(15)

	p, err := coord.CreatePayment(context.Background(), o, "card")
	assert.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, payment.StatusPending, p.Status)
}

func TestSubmitSuccessCompletesOrder(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	gateway := &mockGateway{
		submitFn: func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
			return &GatewayResponse{Status: GatewaySuccess, Ref: "gw-1"}, nil
		},
	}
	coord, _, orders, receipts := testCoordinator(t, o, gateway)

	p, err := coord.CreatePayment(context.Background(), o, "card")
	assert.NoError(t, err)

	result, err := coord.Submit(context.Background(), p, "/api/orders/x", nil)
	assert.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, result.Status)
	assert.True(t, orders.paid)
	assert.Equal(t, 1, receipts.receipts)
}

func TestSubmitFailureLeavesOrderUntouched(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	gateway := &mockGateway{
		submitFn: func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
			return &GatewayResponse{Status: GatewayFailure, Ref: "gw-1"}, nil
		},
	}
	coord, payments, orders, receipts := testCoordinator(t, o, gateway)

	p, err := coord.CreatePayment(context.Background(), o, "card")
	assert.NoError(t, err)

	_, err = coord.Submit(context.Background(), p, "/api/orders/x", nil)
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.False(t, orders.paid)
	assert.Equal(t, order.StatusPlaced, orders.order.Status)
	assert.Equal(t, 0, receipts.receipts)

	stored, err := payments.FindPayment(context.Background(), p.ID)
	assert.NoError(t, err)
	assert.Equal(t, payment.StatusFailure, stored.Status)
}

func TestSubmitGatewayErrorMarksPaymentFailed(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	gateway := &mockGateway{
		submitFn: func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	coord, payments, orders, _ := testCoordinator(t, o, gateway)

	p, err := coord.CreatePayment(context.Background(), o, "card")
	assert.NoError(t, err)

	_, err = coord.Submit(context.Background(), p, "/api/orders/x", nil)
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.False(t, orders.paid)

	stored, err := payments.FindPayment(context.Background(), p.ID)
	assert.NoError(t, err)
	assert.Equal(t, payment.StatusFailure, stored.Status)
}

func TestSubmitProcessingReturnsRedirect(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	gateway := &mockGateway{
		submitFn: func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
			return &GatewayResponse{Status: GatewayProcessing, Ref: "gw-1", RedirectURL: "https://gateway.example/redirect"}, nil
		},
	}
	coord, payments, orders, _ := testCoordinator(t, o, gateway)

	p, err := coord.CreatePayment(context.Background(), o, "card")
	assert.NoError(t, err)

	result, err := coord.Submit(context.Background(), p, "/api/orders/x", nil)
	assert.NoError(t, err)
	assert.Equal(t, payment.StatusProcessing, result.Status)
	assert.Equal(t, "https://gateway.example/redirect", result.RedirectURL)
	assert.False(t, orders.paid)

	// everything needed to resume is persisted
	stored, err := payments.FindPaymentByGatewayRef(context.Background(), "gw-1")
	assert.NoError(t, err)
	assert.Equal(t, payment.StatusProcessing, stored.Status)
}

func TestCompletePaymentIdempotent(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	coord, _, orders, receipts := testCoordinator(t, o, &mockGateway{})

	assert.NoError(t, coord.CompletePayment(context.Background(), o))
	assert.True(t, orders.paid)
	assert.Equal(t, 1, receipts.receipts)

	// duplicate notification: silent no-op, receipt not resent
	assert.NoError(t, coord.CompletePayment(context.Background(), o))
	assert.Equal(t, 1, receipts.receipts)
}

func TestOnPaymentHookFiresOnce(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	payments := newMockPaymentRepo()
	orders := &mockOrderStore{order: o}
	receipts := &countingReceipts{}
	registry := hooks.NewRegistry()
	fired := 0
	registry.Register(hooks.OnPayment, func(ctx context.Context, o *order.Order, v decimal.Decimal) decimal.Decimal {
		fired++
		return v
	})
	svc := orderSvc.NewService(&mockOrderRepoForSvc{o: o}, nil, payments, hooks.NewRegistry(), receipts, orderSvc.Flags{AllowPaying: true})
	coord := NewCoordinator(payments, orders, svc, NewMethodRegistry(map[string]string{"card": "Credit Card"}), &mockGateway{}, receipts, registry, zap.NewNop().Sugar())

	assert.NoError(t, coord.CompletePayment(context.Background(), o))
	assert.NoError(t, coord.CompletePayment(context.Background(), o))
	assert.Equal(t, 1, fired)
}

func TestResolveSuccessSettlesProcessingPayment(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	gateway := &mockGateway{
		submitFn: func(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error) {
			return &GatewayResponse{Status: GatewayProcessing, Ref: "gw-1"}, nil
		},
	}
	coord, payments, orders, receipts := testCoordinator(t, o, gateway)

	p, err := coord.CreatePayment(context.Background(), o, "card")
	assert.NoError(t, err)
	_, err = coord.Submit(context.Background(), p, "/api/orders/x", nil)
	assert.NoError(t, err)

	assert.NoError(t, coord.Resolve(context.Background(), "gw-1", GatewaySuccess))
	assert.True(t, orders.paid)
	assert.Equal(t, 1, receipts.receipts)

	stored, err := payments.FindPaymentByGatewayRef(context.Background(), "gw-1")
	assert.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, stored.Status)

	// duplicate delivery is a no-op
	assert.NoError(t, coord.Resolve(context.Background(), "gw-1", GatewaySuccess))
	assert.Equal(t, 1, receipts.receipts)
}

func TestResolveUnknownRef(t *testing.T) {
	o := &order.Order{ID: 1, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	coord, _, _, _ := testCoordinator(t, o, &mockGateway{})

	err := coord.Resolve(context.Background(), "no-such-ref", GatewaySuccess)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
