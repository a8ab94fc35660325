package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/webtorque7/shop/internal/middleware"
	"github.com/webtorque7/shop/internal/types/order"
)

func TestHandlerGetOrder(t *testing.T) {
	o := &order.Order{ID: 1, Reference: "abc", MemberID: 42, Status: order.StatusPlaced, CalculatedTotal: decimal.NewFromInt(115)}
	repo := &mockOrderRepo{
		findOrderByReferenceFn: func(ctx context.Context, reference string) (*order.Order, error) {
			return o, nil
		},
	}
	svc := newTestService(t, repo, &mockSettled{sum: decimal.Zero}, &mockReceipts{}, Flags{AllowPaying: true, AllowCancelling: true})
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/abc", nil)
	req = req.WithContext(middleware.ContextWithMember(req.Context(), 42, "Jan"))

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"reference":"abc","status":"Placed","total":"115.00","paid":false,"can_pay":true,"can_cancel":true}`, w.Body.String())
}

func TestHandlerGetOrderPaid(t *testing.T) {
	o := &order.Order{ID: 1, Reference: "abc", MemberID: 42, Status: order.StatusShipped, CalculatedTotal: decimal.NewFromInt(115)}
	repo := &mockOrderRepo{
		findOrderByReferenceFn: func(ctx context.Context, reference string) (*order.Order, error) {
			return o, nil
		},
	}
	svc := newTestService(t, repo, &mockSettled{sum: decimal.NewFromInt(115)}, &mockReceipts{}, Flags{AllowPaying: true, AllowCancelling: true})
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/abc", nil)
	req = req.WithContext(middleware.ContextWithMember(req.Context(), 42, "Jan"))

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"reference":"abc","status":"Shipped","total":"115.00","paid":true,"can_pay":false,"can_cancel":false}`, w.Body.String())
}

func TestHandlerGetOrderHidesOtherMembers(t *testing.T) {
	o := &order.Order{ID: 1, Reference: "abc", MemberID: 42, Status: order.StatusPlaced}
	repo := &mockOrderRepo{
		findOrderByReferenceFn: func(ctx context.Context, reference string) (*order.Order, error) {
			return o, nil
		},
	}
	svc := newTestService(t, repo, &mockSettled{sum: decimal.Zero}, &mockReceipts{}, Flags{})
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/abc", nil)
	req = req.WithContext(middleware.ContextWithMember(req.Context(), 7, "Pat"))

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerCancelOrder(t *testing.T) {
	o := &order.Order{ID: 1, Reference: "abc", MemberID: 42, Status: order.StatusPlaced}
	repo := &mockOrderRepo{
		findOrderByReferenceFn: func(ctx context.Context, reference string) (*order.Order, error) {
			return o, nil
		},
		updateOrderStatusFn: func(ctx context.Context, orderID int64, to order.OrderStatus, cancelledBy *int64, allowedFrom []order.OrderStatus) (bool, error) {
			return true, nil
		},
	}
	receipts := &mockReceipts{}
	svc := newTestService(t, repo, &mockSettled{sum: decimal.Zero}, receipts, Flags{AllowCancelling: true})
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/abc/cancel", nil)
	req = req.WithContext(middleware.ContextWithMember(req.Context(), 42, "Jan"))

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, receipts.cancellations)
}

func TestHandlerCancelOrderDisabled(t *testing.T) {
	o := &order.Order{ID: 1, Reference: "abc", MemberID: 42, Status: order.StatusPlaced}
	repo := &mockOrderRepo{
		findOrderByReferenceFn: func(ctx context.Context, reference string) (*order.Order, error) {
			return o, nil
		},
	}
	svc := newTestService(t, repo, &mockSettled{sum: decimal.Zero}, &mockReceipts{}, Flags{})
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/abc/cancel", nil)
	req = req.WithContext(middleware.ContextWithMember(req.Context(), 42, "Jan"))

	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
