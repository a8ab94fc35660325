package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/webtorque7/shop/internal/middleware"
	"github.com/webtorque7/shop/internal/types/payment"
)

type Handler struct {
	coord *Coordinator
}

func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

// MemberRoutes are mounted behind member auth.
func (h *Handler) MemberRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/methods", h.ListMethods)
	r.Get("/status/{paymentID}", h.PaymentStatus)
	r.Post("/{reference}", h.PayOrder)
	return r
}

// NotifyRoutes carry the gateway's out-of-band notifications; the
// gateway authenticates by reference, not member token.
func (h *Handler) NotifyRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/notify/{ref}", h.Notify)
	return r
}

type methodView struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	views := []methodView{}
	for _, code := range h.coord.registry.List() {
		views = append(views, methodView{Code: code, Title: h.coord.registry.Title(code)})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

type payRequest struct {
	Method string            `json:"method"`
	Form   map[string]string `json:"form,omitempty"`
}

type payResponse struct {
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// PayOrder creates and submits a payment for the outstanding balance.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberIDFromContext(r.Context())
	o, err := h.coord.svc.Find(r.Context(), chi.URLParam(r, "reference"))
	if err != nil || o.MemberID != memberID {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.coord.CreatePayment(r.Context(), o, req.Method)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupportedMethod):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, ErrCannotPay):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	returnURL := fmt.Sprintf("/api/orders/%s", o.Reference)
	result, err := h.coord.Submit(r.Context(), p, returnURL, req.Form)
	if err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := payResponse{PaymentID: p.ID, Status: string(result.Status)}
	if result.Status == payment.StatusProcessing {
		resp.RedirectURL = result.RedirectURL
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// PaymentStatus lets the member poll an attempt that suspended at the
// gateway.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberIDFromContext(r.Context())
	p, err := h.coord.FindPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	}
	o, err := h.coord.orders.FindOrder(r.Context(), p.OrderID)
	if err != nil || o.MemberID != memberID {
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payResponse{PaymentID: p.ID, Status: string(p.Status)})
}

type notifyRequest struct {
	Status GatewayStatus `json:"status"`
}

// Notify is the inbound notification endpoint for Processing payments.
// Duplicate deliveries respond 200 without re-firing anything.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := h.coord.Resolve(r.Context(), chi.URLParam(r, "ref"), req.Status)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
