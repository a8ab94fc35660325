package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/webtorque7/shop/internal/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListOrders)
	r.Get("/{reference}", h.GetOrder)
	r.Post("/{reference}/cancel", h.CancelOrder)
	return r
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberIDFromContext(r.Context())
	orders, err := h.svc.repo.ListOrdersByMember(r.Context(), memberID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

type orderView struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Total     string `json:"total"`
	Paid      bool   `json:"paid"`
	CanPay    bool   `json:"can_pay"`
	CanCancel bool   `json:"can_cancel"`
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberIDFromContext(r.Context())
	o, err := h.svc.Find(r.Context(), chi.URLParam(r, "reference"))
	if err != nil || o.MemberID != memberID {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	total, err := h.svc.Total(r.Context(), o)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	canPay, err := h.svc.CanPay(r.Context(), o)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	view := orderView{
		Reference: o.Reference,
		Status:    string(o.Status),
		Total:     total.StringFixed(2),
		Paid:      o.IsPaid(),
		CanPay:    canPay,
		CanCancel: h.svc.CanCancel(o),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberIDFromContext(r.Context())
	o, err := h.svc.Find(r.Context(), chi.URLParam(r, "reference"))
	if err != nil || o.MemberID != memberID {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	err = h.svc.Cancel(r.Context(), o, memberID)
	var stateErr *StateError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, ErrCancellingDisabled):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &stateErr):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
