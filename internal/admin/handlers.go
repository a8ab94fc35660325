package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	orderSvc "github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/types/order"
)

type Handler struct {
	svc    *Service
	orders *orderSvc.Service
}

func NewHandler(svc *Service, orders *orderSvc.Service) *Handler {
	return &Handler{svc: svc, orders: orders}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/export", h.ExportOrders)
	r.Put("/orders/{reference}/status", h.UpdateStatus)
	return r
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	if err := h.svc.ExportCSV(r.Context(), w); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type statusRequest struct {
	Status order.OrderStatus `json:"status"`
}

// UpdateStatus drives fulfilment progression through the state
// machine; a disallowed transition is rejected and the order untouched.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Find(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.orders.SetStatus(r.Context(), o, req.Status)
	var stateErr *orderSvc.StateError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.As(err, &stateErr):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
