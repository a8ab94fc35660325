package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/webtorque7/shop/internal/middleware"
	orderSvc "github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/types/attribute"
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
	r.Get("/", h.ViewCart)
	r.Post("/add/{productID}", h.AddItem)
	r.Post("/remove/{productID}", h.RemoveItem)
	r.Post("/removeall/{productID}", h.RemoveAllItem)
	r.Post("/setquantity/{productID}", h.SetQuantity)
	r.Post("/checkout", h.Checkout)
	return r
}

type lineView struct {
	Title           string `json:"title"`
	Quantity        int    `json:"quantity,omitempty"`
	UnitPrice       string `json:"unit_price,omitempty"`
	Total           string `json:"total"`
	AddLink         string `json:"add_link,omitempty"`
	RemoveLink      string `json:"remove_link,omitempty"`
	RemoveAllLink   string `json:"remove_all_link,omitempty"`
	SetQuantityLink string `json:"set_quantity_link,omitempty"`
}

type cartView struct {
	Reference string     `json:"reference"`
	Items     []lineView `json:"items"`
	Modifiers []lineView `json:"modifiers"`
	Subtotal  string     `json:"subtotal"`
	Total     string     `json:"total"`
}

// modifierLine renders any attribute row that only shows a title and a
// computed value.
func modifierLine(a attribute.Attribute) lineView {
	return lineView{
		Title: a.TableTitle(),
		Total: a.Calculated().StringFixed(2),
	}
}

func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	o, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	total, err := h.orders.Total(r.Context(), o)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	items, err := h.svc.repo.ListItems(r.Context(), o.ID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	mods, err := h.svc.repo.ListModifiers(r.Context(), o.ID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view := cartView{
		Reference: o.Reference,
		Subtotal:  h.svc.Subtotal(items).StringFixed(2),
		Total:     total.StringFixed(2),
		Items:     []lineView{},
		Modifiers: []lineView{},
	}
	for _, it := range items {
		view.Items = append(view.Items, lineView{
			Title:           it.CartTitle(),
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice.StringFixed(2),
			Total:           it.Total().StringFixed(2),
			AddLink:         AddItemLink(it.ProductID, it.Unique),
			RemoveLink:      RemoveItemLink(it.ProductID, it.Unique),
			RemoveAllLink:   RemoveAllItemLink(it.ProductID, it.Unique),
			SetQuantityLink: SetQuantityItemLink(it.ProductID, it.Unique),
		})
	}
	for _, m := range mods {
		if !m.ShowInTable() {
			continue
		}
		view.Modifiers = append(view.Modifiers, modifierLine(m))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	o, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	productID, unique, ok := h.lineKey(w, r)
	if !ok {
		return
	}
	quantity := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "invalid quantity", http.StatusBadRequest)
			return
		}
		quantity = n
	}
	if _, err := h.svc.AddItem(r.Context(), o, productID, quantity, unique); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	o, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	productID, unique, ok := h.lineKey(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(r.Context(), o, productID, unique, 1); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) RemoveAllItem(w http.ResponseWriter, r *http.Request) {
	o, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	productID, unique, ok := h.lineKey(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveAll(r.Context(), o, productID, unique); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	o, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	productID, unique, ok := h.lineKey(w, r)
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}
	if _, err := h.svc.SetQuantity(r.Context(), o, productID, unique, quantity); err != nil {
		h.writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Checkout places the cart: totals are sealed and the order stops being
// editable.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	err := h.svc.WithOrderLock(o.ID, func() error {
		return h.orders.Place(r.Context(), o)
	})
	if err != nil {
		var stateErr *orderSvc.StateError
		if errors.As(err, &stateErr) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"reference": o.Reference, "status": string(order.StatusPlaced)})
}

func (h *Handler) currentCart(w http.ResponseWriter, r *http.Request) (*order.Order, bool) {
	memberID := middleware.MemberIDFromContext(r.Context())
	memberName := middleware.MemberNameFromContext(r.Context())
	o, err := h.svc.Current(r.Context(), memberID, memberName)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return o, true
}

func (h *Handler) lineKey(w http.ResponseWriter, r *http.Request) (int64, attribute.UniqueData, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return 0, nil, false
	}
	raw, err := ParseUnique(r.URL.Query().Get("unique"))
	if err != nil {
		http.Error(w, "invalid unique data", http.StatusBadRequest)
		return 0, nil, false
	}
	return productID, h.svc.UniqueData(raw), true
}

func (h *Handler) writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotEditable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
