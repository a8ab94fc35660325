package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/modifier"
	"github.com/webtorque7/shop/internal/types/attribute"
	"github.com/webtorque7/shop/internal/types/order"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("item not in cart")
	// ErrNotEditable rejects attribute writes once the order has left
	// the cart state. Attributes on a placed order are frozen snapshots.
	ErrNotEditable = errors.New("order is no longer editable")
)

// buyableRelationship is the relationship name an item's buyable hangs
// off. When it appears in the required-fields list it is matched on its
// foreign key column.
const buyableRelationship = "Product"

// Service owns every cart mutation. Per-order locking serialises
// concurrent edits so quantity updates and duplicate matching never
// race.
type Service struct {
	repo     CartRepository
	products ProductRepository
	chain    *modifier.Chain
	required []string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService configures the cart. requiredFields is the list of item
// fields (beyond the buyable itself) that distinguish cart lines.
func NewService(repo CartRepository, products ProductRepository, chain *modifier.Chain, requiredFields []string) *Service {
	return &Service{
		repo:     repo,
		products: products,
		chain:    chain,
		required: requiredFields,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (s *Service) lockOrder(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// WithOrderLock runs fn while holding the order's mutation lock.
// Placement goes through this so sealing serialises with cart edits and
// no attribute row can slip in between the final total and the freeze.
func (s *Service) WithOrderLock(id int64, fn func() error) error {
	unlock := s.lockOrder(id)
	defer unlock()
	return fn()
}

// Current returns the member's open cart, creating one (with the
// configured modifier rows appended) when none exists.
func (s *Service) Current(ctx context.Context, memberID int64, memberName string) (*order.Order, error) {
	o, err := s.repo.FindCartByMember(ctx, memberID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	o = &order.Order{
		Reference:  uuid.NewString(),
		MemberID:   memberID,
		MemberName: memberName,
		Status:     order.StatusCart,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	if err := s.repo.CreateModifiers(ctx, s.chain.Rows(o.ID)); err != nil {
		return nil, fmt.Errorf("append modifiers: %w", err)
	}
	return o, nil
}

// UniqueData projects raw item data onto the configured required
// fields. Relationship names are matched on their foreign key column.
func (s *Service) UniqueData(data map[string]string) attribute.UniqueData {
	u := attribute.UniqueData{}
	for _, field := range s.required {
		key := field
		if field == buyableRelationship {
			key = field + "ID"
		}
		if v, ok := data[key]; ok && v != "" {
			u[key] = v
		}
	}
	return u
}

// AddItem adds quantity of a product to the cart. A line whose product
// and unique data already match has its quantity incremented instead of
// a second line being inserted.
func (s *Service) AddItem(ctx context.Context, o *order.Order, productID int64, quantity int, unique attribute.UniqueData) (*attribute.Item, error) {
	if quantity < 1 {
		quantity = 1
	}
	p, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	unlock := s.lockOrder(o.ID)
	defer unlock()
	if !o.IsCart() {
		return nil, ErrNotEditable
	}

	items, err := s.repo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ProductID == productID && it.Unique.Matches(unique) {
			it.Quantity += quantity
			it.SetUnitPrice(p.SellingPrice())
			it.CalculatedTotal = it.Total()
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return nil, err
			}
			return it, nil
		}
	}

	it := &attribute.Item{
		OrderID:   o.ID,
		Sort:      len(items),
		ProductID: productID,
		Quantity:  quantity,
		Title:     p.Title,
		Unique:    unique,
	}
	it.SetUnitPrice(p.SellingPrice())
	it.CalculatedTotal = it.Total()
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// SetQuantity sets a line's quantity, clamped to a minimum of 1.
func (s *Service) SetQuantity(ctx context.Context, o *order.Order, productID int64, unique attribute.UniqueData, quantity int) (*attribute.Item, error) {
	if quantity < 1 {
		quantity = 1
	}
	unlock := s.lockOrder(o.ID)
	defer unlock()
	if !o.IsCart() {
		return nil, ErrNotEditable
	}

	it, err := s.findLine(ctx, o.ID, productID, unique)
	if err != nil {
		return nil, err
	}
	it.Quantity = quantity
	it.CalculatedTotal = it.Total()
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// RemoveItem decrements a line by quantity, deleting it once it would
// drop below one.
func (s *Service) RemoveItem(ctx context.Context, o *order.Order, productID int64, unique attribute.UniqueData, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	unlock := s.lockOrder(o.ID)
	defer unlock()
	if !o.IsCart() {
		return ErrNotEditable
	}

	it, err := s.findLine(ctx, o.ID, productID, unique)
	if err != nil {
		return err
	}
	if it.Quantity-quantity < 1 {
		return s.repo.DeleteItem(ctx, it.ID)
	}
	it.Quantity -= quantity
	it.CalculatedTotal = it.Total()
	return s.repo.UpdateItem(ctx, it)
}

// RemoveAll deletes the whole line regardless of quantity.
func (s *Service) RemoveAll(ctx context.Context, o *order.Order, productID int64, unique attribute.UniqueData) error {
	unlock := s.lockOrder(o.ID)
	defer unlock()
	if !o.IsCart() {
		return ErrNotEditable
	}

	it, err := s.findLine(ctx, o.ID, productID, unique)
	if err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, it.ID)
}

func (s *Service) findLine(ctx context.Context, orderID, productID int64, unique attribute.UniqueData) (*attribute.Item, error) {
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ProductID == productID && it.Unique.Matches(unique) {
			return it, nil
		}
	}
	return nil, ErrItemNotFound
}

// Subtotal sums the item lines only, before any modifiers.
func (s *Service) Subtotal(items []*attribute.Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total())
	}
	return sum
}
