package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/types/product"
)

type ProductRepository interface {
	FindProduct(ctx context.Context, id int64) (*product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
}

// Service exposes the buyable catalog: current prices for cart items
// and product listings for the storefront.
type Service struct {
	repo ProductRepository
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Find(ctx context.Context, id int64) (*product.Product, error) {
	return s.repo.FindProduct(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]product.Product, error) {
	return s.repo.ListProducts(ctx)
}

// SellingPrice implements the price source cart items defer to while
// the order is still editable.
func (s *Service) SellingPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	p, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.SellingPrice(), nil
}
