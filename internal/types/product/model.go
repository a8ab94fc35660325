package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a buyable: the catalog entity an order item references for
// live pricing while the order is still a cart.
type Product struct {
	ID        int64           `db:"id" json:"id"`
	Title     string          `db:"title" json:"title"`
	Price     decimal.Decimal `db:"price" json:"price"`
	ImageURL  string          `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"-"`
}

// SellingPrice is the current price used for cart items.
func (p *Product) SellingPrice() decimal.Decimal {
	return p.Price
}

// Image returns the product image location, empty if none.
func (p *Product) Image() string {
	return p.ImageURL
}
