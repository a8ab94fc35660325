package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "Pending"
	StatusProcessing PaymentStatus = "Processing"
	StatusSuccess    PaymentStatus = "Success"
	StatusFailure    PaymentStatus = "Failure"
)

type Payment struct {
	ID         string          `db:"id" json:"id"`
	OrderID    int64           `db:"order_id" json:"-"`
	Method     string          `db:"method" json:"method"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Status     PaymentStatus   `db:"status" json:"status"`
	GatewayRef string          `db:"gateway_ref" json:"-"`
	ReturnURL  string          `db:"return_url" json:"-"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	SettledAt  *time.Time      `db:"settled_at" json:"settled_at,omitempty"`
}

// IsTerminal reports whether the gateway already reported a final
// outcome for this attempt.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailure
}
