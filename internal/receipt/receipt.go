package receipt

import (
	"context"

	"go.uber.org/zap"

	"github.com/webtorque7/shop/internal/types/order"
)

// Sender delivers order notifications to the purchaser. Template
// rendering and transport live outside this service; the default
// implementation records the send in the log.
type Sender interface {
	SendReceipt(ctx context.Context, o *order.Order) error
	SendCancellation(ctx context.Context, o *order.Order) error
}

type LogSender struct {
	log *zap.SugaredLogger
}

func NewLogSender(log *zap.SugaredLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendReceipt(ctx context.Context, o *order.Order) error {
	s.log.Infow("receipt sent", "order", o.Reference, "total", o.CalculatedTotal)
	return nil
}

func (s *LogSender) SendCancellation(ctx context.Context, o *order.Order) error {
	s.log.Infow("cancellation notice sent", "order", o.Reference)
	return nil
}
