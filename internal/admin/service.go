package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Row is the fixed read-only projection the admin list and CSV export
// share. There is no write path through this package except status
// progression, which goes through the order state machine.
type Row struct {
	Reference  string          `json:"reference"`
	PlacedAt   *time.Time      `json:"placed_at"`
	MemberName string          `json:"member_name"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
}

type OrderProjection interface {
	// ListPlacedOrders returns every order except carts and other
	// hidden statuses, newest first.
	ListPlacedOrders(ctx context.Context) ([]Row, error)
}

type Service struct {
	repo OrderProjection
}

func NewService(repo OrderProjection) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Row, error) {
	return s.repo.ListPlacedOrders(ctx)
}

// exportFields is the fixed CSV column set, in order.
var exportFields = []string{"Reference", "Placed", "Member", "Total", "Status"}

// ExportCSV streams the projection as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.ListPlacedOrders(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportFields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		placed := ""
		if row.PlacedAt != nil {
			placed = row.PlacedAt.UTC().Format(time.RFC3339)
		}
		record := []string{row.Reference, placed, row.MemberName, row.Total.StringFixed(2), row.Status}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
