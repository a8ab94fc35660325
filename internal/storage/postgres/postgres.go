package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtorque7/shop/internal/admin"
	"github.com/webtorque7/shop/internal/types/attribute"
	"github.com/webtorque7/shop/internal/types/order"
	"github.com/webtorque7/shop/internal/types/payment"
	"github.com/webtorque7/shop/internal/types/product"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
            id SERIAL PRIMARY KEY,
            title TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL,
            image_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            reference TEXT UNIQUE NOT NULL,
            member_id BIGINT NOT NULL,
            member_name TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            calculated_total NUMERIC(12,2) NOT NULL DEFAULT 0,
            receipt_sent BOOLEAN NOT NULL DEFAULT FALSE,
            cancelled_by BIGINT,
            placed_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS order_attributes (
            id SERIAL PRIMARY KEY,
            order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            variant TEXT NOT NULL,
            sort INT NOT NULL DEFAULT 0,
            product_id BIGINT,
            quantity INT,
            unit_price NUMERIC(12,2),
            title TEXT NOT NULL DEFAULT '',
            unique_data TEXT NOT NULL DEFAULT '',
            kind TEXT,
            type TEXT,
            name TEXT,
            rate NUMERIC(8,4),
            inclusive BOOLEAN,
            calculated_total NUMERIC(12,2) NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id TEXT PRIMARY KEY,
            order_id INT NOT NULL REFERENCES orders(id),
            method TEXT NOT NULL,
            amount NUMERIC(12,2) NOT NULL,
            status TEXT NOT NULL,
            gateway_ref TEXT NOT NULL DEFAULT '',
            return_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL,
            settled_at TIMESTAMPTZ
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// ---- orders ----

const orderColumns = `id, reference, member_id, member_name, status, calculated_total, receipt_sent, cancelled_by, placed_at, created_at`

func scanOrder(row *sql.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.Reference, &o.MemberID, &o.MemberName, &o.Status,
		&o.CalculatedTotal, &o.ReceiptSent, &o.CancelledBy, &o.PlacedAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	q := `
        INSERT INTO orders (reference, member_id, member_name, status, calculated_total, created_at)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		o.Reference, o.MemberID, o.MemberName, o.Status, o.CalculatedTotal, o.CreatedAt,
	).Scan(&o.ID)
}

func (s *PostgresStorage) FindOrder(ctx context.Context, id int64) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStorage) FindOrderByReference(ctx context.Context, reference string) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE reference = $1`
	return scanOrder(s.db.QueryRowContext(ctx, q, reference))
}

func (s *PostgresStorage) FindCartByMember(ctx context.Context, memberID int64) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE member_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`
	return scanOrder(s.db.QueryRowContext(ctx, q, memberID, order.StatusCart))
}

func (s *PostgresStorage) ListOrdersByMember(ctx context.Context, memberID int64) ([]order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE member_id = $1 AND status <> $2 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, memberID, order.StatusCart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.MemberID, &o.MemberName, &o.Status,
			&o.CalculatedTotal, &o.ReceiptSent, &o.CancelledBy, &o.PlacedAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SealOrder commits the Cart -> Placed transition, guarded on the order
// still being a cart so concurrent placement cannot double-seal.
func (s *PostgresStorage) SealOrder(ctx context.Context, o *order.Order) (bool, error) {
	q := `
        UPDATE orders SET status = $2, calculated_total = $3, placed_at = $4
        WHERE id = $1 AND status = $5`
	res, err := s.db.ExecContext(ctx, q, o.ID, order.StatusPlaced, o.CalculatedTotal, o.PlacedAt, order.StatusCart)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func statusArgs(base int, statuses []order.OrderStatus) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for n, st := range statuses {
		placeholders[n] = fmt.Sprintf("$%d", base+n)
		args[n] = st
	}
	return strings.Join(placeholders, ","), args
}

func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, orderID int64, to order.OrderStatus, cancelledBy *int64, allowedFrom []order.OrderStatus) (bool, error) {
	in, inArgs := statusArgs(4, allowedFrom)
	q := fmt.Sprintf(`
        UPDATE orders SET status = $2, cancelled_by = COALESCE($3, cancelled_by)
        WHERE id = $1 AND status IN (%s)`, in)
	args := append([]any{orderID, to, cancelledBy}, inArgs...)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// MarkOrderPaid is the payment-completion compare-and-set: Paid status
// and the receipt marker commit together, and only from a pre-payment
// status.
func (s *PostgresStorage) MarkOrderPaid(ctx context.Context, orderID int64, allowedFrom []order.OrderStatus) (bool, error) {
	in, inArgs := statusArgs(3, allowedFrom)
	q := fmt.Sprintf(`
        UPDATE orders SET status = $2, receipt_sent = TRUE
        WHERE id = $1 AND status IN (%s)`, in)
	args := append([]any{orderID, order.StatusPaid}, inArgs...)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// ---- attributes ----

// Attribute writes are guarded on the owning order still being a cart,
// the same rows-affected compare-and-set SealOrder uses. A write racing
// a placement loses and reports it instead of mutating a frozen order.

func (s *PostgresStorage) CreateItem(ctx context.Context, it *attribute.Item) error {
	q := `
        INSERT INTO order_attributes (order_id, variant, sort, product_id, quantity, unit_price, title, unique_data, calculated_total)
        SELECT $1,'item',$2,$3,$4,$5,$6,$7,$8
        WHERE EXISTS (SELECT 1 FROM orders WHERE id = $1 AND status = $9)
        RETURNING id`
	err := s.db.QueryRowContext(ctx, q,
		it.OrderID, it.Sort, it.ProductID, it.Quantity, it.UnitPrice, it.Title, it.Unique.Key(), it.CalculatedTotal,
		order.StatusCart,
	).Scan(&it.ID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("order %d is no longer a cart", it.OrderID)
	}
	return err
}

func (s *PostgresStorage) CreateModifiers(ctx context.Context, mods []*attribute.Modifier) error {
	q := `
        INSERT INTO order_attributes (order_id, variant, sort, kind, type, name, rate, inclusive, calculated_total)
        SELECT $1,'modifier',$2,$3,$4,$5,$6,$7,$8
        WHERE EXISTS (SELECT 1 FROM orders WHERE id = $1 AND status = $9)
        RETURNING id`
	for _, m := range mods {
		err := s.db.QueryRowContext(ctx, q,
			m.OrderID, m.Sort, m.Kind, m.Type, m.Name, m.Rate, m.Inclusive, m.CalculatedTotal,
			order.StatusCart,
		).Scan(&m.ID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("order %d is no longer a cart", m.OrderID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStorage) ListItems(ctx context.Context, orderID int64) ([]*attribute.Item, error) {
	q := `
        SELECT id, order_id, sort, product_id, quantity, unit_price, title, unique_data, calculated_total
        FROM order_attributes WHERE order_id = $1 AND variant = 'item' ORDER BY sort, id`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*attribute.Item
	for rows.Next() {
		var it attribute.Item
		var uniqueKey string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Sort, &it.ProductID, &it.Quantity,
			&it.UnitPrice, &it.Title, &uniqueKey, &it.CalculatedTotal); err != nil {
			return nil, err
		}
		if it.Unique, err = attribute.ParseKey(uniqueKey); err != nil {
			return nil, fmt.Errorf("parse unique data for item %d: %w", it.ID, err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (s *PostgresStorage) ListModifiers(ctx context.Context, orderID int64) ([]*attribute.Modifier, error) {
	q := `
        SELECT id, order_id, sort, kind, type, name, rate, inclusive, calculated_total
        FROM order_attributes WHERE order_id = $1 AND variant = 'modifier' ORDER BY sort, id`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []*attribute.Modifier
	for rows.Next() {
		var m attribute.Modifier
		if err := rows.Scan(&m.ID, &m.OrderID, &m.Sort, &m.Kind, &m.Type, &m.Name,
			&m.Rate, &m.Inclusive, &m.CalculatedTotal); err != nil {
			return nil, err
		}
		mods = append(mods, &m)
	}
	return mods, rows.Err()
}

func (s *PostgresStorage) UpdateItem(ctx context.Context, it *attribute.Item) error {
	q := `
        UPDATE order_attributes SET quantity = $2, unit_price = $3, calculated_total = $4
        WHERE id = $1 AND variant = 'item'
          AND order_id IN (SELECT id FROM orders WHERE status = $5)`
	return s.execEditable(ctx, q, it.ID, it.Quantity, it.UnitPrice, it.CalculatedTotal, order.StatusCart)
}

func (s *PostgresStorage) UpdateModifier(ctx context.Context, m *attribute.Modifier) error {
	q := `
        UPDATE order_attributes SET name = $2, calculated_total = $3
        WHERE id = $1 AND variant = 'modifier'
          AND order_id IN (SELECT id FROM orders WHERE status = $4)`
	return s.execEditable(ctx, q, m.ID, m.Name, m.CalculatedTotal, order.StatusCart)
}

func (s *PostgresStorage) DeleteItem(ctx context.Context, itemID int64) error {
	q := `
        DELETE FROM order_attributes WHERE id = $1 AND variant = 'item'
          AND order_id IN (SELECT id FROM orders WHERE status = $2)`
	return s.execEditable(ctx, q, itemID, order.StatusCart)
}

func (s *PostgresStorage) execEditable(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("attribute row missing or order no longer a cart")
	}
	return nil
}

// ---- payments ----

const paymentColumns = `id, order_id, method, amount, status, gateway_ref, return_url, created_at, settled_at`

func (s *PostgresStorage) CreatePayment(ctx context.Context, p *payment.Payment) error {
	q := `
        INSERT INTO payments (id, order_id, method, amount, status, gateway_ref, return_url, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.OrderID, p.Method, p.Amount, p.Status, p.GatewayRef, p.ReturnURL, p.CreatedAt)
	return err
}

func scanPayment(row *sql.Row) (*payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status,
		&p.GatewayRef, &p.ReturnURL, &p.CreatedAt, &p.SettledAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStorage) FindPayment(ctx context.Context, id string) (*payment.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStorage) FindPaymentByGatewayRef(ctx context.Context, ref string) (*payment.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_ref = $1`
	return scanPayment(s.db.QueryRowContext(ctx, q, ref))
}

func (s *PostgresStorage) UpdatePayment(ctx context.Context, id string, status payment.PaymentStatus, gatewayRef string, settledAt *time.Time) error {
	q := `UPDATE payments SET status = $2, gateway_ref = $3, settled_at = $4 WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, id, status, gatewayRef, settledAt)
	return err
}

func (s *PostgresStorage) SumSettled(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	q := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1 AND status = $2`
	var sum decimal.Decimal
	err := s.db.QueryRowContext(ctx, q, orderID, payment.StatusSuccess).Scan(&sum)
	return sum, err
}

func (s *PostgresStorage) ListProcessingPayments(ctx context.Context) ([]payment.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 AND gateway_ref <> ''`
	rows, err := s.db.QueryContext(ctx, q, payment.StatusProcessing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status,
			&p.GatewayRef, &p.ReturnURL, &p.CreatedAt, &p.SettledAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ---- products ----

func (s *PostgresStorage) FindProduct(ctx context.Context, id int64) (*product.Product, error) {
	q := `SELECT id, title, price, image_url, created_at FROM products WHERE id = $1`
	var p product.Product
	err := s.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Title, &p.Price, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStorage) ListProducts(ctx context.Context) ([]product.Product, error) {
	q := `SELECT id, title, price, image_url, created_at FROM products ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ---- admin projection ----

func (s *PostgresStorage) ListPlacedOrders(ctx context.Context) ([]admin.Row, error) {
	q := `
        SELECT reference, placed_at, member_name, calculated_total, status
        FROM orders WHERE status <> $1 ORDER BY placed_at DESC NULLS LAST`
	rows, err := s.db.QueryContext(ctx, q, order.StatusCart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []admin.Row
	for rows.Next() {
		var row admin.Row
		if err := rows.Scan(&row.Reference, &row.PlacedAt, &row.MemberName, &row.Total, &row.Status); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
