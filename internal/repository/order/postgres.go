package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `id::text, order_number, customer_name, customer_phone, items, pricing, pickup_time, pickup_time_iso, notes, status, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	pricingJSON, err := json.Marshal(o.Pricing)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO orders (id, order_number, customer_name, customer_phone, items, pricing, pickup_time, pickup_time_iso, notes, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err = r.pool.Exec(ctx, q,
		o.ID,
		o.OrderNumber,
		o.CustomerName,
		o.CustomerPhone,
		itemsJSON,
		pricingJSON,
		o.PickupTime,
		o.PickupTimeISO,
		o.Notes,
		o.Status,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		r.logger.Printf("order repo: insert %s: %v", o.OrderNumber, err)
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOrder(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	q := `
UPDATE orders
SET status = $1, updated_at = now()
WHERE id = $2
RETURNING ` + orderColumns
	return r.scanOrder(r.pool.QueryRow(ctx, q, status, id))
}

func (r *postgresRepo) ListByNumberPrefix(ctx context.Context, prefix string) ([]domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE order_number LIKE $1 || '%'
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) CountActive(ctx context.Context) (int, error) {
	const q = `SELECT count(*) FROM orders WHERE status IN ('pending', 'preparing')`
	var n int
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var itemsJSON, pricingJSON []byte
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerName,
		&o.CustomerPhone,
		&itemsJSON,
		&pricingJSON,
		&o.PickupTime,
		&o.PickupTimeISO,
		&o.Notes,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		r.logger.Printf("order repo: decode items id=%s err=%v", o.ID, err)
		return nil, err
	}
	if err := json.Unmarshal(pricingJSON, &o.Pricing); err != nil {
		r.logger.Printf("order repo: decode pricing id=%s err=%v", o.ID, err)
		return nil, err
	}
	return &o, nil
}
