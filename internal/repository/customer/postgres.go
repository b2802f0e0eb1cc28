package customer

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

func (r *postgresRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	const q = `
SELECT phone, orders, favorite_items, total_orders, total_spent_cents, first_order_date, last_order_date
FROM customers
WHERE phone = $1
`
	var c domain.Customer
	var ordersJSON, favJSON []byte
	err := r.pool.QueryRow(ctx, q, phone).Scan(
		&c.Phone,
		&ordersJSON,
		&favJSON,
		&c.TotalOrders,
		&c.TotalSpentCents,
		&c.FirstOrderDate,
		&c.LastOrderDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(ordersJSON) > 0 {
		if err := json.Unmarshal(ordersJSON, &c.Orders); err != nil {
			r.logger.Printf("customer repo: decode orders phone=%s err=%v", phone, err)
			return nil, err
		}
	}
	if len(favJSON) > 0 {
		if err := json.Unmarshal(favJSON, &c.FavoriteItems); err != nil {
			r.logger.Printf("customer repo: decode favourites phone=%s err=%v", phone, err)
			return nil, err
		}
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c *domain.Customer) error {
	ordersJSON, err := json.Marshal(c.Orders)
	if err != nil {
		return err
	}
	favJSON, err := json.Marshal(c.FavoriteItems)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO customers (phone, orders, favorite_items, total_orders, total_spent_cents, first_order_date, last_order_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (phone) DO UPDATE SET
    orders = EXCLUDED.orders,
    favorite_items = EXCLUDED.favorite_items,
    total_orders = EXCLUDED.total_orders,
    total_spent_cents = EXCLUDED.total_spent_cents,
    first_order_date = customers.first_order_date,
    last_order_date = EXCLUDED.last_order_date
`
	_, err = r.pool.Exec(ctx, q,
		c.Phone,
		ordersJSON,
		favJSON,
		c.TotalOrders,
		c.TotalSpentCents,
		c.FirstOrderDate,
		c.LastOrderDate,
	)
	if err != nil {
		r.logger.Printf("customer repo: upsert phone=%s err=%v", c.Phone, err)
	}
	return err
}
