package domain

import "time"

// CustomerHistoryLimit bounds the per-customer order reference list.
const CustomerHistoryLimit = 20

// OrderRef is a lightweight reference to an order kept in customer history,
// most recent first.
type OrderRef struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Date        time.Time `json:"date"`
	TotalCents  int64     `json:"totalCents"`
	ItemCount   int       `json:"itemCount"`
}

// Customer aggregates order history per phone number. It is updated only by
// order finalization and grows append-only, except the bounded history list.
type Customer struct {
	Phone           string         `json:"phone"`
	Orders          []OrderRef     `json:"orders"`
	FavoriteItems   map[string]int `json:"favoriteItems"`
	TotalOrders     int            `json:"totalOrders"`
	TotalSpentCents int64          `json:"totalSpentCents"`
	FirstOrderDate  time.Time      `json:"firstOrderDate"`
	LastOrderDate   time.Time      `json:"lastOrderDate"`
}

// RecordOrder folds a finalized order into the aggregate: front-pushes the
// reference, truncates history to the limit and bumps totals and favourites.
func (c *Customer) RecordOrder(o *Order) {
	ref := OrderRef{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Date:        o.CreatedAt,
		TotalCents:  o.Pricing.TotalCents,
		ItemCount:   len(o.Items),
	}
	c.Orders = append([]OrderRef{ref}, c.Orders...)
	if len(c.Orders) > CustomerHistoryLimit {
		c.Orders = c.Orders[:CustomerHistoryLimit]
	}

	if c.FavoriteItems == nil {
		c.FavoriteItems = map[string]int{}
	}
	for _, item := range o.Items {
		key := item.CategoryID + "-" + item.ItemID
		if item.Variant != "" {
			key += "-" + item.Variant
		}
		c.FavoriteItems[key] += item.Quantity
	}

	c.TotalOrders++
	c.TotalSpentCents += o.Pricing.TotalCents
	if c.FirstOrderDate.IsZero() {
		c.FirstOrderDate = o.CreatedAt
	}
	c.LastOrderDate = o.CreatedAt
}

// TopFavorites returns up to n favourite item keys ordered by count.
func (c *Customer) TopFavorites(n int) []string {
	type kv struct {
		key   string
		count int
	}
	ranked := make([]kv, 0, len(c.FavoriteItems))
	for k, v := range c.FavoriteItems {
		ranked = append(ranked, kv{k, v})
	}
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].count > ranked[i].count || (ranked[j].count == ranked[i].count && ranked[j].key < ranked[i].key) {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.key)
	}
	return out
}
