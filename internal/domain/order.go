package domain

import "time"

// Order statuses, in their usual lifecycle order.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCollected = "collected"
	OrderStatusCancelled = "cancelled"
)

// Pricing is the tax-inclusive total for a cart. Figures are integer cents;
// the displayed total equals the subtotal and GST is extracted from it, never
// added on top.
type Pricing struct {
	SubtotalCents int64  `json:"subtotalCents"`
	TaxCents      int64  `json:"taxCents"`
	TotalCents    int64  `json:"totalCents"`
	ItemCount     int    `json:"itemCount"`
	Currency      string `json:"currency"`
}

// Order is an immutable snapshot of a finalized cart. Only Status (and the
// accompanying UpdatedAt) may change after creation.
type Order struct {
	ID            string     `json:"id"`
	OrderNumber   string     `json:"orderNumber"`
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone"`
	Items         []LineItem `json:"items"`
	Pricing       Pricing    `json:"pricing"`
	PickupTime    string     `json:"pickupTime"`
	PickupTimeISO string     `json:"pickupTimeISO,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
