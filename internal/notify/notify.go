// Package notify abstracts outbound SMS so the engine stays testable without
// a messaging provider. Notification failure never rolls back an order.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

// Notifier sends customer- and shop-facing messages after order events.
type Notifier interface {
	SendReceipt(ctx context.Context, phone string, order *domain.Order) error
	NotifyShopNewOrder(ctx context.Context, order *domain.Order) error
	SendMenuLink(ctx context.Context, phone string) error
}

// LogNotifier writes every message to the logger instead of a provider.
// It is the default when no SMS credentials are configured.
type LogNotifier struct {
	logger  *log.Logger
	menuURL string
}

// NewLog builds a LogNotifier.
func NewLog(logger *log.Logger, menuURL string) *LogNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogNotifier{logger: logger, menuURL: menuURL}
}

func (n *LogNotifier) SendReceipt(_ context.Context, phone string, order *domain.Order) error {
	n.logger.Printf("sms receipt -> %s: order %s, total %s, pickup %s",
		phone, order.OrderNumber, FormatCents(order.Pricing.TotalCents), order.PickupTime)
	return nil
}

func (n *LogNotifier) NotifyShopNewOrder(_ context.Context, order *domain.Order) error {
	n.logger.Printf("sms shop alert: new order %s (%d items, %s)",
		order.OrderNumber, len(order.Items), FormatCents(order.Pricing.TotalCents))
	return nil
}

func (n *LogNotifier) SendMenuLink(_ context.Context, phone string) error {
	n.logger.Printf("sms menu link -> %s: %s", phone, n.menuURL)
	return nil
}

// FormatCents renders integer cents as a dollar string ("$53.80").
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// NormalizePhone strips formatting punctuation so aggregates key
// consistently.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}
