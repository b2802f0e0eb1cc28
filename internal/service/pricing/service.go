// Package pricing derives tax-inclusive totals from the read-only catalog.
// All figures are integer cents, so repeated calls on the same cart are
// bit-identical. The displayed total equals the subtotal; GST is extracted
// from the inclusive total, never added on top.
package pricing

import (
	"math"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

// Service computes cart and item prices. It is read-only and safe to share.
type Service struct {
	catalog *catalog.Catalog
}

// New builds the pricing engine.
func New(cat *catalog.Catalog) *Service {
	return &Service{catalog: cat}
}

// ItemPriceCents returns the price of one cart line: catalog base price plus
// the selected priced addons (addons without a price contribute zero), times
// quantity. Combo lines add the combo drink and side prices, then subtract
// the combo discount, so the combo price stays derivable and auditable.
func (s *Service) ItemPriceCents(li domain.LineItem) int64 {
	item, ok := s.catalog.Item(li.CategoryID, li.ItemID)
	if !ok {
		return 0
	}

	unit := item.PriceCents
	for _, id := range li.Addons {
		if addon, found := item.Addons[id]; found {
			unit += addon.PriceCents
		}
	}

	if li.IsCombo {
		settings := s.catalog.Settings()
		unit += settings.ComboDrinkPriceCents + settings.ComboSidePriceCents
		unit -= settings.ComboDiscountCents
	}

	qty := li.Quantity
	if qty <= 0 {
		qty = 1
	}
	return unit * int64(qty)
}

// PriceCart totals the cart. Idempotent and side-effect-free: it never
// mutates the cart and yields identical results for identical input.
func (s *Service) PriceCart(cart []domain.LineItem) domain.Pricing {
	var subtotal int64
	for _, li := range cart {
		subtotal += s.ItemPriceCents(li)
	}

	rate := s.catalog.Settings().TaxRate
	var tax int64
	if rate > 0 {
		tax = int64(math.Round(float64(subtotal) * rate / (1 + rate)))
	}

	return domain.Pricing{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal,
		ItemCount:     len(cart),
		Currency:      s.catalog.Business().Currency,
	}
}
