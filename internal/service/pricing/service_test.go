package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

func newTestPricing(t *testing.T) *Service {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return New(cat)
}

func line(category, item string, qty int, addons ...string) domain.LineItem {
	return domain.LineItem{
		CategoryID: category,
		ItemID:     item,
		Quantity:   qty,
		Addons:     addons,
		CreatedAt:  time.Now(),
	}
}

func TestPlainItemSubtotalEqualsTotal(t *testing.T) {
	svc := newTestPricing(t)

	// Mansaf is 2690c; 3x with no addons must price at exactly P*Q.
	p := svc.PriceCart([]domain.LineItem{line("main_dishes", "mansaf", 3)})

	assert.Equal(t, int64(3*2690), p.SubtotalCents)
	assert.Equal(t, p.SubtotalCents, p.TotalCents)
	assert.Equal(t, 1, p.ItemCount)
	assert.Equal(t, "AUD", p.Currency)
}

func TestAddonsIncreaseUnitPrice(t *testing.T) {
	svc := newTestPricing(t)

	// 2690 + 650 (extra lamb) + 300 (extra rice) = 3640, twice.
	got := svc.ItemPriceCents(line("main_dishes", "mansaf", 2, "extra_lamb", "extra_rice"))
	assert.Equal(t, int64(2*3640), got)
}

func TestUnknownAddonContributesZero(t *testing.T) {
	svc := newTestPricing(t)

	got := svc.ItemPriceCents(line("main_dishes", "mansaf", 1, "not_priced_anywhere"))
	assert.Equal(t, int64(2690), got)
}

func TestComboPriceIsDerivable(t *testing.T) {
	svc := newTestPricing(t)

	li := line("wraps", "lamb_shawarma_wrap", 1)
	li.IsCombo = true
	li.ComboDrink = "coke"
	li.ComboSide = "chips"

	// 1390 + 300 (combo drink) + 400 (combo side) - 200 (combo discount).
	assert.Equal(t, int64(1890), svc.ItemPriceCents(li))
}

func TestTaxExtractedFromInclusiveTotal(t *testing.T) {
	svc := newTestPricing(t)

	cart := []domain.LineItem{line("main_dishes", "mansaf", 1)}
	p := svc.PriceCart(cart)

	// GST at 10%: tax = total/11, rounded. 2690/11 = 244.5... -> 245.
	assert.Equal(t, int64(245), p.TaxCents)
	assert.Equal(t, p.SubtotalCents, p.TotalCents)
	// Extraction, not addition: total is reconstructable from its parts.
	assert.Equal(t, p.TotalCents, p.TaxCents+(p.TotalCents-p.TaxCents))
}

func TestPriceCartIsIdempotent(t *testing.T) {
	svc := newTestPricing(t)

	cart := []domain.LineItem{
		line("main_dishes", "lamb_mandi", 2, "extra_rice"),
		line("drinks", "soft_drink", 3),
	}

	first := svc.PriceCart(cart)
	second := svc.PriceCart(cart)

	assert.Equal(t, first, second)
	// The cart itself is untouched by a pure price query.
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, []string{"extra_rice"}, cart[0].Addons)
}

func TestEmptyCartPricesToZero(t *testing.T) {
	svc := newTestPricing(t)

	p := svc.PriceCart(nil)
	assert.Zero(t, p.SubtotalCents)
	assert.Zero(t, p.TaxCents)
	assert.Zero(t, p.TotalCents)
	assert.Zero(t, p.ItemCount)
}
