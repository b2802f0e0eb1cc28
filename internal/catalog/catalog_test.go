package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load()
	require.NoError(t, err)
	return cat
}

func TestLoad_EmbeddedData(t *testing.T) {
	cat := load(t)

	assert.Equal(t, "Stuffed Lamb", cat.Business().Name)
	assert.Equal(t, "AUD", cat.Business().Currency)
	assert.Equal(t, "Australia/Melbourne", cat.Location().String())
	assert.InDelta(t, 0.10, cat.Settings().TaxRate, 1e-9)
}

func TestItemLookup(t *testing.T) {
	cat := load(t)

	item, ok := cat.Item("main_dishes", "mansaf")
	require.True(t, ok)
	assert.Equal(t, "Mansaf", item.Name)
	assert.Equal(t, int64(2690), item.PriceCents)

	_, ok = cat.Item("main_dishes", "pizza")
	assert.False(t, ok)
	_, ok = cat.Item("no_such_category", "mansaf")
	assert.False(t, ok)
}

func TestInvalidAddons(t *testing.T) {
	cat := load(t)
	item, _ := cat.Item("main_dishes", "mansaf")

	assert.Nil(t, cat.InvalidAddons(item, []string{"extra_rice", "extra_lamb"}))
	assert.Equal(t, []string{"extra_cheese"}, cat.InvalidAddons(item, []string{"extra_rice", "extra_cheese"}))
}

func TestValidOption(t *testing.T) {
	cat := load(t)

	wrap, ok := cat.Item("wraps", "lamb_shawarma_wrap")
	require.True(t, ok)
	assert.True(t, cat.ValidOption(wrap, "large"))
	assert.True(t, cat.ValidOption(wrap, "LARGE"))
	assert.False(t, cat.ValidOption(wrap, "jumbo"))

	// Items without an option list accept only the empty variant.
	mansaf, _ := cat.Item("main_dishes", "mansaf")
	assert.True(t, cat.ValidOption(mansaf, ""))
	assert.False(t, cat.ValidOption(mansaf, "large"))
}

func TestComboEligible(t *testing.T) {
	cat := load(t)

	assert.True(t, cat.ComboEligible("main_dishes"))
	assert.True(t, cat.ComboEligible("wraps"))
	assert.False(t, cat.ComboEligible("drinks"))
	assert.False(t, cat.ComboEligible("no_such_category"))
}

func TestSearch(t *testing.T) {
	cat := load(t)

	results := cat.Search("shawarma")
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Contains(t, []string{"main_dishes", "wraps"}, r.CategoryID)
	}

	assert.Nil(t, cat.Search(""))
	assert.Empty(t, cat.Search("sushi"))
}

func TestHoursFor(t *testing.T) {
	cat := load(t)
	biz := cat.Business()

	monday := biz.HoursFor(time.Monday)
	assert.True(t, monday.Closed)

	friday := biz.HoursFor(time.Friday)
	assert.Equal(t, "11:00", friday.Open)
	assert.Equal(t, "22:00", friday.Close)
}
