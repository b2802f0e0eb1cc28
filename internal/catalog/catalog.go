// Package catalog loads the menu and business data files into an immutable
// in-memory structure shared by every component. Nothing mutates a Catalog
// after Load returns.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

//go:embed data/*.json
var dataFS embed.FS

// Addon is a priced extra attached to a menu item.
type Addon struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Item is one orderable menu entry.
type Item struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	PriceCents  int64            `json:"price_cents"`
	Addons      map[string]Addon `json:"addons,omitempty"`
	Options     []string         `json:"options,omitempty"`
}

// Category groups items; combo-eligible categories may be bundled with a
// drink and side at a discount.
type Category struct {
	Name          string `json:"name"`
	ComboEligible bool   `json:"combo_eligible,omitempty"`
	Items         []Item `json:"items"`
}

// DayHours is the opening window for one weekday, "HH:MM" local time.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// OrderSettings carries the pricing and prep-time tunables.
type OrderSettings struct {
	DefaultPrepMinutes   int      `json:"default_prep_minutes"`
	PrepMinutesPerItem   int      `json:"prep_minutes_per_item"`
	TaxRate              float64  `json:"tax_rate"`
	ComboDrinkPriceCents int64    `json:"combo_drink_price_cents"`
	ComboSidePriceCents  int64    `json:"combo_side_price_cents"`
	ComboDiscountCents   int64    `json:"combo_discount_cents"`
	ComboDrinkOptions    []string `json:"combo_drink_options"`
	ComboSideOptions     []string `json:"combo_side_options"`
}

// Business is the shop-level configuration: identity, timezone, hours and
// order settings.
type Business struct {
	Name     string              `json:"name"`
	Timezone string              `json:"timezone"`
	Currency string              `json:"currency"`
	Hours    map[string]DayHours `json:"hours"`
	Settings OrderSettings       `json:"order_settings"`

	loc *time.Location
}

// Catalog is the loaded menu plus business data.
type Catalog struct {
	categories map[string]Category
	business   Business
}

// Load reads the embedded data files, overridable per-file through
// MENU_FILE / BUSINESS_FILE for deployments that ship their own menu.
func Load() (*Catalog, error) {
	menuRaw, err := readFile("MENU_FILE", "data/menu.json")
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	bizRaw, err := readFile("BUSINESS_FILE", "data/business.json")
	if err != nil {
		return nil, fmt.Errorf("load business data: %w", err)
	}

	var categories map[string]Category
	if err := json.Unmarshal(menuRaw, &categories); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	var biz Business
	if err := json.Unmarshal(bizRaw, &biz); err != nil {
		return nil, fmt.Errorf("decode business data: %w", err)
	}
	if biz.Timezone == "" {
		biz.Timezone = "Australia/Melbourne"
	}
	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", biz.Timezone, err)
	}
	biz.loc = loc

	return &Catalog{categories: categories, business: biz}, nil
}

func readFile(envKey, embedded string) ([]byte, error) {
	if path := os.Getenv(envKey); path != "" {
		return os.ReadFile(path)
	}
	return dataFS.ReadFile(embedded)
}

// Business returns the shop configuration.
func (c *Catalog) Business() Business { return c.business }

// Location returns the shop's timezone.
func (c *Catalog) Location() *time.Location { return c.business.loc }

// Settings returns the order settings.
func (c *Catalog) Settings() OrderSettings { return c.business.Settings }

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	cat, ok := c.categories[id]
	return cat, ok
}

// Item looks up an item within a category.
func (c *Catalog) Item(categoryID, itemID string) (Item, bool) {
	cat, ok := c.categories[categoryID]
	if !ok {
		return Item{}, false
	}
	for _, item := range cat.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

// InvalidAddons returns the addon ids not known for the item.
func (c *Catalog) InvalidAddons(item Item, addons []string) []string {
	var invalid []string
	for _, id := range addons {
		if _, ok := item.Addons[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	return invalid
}

// ValidOption reports whether the variant is permitted for the item. Items
// with no option list accept no variant.
func (c *Catalog) ValidOption(item Item, option string) bool {
	if option == "" {
		return true
	}
	for _, o := range item.Options {
		if strings.EqualFold(o, option) {
			return true
		}
	}
	return false
}

// ComboEligible reports whether items in the category may be converted to
// a combo.
func (c *Catalog) ComboEligible(categoryID string) bool {
	cat, ok := c.categories[categoryID]
	return ok && cat.ComboEligible
}

// SearchResult pairs a matched item with its category id.
type SearchResult struct {
	CategoryID string
	Item       Item
}

// Search returns items whose id, name or description contains the keyword,
// case-insensitive, in stable category order.
func (c *Catalog) Search(keyword string) []SearchResult {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	catIDs := make([]string, 0, len(c.categories))
	for id := range c.categories {
		catIDs = append(catIDs, id)
	}
	sort.Strings(catIDs)

	var results []SearchResult
	for _, catID := range catIDs {
		for _, item := range c.categories[catID].Items {
			if strings.Contains(strings.ToLower(item.ID), kw) ||
				strings.Contains(strings.ToLower(item.Name), kw) ||
				strings.Contains(strings.ToLower(item.Description), kw) {
				results = append(results, SearchResult{CategoryID: catID, Item: item})
			}
		}
	}
	return results
}

// Categories returns the category ids in stable order.
func (c *Catalog) Categories() []string {
	ids := make([]string, 0, len(c.categories))
	for id := range c.categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HoursFor returns the opening window for a weekday.
func (b Business) HoursFor(day time.Weekday) DayHours {
	return b.Hours[strings.ToLower(day.String())]
}
