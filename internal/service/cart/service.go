// Package cart mutates a session's ordered list of line items: adds with
// duplicate resolution, edits, removals and combo conversion. Every
// operation validates against the catalog before touching the cart and
// returns a structured result carrying a human-readable confirmation.
package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

// MergePolicy names the duplicate-resolution tunables. The window is a
// disambiguation boundary, not a correctness guarantee: a voice caller often
// re-issues an add with refined details seconds after the original, and two
// separate lines would surprise them. Set Window to zero to disable the
// correction merge entirely (identical-identity combining always applies).
type MergePolicy struct {
	Window time.Duration
}

// DefaultMergePolicy is the production window.
var DefaultMergePolicy = MergePolicy{Window: 60 * time.Second}

// Service is the cart engine. It holds only immutable collaborators and is
// safe to share across sessions.
type Service struct {
	catalog *catalog.Catalog
	policy  MergePolicy

	now func() time.Time
}

// New builds the engine.
func New(cat *catalog.Catalog, policy MergePolicy) *Service {
	return &Service{catalog: cat, policy: policy, now: time.Now}
}

// ItemSpec is a validated item description handed in by the transport
// adapter (or the free-text parser collaborator).
type ItemSpec struct {
	CategoryID string   `json:"category"`
	ItemID     string   `json:"itemId"`
	Quantity   int      `json:"quantity"`
	Addons     []string `json:"addons,omitempty"`
	Variant    string   `json:"variant,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// AddResult reports a successful add, including whether the item was merged
// into an existing line.
type AddResult struct {
	Item    domain.LineItem `json:"item"`
	Index   int             `json:"itemIndex"`
	Merged  bool            `json:"merged,omitempty"`
	Message string          `json:"message"`
}

// AddItem validates the requested item and runs duplicate resolution before
// appending. An unknown category, item, addon or variant rejects the request
// with no mutation.
func (s *Service) AddItem(sess *domain.Session, spec ItemSpec) (*AddResult, error) {
	item, err := s.validateSpec(spec)
	if err != nil {
		return nil, err
	}

	qty := spec.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, domain.Validationf("quantity must be positive")
	}

	incoming := domain.LineItem{
		CategoryID: spec.CategoryID,
		ItemID:     spec.ItemID,
		ItemName:   item.Name,
		Quantity:   qty,
		Addons:     append([]string(nil), spec.Addons...),
		Variant:    strings.ToLower(spec.Variant),
		Notes:      spec.Notes,
		CreatedAt:  s.now(),
	}

	// 1. Identical identity key: the caller re-stated an existing line;
	//    combine quantities instead of appending.
	key := incoming.IdentityKey()
	for i := range sess.Cart {
		existing := &sess.Cart[i]
		if existing.IsCombo {
			continue
		}
		if existing.IdentityKey() == key {
			existing.Quantity += qty
			return &AddResult{
				Item:    *existing,
				Index:   i,
				Merged:  true,
				Message: fmt.Sprintf("Updated %s to %dx", existing.ItemName, existing.Quantity),
			}, nil
		}
	}

	// 2. Same dish with different addons, created moments ago: treat as a
	//    correction of that line, not a new order. The first unit of the
	//    "new" item is the same physical item being modified.
	if s.policy.Window > 0 {
		for i := range sess.Cart {
			existing := &sess.Cart[i]
			if existing.IsCombo || !existing.SameDish(incoming) {
				continue
			}
			if s.now().Sub(existing.CreatedAt) > s.policy.Window {
				continue
			}
			for _, addon := range incoming.Addons {
				if !existing.HasAddon(addon) {
					existing.Addons = append(existing.Addons, addon)
				}
			}
			existing.Quantity += qty - 1
			existing.CreatedAt = s.now()
			if incoming.Notes != "" {
				existing.Notes = incoming.Notes
			}
			return &AddResult{
				Item:    *existing,
				Index:   i,
				Merged:  true,
				Message: fmt.Sprintf("Updated your %s", existing.ItemName),
			}, nil
		}
	}

	// 3. Genuinely new line.
	sess.Cart = append(sess.Cart, incoming)
	return &AddResult{
		Item:    incoming,
		Index:   len(sess.Cart) - 1,
		Message: addedMessage(incoming),
	}, nil
}

// MultiAddResult aggregates per-item outcomes; one bad spec never blocks
// the others.
type MultiAddResult struct {
	Count   int         `json:"count"`
	Added   []AddResult `json:"items,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Message string      `json:"message"`
}

// AddMultiple applies AddItem to each spec independently.
func (s *Service) AddMultiple(sess *domain.Session, specs []ItemSpec) *MultiAddResult {
	result := &MultiAddResult{}
	for _, spec := range specs {
		added, err := s.AddItem(sess, spec)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Added = append(result.Added, *added)
		result.Count++
	}
	switch result.Count {
	case 0:
		result.Message = "Couldn't add those items"
	case 1:
		result.Message = result.Added[0].Message
	default:
		result.Message = fmt.Sprintf("Added %d items to your order", result.Count)
	}
	return result
}

// RemoveResult reports a removal.
type RemoveResult struct {
	Removed domain.LineItem `json:"removed"`
	Message string          `json:"message"`
}

// RemoveItem removes the line at index. Indexes are zero-based and
// invalidated by any removal.
func (s *Service) RemoveItem(sess *domain.Session, index int) (*RemoveResult, error) {
	if index < 0 || index >= len(sess.Cart) {
		return nil, domain.Validationf("invalid item index %d", index)
	}
	removed := sess.Cart[index]
	sess.Cart = append(sess.Cart[:index], sess.Cart[index+1:]...)
	return &RemoveResult{
		Removed: removed,
		Message: fmt.Sprintf("Removed %s from your order", removed.ItemName),
	}, nil
}

// Changes carries an edit request. Each field validates independently:
// quantity applies only if positive, addons only if all valid for the item,
// notes unconditionally. Invalid fields are skipped, not errors.
type Changes struct {
	Quantity int      `json:"quantity,omitempty"`
	Addons   []string `json:"addons,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// EditResult reports an edit.
type EditResult struct {
	Item    domain.LineItem `json:"item"`
	Message string          `json:"message"`
}

// EditItem applies recognized fields to the line at index.
func (s *Service) EditItem(sess *domain.Session, index int, changes Changes) (*EditResult, error) {
	if index < 0 || index >= len(sess.Cart) {
		return nil, domain.Validationf("invalid item index %d", index)
	}
	line := &sess.Cart[index]

	if changes.Quantity > 0 {
		line.Quantity = changes.Quantity
	}
	if changes.Addons != nil {
		if item, ok := s.catalog.Item(line.CategoryID, line.ItemID); ok {
			if invalid := s.catalog.InvalidAddons(item, changes.Addons); len(invalid) == 0 {
				line.Addons = append([]string(nil), changes.Addons...)
			}
		}
	}
	if changes.Notes != nil {
		line.Notes = *changes.Notes
	}

	return &EditResult{
		Item:    *line,
		Message: fmt.Sprintf("Updated %s", line.ItemName),
	}, nil
}

// ClearResult reports how many lines were dropped.
type ClearResult struct {
	Cleared int    `json:"cleared"`
	Message string `json:"message"`
}

// ClearCart empties the cart.
func (s *Service) ClearCart(sess *domain.Session) *ClearResult {
	count := len(sess.Cart)
	sess.Cart = sess.Cart[:0]
	return &ClearResult{
		Cleared: count,
		Message: fmt.Sprintf("Cleared %d item(s) from your order", count),
	}
}

// ComboResult reports a combo conversion.
type ComboResult struct {
	Converted int    `json:"converted"`
	Message   string `json:"message"`
}

// ConvertToCombos marks each targeted, combo-eligible, not-already-combo
// line as a combo with the chosen drink and side attached. Nil indices
// targets the whole cart. Ineligible or already-combo lines are silently
// skipped and not counted.
func (s *Service) ConvertToCombos(sess *domain.Session, indices []int, drink, side string) (*ComboResult, error) {
	settings := s.catalog.Settings()
	drink = strings.ToLower(strings.TrimSpace(drink))
	side = strings.ToLower(strings.TrimSpace(side))
	if drink == "" || !containsFold(settings.ComboDrinkOptions, drink) {
		return nil, domain.Validationf("invalid combo drink: %s. Available: %s", drink, strings.Join(settings.ComboDrinkOptions, ", "))
	}
	if side == "" || !containsFold(settings.ComboSideOptions, side) {
		return nil, domain.Validationf("invalid combo side: %s. Available: %s", side, strings.Join(settings.ComboSideOptions, ", "))
	}

	if indices == nil {
		indices = make([]int, len(sess.Cart))
		for i := range indices {
			indices[i] = i
		}
	}

	converted := 0
	for _, idx := range indices {
		if idx < 0 || idx >= len(sess.Cart) {
			continue
		}
		line := &sess.Cart[idx]
		if line.IsCombo || !s.catalog.ComboEligible(line.CategoryID) {
			continue
		}
		line.IsCombo = true
		line.ComboDrink = drink
		line.ComboSide = side
		converted++
	}

	msg := fmt.Sprintf("Made %d item(s) a combo with %s and %s", converted, drink, side)
	if converted == 0 {
		msg = "No items in your order can be made into a combo"
	}
	return &ComboResult{Converted: converted, Message: msg}, nil
}

// State is a display summary of the cart.
type State struct {
	Items     []domain.LineItem `json:"items"`
	Count     int               `json:"count"`
	Formatted string            `json:"formatted"`
	IsEmpty   bool              `json:"isEmpty"`
}

// CartState returns the cart with a numbered human-readable listing.
func (s *Service) CartState(sess *domain.Session) *State {
	lines := make([]string, 0, len(sess.Cart))
	for i, item := range sess.Cart {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, s.FormatItem(item)))
	}
	return &State{
		Items:     sess.Cart,
		Count:     len(sess.Cart),
		Formatted: strings.Join(lines, "\n"),
		IsEmpty:   len(sess.Cart) == 0,
	}
}

// FormatItem renders one line item the way the assistant reads it back:
// "2x Mansaf + extra rice [Note: no onion]".
func (s *Service) FormatItem(li domain.LineItem) string {
	var parts []string
	if li.Quantity > 1 {
		parts = append(parts, fmt.Sprintf("%dx", li.Quantity))
	}
	parts = append(parts, li.ItemName)
	if li.Variant != "" {
		parts = append(parts, fmt.Sprintf("(%s)", li.Variant))
	}
	if li.IsCombo {
		parts = append(parts, fmt.Sprintf("combo with %s and %s", li.ComboDrink, li.ComboSide))
	}
	if len(li.Addons) > 0 {
		names := make([]string, 0, len(li.Addons))
		item, ok := s.catalog.Item(li.CategoryID, li.ItemID)
		for _, id := range li.Addons {
			if ok {
				if addon, found := item.Addons[id]; found {
					names = append(names, addon.Name)
					continue
				}
			}
			names = append(names, id)
		}
		parts = append(parts, "+ "+strings.Join(names, ", "))
	}
	if li.Notes != "" {
		parts = append(parts, fmt.Sprintf("[Note: %s]", li.Notes))
	}
	return strings.Join(parts, " ")
}

func (s *Service) validateSpec(spec ItemSpec) (catalog.Item, error) {
	if _, ok := s.catalog.Category(spec.CategoryID); !ok {
		return catalog.Item{}, domain.Validationf("invalid category: %s", spec.CategoryID)
	}
	item, ok := s.catalog.Item(spec.CategoryID, spec.ItemID)
	if !ok {
		return catalog.Item{}, domain.Validationf("item not found: %s in category %s", spec.ItemID, spec.CategoryID)
	}
	if invalid := s.catalog.InvalidAddons(item, spec.Addons); len(invalid) > 0 {
		return catalog.Item{}, domain.Validationf("invalid addons for %s: %s", spec.ItemID, strings.Join(invalid, ", "))
	}
	if !s.catalog.ValidOption(item, spec.Variant) {
		return catalog.Item{}, domain.Validationf("invalid option: %s. Available: %s", spec.Variant, strings.Join(item.Options, ", "))
	}
	return item, nil
}

func addedMessage(li domain.LineItem) string {
	if li.Quantity > 1 {
		return fmt.Sprintf("Added %dx %s to your order", li.Quantity, li.ItemName)
	}
	return fmt.Sprintf("Added %s to your order", li.ItemName)
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
