package domain

import (
	"sort"
	"strings"
	"time"
)

// LineItem is one entry in a cart. Identity is structural (category + item +
// variant + addon set), never positional: the index a caller sees is a display
// convenience and is invalidated by any removal.
type LineItem struct {
	CategoryID string    `json:"categoryId"`
	ItemID     string    `json:"itemId"`
	ItemName   string    `json:"itemName"`
	Quantity   int       `json:"quantity"`
	Addons     []string  `json:"addons,omitempty"`
	Variant    string    `json:"variant,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	IsCombo    bool      `json:"isCombo,omitempty"`
	ComboDrink string    `json:"comboDrink,omitempty"`
	ComboSide  string    `json:"comboSide,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IdentityKey returns the normalized structural identity of the line item:
// item id, variant and the sorted addon set. Two items with equal keys are
// the same order line regardless of cart position.
func (li LineItem) IdentityKey() string {
	addons := make([]string, len(li.Addons))
	copy(addons, li.Addons)
	sort.Strings(addons)
	return li.ItemID + "|" + strings.ToLower(li.Variant) + "|" + strings.Join(addons, ",")
}

// SameDish reports whether other refers to the same catalog item and variant,
// ignoring addons. Used by the correction-merge heuristic.
func (li LineItem) SameDish(other LineItem) bool {
	return li.ItemID == other.ItemID && strings.EqualFold(li.Variant, other.Variant)
}

// HasAddon reports whether the addon id is already attached.
func (li LineItem) HasAddon(id string) bool {
	for _, a := range li.Addons {
		if a == id {
			return true
		}
	}
	return false
}

// CloneCart deep-copies a cart so order snapshots cannot be mutated through
// the live session.
func CloneCart(cart []LineItem) []LineItem {
	out := make([]LineItem, len(cart))
	copy(out, cart)
	for i := range out {
		if len(cart[i].Addons) > 0 {
			out[i].Addons = append([]string(nil), cart[i].Addons...)
		}
	}
	return out
}
