// Package cart models the session-scoped shopping cart: line items with
// stable identities, quantity semantics, and the composition wizards
// that turn catalog products into priced lines.
package cart

import (
	"fmt"
	"hash/crc32"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemKind distinguishes plain products from composed menu bundles.
type ItemKind string

const (
	KindSimple ItemKind = "simple"
	KindBundle ItemKind = "bundle"
)

// LineItemID is the cart key. Equal IDs merge into one line; distinct
// IDs stay separate.
type LineItemID string

// SimpleItemID builds the identity of a plain product line. The same
// product added with the same notes merges; different notes produce a
// distinct line.
func SimpleItemID(productID int64, notes string) LineItemID {
	if notes == "" {
		return LineItemID(strconv.FormatInt(productID, 10))
	}
	return LineItemID(fmt.Sprintf("%d_%d", productID, crc32.ChecksumIEEE([]byte(notes))))
}

// menuItemID builds the identity of a composed menu bundle. It embeds a
// per-addition uuid: two outwardly identical bundles never merge, since
// each may carry its own notes and kitchen instructions. This asymmetry
// with simple items is deliberate and must not be "fixed" into merging.
func menuItemID(burgerID, sideID, sauceID, drinkID int64) LineItemID {
	return LineItemID(fmt.Sprintf("menu_%d_%d_%d_%d_%s",
		burgerID, sideID, sauceID, drinkID, uuid.NewString()))
}

func kidsMenuItemID(productID int64) LineItemID {
	return LineItemID(fmt.Sprintf("kids_menu_%d_%s", productID, uuid.NewString()))
}

func rewardItemID(productID int64) LineItemID {
	return LineItemID(fmt.Sprintf("reward_%d", productID))
}

// LineItem is one priced cart entry. UnitPrice is captured when the
// item is added and never re-read from the catalog. Quantity is always
// at least 1; a line dropping to 0 is removed from the cart instead.
type LineItem struct {
	ID        LineItemID      `json:"id"`
	Kind      ItemKind        `json:"kind"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	// Components lists a bundle's parts in ticket order
	// (main, side, sauce, drink). Empty for simple items.
	Components []string `json:"components,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	// ProductID maps the line back to a catalog row for persistence.
	// For bundles this is the root product (the burger); 0 when no
	// mapping exists.
	ProductID int64 `json:"product_id,omitempty"`
	// PointsCost is the loyalty points deducted at checkout when this
	// line is a reward redemption; 0 otherwise.
	PointsCost int `json:"points_cost,omitempty"`
}

// IsBundle reports whether the line is a composed menu.
func (li LineItem) IsBundle() bool {
	return li.Kind == KindBundle
}

// Subtotal is the line's contribution to the cart total, before the
// cart-level rounding.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
