// Package catalog holds the read-only reference data the ordering flows
// draw from: products and their categories. Prices are captured into
// cart lines and order items at add time, so a product row is treated
// as immutable for the lifetime of any order referencing it.
package catalog

import "github.com/shopspring/decimal"

// Kind tags a category with the role its products play in composition.
// Only Burger opens the menu wizard and only Child opens the kids
// wizard; the rest are selectable as wizard components or plain items.
type Kind string

const (
	KindBurger  Kind = "burger"
	KindSide    Kind = "side"
	KindSauce   Kind = "sauce"
	KindDrink   Kind = "drink"
	KindDessert Kind = "dessert"
	KindSnack   Kind = "snack"
	KindChild   Kind = "child"
	KindNone    Kind = "none"
)

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Kind     Kind   `json:"kind"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id"`
	Available   bool            `json:"is_available"`
	Featured    bool            `json:"featured"`
	// LoyaltyTier is the reward level (1-5) that can redeem this
	// product for free, or 0 when it is not a reward.
	LoyaltyTier int    `json:"loyalty_tier,omitempty"`
	ImageURL    string `json:"image_url"`
}
