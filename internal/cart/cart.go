package cart

import (
	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/pkg/money"
)

// Cart is an insertion-ordered mapping of line-item identity to line
// item. It is scoped to one customer session and is not safe for
// concurrent use; the Store serializes access per session.
type Cart struct {
	items map[LineItemID]*LineItem
	order []LineItemID
}

func New() *Cart {
	return &Cart{items: map[LineItemID]*LineItem{}}
}

// Add merges the item into an existing line with the same identity
// (incrementing quantity) or appends it as a new line.
func (c *Cart) Add(item LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if existing, ok := c.items[item.ID]; ok {
		existing.Quantity += item.Quantity
		return
	}
	copy := item
	c.items[item.ID] = &copy
	c.order = append(c.order, item.ID)
}

// SetQuantity sets a line's quantity; n <= 0 removes the line.
func (c *Cart) SetQuantity(id LineItemID, n int) {
	item, ok := c.items[id]
	if !ok {
		return
	}
	if n <= 0 {
		c.Remove(id)
		return
	}
	item.Quantity = n
}

func (c *Cart) Remove(id LineItemID) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.items = map[LineItemID]*LineItem{}
	c.order = nil
}

// Total sums unit price times quantity over all lines, rounded to two
// decimal places.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return money.Round(total)
}

// Count is the total number of units across all lines.
func (c *Cart) Count() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Items returns the lines in insertion order. The returned slice holds
// copies; mutating it does not touch the cart.
func (c *Cart) Items() []LineItem {
	items := make([]LineItem, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, *c.items[id])
	}
	return items
}

// Get looks up one line by identity.
func (c *Cart) Get(id LineItemID) (LineItem, bool) {
	item, ok := c.items[id]
	if !ok {
		return LineItem{}, false
	}
	return *item, true
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// PointsCost sums the loyalty points the cart's reward lines will
// deduct at checkout. Summed per line, not per unit, mirroring how the
// deduction is computed over persisted order items.
func (c *Cart) PointsCost() int {
	points := 0
	for _, item := range c.items {
		points += item.PointsCost
	}
	return points
}
