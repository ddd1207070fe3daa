package order

import "github.com/PierreBultez/WendysDiner/internal/cart"

// ItemsFrom converts the cart's lines into persistable order items,
// capturing price, notes and points cost as they stood in the cart.
// Bundle lines keep their serialized component list and map to their
// root product; a line without a product mapping persists a null
// product reference.
func ItemsFrom(c *cart.Cart) []Item {
	lines := c.Items()
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		var productID *int64
		if line.ProductID != 0 {
			id := line.ProductID
			productID = &id
		}

		var components []string
		if line.IsBundle() {
			components = line.Components
		}

		items = append(items, Item{
			ProductID:  productID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Notes:      line.Notes,
			Components: components,
			PointsCost: line.PointsCost,
		})
	}
	return items
}
