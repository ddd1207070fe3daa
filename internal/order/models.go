// Package order owns the persisted order lifecycle: the status machine,
// the order/items data model, and the repository enforcing slot
// exclusivity at the storage layer.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order's lifecycle position. to_pay awaits payment
// capture (online gateway or pay-at-counter settlement), in_progress is
// kitchen-visible with payment secured, completed is picked up or
// delivered. There is no cancelled status: the only way an order
// disappears is the gateway-failure compensating delete.
type Status string

const (
	StatusToPay      Status = "to_pay"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// OccupyingStatuses are the statuses whose orders claim their pickup
// slot. All current statuses occupy; a future cancelled status would be
// left out of this set.
func OccupyingStatuses() []string {
	return []string{string(StatusToPay), string(StatusInProgress), string(StatusCompleted)}
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// Payment method tags recorded on the order at checkout.
const (
	PayMethodRevolut      = "revolut"
	PayMethodCardTerminal = "card_terminal"
	PayMethodCash         = "cash"
)

type Order struct {
	ID     int64           `json:"id"`
	Total  decimal.Decimal `json:"total_amount"`
	Status Status          `json:"status"`
	// PickupTime is nil for POS walk-in sales, which claim no slot.
	PickupTime      *time.Time     `json:"pickup_time,omitempty"`
	CustomerName    string         `json:"customer_name,omitempty"`
	CustomerEmail   string         `json:"customer_email,omitempty"`
	CustomerPhone   string         `json:"customer_phone,omitempty"`
	CustomerAddress string         `json:"customer_address,omitempty"`
	DeliveryMethod  DeliveryMethod `json:"delivery_method,omitempty"`
	PaymentMethod   string         `json:"payment_method,omitempty"`
	UserID          *int64         `json:"user_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	Items           []Item         `json:"items,omitempty"`
}

// Item is one persisted order line. ProductID is nil when the line's
// product could not be resolved (a bundle whose root lookup failed);
// that is a defensive fallback, not a normal path.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID *int64          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes,omitempty"`
	// Components is the serialized bundle component list, nil for
	// simple lines.
	Components []string `json:"components,omitempty"`
	PointsCost int      `json:"points_cost,omitempty"`
}

// TenderLine is a payment recorded atomically with a POS sale.
type TenderLine struct {
	Method string
	Amount decimal.Decimal
}
