// Package checkout turns a session cart into a persisted, slot-claimed,
// payment-routed order. It is the only place the compensating delete
// for gateway failures lives.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/gateway"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/internal/schedule"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
	"github.com/PierreBultez/WendysDiner/pkg/money"
)

// ValidationError carries field-level messages back to the form. No
// state is mutated when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// OrderStore is the slice of the order repository checkout needs.
type OrderStore interface {
	CreateWithItems(ctx context.Context, o order.Order, items []order.Item, tenders []order.TenderLine) (order.Order, error)
	Delete(ctx context.Context, id int64) error
	ByID(ctx context.Context, id int64) (order.Order, error)
	SlotTaken(ctx context.Context, pickup time.Time) (bool, error)
	TakenSlots(ctx context.Context, day time.Time) (map[string]bool, error)
}

type PaymentStore interface {
	RecordGatewayPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method, newStatus string) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, description string) (gateway.Session, error)
}

type Accruer interface {
	Apply(ctx context.Context, o order.Order) error
}

// Notifier publishes order events; a nil Notifier disables publishing.
type Notifier interface {
	OrderCreated(ctx context.Context, o order.Order) error
	StatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus order.Status) error
}

type Service struct {
	orders   OrderStore
	payments PaymentStore
	gateway  Gateway
	loyalty  Accruer
	carts    cart.Store
	notifier Notifier

	allocator   schedule.Allocator
	weekly      schedule.Weekly
	deliveryFee decimal.Decimal

	log *logger.Logger
	now func() time.Time
}

func NewService(
	orders OrderStore,
	payments PaymentStore,
	gw Gateway,
	loyalty Accruer,
	carts cart.Store,
	notifier Notifier,
	allocator schedule.Allocator,
	weekly schedule.Weekly,
	deliveryFee decimal.Decimal,
	log *logger.Logger,
) *Service {
	return &Service{
		orders:      orders,
		payments:    payments,
		gateway:     gw,
		loyalty:     loyalty,
		carts:       carts,
		notifier:    notifier,
		allocator:   allocator,
		weekly:      weekly,
		deliveryFee: deliveryFee,
		log:         log,
		now:         time.Now,
	}
}

// Request is one checkout submission.
type Request struct {
	SessionID string
	UserID    *int64

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string

	DeliveryMethod string // "pickup" or "delivery"
	PaymentMethod  string // "revolut", "card_terminal" or "cash"
	Slot           string // "HH:MM"
}

// Result reports what happened to a submission. For the online-gateway
// path Finalized is false and GatewayToken carries the hosted-checkout
// token; the order stays to_pay until the success callback.
type Result struct {
	Order        order.Order
	GatewayToken string
	Finalized    bool
}

// Slots computes the current availability grid, excluding the times
// claimed by today's non-cancelled orders.
func (s *Service) Slots(ctx context.Context) ([]schedule.Slot, error) {
	now := s.now()
	taken, err := s.orders.TakenSlots(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("load taken slots: %w", err)
	}
	return s.allocator.Slots(now, s.weekly, taken), nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (s *Service) validate(req Request, c *cart.Cart) error {
	fields := map[string]string{}

	if c.IsEmpty() {
		fields["cart"] = "the cart is empty"
	}
	if utf8.RuneCountInString(req.CustomerName) < 3 {
		fields["customer_name"] = "name must be at least 3 characters"
	}
	if !emailPattern.MatchString(req.CustomerEmail) {
		fields["customer_email"] = "a valid email is required for confirmation"
	}
	if req.CustomerPhone == "" {
		fields["customer_phone"] = "a phone number is required"
	}

	switch req.DeliveryMethod {
	case string(order.DeliveryPickup):
	case string(order.DeliveryDelivery):
		if req.CustomerAddress == "" {
			fields["customer_address"] = "an address is required for delivery"
		}
	default:
		fields["delivery_method"] = "delivery method must be pickup or delivery"
	}

	switch req.PaymentMethod {
	case order.PayMethodRevolut, order.PayMethodCardTerminal, order.PayMethodCash:
	default:
		fields["payment_method"] = "unknown payment method"
	}

	if req.Slot == "" {
		fields["slot"] = "a pickup slot is required"
	} else if _, err := schedule.ParseTimeOfDay(req.Slot); err != nil {
		fields["slot"] = "invalid pickup slot"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Process runs the checkout: field validation, the authoritative slot
// re-check, the atomic order+items insert, then payment routing. On a
// slot conflict it returns order.ErrSlotTaken with nothing written; the
// caller regenerates the slot grid and asks the customer to reselect.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	c := s.carts.Get(req.SessionID)

	if err := s.validate(req, c); err != nil {
		return Result{}, err
	}

	tod, _ := schedule.ParseTimeOfDay(req.Slot)
	pickup := tod.At(s.now())

	// Pre-check before writing anything. The repository re-checks
	// inside the transaction; this keeps the common conflict cheap.
	taken, err := s.orders.SlotTaken(ctx, pickup)
	if err != nil {
		return Result{}, fmt.Errorf("slot availability check: %w", err)
	}
	if taken {
		return Result{}, order.ErrSlotTaken
	}

	total := c.Total()
	if req.DeliveryMethod == string(order.DeliveryDelivery) {
		total = money.Round(total.Add(s.deliveryFee))
	}

	status := order.StatusInProgress
	if req.PaymentMethod == order.PayMethodRevolut {
		status = order.StatusToPay
	}

	address := ""
	if req.DeliveryMethod == string(order.DeliveryDelivery) {
		address = req.CustomerAddress
	}

	o := order.Order{
		Total:           total,
		Status:          status,
		PickupTime:      &pickup,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: address,
		DeliveryMethod:  order.DeliveryMethod(req.DeliveryMethod),
		PaymentMethod:   req.PaymentMethod,
		UserID:          req.UserID,
	}

	created, err := s.orders.CreateWithItems(ctx, o, order.ItemsFrom(c), nil)
	if err != nil {
		return Result{}, err
	}

	if req.PaymentMethod == order.PayMethodRevolut {
		return s.startGatewayPayment(ctx, created)
	}

	// Deferred payment (counter cash or card terminal): the order is
	// kitchen-visible now, so finalize immediately.
	s.finalize(ctx, created, req.SessionID)
	return Result{Order: created, Finalized: true}, nil
}

// startGatewayPayment requests a hosted-checkout session for the
// committed order. A failure here is past the transaction boundary, so
// the order is deleted again to free the slot, the system's only
// post-commit rollback.
func (s *Service) startGatewayPayment(ctx context.Context, o order.Order) (Result, error) {
	description := fmt.Sprintf("Commande #%d - Wendy's Diner", o.ID)

	session, err := s.gateway.CreateOrder(ctx, o.Total, "EUR", description)
	if err != nil {
		s.log.Error("", "gateway_order_failed", "Payment gateway rejected the order", err)
		if delErr := s.orders.Delete(ctx, o.ID); delErr != nil {
			s.log.Error("", "compensation_failed",
				fmt.Sprintf("Could not delete order %d after gateway failure", o.ID), delErr)
		}
		return Result{}, fmt.Errorf("payment initialization failed: %w", err)
	}

	return Result{Order: o, GatewayToken: session.Token}, nil
}

// HandleGatewaySuccess is called on the authenticated success callback
// from the hosted checkout. It records the full-amount payment and
// advances the order in one transaction, then finalizes.
func (s *Service) HandleGatewaySuccess(ctx context.Context, orderID int64, sessionID string) (order.Order, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	err = s.payments.RecordGatewayPayment(ctx, o.ID, o.Total, order.PayMethodRevolut, string(order.StatusInProgress))
	if err != nil {
		return order.Order{}, fmt.Errorf("record gateway payment: %w", err)
	}

	oldStatus := o.Status
	o.Status = order.StatusInProgress

	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, o.ID, oldStatus, o.Status); err != nil {
			s.log.Error("", "event_publish_failed", "Could not publish status change", err)
		}
	}

	s.finalize(ctx, o, sessionID)
	return o, nil
}

// finalize runs the post-payment steps shared by the deferred and
// gateway paths: loyalty accrual, cart teardown, event publishing.
// None of these may fail the already-committed order; errors are logged.
func (s *Service) finalize(ctx context.Context, o order.Order, sessionID string) {
	if err := s.loyalty.Apply(ctx, o); err != nil {
		s.log.Error("", "loyalty_accrual_failed",
			fmt.Sprintf("Loyalty accrual failed for order %d", o.ID), err)
	}

	s.carts.Forget(sessionID)

	if s.notifier != nil {
		if err := s.notifier.OrderCreated(ctx, o); err != nil {
			s.log.Error("", "event_publish_failed", "Could not publish order event", err)
		}
	}
}

// IsValidation reports whether err is a field-validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
