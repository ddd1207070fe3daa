package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/gateway"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/internal/schedule"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

type fakeOrderStore struct {
	nextID  int64
	created []order.Order
	deleted []int64
	taken   map[string]bool
	byID    map[int64]order.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{nextID: 1, taken: map[string]bool{}, byID: map[int64]order.Order{}}
}

func (f *fakeOrderStore) CreateWithItems(ctx context.Context, o order.Order, items []order.Item, tenders []order.TenderLine) (order.Order, error) {
	if o.PickupTime != nil && f.taken[o.PickupTime.Format("15:04")] {
		return order.Order{}, order.ErrSlotTaken
	}
	o.ID = f.nextID
	f.nextID++
	o.CreatedAt = time.Now()
	o.Items = items
	f.created = append(f.created, o)
	f.byID[o.ID] = o
	if o.PickupTime != nil {
		f.taken[o.PickupTime.Format("15:04")] = true
	}
	return o, nil
}

func (f *fakeOrderStore) Delete(ctx context.Context, id int64) error {
	for i, o := range f.created {
		if o.ID == id {
			if o.PickupTime != nil {
				delete(f.taken, o.PickupTime.Format("15:04"))
			}
			f.created = append(f.created[:i], f.created[i+1:]...)
			delete(f.byID, id)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return order.ErrNotFound
}

func (f *fakeOrderStore) ByID(ctx context.Context, id int64) (order.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) SlotTaken(ctx context.Context, pickup time.Time) (bool, error) {
	return f.taken[pickup.Format("15:04")], nil
}

func (f *fakeOrderStore) TakenSlots(ctx context.Context, day time.Time) (map[string]bool, error) {
	return f.taken, nil
}

type fakePaymentStore struct {
	recorded []struct {
		OrderID int64
		Amount  decimal.Decimal
		Method  string
		Status  string
	}
}

func (f *fakePaymentStore) RecordGatewayPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method, newStatus string) error {
	f.recorded = append(f.recorded, struct {
		OrderID int64
		Amount  decimal.Decimal
		Method  string
		Status  string
	}{orderID, amount, method, newStatus})
	return nil
}

type fakeGateway struct {
	token string
	err   error
	calls int
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, description string) (gateway.Session, error) {
	f.calls++
	if f.err != nil {
		return gateway.Session{}, f.err
	}
	return gateway.Session{ID: "ord_1", Token: f.token}, nil
}

type fakeAccruer struct {
	applied []order.Order
}

func (f *fakeAccruer) Apply(ctx context.Context, o order.Order) error {
	f.applied = append(f.applied, o)
	return nil
}

type fakeNotifier struct {
	created []int64
	changes []string
}

func (f *fakeNotifier) OrderCreated(ctx context.Context, o order.Order) error {
	f.created = append(f.created, o.ID)
	return nil
}

func (f *fakeNotifier) StatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus order.Status) error {
	f.changes = append(f.changes, string(oldStatus)+">"+string(newStatus))
	return nil
}

type harness struct {
	svc      *Service
	orders   *fakeOrderStore
	payments *fakePaymentStore
	gateway  *fakeGateway
	loyalty  *fakeAccruer
	notifier *fakeNotifier
	carts    *cart.MemoryStore
}

// fridayNoon is a Friday, safely before the evening shift.
var fridayNoon = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		orders:   newFakeOrderStore(),
		payments: &fakePaymentStore{},
		gateway:  &fakeGateway{token: "tok_123"},
		loyalty:  &fakeAccruer{},
		notifier: &fakeNotifier{},
		carts:    cart.NewMemoryStore(),
	}
	h.svc = NewService(
		h.orders, h.payments, h.gateway, h.loyalty, h.carts, h.notifier,
		schedule.Allocator{
			Granularity:   15 * time.Minute,
			LeadTime:      30 * time.Minute,
			ClosingBuffer: 15 * time.Minute,
		},
		schedule.DefaultWeekly(),
		decimal.RequireFromString("2.00"),
		logger.NewLogger("test"),
	)
	h.svc.now = func() time.Time { return fridayNoon }
	return h
}

func (h *harness) fillCart(session string) {
	c := h.carts.Get(session)
	c.Add(cart.LineItem{
		ID:        cart.SimpleItemID(1, ""),
		Kind:      cart.KindSimple,
		Name:      "Classic Smash",
		UnitPrice: decimal.RequireFromString("9.50"),
		Quantity:  2,
		ProductID: 1,
	})
}

func validRequest(session string) Request {
	return Request{
		SessionID:      session,
		CustomerName:   "Jean Dupont",
		CustomerEmail:  "jean@example.com",
		CustomerPhone:  "0612345678",
		DeliveryMethod: "pickup",
		PaymentMethod:  order.PayMethodCash,
		Slot:           "19:00",
	}
}

func TestProcessValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"short name", func(r *Request) { r.CustomerName = "Jo" }, "customer_name"},
		{"bad email", func(r *Request) { r.CustomerEmail = "not-an-email" }, "customer_email"},
		{"missing phone", func(r *Request) { r.CustomerPhone = "" }, "customer_phone"},
		{"unknown delivery", func(r *Request) { r.DeliveryMethod = "drone" }, "delivery_method"},
		{"delivery without address", func(r *Request) { r.DeliveryMethod = "delivery" }, "customer_address"},
		{"unknown payment", func(r *Request) { r.PaymentMethod = "cheque" }, "payment_method"},
		{"missing slot", func(r *Request) { r.Slot = "" }, "slot"},
		{"garbage slot", func(r *Request) { r.Slot = "sept heures" }, "slot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.fillCart("s1")
			req := validRequest("s1")
			tt.mutate(&req)

			_, err := h.svc.Process(context.Background(), req)
			var v *ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if _, ok := v.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q flagged", v.Fields, tt.field)
			}
			if len(h.orders.created) != 0 {
				t.Error("nothing may be written on validation failure")
			}
		})
	}
}

func TestProcessEmptyCart(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Process(context.Background(), validRequest("s1"))
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestProcessCashOrderFinalizes(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	uid := int64(7)
	req := validRequest("s1")
	req.UserID = &uid

	result, err := h.svc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !result.Finalized {
		t.Error("deferred payment must finalize immediately")
	}
	o := result.Order
	if o.Status != order.StatusInProgress {
		t.Errorf("status = %s, want in_progress", o.Status)
	}
	if got := o.Total.StringFixed(2); got != "19.00" {
		t.Errorf("total = %s, want 19.00", got)
	}
	if o.PickupTime == nil || o.PickupTime.Format("15:04") != "19:00" {
		t.Errorf("pickup = %v, want 19:00", o.PickupTime)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Errorf("items = %+v", o.Items)
	}

	if len(h.loyalty.applied) != 1 {
		t.Error("loyalty accrual must run")
	}
	if !h.carts.Get("s1").IsEmpty() {
		t.Error("cart must be forgotten after checkout")
	}
	if len(h.notifier.created) != 1 {
		t.Error("order created event must publish")
	}
	if h.gateway.calls != 0 {
		t.Error("cash checkout must not touch the gateway")
	}
}

func TestProcessDeliveryAddsFee(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	req := validRequest("s1")
	req.DeliveryMethod = "delivery"
	req.CustomerAddress = "1 rue de la Paix"

	result, err := h.svc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := result.Order.Total.StringFixed(2); got != "21.00" {
		t.Errorf("total = %s, want cart 19.00 + fee 2.00", got)
	}
	if result.Order.CustomerAddress != "1 rue de la Paix" {
		t.Errorf("address = %q", result.Order.CustomerAddress)
	}
}

func TestProcessPickupDropsAddress(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	req := validRequest("s1")
	req.CustomerAddress = "should not persist"

	result, err := h.svc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Order.CustomerAddress != "" {
		t.Errorf("pickup order kept address %q", result.Order.CustomerAddress)
	}
}

func TestProcessSlotConflict(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	h.orders.taken["19:00"] = true

	_, err := h.svc.Process(context.Background(), validRequest("s1"))
	if !errors.Is(err, order.ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
	if len(h.orders.created) != 0 {
		t.Error("conflicting checkout must not create an order")
	}
	if h.carts.Get("s1").IsEmpty() {
		t.Error("cart must survive a slot conflict")
	}
}

func TestProcessRevolutReturnsToken(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	req := validRequest("s1")
	req.PaymentMethod = order.PayMethodRevolut

	result, err := h.svc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Finalized {
		t.Error("gateway checkout must not finalize before the callback")
	}
	if result.GatewayToken != "tok_123" {
		t.Errorf("token = %q", result.GatewayToken)
	}
	if result.Order.Status != order.StatusToPay {
		t.Errorf("status = %s, want to_pay", result.Order.Status)
	}
	if h.carts.Get("s1").IsEmpty() {
		t.Error("cart must survive until the success callback")
	}
	if len(h.loyalty.applied) != 0 {
		t.Error("loyalty must wait for the payment")
	}
}

func TestProcessGatewayFailureCompensates(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	h.gateway.err = &gateway.Error{StatusCode: 503, Body: "down"}
	req := validRequest("s1")
	req.PaymentMethod = order.PayMethodRevolut

	_, err := h.svc.Process(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error")
	}
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Errorf("err = %v, want the gateway error wrapped", err)
	}

	// The committed order is deleted again, freeing the slot.
	if len(h.orders.deleted) != 1 {
		t.Fatalf("deleted = %v, want one compensating delete", h.orders.deleted)
	}
	if h.orders.taken["19:00"] {
		t.Error("slot must be free after compensation")
	}

	// The slot is free again: the same checkout can retry.
	h.gateway.err = nil
	if _, err := h.svc.Process(context.Background(), req); err != nil {
		t.Errorf("retry after compensation: %v", err)
	}
}

func TestHandleGatewaySuccess(t *testing.T) {
	h := newHarness()
	h.fillCart("s1")
	uid := int64(7)
	req := validRequest("s1")
	req.UserID = &uid
	req.PaymentMethod = order.PayMethodRevolut

	result, err := h.svc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	o, err := h.svc.HandleGatewaySuccess(context.Background(), result.Order.ID, "s1")
	if err != nil {
		t.Fatalf("HandleGatewaySuccess: %v", err)
	}

	if o.Status != order.StatusInProgress {
		t.Errorf("status = %s, want in_progress", o.Status)
	}
	if len(h.payments.recorded) != 1 {
		t.Fatal("gateway payment must be recorded")
	}
	rec := h.payments.recorded[0]
	if rec.Method != order.PayMethodRevolut || rec.Status != string(order.StatusInProgress) {
		t.Errorf("recorded = %+v", rec)
	}
	if got := rec.Amount.StringFixed(2); got != "19.00" {
		t.Errorf("recorded amount = %s, want the full total", got)
	}
	if len(h.loyalty.applied) != 1 {
		t.Error("loyalty accrual must run on success")
	}
	if !h.carts.Get("s1").IsEmpty() {
		t.Error("cart must be forgotten on success")
	}
	if len(h.notifier.changes) != 1 || h.notifier.changes[0] != "to_pay>in_progress" {
		t.Errorf("status changes = %v", h.notifier.changes)
	}
}

func TestHandleGatewaySuccessUnknownOrder(t *testing.T) {
	h := newHarness()
	if _, err := h.svc.HandleGatewaySuccess(context.Background(), 99, "s1"); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSlotsReflectOccupancy(t *testing.T) {
	h := newHarness()
	h.orders.taken["19:00"] = true

	slots, err := h.svc.Slots(context.Background())
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected Friday slots")
	}
	for _, s := range slots {
		if s.Time == "19:00" && s.Available {
			t.Error("claimed slot must be unavailable")
		}
		if s.Time == "19:15" && !s.Available {
			t.Error("free slot must be available")
		}
	}
}
