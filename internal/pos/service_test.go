package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/internal/payment"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

type fakeOrders struct {
	nextID   int64
	byID     map[int64]order.Order
	statuses map[int64]order.Status
	tenders  map[int64][]order.TenderLine
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		nextID:   1,
		byID:     map[int64]order.Order{},
		statuses: map[int64]order.Status{},
		tenders:  map[int64][]order.TenderLine{},
	}
}

func (f *fakeOrders) CreateWithItems(ctx context.Context, o order.Order, items []order.Item, tenders []order.TenderLine) (order.Order, error) {
	o.ID = f.nextID
	f.nextID++
	o.CreatedAt = time.Now()
	o.Items = items
	f.byID[o.ID] = o
	f.statuses[o.ID] = o.Status
	f.tenders[o.ID] = tenders
	return o, nil
}

func (f *fakeOrders) ByID(ctx context.Context, id int64) (order.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.Status = f.statuses[id]
	return o, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	if _, ok := f.byID[id]; !ok {
		return order.ErrNotFound
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeOrders) ListForDate(ctx context.Context, day time.Time, status order.Status) ([]order.Order, error) {
	var out []order.Order
	for id, o := range f.byID {
		o.Status = f.statuses[id]
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakePayments struct {
	settled []struct {
		OrderID int64
		Tenders []payment.Tender
		Status  string
	}
}

func (f *fakePayments) Settle(ctx context.Context, orderID int64, tenders []payment.Tender, newStatus string) error {
	f.settled = append(f.settled, struct {
		OrderID int64
		Tenders []payment.Tender
		Status  string
	}{orderID, tenders, newStatus})
	return nil
}

func (f *fakePayments) ListForOrder(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	var out []payment.Payment
	for _, s := range f.settled {
		if s.OrderID != orderID {
			continue
		}
		for _, t := range s.Tenders {
			out = append(out, payment.Payment{OrderID: orderID, Amount: t.Amount, Method: t.Method})
		}
	}
	return out, nil
}

func filledCart() *cart.Cart {
	c := cart.New()
	c.Add(cart.LineItem{
		ID:        cart.SimpleItemID(1, ""),
		Kind:      cart.KindSimple,
		Name:      "Classic Smash",
		UnitPrice: decimal.RequireFromString("9.50"),
		Quantity:  2,
		ProductID: 1,
	})
	return c
}

func settledLedger(total decimal.Decimal) *payment.Ledger {
	l := payment.NewLedger(total)
	l.AddTender(payment.MethodCash, total.StringFixed(2))
	return l
}

func newTestService() (*Service, *fakeOrders, *fakePayments) {
	orders := newFakeOrders()
	payments := &fakePayments{}
	return NewService(orders, payments, nil, logger.NewLogger("test")), orders, payments
}

func TestRegisterSale(t *testing.T) {
	svc, orders, _ := newTestService()
	c := filledCart()

	o, err := svc.RegisterSale(context.Background(), c, settledLedger(c.Total()))
	if err != nil {
		t.Fatalf("RegisterSale: %v", err)
	}

	if o.Status != order.StatusCompleted {
		t.Errorf("status = %s, want completed for a walk-in sale", o.Status)
	}
	if o.PickupTime != nil {
		t.Error("walk-in sales claim no pickup slot")
	}
	if got := o.Total.StringFixed(2); got != "19.00" {
		t.Errorf("total = %s, want 19.00", got)
	}
	tenders := orders.tenders[o.ID]
	if len(tenders) != 1 || tenders[0].Method != payment.MethodCash {
		t.Errorf("persisted tenders = %+v", tenders)
	}
	if got := tenders[0].Amount.StringFixed(2); got != "19.00" {
		t.Errorf("tender amount = %s", got)
	}
}

func TestRegisterSaleRejectsEmptyCart(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RegisterSale(context.Background(), cart.New(), settledLedger(decimal.Zero))
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("err = %v, want ErrEmptyCart", err)
	}
}

func TestRegisterSaleRequiresFullPayment(t *testing.T) {
	svc, orders, _ := newTestService()
	c := filledCart()

	l := payment.NewLedger(c.Total())
	l.AddTender(payment.MethodCash, "10.00")

	_, err := svc.RegisterSale(context.Background(), c, l)
	if !errors.Is(err, payment.ErrInsufficient) {
		t.Errorf("err = %v, want ErrInsufficient", err)
	}
	if len(orders.byID) != 0 {
		t.Error("underpaid sale must not persist")
	}
}

func TestSettleOrder(t *testing.T) {
	svc, orders, payments := newTestService()
	total := decimal.RequireFromString("23.40")
	created, _ := orders.CreateWithItems(context.Background(),
		order.Order{Total: total, Status: order.StatusToPay}, nil, nil)

	l := payment.NewLedger(total)
	l.AddTender(payment.MethodCash, "13.40")
	l.AddTender(payment.MethodCard, "10.00")

	if err := svc.SettleOrder(context.Background(), created.ID, l); err != nil {
		t.Fatalf("SettleOrder: %v", err)
	}

	if len(payments.settled) != 1 {
		t.Fatal("settlement must reach the payment store")
	}
	s := payments.settled[0]
	if s.Status != string(order.StatusInProgress) {
		t.Errorf("new status = %s, want in_progress", s.Status)
	}
	if len(s.Tenders) != 2 {
		t.Errorf("tenders = %+v, want both lines", s.Tenders)
	}
}

func TestSettleOrderOnlyFromToPay(t *testing.T) {
	svc, orders, _ := newTestService()
	total := decimal.RequireFromString("10.00")

	for _, status := range []order.Status{order.StatusInProgress, order.StatusCompleted} {
		created, _ := orders.CreateWithItems(context.Background(),
			order.Order{Total: total, Status: status}, nil, nil)

		err := svc.SettleOrder(context.Background(), created.ID, settledLedger(total))
		if !errors.Is(err, ErrNotSettleable) {
			t.Errorf("settling a %s order: err = %v, want ErrNotSettleable", status, err)
		}
	}
}

func TestSettleOrderRequiresFullPayment(t *testing.T) {
	svc, orders, payments := newTestService()
	total := decimal.RequireFromString("23.40")
	created, _ := orders.CreateWithItems(context.Background(),
		order.Order{Total: total, Status: order.StatusToPay}, nil, nil)

	l := payment.NewLedger(total)
	l.AddTender(payment.MethodCash, "10.00")

	if err := svc.SettleOrder(context.Background(), created.ID, l); !errors.Is(err, payment.ErrInsufficient) {
		t.Errorf("err = %v, want ErrInsufficient", err)
	}
	if len(payments.settled) != 0 {
		t.Error("underpaid settlement must not persist")
	}
}

func TestSettleOrderUnknown(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.SettleOrder(context.Background(), 99, settledLedger(decimal.RequireFromString("5.00")))
	if !errors.Is(err, order.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	svc, orders, _ := newTestService()
	created, _ := orders.CreateWithItems(context.Background(),
		order.Order{Total: decimal.RequireFromString("10.00"), Status: order.StatusInProgress}, nil, nil)

	if err := svc.CompleteOrder(context.Background(), created.ID); err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}
	if orders.statuses[created.ID] != order.StatusCompleted {
		t.Errorf("status = %s, want completed", orders.statuses[created.ID])
	}

	if err := svc.CompleteOrder(context.Background(), 99); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTodaysOrdersFiltersByStatus(t *testing.T) {
	svc, orders, _ := newTestService()
	total := decimal.RequireFromString("10.00")
	orders.CreateWithItems(context.Background(), order.Order{Total: total, Status: order.StatusToPay}, nil, nil)
	orders.CreateWithItems(context.Background(), order.Order{Total: total, Status: order.StatusInProgress}, nil, nil)

	got, err := svc.TodaysOrders(context.Background(), order.StatusToPay)
	if err != nil {
		t.Fatalf("TodaysOrders: %v", err)
	}
	if len(got) != 1 || got[0].Status != order.StatusToPay {
		t.Errorf("orders = %+v", got)
	}

	all, _ := svc.TodaysOrders(context.Background(), "")
	if len(all) != 2 {
		t.Errorf("unfiltered list = %d orders, want 2", len(all))
	}
}
