// Package pos drives the counter flows: registering an immediate sale
// against a settled tender ledger, cashing in a deferred order, and
// marking kitchen orders complete.
package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/internal/payment"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

var ErrEmptyCart = errors.New("cart is empty")

// ErrNotSettleable is returned when cashing in an order that is not
// awaiting payment.
var ErrNotSettleable = errors.New("order is not awaiting payment")

type OrderStore interface {
	CreateWithItems(ctx context.Context, o order.Order, items []order.Item, tenders []order.TenderLine) (order.Order, error)
	ByID(ctx context.Context, id int64) (order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status) error
	ListForDate(ctx context.Context, day time.Time, status order.Status) ([]order.Order, error)
}

type PaymentStore interface {
	Settle(ctx context.Context, orderID int64, tenders []payment.Tender, newStatus string) error
	ListForOrder(ctx context.Context, orderID int64) ([]payment.Payment, error)
}

type Notifier interface {
	OrderCreated(ctx context.Context, o order.Order) error
	StatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus order.Status) error
}

type Service struct {
	orders   OrderStore
	payments PaymentStore
	notifier Notifier
	log      *logger.Logger
}

func NewService(orders OrderStore, payments PaymentStore, notifier Notifier, log *logger.Logger) *Service {
	return &Service{orders: orders, payments: payments, notifier: notifier, log: log}
}

// RegisterSale persists a walk-in POS sale: the order, its items and
// the ledger's tender lines land in one transaction. The ledger must
// already cover the cart total. POS sales claim no pickup slot and are
// created directly in the completed status: the customer is at the
// counter, there is nothing left to fulfill after handover.
func (s *Service) RegisterSale(ctx context.Context, c *cart.Cart, ledger *payment.Ledger) (order.Order, error) {
	if c.IsEmpty() {
		return order.Order{}, ErrEmptyCart
	}
	if !ledger.Settled() {
		return order.Order{}, payment.ErrInsufficient
	}

	o := order.Order{
		Total:  c.Total(),
		Status: order.StatusCompleted,
	}

	created, err := s.orders.CreateWithItems(ctx, o, order.ItemsFrom(c), tenderLines(ledger))
	if err != nil {
		return order.Order{}, fmt.Errorf("register sale: %w", err)
	}

	s.log.Info("", "pos_sale_registered",
		fmt.Sprintf("Order %d registered for %s", created.ID, created.Total.StringFixed(2)))

	if s.notifier != nil {
		if err := s.notifier.OrderCreated(ctx, created); err != nil {
			s.log.Error("", "event_publish_failed", "Could not publish order event", err)
		}
	}
	return created, nil
}

// SettleOrder cashes in an order previously left to_pay. The ledger's
// rows and the advance to in_progress are written in one transaction.
func (s *Service) SettleOrder(ctx context.Context, orderID int64, ledger *payment.Ledger) error {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusToPay {
		return ErrNotSettleable
	}
	if !ledger.Settled() {
		return payment.ErrInsufficient
	}

	err = s.payments.Settle(ctx, orderID, ledger.Tenders(), string(order.StatusInProgress))
	if err != nil {
		return fmt.Errorf("settle order %d: %w", orderID, err)
	}

	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, orderID, order.StatusToPay, order.StatusInProgress); err != nil {
			s.log.Error("", "event_publish_failed", "Could not publish status change", err)
		}
	}
	return nil
}

// CompleteOrder marks an in_progress order picked up or delivered.
func (s *Service) CompleteOrder(ctx context.Context, orderID int64) error {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.StatusCompleted); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, orderID, o.Status, order.StatusCompleted); err != nil {
			s.log.Error("", "event_publish_failed", "Could not publish status change", err)
		}
	}
	return nil
}

// OrderByID loads one order for the staff detail view and for building
// a settlement ledger against its total.
func (s *Service) OrderByID(ctx context.Context, orderID int64) (order.Order, error) {
	return s.orders.ByID(ctx, orderID)
}

// PaymentsFor lists the payment rows recorded against an order.
func (s *Service) PaymentsFor(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	return s.payments.ListForOrder(ctx, orderID)
}

// OrdersForDate lists the staff view of one day's orders, optionally
// filtered by status.
func (s *Service) OrdersForDate(ctx context.Context, day time.Time, status order.Status) ([]order.Order, error) {
	return s.orders.ListForDate(ctx, day, status)
}

// TodaysOrders is OrdersForDate for the current day, the board's
// default view.
func (s *Service) TodaysOrders(ctx context.Context, status order.Status) ([]order.Order, error) {
	return s.orders.ListForDate(ctx, time.Now(), status)
}

func tenderLines(ledger *payment.Ledger) []order.TenderLine {
	tenders := ledger.Tenders()
	lines := make([]order.TenderLine, 0, len(tenders))
	for _, t := range tenders {
		lines = append(lines, order.TenderLine{Method: t.Method, Amount: t.Amount})
	}
	return lines
}
