// Package notify publishes order events for the kitchen display and
// other subscribers. Publishing is best-effort: a broker outage must
// never fail the sale that triggered the event, so callers log publish
// errors and move on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

const (
	ordersExchange = "orders_topic"

	RoutingOrderCreated  = "order.created"
	RoutingStatusChanged = "order.status_changed"
)

type OrderCreatedEvent struct {
	OrderID    int64     `json:"order_id"`
	Status     string    `json:"status"`
	Total      string    `json:"total_amount"`
	PickupTime string    `json:"pickup_time,omitempty"`
	Delivery   string    `json:"delivery_method,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type StatusChangedEvent struct {
	OrderID   int64     `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logger.Logger
}

// Connect dials the broker and declares the durable topic exchange the
// events flow through.
func Connect(url string, log *logger.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		ordersExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info("startup", "mb_connected", "Connected to RabbitMQ")
	return &Publisher{conn: conn, channel: channel, log: log}, nil
}

func (p *Publisher) OrderCreated(ctx context.Context, o order.Order) error {
	event := OrderCreatedEvent{
		OrderID:   o.ID,
		Status:    string(o.Status),
		Total:     o.Total.StringFixed(2),
		Delivery:  string(o.DeliveryMethod),
		CreatedAt: o.CreatedAt,
	}
	if o.PickupTime != nil {
		event.PickupTime = o.PickupTime.Format("15:04")
	}
	return p.publish(ctx, RoutingOrderCreated, event)
}

func (p *Publisher) StatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus order.Status) error {
	return p.publish(ctx, RoutingStatusChanged, StatusChangedEvent{
		OrderID:   orderID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		ordersExchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
