package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

// Consumer feeds the kitchen display: it binds an exclusive queue to
// the orders exchange and hands every event to the display callbacks.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logger.Logger

	// OnOrderCreated and OnStatusChanged receive decoded events. Nil
	// callbacks drop their events.
	OnOrderCreated  func(OrderCreatedEvent)
	OnStatusChanged func(StatusChangedEvent)
}

// Subscribe dials the broker, declares the exchange and binds a
// server-named exclusive queue to every order.* routing key.
func Subscribe(url string, log *logger.Logger) (*Consumer, error) {
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
	return &Consumer{conn: conn, channel: channel, log: log}, nil
}

// Run consumes events until the context is cancelled or the broker
// closes the delivery channel.
func (c *Consumer) Run(ctx context.Context) error {
	q, err := c.channel.QueueDeclare(
		"",    // name (server-generated)
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(q.Name, "order.*", ordersExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.Info("startup", "subscriber_started", "Listening for order events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := c.dispatch(msg); err != nil {
				c.log.Error("", "event_process_failed", "Could not process event", err)
			}
		}
	}
}

func (c *Consumer) dispatch(msg amqp.Delivery) error {
	switch msg.RoutingKey {
	case RoutingOrderCreated:
		var event OrderCreatedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("decode order created event: %w", err)
		}
		if c.OnOrderCreated != nil {
			c.OnOrderCreated(event)
		}
	case RoutingStatusChanged:
		var event StatusChangedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("decode status changed event: %w", err)
		}
		if c.OnStatusChanged != nil {
			c.OnStatusChanged(event)
		}
	default:
		c.log.Debug("", "event_skipped", fmt.Sprintf("Unknown routing key %q", msg.RoutingKey))
	}
	return nil
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
