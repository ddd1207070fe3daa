// The kitchen display: a terminal subscriber that prints order events
// as they happen, for the screen above the grill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/PierreBultez/WendysDiner/internal/config"
	"github.com/PierreBultez/WendysDiner/internal/notify"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

const serviceName = "kitchen-display"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	godotenv.Load()

	log := logger.NewLogger(serviceName)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := notify.Subscribe(cfg.RMQ.URL(), log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer consumer.Close()

	consumer.OnOrderCreated = func(e notify.OrderCreatedEvent) {
		line := fmt.Sprintf("Commande #%d - %s EUR", e.OrderID, e.Total)
		if e.PickupTime != "" {
			line += fmt.Sprintf(", retrait %s", e.PickupTime)
		}
		if e.Delivery == "delivery" {
			line += ", livraison"
		}
		fmt.Println(line)
	}
	consumer.OnStatusChanged = func(e notify.StatusChangedEvent) {
		fmt.Printf("Commande #%d : %s -> %s\n", e.OrderID, e.OldStatus, e.NewStatus)
	}

	return consumer.Run(ctx)
}
