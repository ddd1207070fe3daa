package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/PierreBultez/WendysDiner/internal/api"
	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/catalog"
	"github.com/PierreBultez/WendysDiner/internal/checkout"
	"github.com/PierreBultez/WendysDiner/internal/config"
	"github.com/PierreBultez/WendysDiner/internal/gateway"
	"github.com/PierreBultez/WendysDiner/internal/loyalty"
	"github.com/PierreBultez/WendysDiner/internal/notify"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/internal/payment"
	"github.com/PierreBultez/WendysDiner/internal/pos"
	"github.com/PierreBultez/WendysDiner/internal/schedule"
	"github.com/PierreBultez/WendysDiner/pkg/db"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

const serviceName = "wendys-diner"

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

	pool, err := db.Connect(ctx, cfg.DB.DSN(), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// The broker is optional at startup: ordering keeps working without
	// events, so a down RabbitMQ must not keep the diner closed.
	var notifier *notify.Publisher
	if p, err := notify.Connect(cfg.RMQ.URL(), log); err != nil {
		log.Error("", "rabbitmq_unavailable", "Starting without the event publisher", err)
	} else {
		notifier = p
		defer notifier.Close()
	}

	catalogRepo := catalog.NewRepo(pool)
	orderRepo := order.NewRepo(pool)
	paymentRepo := payment.NewRepo(pool)
	carts := cart.NewMemoryStore()
	loyaltySvc := loyalty.NewService(loyalty.NewPGStore(pool), log)
	revolut := gateway.NewClient(cfg.Revolut.Mode, cfg.Revolut.Key)

	allocator := schedule.Allocator{
		Granularity:   cfg.Slots.Granularity,
		LeadTime:      cfg.Slots.LeadTime,
		ClosingBuffer: cfg.Slots.ClosingBuffer,
	}

	var checkoutNotifier checkout.Notifier
	var posNotifier pos.Notifier
	if notifier != nil {
		checkoutNotifier = notifier
		posNotifier = notifier
	}

	checkoutSvc := checkout.NewService(
		orderRepo, paymentRepo, revolut, loyaltySvc, carts, checkoutNotifier,
		allocator, cfg.Slots.Weekly, cfg.POS.DeliveryFee, log,
	)
	posSvc := pos.NewService(orderRepo, paymentRepo, posNotifier, log)

	router := api.NewRouter(
		api.NewMenuHandler(catalogRepo, log),
		api.NewCartHandler(carts, catalogRepo, cfg.POS.MenuSurcharge, log),
		api.NewCheckoutHandler(checkoutSvc, log),
		api.NewAdminHandler(posSvc, carts, log),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("", "service_started", fmt.Sprintf("Listening on :%d", cfg.HTTPPort))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("", "shutdown_started", "Draining HTTP connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("", "service_stopped", "Goodbye")
	return nil
}
