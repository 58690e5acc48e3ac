// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/streadway/amqp"

	"github.com/unclebandit/customers-app/internal/config"
	"github.com/unclebandit/customers-app/internal/controller"
	"github.com/unclebandit/customers-app/internal/db"
	"github.com/unclebandit/customers-app/internal/events"
	"github.com/unclebandit/customers-app/internal/handler"
	"github.com/unclebandit/customers-app/internal/repository"
	"github.com/unclebandit/customers-app/internal/service"
)

func main() {
	log.SetPrefix("[CUSTOMERS] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	handle, err := db.Open(db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, DSN: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer handle.Close()

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	customerRepo := &repository.CustomerRepository{DB: handle}
	customerService := service.NewCustomerService(customerRepo, publisher)
	customerService.OnReady = func() { log.Println("✅ Customers loaded") }
	customerService.Start(ctx)
	defer customerService.Stop()

	// the page shows "Loading..." until this finishes
	go func() {
		if err := <-customerService.Init(); err != nil {
			log.Println("❌ Initial load failed:", err)
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handler.NewCustomerHandler(customerService).Routes(r)
	customerController := &controller.CustomerController{CustomerService: customerService}
	customerController.Routes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server running on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("Shutting down...")
	return srv.Shutdown(shutdownCtx)
}

// newPublisher returns the AMQP publisher when AMQP_URL is set and an
// in-memory bus with a logging subscriber otherwise.
func newPublisher(cfg config.Config) (events.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		bus := events.NewBus()
		logEvent := func(e events.Event) error {
			log.Printf("📣 %s customer=%d", e.Type, e.CustomerID)
			return nil
		}
		bus.Subscribe(events.CustomerCreated, logEvent)
		bus.Subscribe(events.CustomerDeleted, logEvent)
		return bus, bus.Wait, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	publisher, err := events.NewAMQPPublisher(ch, cfg.EventsQueue)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	return publisher, func() {
		ch.Close()
		conn.Close()
	}, nil
}
