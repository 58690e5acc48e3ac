package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streadway/amqp"
	"github.com/unclebandit/customers-app/internal/config"
	"github.com/unclebandit/customers-app/internal/events"
)

func main() {
	log.SetPrefix("[WORKER] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required")
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Worker running, waiting for customer events...")
	if err := events.Consume(ctx, ch, cfg.EventsQueue, logEvent); err != nil {
		log.Fatal("Failed to consume events:", err)
	}
}

func logEvent(e events.Event) error {
	log.Println(describe(e))
	return nil
}

// describe renders one audit line for an event
func describe(e events.Event) string {
	switch e.Type {
	case events.CustomerCreated:
		return fmt.Sprintf("%s customer %d created with name %q", e.OccurredAt.Format(time.RFC3339), e.CustomerID, e.Name)
	case events.CustomerDeleted:
		return fmt.Sprintf("%s customer %d deleted", e.OccurredAt.Format(time.RFC3339), e.CustomerID)
	}
	return fmt.Sprintf("%s unknown event %q for customer %d", e.OccurredAt.Format(time.RFC3339), e.Type, e.CustomerID)
}
