package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/unclebandit/customers-app/internal/model"
)

// --- Mock AMQP channel ---

type mockAcker struct {
	mu    sync.Mutex
	acks  []uint64
	nacks []uint64
}

func (a *mockAcker) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *mockAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, tag)
	return nil
}

func (a *mockAcker) Reject(tag uint64, requeue bool) error { return nil }

type mockChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	deliveries chan amqp.Delivery
}

func (c *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *mockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

// --- Tests ---

func TestNewEventsCarryCustomer(t *testing.T) {
	created := NewCreated(model.Customer{ID: 7, Name: "Alice"})
	if created.Type != CustomerCreated || created.CustomerID != 7 || created.Name != "Alice" {
		t.Errorf("unexpected created event %+v", created)
	}
	deleted := NewDeleted(7)
	if deleted.Type != CustomerDeleted || deleted.CustomerID != 7 {
		t.Errorf("unexpected deleted event %+v", deleted)
	}
	if created.ID == "" || created.ID == deleted.ID {
		t.Errorf("expected distinct event ids, got %q and %q", created.ID, deleted.ID)
	}
}

func TestBusDeliversToSubscribersOfType(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var got []Event
	bus.Subscribe(CustomerCreated, func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})
	bus.Subscribe(CustomerDeleted, func(e Event) error {
		t.Errorf("deleted handler should not run for %s", e.Type)
		return nil
	})

	if err := bus.Publish(context.Background(), NewCreated(model.Customer{ID: 1, Name: "A"})); err != nil {
		t.Fatalf("publish: %v", err)
	}
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].CustomerID != 1 {
		t.Errorf("unexpected deliveries %+v", got)
	}
}

func TestBusWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	if err := bus.Publish(context.Background(), NewDeleted(3)); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}

func TestBusHandlerErrorIsNotRetried(t *testing.T) {
	bus := NewBus()
	calls := 0
	var mu sync.Mutex
	bus.Subscribe(CustomerDeleted, func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("handler down")
	})

	if err := bus.Publish(context.Background(), NewDeleted(3)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAMQPPublisherPublishesJSON(t *testing.T) {
	ch := &mockChannel{}
	pub, err := NewAMQPPublisher(ch, "customer_events")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	e := NewCreated(model.Customer{ID: 5, Name: "Eve"})
	if err := pub.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(ch.declared) != 1 || ch.declared[0] != "customer_events" {
		t.Errorf("declared = %v", ch.declared)
	}
	if len(ch.published) != 1 || ch.keys[0] != "customer_events" {
		t.Fatalf("published = %d messages to %v", len(ch.published), ch.keys)
	}
	var decoded Event
	if err := json.Unmarshal(ch.published[0].Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.ID != e.ID || decoded.Name != "Eve" || decoded.Type != CustomerCreated {
		t.Errorf("decoded = %+v, want %+v", decoded, e)
	}
	if ch.published[0].ContentType != "application/json" {
		t.Errorf("content type = %q", ch.published[0].ContentType)
	}
}

func TestAMQPPublisherReportsFailure(t *testing.T) {
	ch := &mockChannel{publishErr: errors.New("channel closed")}
	pub, err := NewAMQPPublisher(ch, "customer_events")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if err := pub.Publish(context.Background(), NewDeleted(1)); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestConsumeAcksAndNacks(t *testing.T) {
	acker := &mockAcker{}
	ch := &mockChannel{deliveries: make(chan amqp.Delivery, 3)}

	good, _ := json.Marshal(NewCreated(model.Customer{ID: 1, Name: "A"}))
	failing, _ := json.Marshal(NewDeleted(2))
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: good}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("not json")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: failing}
	close(ch.deliveries)

	var handled []int64
	err := Consume(context.Background(), ch, "customer_events", func(e Event) error {
		handled = append(handled, e.CustomerID)
		if e.Type == CustomerDeleted {
			return errors.New("audit log unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(handled) != 2 {
		t.Errorf("handled = %v, want 2 events", handled)
	}
	if len(acker.acks) != 1 || acker.acks[0] != 1 {
		t.Errorf("acks = %v, want [1]", acker.acks)
	}
	if len(acker.nacks) != 2 || acker.nacks[0] != 2 || acker.nacks[1] != 3 {
		t.Errorf("nacks = %v, want [2 3]", acker.nacks)
	}
}

func TestConsumeStopsOnContextCancel(t *testing.T) {
	ch := &mockChannel{deliveries: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Consume(ctx, ch, "customer_events", func(Event) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("consume: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not stop after cancel")
	}
}
