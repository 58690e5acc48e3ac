package events

import (
	"context"
	"log"
	"sync"
)

// Handler consumes one event
type Handler func(e Event) error

// Bus is an in-memory publisher. Each handler runs on its own goroutine;
// failures are logged and never retried.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe adds a handler for an event type
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish hands the event to every subscriber of its type. Having no
// subscribers is not an error.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	handlers := append([]Handler(nil), b.handlers[e.Type]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(e); err != nil {
				log.Printf("⚠️ event handler failed for %s %s: %v", e.Type, e.ID, err)
			}
		}(handler)
	}
	return nil
}

// Wait blocks until every handler started so far has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

var _ Publisher = (*Bus)(nil)
