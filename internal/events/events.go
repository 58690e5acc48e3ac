// Package events publishes customer change notifications.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unclebandit/customers-app/internal/model"
)

const (
	CustomerCreated = "customer.created"
	CustomerDeleted = "customer.deleted"
)

// Event describes one committed change to the customers table.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CustomerID int64     `json:"customer_id"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher interface
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func NewCreated(c model.Customer) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       CustomerCreated,
		CustomerID: c.ID,
		Name:       c.Name,
		OccurredAt: time.Now().UTC(),
	}
}

func NewDeleted(id int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       CustomerDeleted,
		CustomerID: id,
		OccurredAt: time.Now().UTC(),
	}
}
