package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel used here.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// DeclareQueue declares the durable events queue.
func DeclareQueue(ch Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return q, nil
}

// AMQPPublisher publishes JSON events to a RabbitMQ queue
type AMQPPublisher struct {
	ch    Channel
	queue string
}

func NewAMQPPublisher(ch Channel, queue string) (*AMQPPublisher, error) {
	q, err := DeclareQueue(ch, queue)
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{ch: ch, queue: q.Name}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Type:         e.Type,
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

var _ Publisher = (*AMQPPublisher)(nil)

// Consume reads deliveries from queue until ctx is done or the channel
// closes. Malformed payloads and handler errors are nacked without requeue.
func Consume(ctx context.Context, ch Channel, queue string, handler Handler) error {
	q, err := DeclareQueue(ch, queue)
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			handleDelivery(d, handler)
		}
	}
}

func handleDelivery(d amqp.Delivery, handler Handler) {
	var e Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		log.Println("Invalid event:", err)
		_ = d.Nack(false, false)
		return
	}
	if err := handler(e); err != nil {
		log.Printf("⚠️ failed to handle event %s: %v", e.ID, err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
