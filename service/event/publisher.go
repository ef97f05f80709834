package event

import (
	"context"
	"errors"

	"github.com/viant/rrsched/internal/clock"
	"github.com/viant/rrsched/service/messaging"
)

// ErrDropped is returned when a non-blocking publish finds the queue full
var ErrDropped = errors.New("event: dropped")

// offerer is implemented by queues supporting non-blocking publication
type offerer[T any] interface {
	Offer(t *T) bool
}

// Publisher publishes typed events to a queue
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish sends an event. Queues that support Offer never block the caller;
// a full queue yields ErrDropped.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if p == nil || p.queue == nil {
		return nil
	}
	event.CreatedAt = clock.Now()
	if o, ok := p.queue.(offerer[Event[T]]); ok {
		if !o.Offer(event) {
			return ErrDropped
		}
		return nil
	}
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event, blocking until one is present
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
