package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
// A nil *Publisher is valid and drops all events, so callers never have to
// branch on whether eventing is configured.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishMemoryStored publishes a memory-stored event.
func (p *Publisher) PublishMemoryStored(ctx context.Context, event MemoryStoredEvent) error {
	return p.publish(ctx, SubjectMemoryStored, event)
}

// PublishMemoryDeleted publishes a memory-deleted event.
func (p *Publisher) PublishMemoryDeleted(ctx context.Context, event MemoryDeletedEvent) error {
	return p.publish(ctx, SubjectMemoryDeleted, event)
}

// PublishSearchDegraded publishes a search-degradation event.
func (p *Publisher) PublishSearchDegraded(ctx context.Context, event SearchDegradedEvent) error {
	return p.publish(ctx, SubjectSearchDegraded, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
