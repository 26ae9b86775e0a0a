// Package mq publishes domain events to a message broker. Publishing is
// best effort: the API never fails a request because the broker is down, and
// no component of this server consumes the events itself.
package mq

import (
	"context"
	"encoding/json"
	"time"
)

// Event names emitted by the contribution lifecycle.
const (
	EventContributionSubmitted     = "contribution.submitted"
	EventContributionStatusChanged = "contribution.status_changed"
)

// Channel is the broker queue/topic all events go to.
const Channel = "magazine-events"

// Event is one domain occurrence, serialised as JSON on the wire.
type Event struct {
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with a stable API.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Emit serialises and publishes an event. The broker message id is returned
// for logging.
func (p *Publisher) Emit(ctx context.Context, event Event) (string, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, Channel, data, map[string]string{"event": event.Name})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
