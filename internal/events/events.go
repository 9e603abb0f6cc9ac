// Package events publishes domain events describing changes to obstructions,
// comments and route statuses so other processes can react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeObstructionAdded   = "obstruction.added"
	TypeObstructionRemoved = "obstruction.removed"
	TypeCommentSubmitted   = "comment.submitted"
	TypeRouteStatusChanged = "route.status_changed"
	TypeGeocodeWarm        = "geocode.warm"
)

// Event is the envelope published for every domain change.
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// New builds an event, serializing data into the envelope.
func New(eventType, aggregateID string, data any) (Event, error) {
	e := Event{
		ID:          "evt_" + uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("marshaling %s payload: %w", eventType, err)
		}
		e.Data = raw
	}
	return e, nil
}

// Decode parses an event envelope.
func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return e, nil
}

// Publisher delivers events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit builds and publishes an event. Failures are returned so callers can
// log them; domain writes never fail because of the bus.
func Emit(ctx context.Context, p Publisher, eventType, aggregateID string, data any) error {
	if p == nil {
		return nil
	}
	e, err := New(eventType, aggregateID, data)
	if err != nil {
		return err
	}
	return p.Publish(ctx, e)
}
