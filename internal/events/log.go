package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to the log. It is the default backend for local
// development and single-process deployments.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	ev := p.logger.Info().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("aggregate_id", e.AggregateID)
	if len(e.Data) > 0 {
		ev = ev.RawJSON("data", e.Data)
	}
	ev.Msg("domain event")
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }

var _ Publisher = (*LogPublisher)(nil)
