package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/events"
	"github.com/tacnavial/tacnavial/internal/metrics"
)

// WarmRequest is the payload of a geocode.warm event. An empty address list
// warms the configured set.
type WarmRequest struct {
	Addresses []string `json:"addresses,omitempty"`
}

// Dispatcher routes consumed events to jobs. Domain change events are only
// logged; geocode.warm events run the warm job.
type Dispatcher struct {
	warm   *WarmJob
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher. warm may be nil, in which case warm
// requests are acknowledged and ignored.
func NewDispatcher(warm *WarmJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{warm: warm, logger: logger}
}

// Handle processes one event. A returned error asks the bus to redeliver.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) error {
	err := d.handle(ctx, e)
	metrics.EventsConsumed.WithLabelValues(e.Type, metrics.Outcome(err)).Inc()
	return err
}

func (d *Dispatcher) handle(ctx context.Context, e events.Event) error {
	logger := d.logger.With().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("aggregate_id", e.AggregateID).
		Logger()

	switch e.Type {
	case events.TypeObstructionAdded, events.TypeObstructionRemoved,
		events.TypeCommentSubmitted, events.TypeRouteStatusChanged:
		logger.Info().
			Dur("lag", time.Since(e.OccurredAt)).
			Msg("domain event received")
		return nil

	case events.TypeGeocodeWarm:
		if d.warm == nil {
			logger.Warn().Msg("warm requested but no warm job configured")
			return nil
		}
		var req WarmRequest
		if len(e.Data) > 0 {
			if err := json.Unmarshal(e.Data, &req); err != nil {
				// A malformed payload never becomes valid; do not redeliver.
				logger.Error().Err(err).Msg("invalid warm payload")
				return nil
			}
		}

		var result *WarmResult
		if len(req.Addresses) > 0 {
			result = d.warm.Warm(ctx, req.Addresses)
		} else {
			result = d.warm.Run(ctx)
		}
		if result.Failed > result.Resolved {
			return fmt.Errorf("too many warm failures: %d/%d", result.Failed, result.Total)
		}
		return nil

	default:
		logger.Warn().Msg("unknown event type")
		return nil
	}
}

// Verdict is what a transport does with a delivered message.
type Verdict int

const (
	// Ack settles the message.
	Ack Verdict = iota
	// Retry asks the bus to deliver the message again later.
	Retry
	// Drop settles a message that can never be processed.
	Drop
)

func (v Verdict) String() string {
	switch v {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	default:
		return "drop"
	}
}

// Deliver decodes a raw bus message and handles it.
func (d *Dispatcher) Deliver(ctx context.Context, data []byte, logger zerolog.Logger) Verdict {
	e, err := events.Decode(data)
	if err != nil {
		logger.Error().Err(err).Int("bytes", len(data)).Msg("undecodable message")
		metrics.EventsConsumed.WithLabelValues("unknown", "dropped").Inc()
		return Drop
	}

	start := time.Now()
	if err := d.Handle(ctx, e); err != nil {
		logger.Error().Err(err).Str("event_type", e.Type).Msg("event handling failed")
		return Retry
	}
	logger.Debug().Str("event_type", e.Type).Dur("duration", time.Since(start)).Msg("event handled")
	return Ack
}
