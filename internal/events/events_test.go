package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/events"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestNew_RoundTripsThroughDecode(t *testing.T) {
	e, err := events.New(events.TypeRouteStatusChanged, "R001", map[string]string{"status": "blocked"})
	require.NoError(t, err)
	assert.Contains(t, e.ID, "evt_")
	assert.False(t, e.OccurredAt.IsZero())

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	decoded, err := events.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, events.TypeRouteStatusChanged, decoded.Type)
	assert.JSONEq(t, `{"status":"blocked"}`, string(decoded.Data))
}

func TestEmit(t *testing.T) {
	p := &recordingPublisher{}
	require.NoError(t, events.Emit(context.Background(), p, events.TypeObstructionRemoved, "obs1", nil))
	require.Len(t, p.events, 1)
	assert.Equal(t, "obs1", p.events[0].AggregateID)
	assert.Nil(t, p.events[0].Data)

	assert.NoError(t, events.Emit(context.Background(), nil, events.TypeObstructionRemoved, "obs1", nil))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := events.NewLogPublisher(zerolog.New(&buf))

	e, err := events.New(events.TypeCommentSubmitted, "comment-1", map[string]bool{"hasImage": true})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, events.TypeCommentSubmitted, line["event_type"])
	assert.Equal(t, "comment-1", line["aggregate_id"])
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "tacnavial.obstruction.added", events.Subject("tacnavial", events.TypeObstructionAdded))
}
