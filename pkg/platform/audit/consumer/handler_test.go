package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "mrzgate/pkg/platform/audit"
)

type recordingSink struct {
	err    error
	ids    []uuid.UUID
	events []audit.Event
}

func (s *recordingSink) AppendWithID(_ context.Context, id uuid.UUID, event audit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, id)
	s.events = append(s.events, event)
	return nil
}

func record(t *testing.T, offset int64, event audit.Event) *kgo.Record {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return &kgo.Record{
		Topic:     "mrzgate.audit",
		Partition: 0,
		Offset:    offset,
		Value:     value,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("stores events under a position-derived ID", func(t *testing.T) {
		sink := &recordingSink{}
		h := NewHandler(sink, nil)

		rec := record(t, 7, audit.Event{Action: string(audit.EventMRZValidated), Subject: "fp-1"})
		require.NoError(t, h.Handle(ctx, rec))
		require.NoError(t, h.Handle(ctx, rec))

		require.Len(t, sink.events, 2)
		assert.Equal(t, sink.ids[0], sink.ids[1], "replays map to the same ID")
		assert.Equal(t, audit.CategoryOperations, sink.events[0].Category)
		assert.Equal(t, rec.Timestamp, sink.events[0].Timestamp)
	})

	t.Run("different offsets get different IDs", func(t *testing.T) {
		a := record(t, 1, audit.Event{})
		b := record(t, 2, audit.Event{})
		assert.NotEqual(t, EventID(a), EventID(b))
	})

	t.Run("malformed records are skipped", func(t *testing.T) {
		sink := &recordingSink{}
		h := NewHandler(sink, nil)
		err := h.Handle(ctx, &kgo.Record{Topic: "mrzgate.audit", Value: []byte("{not json")})
		require.NoError(t, err)
		assert.Empty(t, sink.events)
	})

	t.Run("ops sink failures are swallowed", func(t *testing.T) {
		h := NewHandler(&recordingSink{err: errors.New("db down")}, nil)
		err := h.Handle(ctx, record(t, 3, audit.Event{Action: string(audit.EventMRZGenerated)}))
		assert.NoError(t, err)
	})

	t.Run("compliance sink failures are returned", func(t *testing.T) {
		h := NewHandler(&recordingSink{err: errors.New("db down")}, nil)
		err := h.Handle(ctx, record(t, 4, audit.Event{Action: string(audit.EventReportViewed)}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store compliance event")
	})
}
