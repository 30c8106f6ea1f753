package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/audit/store/kafka"
)

// Sink materializes events under a stable ID so replays are idempotent.
type Sink interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler writes audit records from Kafka into a queryable sink.
//
// Malformed records are logged and skipped. Sink failures for compliance and
// security events are returned so the record is retried; operational events
// are best-effort.
type Handler struct {
	sink   Sink
	logger *slog.Logger
}

func NewHandler(sink Sink, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sink: sink, logger: logger}
}

// EventID derives a deterministic ID from the record position.
func EventID(rec *kgo.Record) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s/%d/%d", rec.Topic, rec.Partition, rec.Offset))
}

func (h *Handler) Handle(ctx context.Context, rec *kgo.Record) error {
	eventID := EventID(rec)

	event, err := kafka.Decode(rec.Value)
	if err != nil {
		h.logger.Error("skipping malformed audit record",
			"event_id", eventID,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		return nil
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = rec.Timestamp
	}

	if err := h.sink.AppendWithID(ctx, eventID, event); err != nil {
		if event.Category == audit.CategoryOperations {
			h.logger.Debug("failed to store ops event",
				"event_id", eventID,
				"action", event.Action,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("store %s event: %w", event.Category, err)
	}
	return nil
}
