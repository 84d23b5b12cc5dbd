package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers audit events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// prepare fills the identifier and timestamp when the caller left them empty.
func prepare(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}

// LogPublisher writes events to a structured log. It is the sink used when no
// broker is configured and the fallback of KafkaPublisher.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	event = prepare(event)
	p.logger.InfoContext(ctx, string(event.Type),
		"log_type", "audit",
		"event_id", event.ID,
		"owner_id", event.OwnerID,
		"isin", event.ISIN,
		"lei", event.LEI,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	)
	return nil
}
