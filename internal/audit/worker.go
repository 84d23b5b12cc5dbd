package audit

import (
	"context"
	"log/slog"
)

// Async queues events for a background worker so audit delivery stays off
// the request path. Events that do not fit in the queue are dropped and
// logged.
type Async struct {
	next   Publisher
	inbox  chan Event
	logger *slog.Logger
}

func NewAsync(next Publisher, size int, logger *slog.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	return &Async{next: next, inbox: make(chan Event, size), logger: logger}
}

// Emit enqueues event without blocking.
func (a *Async) Emit(ctx context.Context, event Event) error {
	event = prepare(event)
	select {
	case a.inbox <- event:
	default:
		if a.logger != nil {
			a.logger.WarnContext(ctx, "audit queue full, dropping event",
				"event", event.Type,
				"event_id", event.ID,
				"request_id", event.RequestID,
			)
		}
	}
	return nil
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left with a fresh context.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain(context.WithoutCancel(ctx))
			return nil
		case event := <-a.inbox:
			a.deliver(ctx, event)
		}
	}
}

func (a *Async) drain(ctx context.Context) {
	for {
		select {
		case event := <-a.inbox:
			a.deliver(ctx, event)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, event Event) {
	if err := a.next.Emit(ctx, event); err != nil && a.logger != nil {
		a.logger.ErrorContext(ctx, "failed to deliver audit event",
			"event", event.Type,
			"event_id", event.ID,
			"error", err,
		)
	}
}
