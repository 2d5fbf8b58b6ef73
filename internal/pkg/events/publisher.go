package events

import (
	"context"
	"errors"
	"log/slog"
)

//go:generate mockgen -source=publisher.go -destination=mock/publisher.go -package=mock

// Publisher delivers one event to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emitter hands events off without blocking the caller. Delivery failures
// are logged, never returned.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// LogPublisher writes events to the structured log. It is the sink used when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "event published",
		"event_id", event.ID,
		"event", event.Name,
		"employee_id", event.EmployeeID,
		"payload", event.Payload,
	)
	return nil
}

// Fanout publishes every event to each of its publishers in order. All of
// them are tried; their errors are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// Discard drops every event.
var Discard Emitter = discard{}
