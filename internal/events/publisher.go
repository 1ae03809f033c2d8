package events

import (
	"context"

	"go.uber.org/zap"
)

// Publisher delivers record events. Publish is called once per observation
// with every event it produced.
type Publisher interface {
	Publish(ctx context.Context, events []RecordEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []RecordEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }

// LogPublisher writes each event to a logger.
type LogPublisher struct {
	Logger *zap.SugaredLogger
}

func (p LogPublisher) Publish(_ context.Context, events []RecordEvent) error {
	for _, e := range events {
		p.Logger.Infow("climate record event",
			"id", e.ID,
			"station_id", e.StationID,
			"valid_date", e.ValidDate.String(),
			"element", e.Element,
			"period", e.Period,
			"kind", string(e.Kind),
			"new_value", e.NewValue.String(),
			"old_value", e.OldValue.String(),
		)
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
