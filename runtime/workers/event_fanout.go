package workers

import (
	"context"
	"cryptochat/contract"
	"cryptochat/domain/event"
	"fmt"
	"log/slog"
	"time"
)

const defaultSinkTimeout = 5 * time.Second

// EventFanout broadcasts domain events to in-process sinks.
//
// Publishers enqueue events on a buffered channel; Run drains it and hands
// every event to each sink, one at a time, bounded by sinkTimeout. A failing
// sink is logged and does not prevent the other sinks from consuming.
// There is no durability: derived views fed by the sinks are rebuilt from
// the store on start-up.
//
// EventFanout is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log         *slog.Logger
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, bufferSize int, sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	if sinkTimeout <= 0 {
		sinkTimeout = defaultSinkTimeout
	}
	return &EventFanout{
		log:         log,
		events:      make(chan event.DomainEvent, bufferSize),
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
	}
}

// Publish blocks until the event is queued or ctx is done.
func (w *EventFanout) Publish(ctx context.Context, e event.DomainEvent) error {
	select {
	case w.events <- e:
		return nil
	case <-ctx.Done():
		w.log.Warn("Domain event dropped", "profile_id", e.ProfileID(), "error", ctx.Err())
		return ctx.Err()
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping domain event fan-out")
			return nil
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Error("Sink failed to consume event",
				"sink", fmt.Sprintf("%T", sink), "profile_id", evt.ProfileID(), "error", err)
		}
		cancel()
	}
}
