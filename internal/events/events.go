// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events carries query progress notifications. The orchestrator emits
// one Event per state transition to an Observer; observers are fire-and-forget
// and can never fail the pipeline.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/research-orchestrator/internal/logger"
)

// State is a step of the query pipeline.
type State string

const (
	StateCreated     State = "created"
	StateNormalizing State = "normalizing"
	StateFetching    State = "fetching"
	StatePersisting  State = "persisting"
	StateCompleted   State = "completed"

	// StateFailed follows normalizing when the input is rejected.
	StateFailed State = "failed"
	// StatePersistFailed follows persisting when the query row cannot be
	// written.
	StatePersistFailed State = "persist_failed"

	StateCanceled State = "canceled"
)

// Event reports that a query entered State.
type Event struct {
	QueryID string    `json:"query_id,omitempty"`
	UserID  string    `json:"user_id"`
	State   State     `json:"state"`
	At      time.Time `json:"at"`

	// Detail is a short human-readable note, e.g. a validation message or
	// the processing method of the result.
	Detail string `json:"detail,omitempty"`
}

// Observer receives progress events.
type Observer interface {
	Notify(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Notify calls f.
func (f ObserverFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// Nop discards events.
var Nop Observer = ObserverFunc(func(context.Context, Event) {})

// Safe wraps o so a panic inside it is logged instead of propagated.
func Safe(o Observer, log *logger.Logger) Observer {
	if log == nil {
		log = logger.Discard()
	}
	return ObserverFunc(func(ctx context.Context, ev Event) {
		defer func() {
			if r := recover(); r != nil {
				log.WithContext(ctx).Error("observer panicked",
					slog.String("state", string(ev.State)),
					slog.String("panic", fmt.Sprint(r)))
			}
		}()
		o.Notify(ctx, ev)
	})
}

// Multi delivers each event to every observer in order. A panicking observer
// does not prevent delivery to the others.
func Multi(log *logger.Logger, observers ...Observer) Observer {
	safe := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			safe = append(safe, Safe(o, log))
		}
	}
	return ObserverFunc(func(ctx context.Context, ev Event) {
		for _, o := range safe {
			o.Notify(ctx, ev)
		}
	})
}

// LogObserver logs every event at info level.
func LogObserver(log *logger.Logger) Observer {
	log = log.WithComponent("events")
	return ObserverFunc(func(ctx context.Context, ev Event) {
		attrs := []any{
			slog.String("query_id", ev.QueryID),
			slog.String("user_id", ev.UserID),
			slog.String("state", string(ev.State)),
		}
		if ev.Detail != "" {
			attrs = append(attrs, slog.String("detail", ev.Detail))
		}
		log.Info("query progress", attrs...)
	})
}
