// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator drives one research query through its pipeline:
// normalize, fetch, persist. Validation errors end the query in the failed
// state; once fetching starts the adapter's fallback policy guarantees a
// result, so the query completes unless the caller cancels it or the query
// row cannot be written.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/research-orchestrator/internal/cache"
	"github.com/pdiddy/research-orchestrator/internal/events"
	"github.com/pdiddy/research-orchestrator/internal/logger"
	"github.com/pdiddy/research-orchestrator/internal/metrics"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// ErrCanceled is returned when the caller's context ended before the result
// was persisted. Nothing is written for a canceled query.
var ErrCanceled = errors.New("query canceled")

// Normalizer validates raw input.
type Normalizer interface {
	Normalize(raw types.RawQuery) (types.CanonicalQuery, error)
}

// Fetcher produces a result for a canonical query. It never fails.
type Fetcher interface {
	FetchResult(ctx context.Context, q types.CanonicalQuery) types.ResearchResult
}

// Persister stores a finished query.
type Persister interface {
	Persist(ctx context.Context, q types.Query, r types.ResearchResult) (types.PersistedQuery, error)
}

// HistoryStore lists stored queries for History when the cache is cold.
type HistoryStore interface {
	ListQueries(ctx context.Context, userID string, limit int) ([]types.PersistedQuery, error)
}

// Orchestrator runs queries. It holds no per-query state, so one instance
// can serve concurrent Submit calls.
type Orchestrator struct {
	normalizer Normalizer
	fetcher    Fetcher
	persister  Persister

	observer events.Observer
	cache    cache.Cache
	history  HistoryStore
	log      *logger.Logger
	metrics  *metrics.Metrics

	Now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the progress observer.
func WithObserver(o events.Observer) Option {
	return func(s *Orchestrator) { s.observer = o }
}

// WithCache sets the cache mirror read by History. It should be the same
// cache the persister writes to.
func WithCache(c cache.Cache) Option {
	return func(s *Orchestrator) { s.cache = c }
}

// WithHistoryStore sets the store History falls back to.
func WithHistoryStore(h HistoryStore) Option {
	return func(s *Orchestrator) { s.history = h }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Orchestrator) { s.log = l.WithComponent("orchestrator") }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Orchestrator) { s.metrics = m }
}

// New creates an Orchestrator.
func New(n Normalizer, f Fetcher, p Persister, opts ...Option) *Orchestrator {
	s := &Orchestrator{
		normalizer: n,
		fetcher:    f,
		persister:  p,
		observer:   events.Nop,
		log:        logger.Discard(),
		Now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observer = events.Safe(s.observer, s.log)
	return s
}

// Submit runs raw through the pipeline for userID. It returns a
// *normalize.ValidationError for bad input, ErrCanceled when ctx ends before
// persistence, and a *persist.PersistenceError when the query row cannot be
// written. In every other case the query completes, possibly with a
// fallback result.
func (s *Orchestrator) Submit(ctx context.Context, userID string, raw types.RawQuery) (types.PersistedQuery, error) {
	s.emit(ctx, "", userID, events.StateCreated, "")
	s.emit(ctx, "", userID, events.StateNormalizing, "")

	cq, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.log.WithContext(ctx).Info("query rejected", slog.String("error", err.Error()))
		s.emit(ctx, "", userID, events.StateFailed, err.Error())
		s.metrics.ObserveQuery("failed")
		return types.PersistedQuery{}, err
	}

	ctx = logger.ContextWithQuery(ctx, userID, cq.ID)
	log := s.log.WithContext(ctx)
	q := cq.NewQuery(userID)

	s.emit(ctx, q.ID, userID, events.StateFetching, "")
	r := s.fetcher.FetchResult(ctx, cq)

	if err := ctx.Err(); err != nil {
		log.Info("query canceled before persistence")
		s.emit(ctx, q.ID, userID, events.StateCanceled, "")
		s.metrics.ObserveQuery("canceled")
		return types.PersistedQuery{}, fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
	}

	s.emit(ctx, q.ID, userID, events.StatePersisting, "")
	pq, err := s.persister.Persist(ctx, q, r)
	if err != nil {
		log.Error("query not persisted", slog.String("error", err.Error()))
		s.emit(ctx, q.ID, userID, events.StatePersistFailed, err.Error())
		s.metrics.ObserveQuery("error")
		return types.PersistedQuery{}, err
	}

	s.emit(ctx, q.ID, userID, events.StateCompleted, r.Metadata.ProcessingMethod)
	if r.IsFallback() {
		s.metrics.ObserveQuery("fallback")
	} else {
		s.metrics.ObserveQuery("completed")
	}
	return pq, nil
}

// History returns userID's recent queries, newest first. The cache mirror is
// served when warm; otherwise the history store is read and the cache
// refilled.
func (s *Orchestrator) History(ctx context.Context, userID string) ([]types.PersistedQuery, error) {
	if s.cache != nil {
		if list := s.cache.Get(userID); len(list) > 0 {
			return list, nil
		}
	}
	if s.history == nil {
		return nil, nil
	}

	list, err := s.history.ListQueries(ctx, userID, cache.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", userID, err)
	}
	if s.cache != nil {
		for i := len(list) - 1; i >= 0; i-- {
			s.cache.Set(userID, list[i])
		}
	}
	return list, nil
}

func (s *Orchestrator) emit(ctx context.Context, queryID, userID string, state events.State, detail string) {
	s.observer.Notify(ctx, events.Event{
		QueryID: queryID,
		UserID:  userID,
		State:   state,
		At:      s.Now(),
		Detail:  detail,
	})
}
