// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist writes a finished query and its citations to the datastore
// and mirrors it into the per-user cache. A failed query write is fatal; a
// failed citation batch only clears the CitationsPersisted flag.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-orchestrator/internal/cache"
	"github.com/pdiddy/research-orchestrator/internal/citation"
	"github.com/pdiddy/research-orchestrator/internal/logger"
	"github.com/pdiddy/research-orchestrator/internal/metrics"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// Store is the datastore capability the bridge writes to. store.SQLStore
// implements it.
type Store interface {
	// SaveQuery writes the query row and its result atomically; a failure
	// must leave any previously stored row unchanged.
	SaveQuery(ctx context.Context, q types.Query, r types.ResearchResult) error
	// InsertCitations appends recs and marks queryID's citations persisted,
	// all or nothing.
	InsertCitations(ctx context.Context, queryID string, recs []types.CitationRecord) error
}

// PersistenceError reports a failed write of the query row.
type PersistenceError struct {
	QueryID string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting query %s (%s): %v", e.QueryID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CitationPersistenceWarning reports a failed citation batch. It is logged,
// never returned from Persist.
type CitationPersistenceWarning struct {
	QueryID string
	Count   int
	Err     error
}

func (w *CitationPersistenceWarning) Error() string {
	return fmt.Sprintf("saving %d citations for query %s: %v", w.Count, w.QueryID, w.Err)
}

func (w *CitationPersistenceWarning) Unwrap() error { return w.Err }

// Bridge persists results.
type Bridge struct {
	store   Store
	cache   cache.Cache
	log     *logger.Logger
	metrics *metrics.Metrics

	Now   func() time.Time
	NewID func() string
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bridge) { b.log = l.WithComponent("persist") }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// New creates a Bridge. A nil cache disables mirroring.
func New(store Store, c cache.Cache, opts ...Option) *Bridge {
	b := &Bridge{
		store: store,
		cache: c,
		log:   logger.Discard(),
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Persist stores q with result r. A pending or processing query moves to
// completed, or to error when r reports an error; a query that is already
// terminal keeps its status and only its result is replaced. The query row
// and result are saved atomically; a failure returns a *PersistenceError,
// leaves the stored row untouched and mirrors nothing. Citation rows are then
// written as one batch whose failure is logged as a
// *CitationPersistenceWarning. Citation rows are always appended.
func (b *Bridge) Persist(ctx context.Context, q types.Query, r types.ResearchResult) (types.PersistedQuery, error) {
	log := b.log.WithContext(ctx)

	now := b.Now()
	if q.Status.Terminal() {
		if q.CompletedAt == nil {
			q.CompletedAt = &now
		}
	} else {
		if err := advance(&q, r); err != nil {
			return types.PersistedQuery{}, &PersistenceError{QueryID: q.ID, Op: "transition", Err: err}
		}
		q.CompletedAt = &now
	}

	if err := b.store.SaveQuery(ctx, q, r); err != nil {
		return types.PersistedQuery{}, &PersistenceError{QueryID: q.ID, Op: "save", Err: err}
	}

	pq := types.PersistedQuery{Query: q, Result: r, CitationsPersisted: true}

	recs := b.citationRecords(q, r, now)
	if err := b.store.InsertCitations(ctx, q.ID, recs); err != nil {
		warn := &CitationPersistenceWarning{QueryID: q.ID, Count: len(recs), Err: err}
		log.Warn("citations not persisted", slog.String("error", warn.Error()))
		b.metrics.ObserveCitationFailure()
		pq.CitationsPersisted = false
	}

	if b.cache != nil {
		b.cache.Set(q.UserID, pq)
	}
	log.Info("query persisted",
		slog.String("status", string(q.Status)),
		slog.Int("sources", len(r.Sources)),
		slog.Bool("citations_persisted", pq.CitationsPersisted))
	return pq, nil
}

// advance walks q through processing to the terminal status r calls for.
func advance(q *types.Query, r types.ResearchResult) error {
	if q.Status == types.StatusPending {
		if err := q.Transition(types.StatusProcessing); err != nil {
			return err
		}
	}
	final := types.StatusCompleted
	if r.Status == types.StatusError {
		final = types.StatusError
	}
	return q.Transition(final)
}

// citationRecords derives one citation row per source, formatted in the
// query's style.
func (b *Bridge) citationRecords(q types.Query, r types.ResearchResult, at time.Time) []types.CitationRecord {
	formatted := r.Citations[q.CitationStyle]
	if len(formatted) != len(r.Sources) {
		formatted = citation.Format(q.CitationStyle, r.Sources)
	}
	recs := make([]types.CitationRecord, len(r.Sources))
	for i, src := range r.Sources {
		recs[i] = types.CitationRecord{
			ID:                b.NewID(),
			QueryID:           q.ID,
			UserID:            q.UserID,
			Source:            src,
			Tags:              []string{q.ResearchArea},
			Notes:             "Generated from research query: " + q.Title,
			CitationStyle:     q.CitationStyle,
			FormattedCitation: formatted[i],
			CreatedAt:         at,
		}
	}
	return recs
}
