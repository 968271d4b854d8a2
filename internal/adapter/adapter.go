// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapter turns a canonical query into a ResearchResult. It fans the
// query out to the provider once per selected agent category, merges the
// responses, applies every field default, and formats citations. When the
// provider fails or returns nothing it synthesizes a fallback result instead
// of returning an error.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-orchestrator/internal/citation"
	"github.com/pdiddy/research-orchestrator/internal/httputil"
	"github.com/pdiddy/research-orchestrator/internal/logger"
	"github.com/pdiddy/research-orchestrator/internal/metrics"
	"github.com/pdiddy/research-orchestrator/internal/provider"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// DefaultTimeout is the budget shared by all provider calls of one query.
const DefaultTimeout = 30 * time.Second

// AgentLookup resolves agent ids to profiles.
type AgentLookup interface {
	Get(id string) (types.AgentProfile, bool)
}

// RetryPolicy controls how often a single agent call is attempted. Delays
// double from BaseDelay and count against the shared timeout.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy tries each call once.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 1, BaseDelay: time.Second}

// Adapter fetches and normalizes provider results.
type Adapter struct {
	invoker provider.Invoker
	agents  AgentLookup
	timeout time.Duration
	retry   RetryPolicy
	log     *logger.Logger
	metrics *metrics.Metrics

	// Now and NewID are injectable for deterministic tests.
	Now   func() time.Time
	NewID func() string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout sets the shared call budget. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRetry sets the per-call retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(a *Adapter) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		a.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l.WithComponent("adapter") }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New creates an Adapter calling invoker for agents resolved through agents.
func New(invoker provider.Invoker, agents AgentLookup, opts ...Option) *Adapter {
	a := &Adapter{
		invoker: invoker,
		agents:  agents,
		timeout: DefaultTimeout,
		retry:   DefaultRetryPolicy,
		log:     logger.Discard(),
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// call is one provider request covering every selected agent of a category.
type call struct {
	agent    types.AgentProfile
	agentIDs []string

	resp provider.Response
	err  error
}

// FetchResult runs the query against the provider and returns a complete
// result. It never fails: provider errors, timeouts and empty responses
// produce a fallback result.
func (a *Adapter) FetchResult(ctx context.Context, q types.CanonicalQuery) types.ResearchResult {
	log := a.log.WithContext(ctx)
	calls := a.plan(q.SelectedAgents)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// A failed call contributes nothing; it must not cancel its siblings, so
	// the group carries no derived context.
	var g errgroup.Group
	for _, c := range calls {
		g.Go(func() error {
			start := time.Now()
			c.resp, c.err = a.invoke(callCtx, q, c.agent)
			a.metrics.ObserveProviderCall(c.agent.ID, time.Since(start), c.err)
			return nil
		})
	}
	_ = g.Wait()

	var (
		sources   []types.Source
		synthesis types.Synthesis
		used      []string
		notes     []string
		failures  []error
	)
	for _, c := range calls {
		if c.err != nil {
			log.Warn("provider call failed",
				slog.String("agent", c.agent.ID),
				slog.String("error", c.err.Error()))
			failures = append(failures, c.err)
			notes = append(notes, fmt.Sprintf("agent %s failed: %v", c.agent.ID, c.err))
			continue
		}
		used = append(used, c.agentIDs...)
		for _, p := range c.resp.Sources {
			sources = append(sources, a.mapSource(p, c.agent.ID))
		}
		mergeSynthesis(&synthesis, c.resp.Synthesis)
	}

	if len(sources) == 0 {
		reason := metrics.ReasonNoSources
		switch {
		case len(failures) > 0 && anyTimeout(failures):
			reason = metrics.ReasonTimeout
		case len(failures) > 0:
			reason = metrics.ReasonProviderError
		}
		a.metrics.ObserveFallback(reason)
		log.Warn("using fallback result", slog.String("reason", reason))
		return a.fallback(q, reason, notes)
	}

	if synthesis.Summary == "" {
		synthesis.Summary = fmt.Sprintf("Research completed using %d AI agent(s)", len(used))
	}
	return types.ResearchResult{
		Status:    types.StatusCompleted,
		Sources:   sources,
		Synthesis: withEmptyLists(synthesis),
		Citations: buildCitations(sources, q.CitationStyle),
		Metadata: types.ResultMetadata{
			AgentsUsed:       used,
			TotalSources:     len(sources),
			ProcessingMethod: types.MethodProvider,
			ProcessingNotes:  notes,
			ProcessedAt:      a.Now(),
		},
	}
}

// plan groups the selected agents by category, keeping first-selection order.
// Agents sharing a category share one call made with the first of them.
func (a *Adapter) plan(selected []string) []*call {
	var calls []*call
	byCategory := make(map[string]*call)
	for _, id := range selected {
		profile, ok := a.agents.Get(id)
		if !ok {
			profile = types.AgentProfile{ID: id, Category: id}
		}
		if c, ok := byCategory[profile.Category]; ok {
			c.agentIDs = append(c.agentIDs, id)
			continue
		}
		c := &call{agent: profile, agentIDs: []string{id}}
		byCategory[profile.Category] = c
		calls = append(calls, c)
	}
	return calls
}

// invoke applies the retry policy around one provider call.
func (a *Adapter) invoke(ctx context.Context, q types.CanonicalQuery, agent types.AgentProfile) (provider.Response, error) {
	var lastErr error
	for attempt := 0; attempt < a.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := httputil.Sleep(ctx, httputil.Backoff(a.retry.BaseDelay, attempt-1)); err != nil {
				break
			}
		}
		resp, err := a.invoker.Invoke(ctx, q, agent)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if ctx.Err() != nil && !errors.Is(lastErr, ctx.Err()) {
		lastErr = fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
	}
	return provider.Response{}, lastErr
}

func anyTimeout(errs []error) bool {
	for _, err := range errs {
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
	}
	return false
}

// buildCitations formats sources in the requested style and in APA.
func buildCitations(sources []types.Source, style types.CitationStyle) map[types.CitationStyle][]string {
	if !style.Valid() {
		style = types.StyleAPA
	}
	return citation.FormatAll(sources, style, types.StyleAPA)
}
