// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider talks to the external research-agent service. The Invoker
// interface is the capability the result adapter depends on; Client is the
// HTTP implementation for the FutureHouse backend.
package provider

import (
	"context"
	"fmt"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// Invoker runs one agent against one canonical query.
type Invoker interface {
	Invoke(ctx context.Context, q types.CanonicalQuery, agent types.AgentProfile) (Response, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, q types.CanonicalQuery, agent types.AgentProfile) (Response, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, q types.CanonicalQuery, agent types.AgentProfile) (Response, error) {
	return f(ctx, q, agent)
}

// Response is the provider's payload. Every field is optional; the adapter
// applies defaults.
type Response struct {
	Status    string            `json:"status,omitempty"`
	Sources   []SourcePayload   `json:"sources"`
	Synthesis *SynthesisPayload `json:"synthesis,omitempty"`
}

// SourcePayload is a source as the provider returns it.
type SourcePayload struct {
	ID        string   `json:"id,omitempty"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Journal   string   `json:"journal,omitempty"`
	Year      int      `json:"year,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	URL       string   `json:"url,omitempty"`
	Abstract  string   `json:"abstract,omitempty"`
	Relevance *float64 `json:"relevance_score,omitempty"`
}

// SynthesisPayload is the narrative part of a provider response.
type SynthesisPayload struct {
	Summary          string   `json:"summary,omitempty"`
	ExecutiveSummary string   `json:"executive_summary,omitempty"`
	KeyFindings      []string `json:"key_findings,omitempty"`
	Recommendations  []string `json:"recommendations,omitempty"`
	ResearchGaps     []string `json:"research_gaps,omitempty"`
}

// Error describes a failed provider call: transport failure, timeout,
// non-2xx status, or an undecodable body.
type Error struct {
	Agent      string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider call for agent %s returned HTTP %d", e.Agent, e.StatusCode)
	}
	return fmt.Sprintf("provider call for agent %s: %v", e.Agent, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
