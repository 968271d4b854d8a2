// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// UnknownAuthor replaces a missing author list.
const UnknownAuthor = "Unknown Author"

// Processing methods recorded in ResultMetadata.ProcessingMethod.
const (
	MethodProvider = "provider"
	MethodFallback = "fallback"
)

// Source is a single literature citation candidate.
type Source struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors" yaml:"authors"`
	Journal  *string  `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year     int      `json:"year" yaml:"year"`
	DOI      *string  `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL      *string  `json:"url,omitempty" yaml:"url,omitempty"`
	Abstract *string  `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Relevance is a score between 0.0 and 1.0 when the provider supplies one.
	Relevance *float64 `json:"relevance,omitempty" yaml:"relevance,omitempty"`

	// AgentID names the agent whose call produced this source.
	AgentID string `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
}

// Synthesis is the narrative part of a result. Fields are never nil after
// the adapter has run.
type Synthesis struct {
	Summary         string   `json:"summary" yaml:"summary"`
	KeyFindings     []string `json:"key_findings" yaml:"key_findings"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	ResearchGaps    []string `json:"research_gaps" yaml:"research_gaps"`
}

// ResultMetadata records how a result was produced.
type ResultMetadata struct {
	AgentsUsed       []string  `json:"agents_used" yaml:"agents_used"`
	TotalSources     int       `json:"total_sources" yaml:"total_sources"`
	ProcessingMethod string    `json:"processing_method" yaml:"processing_method"`
	ProcessingNotes  []string  `json:"processing_notes,omitempty" yaml:"processing_notes,omitempty"`
	ProcessedAt      time.Time `json:"processed_at" yaml:"processed_at"`
}

// ResearchResult is the normalized output of one query.
type ResearchResult struct {
	Status    QueryStatus                `json:"status" yaml:"status"`
	Sources   []Source                   `json:"sources" yaml:"sources"`
	Synthesis Synthesis                  `json:"synthesis" yaml:"synthesis"`
	Citations map[CitationStyle][]string `json:"citations" yaml:"citations"`
	Metadata  ResultMetadata             `json:"metadata" yaml:"metadata"`
}

// IsFallback reports whether the result was synthesized locally.
func (r ResearchResult) IsFallback() bool {
	return r.Metadata.ProcessingMethod == MethodFallback
}

// RankedSources returns a copy of Sources ordered by descending relevance.
// Sources without a score keep their relative provider order after the scored
// ones. Sources itself is left in provider order.
func (r ResearchResult) RankedSources() []Source {
	out := make([]Source, len(r.Sources))
	copy(out, r.Sources)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Relevance, out[j].Relevance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return out
}

// PersistedQuery wraps a stored query with its result.
type PersistedQuery struct {
	Query              Query          `json:"query" yaml:"query"`
	Result             ResearchResult `json:"result" yaml:"result"`
	CitationsPersisted bool           `json:"citations_persisted" yaml:"citations_persisted"`
}

// CitationRecord is one row of the citations table.
type CitationRecord struct {
	ID                string        `json:"id" yaml:"id"`
	QueryID           string        `json:"query_id" yaml:"query_id"`
	UserID            string        `json:"user_id" yaml:"user_id"`
	Source            Source        `json:"source" yaml:"source"`
	Tags              []string      `json:"tags" yaml:"tags"`
	Notes             string        `json:"notes" yaml:"notes"`
	CitationStyle     CitationStyle `json:"citation_style" yaml:"citation_style"`
	FormattedCitation string        `json:"formatted_citation" yaml:"formatted_citation"`
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
}
