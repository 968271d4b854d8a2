// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research orchestration
// pipeline: the query lifecycle, agent profiles, normalized results, and the
// persisted forms handed back to callers.
package types

import (
	"errors"
	"fmt"
	"time"
)

// CitationStyle selects how sources are rendered as formatted citations.
type CitationStyle string

const (
	StyleAPA     CitationStyle = "apa"
	StyleMLA     CitationStyle = "mla"
	StyleChicago CitationStyle = "chicago"
	StyleBibTeX  CitationStyle = "bibtex"
)

// CitationStyles lists every supported style in a fixed order.
var CitationStyles = []CitationStyle{StyleAPA, StyleMLA, StyleChicago, StyleBibTeX}

// Valid reports whether s is one of the supported styles.
func (s CitationStyle) Valid() bool {
	for _, known := range CitationStyles {
		if s == known {
			return true
		}
	}
	return false
}

// Depth controls how much work the provider is asked to do.
type Depth string

const (
	DepthQuick         Depth = "quick"
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
)

// Valid reports whether d is a known depth.
func (d Depth) Valid() bool {
	switch d {
	case DepthQuick, DepthStandard, DepthComprehensive:
		return true
	}
	return false
}

// QueryStatus tracks a query through its lifecycle.
type QueryStatus string

const (
	StatusPending    QueryStatus = "pending"
	StatusProcessing QueryStatus = "processing"
	StatusCompleted  QueryStatus = "completed"
	StatusError      QueryStatus = "error"
)

// Terminal reports whether no further transitions are allowed from s.
func (s QueryStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ErrInvalidTransition is returned when a status change would leave the
// pending -> processing -> {completed|error} path.
var ErrInvalidTransition = errors.New("invalid query status transition")

// DefaultResearchArea is used when the caller leaves the research area blank.
const DefaultResearchArea = "General Research"

// DefaultMaxResults is the number of sources requested from the provider.
const DefaultMaxResults = 50

// RawQuery is the unvalidated input collected from a caller.
type RawQuery struct {
	Title          string   `json:"title" yaml:"title"`
	Question       string   `json:"question" yaml:"question"`
	ResearchArea   string   `json:"research_area,omitempty" yaml:"research_area,omitempty"`
	CitationStyle  string   `json:"citation_style,omitempty" yaml:"citation_style,omitempty"`
	Depth          string   `json:"depth,omitempty" yaml:"depth,omitempty"`
	SelectedAgents []string `json:"selected_agents" yaml:"selected_agents"`
	MaxResults     int      `json:"max_results,omitempty" yaml:"max_results,omitempty"`
}

// CanonicalQuery is the normalized request with every default resolved.
type CanonicalQuery struct {
	ID             string        `json:"id" yaml:"id"`
	Title          string        `json:"title" yaml:"title"`
	Question       string        `json:"question" yaml:"question"`
	ResearchArea   string        `json:"research_area" yaml:"research_area"`
	CitationStyle  CitationStyle `json:"citation_style" yaml:"citation_style"`
	Depth          Depth         `json:"depth" yaml:"depth"`
	SelectedAgents []string      `json:"selected_agents" yaml:"selected_agents"`
	MaxResults     int           `json:"max_results" yaml:"max_results"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
}

// NewQuery builds the pending Query record for userID.
func (c CanonicalQuery) NewQuery(userID string) Query {
	agents := make([]string, len(c.SelectedAgents))
	copy(agents, c.SelectedAgents)
	return Query{
		ID:             c.ID,
		UserID:         userID,
		Title:          c.Title,
		Question:       c.Question,
		ResearchArea:   c.ResearchArea,
		CitationStyle:  c.CitationStyle,
		Depth:          c.Depth,
		SelectedAgents: agents,
		Status:         StatusPending,
		CreatedAt:      c.CreatedAt,
	}
}

// Query is one research request as stored in research_queries.
type Query struct {
	ID             string        `json:"id" yaml:"id"`
	UserID         string        `json:"user_id" yaml:"user_id"`
	Title          string        `json:"title" yaml:"title"`
	Question       string        `json:"question" yaml:"question"`
	ResearchArea   string        `json:"research_area" yaml:"research_area"`
	CitationStyle  CitationStyle `json:"citation_style" yaml:"citation_style"`
	Depth          Depth         `json:"depth" yaml:"depth"`
	SelectedAgents []string      `json:"selected_agents" yaml:"selected_agents"`
	Status         QueryStatus   `json:"status" yaml:"status"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Transition moves q to status to. Only pending -> processing and
// processing -> completed|error are accepted; terminal states never change.
func (q *Query) Transition(to QueryStatus) error {
	ok := false
	switch q.Status {
	case StatusPending:
		ok = to == StatusProcessing
	case StatusProcessing:
		ok = to == StatusCompleted || to == StatusError
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, to)
	}
	q.Status = to
	return nil
}
