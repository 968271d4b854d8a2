// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw caller input into a CanonicalQuery with every
// default resolved. It performs no I/O; the only nondeterminism is the
// generated id and timestamp, both injectable.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// ErrInvalidSelection marks a ValidationError caused by the agent selection.
var ErrInvalidSelection = errors.New("invalid agent selection")

// ValidationError reports bad or missing input. It is returned before any
// external call is made.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AgentLookup is the part of the agent registry the normalizer needs.
type AgentLookup interface {
	Get(id string) (types.AgentProfile, bool)
}

// Normalizer validates and defaults raw queries.
type Normalizer struct {
	agents AgentLookup

	// NewID and Now are replaced in tests.
	NewID func() string
	Now   func() time.Time
}

// New returns a Normalizer validating agent ids against agents.
func New(agents AgentLookup) *Normalizer {
	return &Normalizer{
		agents: agents,
		NewID:  func() string { return uuid.New().String() },
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Normalize validates raw and returns its canonical form.
func (n *Normalizer) Normalize(raw types.RawQuery) (types.CanonicalQuery, error) {
	question := strings.TrimSpace(raw.Question)
	if question == "" {
		return types.CanonicalQuery{}, &ValidationError{Field: "question", Reason: "must not be empty"}
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return types.CanonicalQuery{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	area := strings.TrimSpace(raw.ResearchArea)
	if area == "" {
		area = types.DefaultResearchArea
	}

	style := types.StyleAPA
	if s := strings.TrimSpace(raw.CitationStyle); s != "" {
		style = types.CitationStyle(strings.ToLower(s))
		if !style.Valid() {
			return types.CanonicalQuery{}, &ValidationError{
				Field:  "citation_style",
				Reason: fmt.Sprintf("unknown style %q (want apa, mla, chicago or bibtex)", s),
			}
		}
	}

	depth := types.DepthStandard
	if d := strings.TrimSpace(raw.Depth); d != "" {
		depth = types.Depth(strings.ToLower(d))
		if !depth.Valid() {
			return types.CanonicalQuery{}, &ValidationError{
				Field:  "depth",
				Reason: fmt.Sprintf("unknown depth %q (want quick, standard or comprehensive)", d),
			}
		}
	}

	agents, err := n.selection(raw.SelectedAgents)
	if err != nil {
		return types.CanonicalQuery{}, err
	}

	maxResults := raw.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultMaxResults
	}

	return types.CanonicalQuery{
		ID:             n.NewID(),
		Title:          title,
		Question:       question,
		ResearchArea:   area,
		CitationStyle:  style,
		Depth:          depth,
		SelectedAgents: agents,
		MaxResults:     maxResults,
		CreatedAt:      n.Now(),
	}, nil
}

// selection trims, de-duplicates and checks every id against the registry.
func (n *Normalizer) selection(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if _, ok := n.agents.Get(id); !ok {
			return nil, &ValidationError{
				Field:  "selected_agents",
				Reason: fmt.Sprintf("unknown agent %q", id),
				Err:    ErrInvalidSelection,
			}
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, &ValidationError{
			Field:  "selected_agents",
			Reason: "at least one agent must be selected",
			Err:    ErrInvalidSelection,
		}
	}
	return out, nil
}
