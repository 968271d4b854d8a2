// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-orchestrator/internal/provider"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// mapSource applies the Source defaults. This is the only place they are
// applied.
func (a *Adapter) mapSource(p provider.SourcePayload, agentID string) types.Source {
	s := types.Source{
		ID:       strings.TrimSpace(p.ID),
		Title:    strings.TrimSpace(p.Title),
		Year:     p.Year,
		Journal:  optional(p.Journal),
		DOI:      optional(p.DOI),
		URL:      optional(p.URL),
		Abstract: optional(p.Abstract),
		AgentID:  agentID,
	}
	if s.ID == "" {
		s.ID = a.NewID()
	}
	for _, name := range p.Authors {
		if name = strings.TrimSpace(name); name != "" {
			s.Authors = append(s.Authors, name)
		}
	}
	if len(s.Authors) == 0 {
		s.Authors = []string{types.UnknownAuthor}
	}
	if s.Year <= 0 {
		s.Year = a.Now().Year()
	}
	if p.Relevance != nil {
		r := min(max(*p.Relevance, 0), 1)
		s.Relevance = &r
	}
	return s
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// mergeSynthesis folds p into dst. The first non-empty summary wins; list
// entries are unioned, first occurrence wins.
func mergeSynthesis(dst *types.Synthesis, p *provider.SynthesisPayload) {
	if p == nil {
		return
	}
	if dst.Summary == "" {
		dst.Summary = strings.TrimSpace(p.Summary)
		if dst.Summary == "" {
			dst.Summary = strings.TrimSpace(p.ExecutiveSummary)
		}
	}
	dst.KeyFindings = union(dst.KeyFindings, p.KeyFindings)
	dst.Recommendations = union(dst.Recommendations, p.Recommendations)
	dst.ResearchGaps = union(dst.ResearchGaps, p.ResearchGaps)
}

func union(dst, add []string) []string {
	for _, v := range add {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, have := range dst {
			if have == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

// withEmptyLists replaces nil synthesis lists with empty ones.
func withEmptyLists(s types.Synthesis) types.Synthesis {
	if s.KeyFindings == nil {
		s.KeyFindings = []string{}
	}
	if s.Recommendations == nil {
		s.Recommendations = []string{}
	}
	if s.ResearchGaps == nil {
		s.ResearchGaps = []string{}
	}
	return s
}

// fallback builds the locally synthesized result. Its two placeholder sources
// depend only on the query, so the same query always yields the same
// fallback content.
func (a *Adapter) fallback(q types.CanonicalQuery, reason string, notes []string) types.ResearchResult {
	year := a.Now().Year()
	abstract := fmt.Sprintf("Placeholder generated from the query because the research provider returned no usable results (%s).", reason)
	sources := []types.Source{
		{
			ID:       q.ID + "-fallback-1",
			Title:    fmt.Sprintf("%s: An Overview of %s", q.Title, q.ResearchArea),
			Authors:  []string{types.UnknownAuthor},
			Year:     year,
			Abstract: &abstract,
		},
		{
			ID:       q.ID + "-fallback-2",
			Title:    fmt.Sprintf("Open Questions in %s Related to %s", q.ResearchArea, q.Title),
			Authors:  []string{types.UnknownAuthor},
			Year:     year,
			Abstract: &abstract,
		},
	}

	notes = append(notes, "fallback: "+reason, "sources are placeholders, not real citations")
	return types.ResearchResult{
		Status:  types.StatusCompleted,
		Sources: sources,
		Synthesis: withEmptyLists(types.Synthesis{
			Summary:         fmt.Sprintf("No provider results were available for %q. The sources below are placeholders derived from the query.", q.Title),
			Recommendations: []string{"Resubmit the query when the research provider is available."},
		}),
		Citations: buildCitations(sources, q.CitationStyle),
		Metadata: types.ResultMetadata{
			AgentsUsed:       []string{},
			TotalSources:     len(sources),
			ProcessingMethod: types.MethodFallback,
			ProcessingNotes:  notes,
			ProcessedAt:      a.Now(),
		},
	}
}
