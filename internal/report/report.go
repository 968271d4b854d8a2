// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders finished queries for the terminal and for files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// FormatTable writes the result of pq as a human-readable table to w. Sources
// are listed by descending relevance; the stored order is unchanged.
func FormatTable(pq types.PersistedQuery, w io.Writer) {
	r := pq.Result
	fmt.Fprintf(w, "Query %s: %s\n", pq.Query.ID, pq.Query.Title)
	if r.IsFallback() {
		fmt.Fprintln(w, "NOTE: the research provider was unavailable; sources below are placeholders.")
	}
	if r.Synthesis.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", r.Synthesis.Summary)
	}
	writeList(w, "Key findings", r.Synthesis.KeyFindings)
	writeList(w, "Recommendations", r.Synthesis.Recommendations)
	writeList(w, "Research gaps", r.Synthesis.ResearchGaps)

	fmt.Fprintln(w)
	sources := r.RankedSources()
	if len(sources) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Agent")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, s := range sources {
		score := "-"
		if s.Relevance != nil {
			score = fmt.Sprintf("%.2f", *s.Relevance)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4d  %-6s  %s\n",
			i+1, truncate(s.Title, 60), formatAuthors(s.Authors), s.Year, score, s.AgentID)
	}

	fmt.Fprintf(w, "\n%d sources via %s", len(sources), r.Metadata.ProcessingMethod)
	if !pq.CitationsPersisted {
		fmt.Fprint(w, " (citations not saved)")
	}
	fmt.Fprintln(w)
}

// FormatCitations writes the formatted citations of style, one per line.
func FormatCitations(r types.ResearchResult, style types.CitationStyle, w io.Writer) {
	for _, c := range r.Citations[style] {
		fmt.Fprintln(w, c)
	}
}

// FormatJSON writes pq as indented JSON to w.
func FormatJSON(pq types.PersistedQuery, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pq)
}

// FormatYAML writes pq as YAML to w.
func FormatYAML(pq types.PersistedQuery, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(pq)
}

// FormatHistory writes one line per stored query.
func FormatHistory(list []types.PersistedQuery, w io.Writer) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No queries found.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-40s  %-10s  %-8s  %s\n", "ID", "Title", "Status", "Method", "Created")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, pq := range list {
		fmt.Fprintf(w, "%-36s  %-40s  %-10s  %-8s  %s\n",
			pq.Query.ID, truncate(pq.Query.Title, 40), pq.Query.Status,
			pq.Result.Metadata.ProcessingMethod, pq.Query.CreatedAt.Format("2006-01-02 15:04"))
	}
}

// FormatCitationRecords writes stored citation rows.
func FormatCitationRecords(list []types.CitationRecord, w io.Writer) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No citations found.")
		return
	}
	for _, c := range list {
		fmt.Fprintf(w, "[%s] %s\n", c.CitationStyle, c.FormattedCitation)
	}
}

func writeList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
