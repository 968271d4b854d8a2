// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ExportEntry is one stored query flattened for export.
type ExportEntry struct {
	ID               string         `json:"id" yaml:"id"`
	Title            string         `json:"title" yaml:"title"`
	Question         string         `json:"question" yaml:"question"`
	ResearchArea     string         `json:"research_area" yaml:"research_area"`
	Status           string         `json:"status" yaml:"status"`
	CreatedAt        time.Time      `json:"created_at" yaml:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	ProcessingMethod string         `json:"processing_method,omitempty" yaml:"processing_method,omitempty"`
	Summary          string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Sources          []ExportSource `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// ExportSource holds the source fields included in each export entry.
type ExportSource struct {
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Year    int      `json:"year" yaml:"year"`
	DOI     string   `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// Export writes up to limit of userID's queries to w as YAML or JSON.
func (s *SQLStore) Export(ctx context.Context, w io.Writer, userID, format string, limit int) error {
	list, err := s.ListQueries(ctx, userID, limit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(list))
	for i, pq := range list {
		q, r := pq.Query, pq.Result
		entries[i] = ExportEntry{
			ID:               q.ID,
			Title:            q.Title,
			Question:         q.Question,
			ResearchArea:     q.ResearchArea,
			Status:           string(q.Status),
			CreatedAt:        q.CreatedAt,
			CompletedAt:      q.CompletedAt,
			ProcessingMethod: r.Metadata.ProcessingMethod,
			Summary:          r.Synthesis.Summary,
		}
		for _, src := range r.Sources {
			es := ExportSource{Title: src.Title, Authors: src.Authors, Year: src.Year}
			if src.DOI != nil {
				es.DOI = *src.DOI
			}
			entries[i].Sources = append(entries[i].Sources, es)
		}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	return nil
}
