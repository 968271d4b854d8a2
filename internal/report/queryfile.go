// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// QueryFile is the on-disk form of a query and, once run, its result. A
// researcher can keep queries in files, submit them with `query --file`, and
// save the outcome next to the input.
type QueryFile struct {
	User    string                `yaml:"user,omitempty"`
	Query   types.RawQuery        `yaml:"query"`
	Result  *types.ResearchResult `yaml:"result,omitempty"`
	Summary *QuerySummary         `yaml:"summary,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	QueryID            string    `yaml:"query_id"`
	Status             string    `yaml:"status"`
	ProcessingMethod   string    `yaml:"processing_method"`
	Total              int       `yaml:"total"`
	CitationsPersisted bool      `yaml:"citations_persisted"`
	Timestamp          time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the query input and its persisted outcome to path.
func WriteQueryFile(path, user string, raw types.RawQuery, pq types.PersistedQuery) error {
	result := pq.Result
	qf := QueryFile{
		User:   user,
		Query:  raw,
		Result: &result,
		Summary: &QuerySummary{
			QueryID:            pq.Query.ID,
			Status:             string(pq.Query.Status),
			ProcessingMethod:   result.Metadata.ProcessingMethod,
			Total:              len(result.Sources),
			CitationsPersisted: pq.CitationsPersisted,
			Timestamp:          time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
