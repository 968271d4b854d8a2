// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

func score(v float64) *float64 { return &v }

func samplePersisted() types.PersistedQuery {
	return types.PersistedQuery{
		Query: types.Query{ID: "q1", UserID: "u1", Title: "T1", Status: types.StatusCompleted,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)},
		Result: types.ResearchResult{
			Status: types.StatusCompleted,
			Sources: []types.Source{
				{ID: "a", Title: "Paper A", Authors: []string{"Smith"}, Year: 2023, Relevance: score(0.5)},
				{ID: "b", Title: "Paper B", Authors: []string{"Jones", "Doe"}, Year: 2022, Relevance: score(0.9)},
			},
			Synthesis: types.Synthesis{Summary: "It works.", KeyFindings: []string{"finding one"}},
			Citations: map[types.CitationStyle][]string{types.StyleAPA: {"cite a", "cite b"}},
			Metadata:  types.ResultMetadata{ProcessingMethod: types.MethodProvider},
		},
		CitationsPersisted: true,
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(samplePersisted(), &buf)
	s := buf.String()

	if !strings.Contains(s, "It works.") {
		t.Error("table should contain the summary")
	}
	if !strings.Contains(s, "finding one") {
		t.Error("table should contain key findings")
	}
	a, b := strings.Index(s, "Paper A"), strings.Index(s, "Paper B")
	if a < 0 || b < 0 || b > a {
		t.Error("sources should be listed by descending relevance")
	}
	if !strings.Contains(s, "Jones et al.") {
		t.Error("multiple authors should be shortened")
	}
	if strings.Contains(s, "citations not saved") {
		t.Error("unexpected citations warning")
	}
}

func TestFormatTableFallback(t *testing.T) {
	pq := samplePersisted()
	pq.Result.Metadata.ProcessingMethod = types.MethodFallback
	pq.CitationsPersisted = false

	var buf bytes.Buffer
	FormatTable(pq, &buf)
	if !strings.Contains(buf.String(), "placeholders") {
		t.Error("fallback output should be flagged")
	}
	if !strings.Contains(buf.String(), "citations not saved") {
		t.Error("missing citations warning")
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON(samplePersisted(), &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var parsed types.PersistedQuery
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if parsed.Result.Sources[0].ID != "a" {
		t.Errorf("JSON should keep stored source order, got %q first", parsed.Result.Sources[0].ID)
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatHistory(nil, &buf)
	if !strings.Contains(buf.String(), "No queries") {
		t.Error("empty history should say 'No queries'")
	}
}

func TestFormatCitations(t *testing.T) {
	var buf bytes.Buffer
	FormatCitations(samplePersisted().Result, types.StyleAPA, &buf)
	if buf.String() != "cite a\ncite b\n" {
		t.Errorf("citations = %q", buf.String())
	}
}

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	raw := types.RawQuery{Title: "T1", Question: "What is X?", SelectedAgents: []string{"crow"}}

	if err := WriteQueryFile(path, "u1", raw, samplePersisted()); err != nil {
		t.Fatalf("WriteQueryFile: %v", err)
	}
	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile: %v", err)
	}
	if qf.User != "u1" || qf.Query.Title != "T1" {
		t.Errorf("query file = %+v", qf)
	}
	if qf.Summary == nil || qf.Summary.Total != 2 || qf.Summary.QueryID != "q1" {
		t.Errorf("summary = %+v", qf.Summary)
	}
	if qf.Result == nil || len(qf.Result.Citations[types.StyleAPA]) != 2 {
		t.Errorf("result = %+v", qf.Result)
	}
}

func TestReadQueryFileInputOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.yaml")
	content := "query:\n  title: T1\n  question: What is X?\n  selected_agents: [crow, owl]\n  citation_style: APA\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile: %v", err)
	}
	if len(qf.Query.SelectedAgents) != 2 || qf.Query.CitationStyle != "APA" {
		t.Errorf("query = %+v", qf.Query)
	}
	if qf.Result != nil {
		t.Error("input-only file should have no result")
	}
}
