// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// --- test helpers ---

var t0 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func testStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), types.StoreConfig{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "data", "research.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuery(id, user string, created time.Time) types.Query {
	return types.Query{
		ID:             id,
		UserID:         user,
		Title:          "Title " + id,
		Question:       "What is " + id + "?",
		ResearchArea:   "Biology",
		CitationStyle:  types.StyleAPA,
		Depth:          types.DepthStandard,
		SelectedAgents: []string{"crow", "owl"},
		Status:         types.StatusProcessing,
		CreatedAt:      created,
	}
}

func testResult(titles ...string) types.ResearchResult {
	doi := "10.1/x"
	r := types.ResearchResult{
		Status: types.StatusCompleted,
		Synthesis: types.Synthesis{
			Summary:         "summary",
			KeyFindings:     []string{},
			Recommendations: []string{},
			ResearchGaps:    []string{},
		},
		Citations: map[types.CitationStyle][]string{},
		Metadata: types.ResultMetadata{
			AgentsUsed:       []string{"crow"},
			TotalSources:     len(titles),
			ProcessingMethod: types.MethodProvider,
			ProcessedAt:      t0,
		},
	}
	for i, title := range titles {
		r.Sources = append(r.Sources, types.Source{
			ID:      fmt.Sprintf("s%d", i),
			Title:   title,
			Authors: []string{"Smith, J."},
			Year:    2024,
			DOI:     &doi,
			AgentID: "crow",
		})
		r.Citations[types.StyleAPA] = append(r.Citations[types.StyleAPA], "cite "+title)
	}
	return r
}

func complete(t *testing.T, s *SQLStore, q types.Query, r types.ResearchResult) {
	t.Helper()
	done := q.CreatedAt.Add(time.Minute)
	q.Status = types.StatusCompleted
	q.CompletedAt = &done
	if err := s.SaveQuery(context.Background(), q, r); err != nil {
		t.Fatal(err)
	}
}

func citationRecords(q types.Query, r types.ResearchResult, idPrefix string) []types.CitationRecord {
	var out []types.CitationRecord
	for i, src := range r.Sources {
		out = append(out, types.CitationRecord{
			ID:                fmt.Sprintf("%s-%d", idPrefix, i),
			QueryID:           q.ID,
			UserID:            q.UserID,
			Source:            src,
			Tags:              []string{q.ResearchArea},
			Notes:             "Generated from research query: " + q.Title,
			CitationStyle:     types.StyleAPA,
			FormattedCitation: r.Citations[types.StyleAPA][i],
			CreatedAt:         q.CreatedAt,
		})
	}
	return out
}

// --- tests ---

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), types.StoreConfig{Driver: "mysql", DSN: "x"})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported driver error, got %v", err)
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "research.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), types.StoreConfig{DSN: dsn})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestSaveQuery(t *testing.T) {
	s := testStore(t)
	q := testQuery("q1", "u1", t0)
	r := testResult("A", "B")
	complete(t, s, q, r)

	got, err := s.GetQuery(context.Background(), "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Query.Status != types.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Query.Status)
	}
	if got.Query.CompletedAt == nil || !got.Query.CompletedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("completed_at = %v", got.Query.CompletedAt)
	}
	if !got.Query.CreatedAt.Equal(t0) {
		t.Errorf("created_at = %v, want %v", got.Query.CreatedAt, t0)
	}
	if diff := cmp.Diff([]string{"crow", "owl"}, got.Query.SelectedAgents); diff != "" {
		t.Errorf("selected agents (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(r, got.Result); diff != "" {
		t.Errorf("result round trip (-want +got):\n%s", diff)
	}
	if got.CitationsPersisted {
		t.Error("CitationsPersisted should be false with no citation rows")
	}
}

func TestSaveQuery_OverwritesResult(t *testing.T) {
	s := testStore(t)
	q := testQuery("q1", "u1", t0)
	complete(t, s, q, testResult("old"))
	complete(t, s, q, testResult("new one", "new two"))

	list, err := s.ListQueries(context.Background(), "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d rows, want 1", len(list))
	}
	if n := len(list[0].Result.Sources); n != 2 {
		t.Errorf("got %d sources, want 2 from the newer result", n)
	}
}

func TestSaveQuery_FailureKeepsPreviousRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	q := testQuery("q1", "u1", t0)
	complete(t, s, q, testResult("A", "B", "C"))

	// NaN cannot be encoded, so the write fails after the upsert ran inside
	// the transaction.
	bad := testResult("X")
	nan := math.NaN()
	bad.Sources[0].Relevance = &nan
	q.Status = types.StatusProcessing
	q.Title = "Renamed"
	if err := s.SaveQuery(ctx, q, bad); err == nil {
		t.Fatal("expected encoding error")
	}

	got, err := s.GetQuery(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Query.Status != types.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Query.Status)
	}
	if got.Query.Title != "Title q1" {
		t.Errorf("title = %q, want the previously stored one", got.Query.Title)
	}
	if n := len(got.Result.Sources); n != 3 {
		t.Errorf("got %d sources, want 3 from the previous result", n)
	}
	if got.Query.CompletedAt == nil {
		t.Error("completed_at was cleared")
	}
}

func TestSaveQuery_FailureLeavesNoNewRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	bad := testResult("X")
	nan := math.NaN()
	bad.Sources[0].Relevance = &nan

	if err := s.SaveQuery(ctx, testQuery("q1", "u1", t0), bad); err == nil {
		t.Fatal("expected encoding error")
	}
	if _, err := s.GetQuery(ctx, "q1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected no row, got %v", err)
	}
}

func TestGetQuery_Missing(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetQuery(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertCitations_AppendOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	q := testQuery("q1", "u1", t0)
	r := testResult("A", "B")
	complete(t, s, q, r)

	if err := s.InsertCitations(ctx, q.ID, citationRecords(q, r, "first")); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertCitations(ctx, q.ID, citationRecords(q, r, "second")); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListCitations(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 {
		t.Fatalf("got %d citations, want 4", len(list))
	}
	c := list[0]
	if c.Notes != "Generated from research query: Title q1" {
		t.Errorf("notes = %q", c.Notes)
	}
	if diff := cmp.Diff([]string{"Biology"}, c.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	if c.Source.DOI == nil || *c.Source.DOI != "10.1/x" {
		t.Errorf("doi = %v", c.Source.DOI)
	}
	if c.Source.Journal != nil {
		t.Errorf("journal = %v, want nil", c.Source.Journal)
	}

	got, err := s.GetQuery(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CitationsPersisted {
		t.Error("CitationsPersisted should be true after a stored batch")
	}
}

func TestCitationsPersisted_TracksLatestSave(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	q := testQuery("q1", "u1", t0)
	r := testResult("A", "B")
	complete(t, s, q, r)
	if err := s.InsertCitations(ctx, q.ID, citationRecords(q, r, "first")); err != nil {
		t.Fatal(err)
	}

	// Resubmission: new result, then a citation batch that fails.
	complete(t, s, q, r)
	recs := citationRecords(q, r, "second")
	recs[1].ID = recs[0].ID
	if err := s.InsertCitations(ctx, q.ID, recs); err == nil {
		t.Fatal("expected duplicate id error")
	}

	got, err := s.GetQuery(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CitationsPersisted {
		t.Error("CitationsPersisted should be false: the latest batch failed even though older rows exist")
	}
}

func TestInsertCitations_RollsBackBatch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	q := testQuery("q1", "u1", t0)
	r := testResult("A", "B")
	complete(t, s, q, r)

	recs := citationRecords(q, r, "dup")
	recs[1].ID = recs[0].ID
	if err := s.InsertCitations(ctx, q.ID, recs); err == nil {
		t.Fatal("expected duplicate id error")
	}

	list, err := s.ListCitations(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("got %d citations after failed batch, want 0", len(list))
	}
}

func TestInsertCitations_Empty(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	complete(t, s, testQuery("q1", "u1", t0), testResult())
	if err := s.InsertCitations(ctx, "q1", nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	got, err := s.GetQuery(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CitationsPersisted {
		t.Error("an empty batch for a stored query still counts as persisted")
	}
}

func TestInsertCitations_UnknownQuery(t *testing.T) {
	s := testStore(t)
	if err := s.InsertCitations(context.Background(), "ghost", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCitations_CorruptAuthors(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	q := testQuery("q1", "u1", t0)
	complete(t, s, q, testResult("A"))

	_, err := s.db.ExecContext(ctx, `INSERT INTO citations
		(id, query_id, user_id, source_id, title, authors, year, tags, notes,
		 citation_style, formatted_citation, created_at)
		VALUES ('c1', 'q1', 'u1', 's0', 'A', 'not json', 2024, '[]', '', 'apa', '', ?)`,
		formatTime(t0))
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.ListCitations(ctx, "u1", 0)
	if err == nil || !strings.Contains(err.Error(), "decoding authors of citation c1") {
		t.Errorf("expected authors decode error, got %v", err)
	}
}

func TestListQueries_NewestFirstWithLimit(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 5; i++ {
		complete(t, s, testQuery(fmt.Sprintf("q%d", i), "u1", t0.Add(time.Duration(i)*time.Hour)), testResult("A"))
	}
	complete(t, s, testQuery("other", "u2", t0), testResult("A"))

	list, err := s.ListQueries(context.Background(), "u1", 3)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, pq := range list {
		ids = append(ids, pq.Query.ID)
	}
	if diff := cmp.Diff([]string{"q4", "q3", "q2"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &SQLStore{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestExport(t *testing.T) {
	s := testStore(t)
	complete(t, s, testQuery("q1", "u1", t0), testResult("A"))

	var ybuf bytes.Buffer
	if err := s.Export(context.Background(), &ybuf, "u1", FormatYAML, 0); err != nil {
		t.Fatal(err)
	}
	var yentries []ExportEntry
	if err := yaml.Unmarshal(ybuf.Bytes(), &yentries); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(yentries) != 1 || yentries[0].ID != "q1" || len(yentries[0].Sources) != 1 {
		t.Errorf("yaml entries = %+v", yentries)
	}

	var jbuf bytes.Buffer
	if err := s.Export(context.Background(), &jbuf, "u1", FormatJSON, 0); err != nil {
		t.Fatal(err)
	}
	var jentries []ExportEntry
	if err := json.Unmarshal(jbuf.Bytes(), &jentries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if jentries[0].Sources[0].DOI != "10.1/x" {
		t.Errorf("doi = %q", jentries[0].Sources[0].DOI)
	}

	if err := s.Export(context.Background(), &jbuf, "u1", "xml", 0); err == nil {
		t.Error("expected error for unknown format")
	}
}
