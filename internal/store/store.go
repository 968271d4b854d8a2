// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists research queries and citations in a SQL database.
// SQLite (mattn/go-sqlite3) is the local default; PostgreSQL (lib/pq) is the
// hosted datastore. The schema is managed with embedded goose migrations.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Default list limits.
const (
	DefaultQueryLimit    = 50
	DefaultCitationLimit = 100
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a query id has no row.
var ErrNotFound = errors.New("query not found")

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLStore implements query and citation persistence on database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the datastore described by cfg and applies pending
// migrations. An empty driver selects SQLite.
func Open(ctx context.Context, cfg types.StoreConfig) (*SQLStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	dsn := cfg.DSN
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite3 store needs a database path")
		}
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres store needs a connection URL")
		}
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	dialect := goose.DialectSQLite3
	if s.driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}
	p, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveQuery writes q and its result r in one transaction: the row is upserted
// and then stamped with q's status, the result and the completion time. On
// any failure the transaction is rolled back and a previously stored row is
// left as it was. Saving resets the citations flag until InsertCitations
// succeeds for the new result.
func (s *SQLStore) SaveQuery(ctx context.Context, q types.Query, r types.ResearchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.upsertQuery(ctx, tx, q); err != nil {
		return err
	}
	if err := s.completeQuery(ctx, tx, q, r); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing query %s: %w", q.ID, err)
	}
	return nil
}

func (s *SQLStore) upsertQuery(ctx context.Context, db execer, q types.Query) error {
	agents, err := json.Marshal(q.SelectedAgents)
	if err != nil {
		return fmt.Errorf("encoding selected agents: %w", err)
	}
	_, err = db.ExecContext(ctx, s.rebind(
		`INSERT INTO research_queries
			(id, user_id, title, question, research_area, citation_style, depth,
			 selected_agents, status, result, created_at, completed_at, citations_persisted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, NULL, 0)
		 ON CONFLICT(id) DO UPDATE SET
			user_id=excluded.user_id, title=excluded.title, question=excluded.question,
			research_area=excluded.research_area, citation_style=excluded.citation_style,
			depth=excluded.depth, selected_agents=excluded.selected_agents,
			status=excluded.status, citations_persisted=0`),
		q.ID, q.UserID, q.Title, q.Question, q.ResearchArea, string(q.CitationStyle),
		string(q.Depth), string(agents), string(q.Status), formatTime(q.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting query %s: %w", q.ID, err)
	}
	return nil
}

func (s *SQLStore) completeQuery(ctx context.Context, db execer, q types.Query, r types.ResearchResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	var completed sql.NullString
	if q.CompletedAt != nil {
		completed = sql.NullString{String: formatTime(*q.CompletedAt), Valid: true}
	}
	res, err := db.ExecContext(ctx, s.rebind(
		`UPDATE research_queries SET status = ?, result = ?, completed_at = ? WHERE id = ?`),
		string(q.Status), string(data), completed, q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating query %s: %w", q.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating query %s: %w", q.ID, ErrNotFound)
	}
	return nil
}

// InsertCitations writes all records of queryID in one transaction and marks
// the query's citations as persisted. Either every row is stored and the flag
// set, or nothing changes.
func (s *SQLStore) InsertCitations(ctx context.Context, queryID string, recs []types.CitationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if len(recs) > 0 {
		stmt, err := tx.PrepareContext(ctx, s.rebind(
			`INSERT INTO citations
				(id, query_id, user_id, source_id, title, authors, journal, year, doi, url,
				 abstract, relevance, agent_id, tags, notes, citation_style,
				 formatted_citation, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range recs {
			authors, err := json.Marshal(c.Source.Authors)
			if err != nil {
				return fmt.Errorf("encoding authors of citation %s: %w", c.ID, err)
			}
			tags, err := json.Marshal(c.Tags)
			if err != nil {
				return fmt.Errorf("encoding tags of citation %s: %w", c.ID, err)
			}
			_, err = stmt.ExecContext(ctx,
				c.ID, c.QueryID, c.UserID, c.Source.ID, c.Source.Title, string(authors),
				nullString(c.Source.Journal), c.Source.Year, nullString(c.Source.DOI),
				nullString(c.Source.URL), nullString(c.Source.Abstract), nullFloat(c.Source.Relevance),
				c.Source.AgentID, string(tags), c.Notes, string(c.CitationStyle),
				c.FormattedCitation, formatTime(c.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("inserting citation %s: %w", c.ID, err)
			}
		}
	}

	res, err := tx.ExecContext(ctx, s.rebind(
		`UPDATE research_queries SET citations_persisted = 1 WHERE id = ?`), queryID)
	if err != nil {
		return fmt.Errorf("marking citations of %s: %w", queryID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("marking citations of %s: %w", queryID, ErrNotFound)
	}
	return tx.Commit()
}

// GetQuery loads one stored query by id.
func (s *SQLStore) GetQuery(ctx context.Context, id string) (types.PersistedQuery, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(querySelect+` WHERE q.id = ?`), id)
	if err != nil {
		return types.PersistedQuery{}, fmt.Errorf("querying %s: %w", id, err)
	}
	defer rows.Close()

	list, err := scanQueries(rows)
	if err != nil {
		return types.PersistedQuery{}, err
	}
	if len(list) == 0 {
		return types.PersistedQuery{}, fmt.Errorf("query %s: %w", id, ErrNotFound)
	}
	return list[0], nil
}

// ListQueries returns userID's queries, newest first. A non-positive limit
// uses DefaultQueryLimit.
func (s *SQLStore) ListQueries(ctx context.Context, userID string, limit int) ([]types.PersistedQuery, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		querySelect+` WHERE q.user_id = ? ORDER BY q.created_at DESC, q.id LIMIT ?`),
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()
	return scanQueries(rows)
}

const querySelect = `SELECT q.id, q.user_id, q.title, q.question, q.research_area,
	q.citation_style, q.depth, q.selected_agents, q.status, q.result, q.created_at,
	q.completed_at, q.citations_persisted
	FROM research_queries q`

func scanQueries(rows *sql.Rows) ([]types.PersistedQuery, error) {
	var out []types.PersistedQuery
	for rows.Next() {
		var (
			pq                   types.PersistedQuery
			style, depth, status string
			agents, created      string
			result, completed    sql.NullString
			citations            int
		)
		q := &pq.Query
		if err := rows.Scan(&q.ID, &q.UserID, &q.Title, &q.Question, &q.ResearchArea,
			&style, &depth, &agents, &status, &result, &created, &completed, &citations); err != nil {
			return nil, fmt.Errorf("scanning query row: %w", err)
		}
		q.CitationStyle = types.CitationStyle(style)
		q.Depth = types.Depth(depth)
		q.Status = types.QueryStatus(status)
		if err := json.Unmarshal([]byte(agents), &q.SelectedAgents); err != nil {
			return nil, fmt.Errorf("decoding selected agents of %s: %w", q.ID, err)
		}
		q.CreatedAt = parseTime(created)
		if completed.Valid {
			t := parseTime(completed.String)
			q.CompletedAt = &t
		}
		if result.Valid {
			if err := json.Unmarshal([]byte(result.String), &pq.Result); err != nil {
				return nil, fmt.Errorf("decoding result of %s: %w", q.ID, err)
			}
		}
		pq.CitationsPersisted = citations != 0
		out = append(out, pq)
	}
	return out, rows.Err()
}

// ListCitations returns userID's citation rows, newest first. A non-positive
// limit uses DefaultCitationLimit.
func (s *SQLStore) ListCitations(ctx context.Context, userID string, limit int) ([]types.CitationRecord, error) {
	if limit <= 0 {
		limit = DefaultCitationLimit
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, query_id, user_id, source_id, title, authors, journal, year, doi, url,
			abstract, relevance, agent_id, tags, notes, citation_style, formatted_citation,
			created_at
		 FROM citations WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`),
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing citations: %w", err)
	}
	defer rows.Close()

	var out []types.CitationRecord
	for rows.Next() {
		var (
			c                          types.CitationRecord
			authors, tags, style, when string
			journal, doi, url, abs     sql.NullString
			agent                      sql.NullString
			relevance                  sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.QueryID, &c.UserID, &c.Source.ID, &c.Source.Title,
			&authors, &journal, &c.Source.Year, &doi, &url, &abs, &relevance, &agent,
			&tags, &c.Notes, &style, &c.FormattedCitation, &when); err != nil {
			return nil, fmt.Errorf("scanning citation row: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &c.Source.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors of citation %s: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags of citation %s: %w", c.ID, err)
		}
		c.Source.Journal = fromNull(journal)
		c.Source.DOI = fromNull(doi)
		c.Source.URL = fromNull(url)
		c.Source.Abstract = fromNull(abs)
		c.Source.AgentID = agent.String
		if relevance.Valid {
			r := relevance.Float64
			c.Source.Relevance = &r
		}
		c.CitationStyle = types.CitationStyle(style)
		c.CreatedAt = parseTime(when)
		out = append(out, c)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func fromNull(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
