package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

const timeLayout = time.RFC3339Nano

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// SQLite implements Store with modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist. ":memory:" opens a
// private in-memory database.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writes and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch v {
	case currentSchemaVersion:
		return nil
	default:
		return fmt.Errorf("unknown schema version %d", v)
	}
}

func (s *SQLite) freshInstall() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// Save upserts the article and replaces its essences in one transaction.
func (s *SQLite) Save(ctx context.Context, st *article.State) error {
	if st == nil || strings.TrimSpace(st.ID) == "" {
		return nferrors.Validation("id", "required")
	}
	if err := s.save(ctx, st); err != nil {
		return nferrors.Persistence("save "+st.ID, err)
	}
	return nil
}

func (s *SQLite) save(ctx context.Context, st *article.State) error {
	research, err := marshalNullable(st.Research)
	if err != nil {
		return err
	}
	draft, err := marshalNullable(st.Draft)
	if err != nil {
		return err
	}
	breakdown, err := json.Marshal(st.Breakdown)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO articles (id, title, persona, phase, seo_keywords, research_json, draft_json,
	review_score, breakdown_json, review_feedback, retry_count, is_uploaded, published_url,
	created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	persona = excluded.persona,
	phase = excluded.phase,
	seo_keywords = excluded.seo_keywords,
	research_json = excluded.research_json,
	draft_json = excluded.draft_json,
	review_score = excluded.review_score,
	breakdown_json = excluded.breakdown_json,
	review_feedback = excluded.review_feedback,
	retry_count = excluded.retry_count,
	is_uploaded = excluded.is_uploaded,
	published_url = excluded.published_url,
	updated_at = excluded.updated_at`,
		st.ID, st.Title, st.Persona, string(st.Phase), st.SEOKeywords, research, draft,
		st.ReviewScore, string(breakdown), st.ReviewFeedback, st.RetryCount, st.IsUploaded, st.PublishedURL,
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM essences WHERE article_id = ?", st.ID); err != nil {
		return fmt.Errorf("clear essences: %w", err)
	}
	for i, e := range st.Essences {
		tags, err := json.Marshal(e.Tags)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO essences (article_id, seq, category, content, tags_json, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			st.ID, i, string(e.Category), e.Content, string(tags), formatTime(e.CreatedAt)); err != nil {
			return fmt.Errorf("insert essence %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const selectArticle = `SELECT id, title, persona, phase, seo_keywords, research_json, draft_json,
	review_score, breakdown_json, review_feedback, retry_count, is_uploaded, published_url,
	created_at, updated_at FROM articles`

// Load reads one article with its essences.
func (s *SQLite) Load(ctx context.Context, id string) (*article.State, error) {
	row := s.db.QueryRowContext(ctx, selectArticle+" WHERE id = ?", id)
	st, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", nferrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, nferrors.Persistence("load "+id, err)
	}
	if st.Essences, err = s.essences(ctx, id); err != nil {
		return nil, nferrors.Persistence("load essences "+id, err)
	}
	return st, nil
}

// List returns articles most recently updated first.
func (s *SQLite) List(ctx context.Context, f Filter) ([]*article.State, error) {
	query := selectArticle
	var args []any
	var where []string
	if f.Phase != "" {
		where = append(where, "phase = ?")
		args = append(args, string(f.Phase))
	}
	if f.Uploaded != nil {
		where = append(where, "is_uploaded = ?")
		args = append(args, *f.Uploaded)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nferrors.Persistence("list", err)
	}
	var out []*article.State
	for rows.Next() {
		st, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, nferrors.Persistence("list", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, nferrors.Persistence("list", err)
	}
	_ = rows.Close()

	// Essences are read after the cursor closes; there is one connection.
	for _, st := range out {
		if st.Essences, err = s.essences(ctx, st.ID); err != nil {
			return nil, nferrors.Persistence("list essences", err)
		}
	}
	return out, nil
}

// Delete removes an article and its essences.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return nferrors.Persistence("delete "+id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", nferrors.ErrNotFound, id)
	}
	return nil
}

func (s *SQLite) essences(ctx context.Context, id string) ([]article.Essence, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT category, content, tags_json, created_at FROM essences WHERE article_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []article.Essence
	for rows.Next() {
		var (
			e         article.Essence
			category  string
			tags      sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&category, &e.Content, &tags, &createdAt); err != nil {
			return nil, err
		}
		e.Category = article.Category(category)
		if t := nullStr(tags); t != "" && t != "null" {
			if err := json.Unmarshal([]byte(t), &e.Tags); err != nil {
				return nil, fmt.Errorf("decode tags: %w", err)
			}
		}
		e.CreatedAt = parseTime(nullStr(createdAt))
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*article.State, error) {
	var (
		st                                   article.State
		phase                                string
		title, persona, keywords             sql.NullString
		research, draft, breakdown, feedback sql.NullString
		publishedURL                         sql.NullString
		createdAt, updatedAt                 string
	)
	err := row.Scan(&st.ID, &title, &persona, &phase, &keywords, &research, &draft,
		&st.ReviewScore, &breakdown, &feedback, &st.RetryCount, &st.IsUploaded, &publishedURL,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if st.Phase, err = article.ParsePhase(phase); err != nil {
		return nil, err
	}
	st.Title = nullStr(title)
	st.Persona = nullStr(persona)
	st.SEOKeywords = nullStr(keywords)
	st.ReviewFeedback = nullStr(feedback)
	st.PublishedURL = nullStr(publishedURL)
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)

	if err := unmarshalNullable(research, &st.Research); err != nil {
		return nil, fmt.Errorf("decode research: %w", err)
	}
	if err := unmarshalNullable(draft, &st.Draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if b := nullStr(breakdown); b != "" {
		if err := json.Unmarshal([]byte(b), &st.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
	}
	return &st, nil
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalNullable[T any](ns sql.NullString, dst **T) error {
	if !ns.Valid || ns.String == "" {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
