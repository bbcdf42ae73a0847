// Package catalog provides SQLite persistence for the local model catalog.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"modeldeck/internal/domain"
)

// ErrEmptyQuery is returned by Search when the query is blank.
var ErrEmptyQuery = errors.New("empty search query")

// ErrNotFound is returned by Get for unknown model IDs.
var ErrNotFound = errors.New("model not found")

// Store handles catalog persistence.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at dbPath, creating the schema if needed.
// ":memory:" opens a private in-memory catalog.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// every connection to :memory: would otherwise see its own database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		architecture TEXT NOT NULL DEFAULT '',
		parameters TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		downloads INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '',
		featured INTEGER NOT NULL DEFAULT 0,
		released_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_models_featured ON models(featured, downloads DESC);
	CREATE INDEX IF NOT EXISTS idx_models_downloads ON models(downloads DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Upsert inserts or replaces models by ID and returns how many rows were written.
func (s *Store) Upsert(ctx context.Context, models []domain.Model) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(models) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO models (
			id, name, author, summary, architecture, parameters,
			size_bytes, downloads, tags, featured, released_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			author = excluded.author,
			summary = excluded.summary,
			architecture = excluded.architecture,
			parameters = excluded.parameters,
			size_bytes = excluded.size_bytes,
			downloads = excluded.downloads,
			tags = excluded.tags,
			featured = excluded.featured,
			released_at = excluded.released_at
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, m := range models {
		if m.ID == "" || m.Name == "" {
			return 0, fmt.Errorf("model %q: id and name are required", m.Name)
		}
		_, err := stmt.ExecContext(ctx,
			m.ID,
			m.Name,
			m.Author,
			m.Summary,
			m.Architecture,
			m.Parameters,
			m.SizeBytes,
			m.Downloads,
			joinTags(m.Tags),
			boolToInt(m.Featured),
			unixOrZero(m.Released),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert %s: %w", m.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// Search returns models whose name, author, summary or tags contain query,
// case-insensitively, most downloaded first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]domain.Model, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryModels(ctx, `
		SELECT `+modelColumns+`
		FROM models
		WHERE lower(name) LIKE ? ESCAPE '\'
			OR lower(author) LIKE ? ESCAPE '\'
			OR lower(summary) LIKE ? ESCAPE '\'
			OR lower(tags) LIKE ? ESCAPE '\'
		ORDER BY downloads DESC, name
		LIMIT ?
	`, pattern, pattern, pattern, pattern, limit)
}

// Featured returns the featured models, most downloaded first.
func (s *Store) Featured(ctx context.Context, limit int) ([]domain.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryModels(ctx, `
		SELECT `+modelColumns+`
		FROM models
		WHERE featured = 1
		ORDER BY downloads DESC, name
		LIMIT ?
	`, limit)
}

// Get returns a single model by ID.
func (s *Store) Get(ctx context.Context, id string) (domain.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models, err := s.queryModels(ctx, `SELECT `+modelColumns+` FROM models WHERE id = ?`, id)
	if err != nil {
		return domain.Model{}, err
	}
	if len(models) == 0 {
		return domain.Model{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return models[0], nil
}

// Stats counts all and featured models.
func (s *Store) Stats(ctx context.Context) (domain.CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.CatalogStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(featured), 0) FROM models`,
	).Scan(&stats.Models, &stats.Featured)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("count models: %w", err)
	}
	return stats, nil
}

const modelColumns = `id, name, author, summary, architecture, parameters,
	size_bytes, downloads, tags, featured, released_at`

// queryModels runs query and scans the rows. Caller must hold s.mu.
func (s *Store) queryModels(ctx context.Context, query string, args ...any) ([]domain.Model, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var (
			m        domain.Model
			tags     string
			featured int
			released int64
		)
		err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Author,
			&m.Summary,
			&m.Architecture,
			&m.Parameters,
			&m.SizeBytes,
			&m.Downloads,
			&tags,
			&featured,
			&released,
		)
		if err != nil {
			return nil, err
		}
		m.Tags = splitTags(tags)
		m.Featured = featured != 0
		if released > 0 {
			m.Released = time.Unix(released, 0).UTC()
		}
		models = append(models, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
