package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/shelfmark/shelfmark/engine"
)

// PostgresStore implements Store backed by PostgreSQL. The settings
// aggregate lives in a single JSONB row; works get their own table with a
// version column for optimistic locking.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle. The caller owns running
// migrations first (cmd/migrate).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects, pings and wraps a PostgreSQL database.
func OpenPostgres(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// DB exposes the underlying handle for health checks.
func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) LoadSettings(ctx context.Context) (engine.Settings, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM settings WHERE id = 1
	`).Scan(&data)
	if err == sql.ErrNoRows {
		return engine.DefaultSettings(), nil
	}
	if err != nil {
		return engine.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := engine.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return engine.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings engine.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, data)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddWork(ctx context.Context, work *engine.Work) error {
	if work.Version == 0 {
		work.Version = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO works (id, title, reading_status, rereading,
			last_read_chapter, current_chapter,
			last_accessed_at, last_updated_at, added_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, work.ID, work.Title, work.ReadingStatus, work.Rereading,
		work.LastReadChapter, work.CurrentChapter,
		nullTime(work.LastAccessedAt), nullTime(work.LastUpdatedAt),
		nullTime(work.AddedAt), work.Version)
	if err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetWork(ctx context.Context, id string) (*engine.Work, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, reading_status, rereading,
			last_read_chapter, current_chapter,
			last_accessed_at, last_updated_at, added_at, version
		FROM works
		WHERE id = $1
	`, id)

	work, err := scanWork(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work: %w", err)
	}
	return work, nil
}

func (s *PostgresStore) ListWorks(ctx context.Context) ([]*engine.Work, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, reading_status, rereading,
			last_read_chapter, current_chapter,
			last_accessed_at, last_updated_at, added_at, version
		FROM works
		ORDER BY added_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	defer rows.Close()

	var works []*engine.Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		works = append(works, work)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating works: %w", err)
	}
	return works, nil
}

func (s *PostgresStore) UpdateWork(ctx context.Context, work *engine.Work) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE works
		SET title = $1, reading_status = $2, rereading = $3,
			last_read_chapter = $4, current_chapter = $5,
			last_accessed_at = $6, last_updated_at = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
	`, work.Title, work.ReadingStatus, work.Rereading,
		work.LastReadChapter, work.CurrentChapter,
		nullTime(work.LastAccessedAt), nullTime(work.LastUpdatedAt),
		work.ID, work.Version)
	if err != nil {
		return fmt.Errorf("failed to update work: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM works WHERE id = $1)`, work.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check work existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("work %s: %w", work.ID, ErrNotFound)
		}
		return fmt.Errorf("work %s: %w", work.ID, ErrVersionConflict)
	}

	work.Version++
	return nil
}

func (s *PostgresStore) DeleteWork(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWork(row rowScanner) (*engine.Work, error) {
	var work engine.Work
	var lastAccessed, lastUpdated, added sql.NullTime
	err := row.Scan(&work.ID, &work.Title, &work.ReadingStatus, &work.Rereading,
		&work.LastReadChapter, &work.CurrentChapter,
		&lastAccessed, &lastUpdated, &added, &work.Version)
	if err != nil {
		return nil, err
	}
	work.LastAccessedAt = lastAccessed.Time
	work.LastUpdatedAt = lastUpdated.Time
	work.AddedAt = added.Time
	return &work, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
