package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore persists study state as one JSONB blob per (user, kind).
// Malformed blobs are treated as empty state rather than failing the load,
// so a corrupt record can never lock a user out.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Schema creates the study_state table if it does not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS study_state (
	user_id    TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	state      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, kind)
)`

// NewPostgresStore creates a PostgreSQL-backed store and ensures its schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return nil, fmt.Errorf("ensure study schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Progress(userID string) (Progress, error) {
	raw, err := s.load(userID, string(EventProgress))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return Progress{}, nil
	}

	var p Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		slog.Warn("discarding malformed progress state", "user_id", userID, "error", err)
		return Progress{}, nil
	}
	for id, pct := range p {
		p[id] = NormalizePercent(pct)
	}
	return p, nil
}

func (s *PostgresStore) SaveProgress(userID string, p Progress) error {
	if p == nil {
		p = Progress{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	return s.save(userID, string(EventProgress), raw)
}

func (s *PostgresStore) Bookmarks(userID string) ([]Bookmark, error) {
	raw, err := s.load(userID, string(EventBookmarks))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var marks []Bookmark
	if err := json.Unmarshal(raw, &marks); err != nil {
		slog.Warn("discarding malformed bookmark state", "user_id", userID, "error", err)
		return nil, nil
	}
	return marks, nil
}

func (s *PostgresStore) SaveBookmarks(userID string, marks []Bookmark) error {
	if marks == nil {
		marks = []Bookmark{}
	}
	raw, err := json.Marshal(marks)
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}
	return s.save(userID, string(EventBookmarks), raw)
}

func (s *PostgresStore) load(userID, kind string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM study_state WHERE user_id = $1 AND kind = $2`,
		userID, kind,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s state: %w", kind, err)
	}
	return raw, nil
}

func (s *PostgresStore) save(userID, kind string, raw []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO study_state (user_id, kind, state, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, kind)
		 DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`,
		userID, kind, raw,
	)
	if err != nil {
		return fmt.Errorf("save %s state: %w", kind, err)
	}
	return nil
}
