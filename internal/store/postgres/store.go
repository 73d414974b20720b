// Package postgres provides a Postgres-backed record store.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redresslabs/redress/internal/rights"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for post records.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store writes post records into a single table keyed by (category, id).
// Expected schema:
//
//	CREATE TABLE posts (
//	    category     TEXT        NOT NULL,
//	    id           TEXT        NOT NULL,
//	    keyword      TEXT        NOT NULL,
//	    author_id    TEXT        NOT NULL DEFAULT '',
//	    author_name  TEXT        NOT NULL DEFAULT '',
//	    title        TEXT        NOT NULL DEFAULT '',
//	    body         TEXT        NOT NULL DEFAULT '',
//	    published_at TIMESTAMPTZ NOT NULL,
//	    likes        INTEGER     NOT NULL DEFAULT 0,
//	    comments     INTEGER     NOT NULL DEFAULT 0,
//	    favorites    INTEGER     NOT NULL DEFAULT 0,
//	    collected_at TIMESTAMPTZ NOT NULL,
//	    media        JSONB,
//	    PRIMARY KEY (category, id)
//	)
type Store struct {
	pool  pgxPool
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "posts"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "posts"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Append inserts the batch inside one transaction. Conflicting IDs are left
// untouched; the first write wins and records stay immutable.
func (s *Store) Append(ctx context.Context, category rights.Category, posts []rights.Post) error {
	if len(posts) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
INSERT INTO %s (
	category, id, keyword, author_id, author_name, title, body,
	published_at, likes, comments, favorites, collected_at, media
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
) ON CONFLICT (category, id) DO NOTHING`, s.table)

	for _, p := range posts {
		if p.ID == "" {
			return fmt.Errorf("post id is required")
		}
		media, err := json.Marshal(p.Media)
		if err != nil {
			return fmt.Errorf("marshal media of %q: %w", p.ID, err)
		}
		args := []any{
			string(category), p.ID, p.Keyword, p.AuthorID, p.AuthorName,
			p.Title, p.Body, p.PublishedAt, p.Likes, p.Comments,
			p.Favorites, p.CollectedAt, media,
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert post %q: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// Exists reports whether the category partition already holds the ID.
func (s *Store) Exists(ctx context.Context, category rights.Category, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE category = $1 AND id = $2)`, s.table)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, string(category), id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check post %q: %w", id, err)
	}
	return exists, nil
}

// Scan streams the category partition in stable (collected_at, id) order.
func (s *Store) Scan(ctx context.Context, category rights.Category, fn func(rights.Post) error) error {
	query := fmt.Sprintf(`
SELECT id, keyword, author_id, author_name, title, body,
	published_at, likes, comments, favorites, collected_at, media
FROM %s WHERE category = $1 ORDER BY collected_at, id`, s.table)

	rows, err := s.pool.Query(ctx, query, string(category))
	if err != nil {
		return fmt.Errorf("scan posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p     rights.Post
			media []byte
		)
		if err := rows.Scan(
			&p.ID, &p.Keyword, &p.AuthorID, &p.AuthorName, &p.Title, &p.Body,
			&p.PublishedAt, &p.Likes, &p.Comments, &p.Favorites, &p.CollectedAt, &media,
		); err != nil {
			return fmt.Errorf("scan post row: %w", err)
		}
		if len(media) > 0 && string(media) != "null" {
			if err := json.Unmarshal(media, &p.Media); err != nil {
				return fmt.Errorf("decode media of %q: %w", p.ID, err)
			}
		}
		p.Category = category
		if err := fn(p); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan posts: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
