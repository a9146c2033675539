// Package database persists load history in PostgreSQL.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetfilter/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS load_history (
	id          UUID PRIMARY KEY,
	source      TEXT NOT NULL,
	rows_loaded INTEGER NOT NULL DEFAULT 0,
	columns     INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error       TEXT,
	code        TEXT,
	loaded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS load_history_loaded_at_idx ON load_history (loaded_at DESC);`

// PoolOptions tunes the connection pool.
type PoolOptions struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// HistoryStore implements core.HistoryStore on a load_history table.
type HistoryStore struct {
	pool *pgxpool.Pool
}

var _ core.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates the load_history table if needed.
func NewHistoryStore(ctx context.Context, pool *pgxpool.Pool) (*HistoryStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create load_history: %w", err)
	}
	return &HistoryStore{pool: pool}, nil
}

// Record inserts one load event.
func (h *HistoryStore) Record(ctx context.Context, ev core.LoadEvent) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO load_history (id, source, rows_loaded, columns, duration_ms, error, code, loaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pgtype.UUID{Bytes: ev.ID, Valid: true},
		ev.Source,
		ev.Rows,
		ev.Columns,
		ev.Duration.Milliseconds(),
		nullText(ev.Error),
		nullText(ev.Code),
		pgtype.Timestamptz{Time: ev.At, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record load event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]core.LoadEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := h.pool.Query(ctx,
		`SELECT id, source, rows_loaded, columns, duration_ms, error, code, loaded_at
		FROM load_history ORDER BY loaded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query load history: %w", err)
	}
	defer rows.Close()

	events := make([]core.LoadEvent, 0, limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanEvent scans a single load_history row.
func scanEvent(rows pgx.Rows) (core.LoadEvent, error) {
	var (
		id       pgtype.UUID
		source   string
		loaded   int32
		columns  int32
		duration int64
		errText  pgtype.Text
		code     pgtype.Text
		at       pgtype.Timestamptz
	)

	if err := rows.Scan(&id, &source, &loaded, &columns, &duration, &errText, &code, &at); err != nil {
		return core.LoadEvent{}, fmt.Errorf("scan load event: %w", err)
	}

	return core.LoadEvent{
		ID:       uuid.UUID(id.Bytes),
		Source:   source,
		Rows:     int(loaded),
		Columns:  int(columns),
		Duration: time.Duration(duration) * time.Millisecond,
		Error:    errText.String,
		Code:     code.String,
		At:       at.Time,
	}, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
