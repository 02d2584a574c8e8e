// Package postgres keeps the previous poll's leagues in a Postgres table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

const defaultTable = "league_snapshots"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and table.
type Config struct {
	DSN             string
	Table           string
	Key             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// SnapshotStore stores one JSONB snapshot per key.
type SnapshotStore struct {
	pool   pool
	table  string
	key    string
	now    func() time.Time
	logger *zap.Logger
}

var _ league.ResultStore = (*SnapshotStore)(nil)

// NewSnapshotStore connects to Postgres and creates the table if needed.
func NewSnapshotStore(ctx context.Context, cfg Config, logger *zap.Logger) (*SnapshotStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewSnapshotStoreWithPool(p, cfg.Table, cfg.Key, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewSnapshotStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewSnapshotStoreWithPool(p pool, table, key string, logger *zap.Logger) (*SnapshotStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if key == "" {
		return nil, fmt.Errorf("snapshot key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{
		pool:   p,
		table:  table,
		key:    key,
		now:    time.Now,
		logger: logger.Named("snapshot_store"),
	}, nil
}

// EnsureSchema creates the snapshot table when it does not exist.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	snapshot_key TEXT PRIMARY KEY,
	leagues JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Load returns the stored snapshot, or an empty slice when there is none or
// it does not decode.
func (s *SnapshotStore) Load(ctx context.Context) ([]league.League, error) {
	query := fmt.Sprintf(`SELECT leagues FROM %s WHERE snapshot_key = $1`, s.table)
	var raw []byte
	err := s.pool.QueryRow(ctx, query, s.key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Info("no previous snapshot", zap.String("key", s.key))
		return []league.League{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}

	var out []league.League
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("snapshot unreadable, starting fresh", zap.String("key", s.key), zap.Error(err))
		return []league.League{}, nil
	}
	if out == nil {
		out = []league.League{}
	}
	return out, nil
}

// Save replaces the snapshot for the store's key.
func (s *SnapshotStore) Save(ctx context.Context, leagues []league.League) error {
	if leagues == nil {
		leagues = []league.League{}
	}
	payload, err := json.Marshal(leagues)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (snapshot_key, leagues, saved_at)
VALUES ($1, $2, $3)
ON CONFLICT (snapshot_key) DO UPDATE
SET leagues = EXCLUDED.leagues, saved_at = EXCLUDED.saved_at`, s.table)
	if _, err := s.pool.Exec(ctx, query, s.key, payload, s.now().UTC()); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *SnapshotStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
