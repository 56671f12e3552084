package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	SaveAlert(ctx context.Context, alert model.AlertRecord) error
	// RecentSnapshots returns up to limit snapshots, oldest first.
	RecentSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error)
}

// NewStore opens the configured backend. It returns nil when storage is
// disabled.
func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	case "clickhouse":
		return NewClickHouse(cfg.DSN)
	default:
		return nil, errors.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Sink persists every live snapshot it receives.
type Sink struct {
	store Store
}

func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

func (s *Sink) Name() string { return "storage" }

func (s *Sink) Deliver(ctx context.Context, snap model.Snapshot) error {
	return s.store.SaveSnapshot(ctx, snap)
}

// HistoryEntries converts stored snapshots into history window entries.
func HistoryEntries(snaps []model.Snapshot) []model.HistoryEntry {
	out := make([]model.HistoryEntry, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, model.NewHistoryEntry(s.ReceivedAt, s.Data))
	}
	return out
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) exec(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func decodeSnapshot(ts time.Time, payload string) (model.Snapshot, error) {
	var data model.MockData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return model.Snapshot{}, errors.Wrap(err, "decode snapshot payload")
	}
	return model.Snapshot{Data: data, ReceivedAt: ts.UTC()}, nil
}

// reverse flips newest-first query results into oldest-first order.
func reverse(snaps []model.Snapshot) []model.Snapshot {
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps
}
