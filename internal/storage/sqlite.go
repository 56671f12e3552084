package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"rockwatch/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:rockwatch.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.exec(ctx, []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			sensor_id TEXT NOT NULL,
			location TEXT NOT NULL,
			risk_probability REAL NOT NULL,
			risk_category TEXT NOT NULL,
			confidence REAL NOT NULL,
			payload_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			alert_type TEXT NOT NULL,
			zone TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			resolved INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts)`,
	})
}

func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (ts, sensor_id, location, risk_probability, risk_category, confidence, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ReceivedAt.UTC().Format(time.RFC3339Nano),
		snap.Data.SensorData.SensorID,
		snap.Data.SensorData.Location,
		snap.Data.Prediction.RiskProbability,
		string(snap.Data.Prediction.RiskCategory),
		snap.Data.Prediction.Confidence,
		encodeJSON(snap.Data),
	)
	return errors.Wrap(err, "insert snapshot")
}

func (s *sqliteStore) SaveAlert(ctx context.Context, alert model.AlertRecord) error {
	if s.db == nil {
		return nil
	}
	resolved := 0
	if alert.Resolved {
		resolved = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO alerts (id, ts, alert_type, zone, severity, message, resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		alert.ID,
		alert.Timestamp.UTC().Format(time.RFC3339Nano),
		alert.Type,
		alert.Zone,
		string(alert.Severity),
		alert.Message,
		resolved,
	)
	return errors.Wrap(err, "insert alert")
}

func (s *sqliteStore) RecentSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if s.db == nil || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, payload_json FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer rows.Close()
	out := make([]model.Snapshot, 0, limit)
	for rows.Next() {
		var raw, payload string
		if err := rows.Scan(&raw, &payload); err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, errors.Wrap(err, "parse snapshot time")
		}
		snap, err := decodeSnapshot(ts, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate snapshots")
	}
	return reverse(out), nil
}
