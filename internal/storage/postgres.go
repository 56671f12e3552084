package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"rockwatch/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/rockwatch?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.exec(ctx, []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			sensor_id TEXT NOT NULL,
			location TEXT NOT NULL,
			risk_probability DOUBLE PRECISION NOT NULL,
			risk_category TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			payload_json JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			alert_type TEXT NOT NULL,
			zone TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			resolved BOOLEAN NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts)`,
	})
}

func (s *postgresStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (ts, sensor_id, location, risk_probability, risk_category, confidence, payload_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.ReceivedAt.UTC(),
		snap.Data.SensorData.SensorID,
		snap.Data.SensorData.Location,
		snap.Data.Prediction.RiskProbability,
		string(snap.Data.Prediction.RiskCategory),
		snap.Data.Prediction.Confidence,
		encodeJSON(snap.Data),
	)
	return errors.Wrap(err, "insert snapshot")
}

func (s *postgresStore) SaveAlert(ctx context.Context, alert model.AlertRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, ts, alert_type, zone, severity, message, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET resolved = EXCLUDED.resolved`,
		alert.ID,
		alert.Timestamp.UTC(),
		alert.Type,
		alert.Zone,
		string(alert.Severity),
		alert.Message,
		alert.Resolved,
	)
	return errors.Wrap(err, "insert alert")
}

func (s *postgresStore) RecentSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if s.db == nil || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, payload_json::text FROM snapshots ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer rows.Close()
	out := make([]model.Snapshot, 0, limit)
	for rows.Next() {
		var ts time.Time
		var payload string
		if err := rows.Scan(&ts, &payload); err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
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
