package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "rockwatch.db")
	st, err := NewStore(config.StorageConfig{Enabled: true, Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testSnapshot(i int, base time.Time) model.Snapshot {
	return model.Snapshot{
		Data: model.MockData{
			SensorData: model.SensorReading{SlopeAngle: float64(40 + i), SensorID: "RS_1001", Location: "Sector-South"},
			Prediction: model.PredictionResult{
				RiskCategory:          model.RiskMedium,
				RiskProbability:       float64(30 + i),
				CategoryProbabilities: map[string]float64{"Medium": 40},
			},
		},
		ReceivedAt: base.Add(time.Duration(i) * 3 * time.Second),
	}
}

func TestDisabledStorageIsNil(t *testing.T) {
	st, err := NewStore(config.StorageConfig{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, st)
}

func TestUnknownDriver(t *testing.T) {
	_, err := NewStore(config.StorageConfig{Enabled: true, Driver: "oracle"})
	assert.Error(t, err)
}

func TestSQLiteRecentSnapshotsOldestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	sink := NewSink(st)
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Deliver(ctx, testSnapshot(i, base)))
	}

	got, err := st.RecentSnapshots(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 32.0, got[0].Data.Prediction.RiskProbability)
	assert.Equal(t, 34.0, got[2].Data.Prediction.RiskProbability)
	assert.True(t, got[2].ReceivedAt.Equal(base.Add(12*time.Second)))
	assert.Equal(t, "RS_1001", got[1].Data.SensorData.SensorID)

	entries := HistoryEntries(got)
	require.Len(t, entries, 3)
	assert.Equal(t, 42.0, entries[0].Slope)
}

func TestSQLiteSaveAlertUpserts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	alert := model.AlertRecord{
		ID:        "a1",
		Type:      "Slope Movement",
		Zone:      "Zone-C",
		Severity:  model.RiskHigh,
		Timestamp: time.Now(),
		Message:   "moving",
	}
	require.NoError(t, st.SaveAlert(ctx, alert))
	alert.Resolved = true
	require.NoError(t, st.SaveAlert(ctx, alert))
}
