package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/model"
)

func record(id string, ts time.Time, resolved bool) model.AlertRecord {
	return model.AlertRecord{ID: id, Timestamp: ts, Severity: model.RiskHigh, Resolved: resolved}
}

func TestStoreDropsOldestInsert(t *testing.T) {
	s := NewStore(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Add(record(fmt.Sprint(i), base.Add(time.Duration(i)*time.Minute), false))
	}
	got := s.Query(Query{})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"4", "3", "2"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Len(t, s.Query(Query{Limit: 2}), 2)
}

func TestStoreActiveAndSince(t *testing.T) {
	s := NewStore(10)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Replace([]model.AlertRecord{
		record("a", base, true),
		record("b", base.Add(time.Hour), false),
		record("c", base.Add(2*time.Hour), false),
		record("d", base.Add(3*time.Hour), true),
	})
	active := s.Query(Query{ActiveOnly: true})
	require.Len(t, active, 2)
	assert.Equal(t, "c", active[0].ID)
	assert.Len(t, s.Query(Query{Since: base.Add(time.Hour)}), 3)

	got := s.Query(Query{Since: base.Add(time.Hour), ActiveOnly: true, Limit: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	got = s.Query(Query{Since: base.Add(time.Hour), Limit: 2})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"d", "c"}, []string{got[0].ID, got[1].ID})

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestStoreReplaceSourceKeepsLiveAlerts(t *testing.T) {
	s := NewStore(10)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	live := record("live", base, false)
	live.Source = model.AlertSourceLive
	s.Add(live)

	mock := NewGenerator(3).Generate(4)
	s.ReplaceSource(model.AlertSourceMock, mock)
	require.Equal(t, 5, s.Len())

	s.ReplaceSource(model.AlertSourceMock, NewGenerator(4).Generate(2))
	require.Equal(t, 3, s.Len())
	var sources []string
	for _, a := range s.Query(Query{}) {
		sources = append(sources, a.Source)
	}
	assert.Contains(t, sources, model.AlertSourceLive)
}

func TestGeneratorShape(t *testing.T) {
	g := NewGenerator(11)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	got := g.Generate(12)
	require.Len(t, got, 12)
	ids := map[string]bool{}
	for i, a := range got {
		assert.Contains(t, Types, a.Type)
		assert.True(t, strings.HasPrefix(a.Zone, "Zone-"))
		assert.True(t, a.Severity.Valid())
		assert.Equal(t, "Automated monitoring system alert - "+strings.ToLower(string(a.Severity))+" priority", a.Message)
		assert.False(t, a.Timestamp.After(now))
		assert.True(t, now.Sub(a.Timestamp) <= mockWindow)
		if i > 0 {
			assert.False(t, a.Timestamp.After(got[i-1].Timestamp), "newest first")
		}
		ids[a.ID] = true
	}
	assert.Len(t, ids, 12)
}

func TestSeverityWeights(t *testing.T) {
	assert.Equal(t, model.RiskLow, severityFor(0))
	assert.Equal(t, model.RiskLow, severityFor(9.99))
	assert.Equal(t, model.RiskMedium, severityFor(10))
	assert.Equal(t, model.RiskMedium, severityFor(49.9))
	assert.Equal(t, model.RiskHigh, severityFor(50))
	assert.Equal(t, model.RiskHigh, severityFor(84.9))
	assert.Equal(t, model.RiskCritical, severityFor(85))
}

func TestCooldown(t *testing.T) {
	c := NewCooldown()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	assert.True(t, c.Allow("RS_1001", time.Minute))
	assert.False(t, c.Allow("RS_1001", time.Minute))
	assert.True(t, c.Allow("RS_1002", time.Minute))
	now = now.Add(time.Minute)
	assert.True(t, c.Allow("RS_1001", time.Minute))
	assert.True(t, c.Allow("RS_1001", 0))
}

func TestCooldownReadyThenMark(t *testing.T) {
	c := NewCooldown()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	assert.True(t, c.Ready("RS_1001", time.Minute))
	assert.True(t, c.Ready("RS_1001", time.Minute))

	c.Mark("RS_1001")
	assert.False(t, c.Ready("RS_1001", time.Minute))
	assert.True(t, c.Ready("RS_1001", 0))
	now = now.Add(time.Minute)
	assert.True(t, c.Ready("RS_1001", time.Minute))
}

type fakeSaver struct {
	saved []model.AlertRecord
	err   error
}

func (f *fakeSaver) SaveAlert(ctx context.Context, a model.AlertRecord) error {
	f.saved = append(f.saved, a)
	return f.err
}

func liveSnapshot(cat model.RiskCategory, risk float64) model.Snapshot {
	return model.Snapshot{
		Data: model.MockData{
			SensorData: model.SensorReading{SensorID: "RS_1004", Location: "Sector-East"},
			Prediction: model.PredictionResult{RiskCategory: cat, RiskProbability: risk},
		},
		ReceivedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecorderRaisesAtThreshold(t *testing.T) {
	store := NewStore(10)
	saver := &fakeSaver{}
	r := NewRecorder(store, saver, nil, model.RiskHigh, time.Hour)
	ctx := context.Background()

	require.NoError(t, r.Deliver(ctx, liveSnapshot(model.RiskMedium, 45)))
	assert.Zero(t, store.Len())

	require.NoError(t, r.Deliver(ctx, liveSnapshot(model.RiskCritical, 82.5)))
	require.NoError(t, r.Deliver(ctx, liveSnapshot(model.RiskCritical, 83)))
	got := store.Query(Query{})
	require.Len(t, got, 1)
	assert.Equal(t, LiveAlertType, got[0].Type)
	assert.Equal(t, "Sector-East", got[0].Zone)
	assert.Equal(t, "Sensor RS_1004 reports 82.5% rockfall risk", got[0].Message)
	assert.Len(t, saver.saved, 1)

	r.Reset()
	saver.err = errors.New("disk full")
	assert.Error(t, r.Deliver(ctx, liveSnapshot(model.RiskHigh, 60)))
	assert.Equal(t, 2, store.Len())
}
