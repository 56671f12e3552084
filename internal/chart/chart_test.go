package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/model"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func sampleHistory(n int) []model.HistoryEntry {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]model.HistoryEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.HistoryEntry{
			Timestamp: base.Add(time.Duration(i*3) * time.Second),
			Risk:      20 + float64(i*5),
			Vibration: 1 + float64(i)/2,
			Rainfall:  2 + float64(i),
			Slope:     40 + float64(i),
		})
	}
	return out
}

func TestTrendEmptyHistory(t *testing.T) {
	tr := TrendFrom(nil)
	assert.NotNil(t, tr.Labels)
	assert.NotNil(t, tr.Risk)
	assert.NotNil(t, tr.Vibration)
	assert.NotNil(t, tr.Rainfall)
	assert.NotNil(t, tr.Slope)
	assert.Empty(t, tr.Labels)
	assert.Empty(t, tr.Risk)
}

func TestTrendKeepsOrder(t *testing.T) {
	tr := TrendFrom(sampleHistory(3))
	assert.Equal(t, []string{"10:00:00", "10:00:03", "10:00:06"}, tr.Labels)
	assert.Equal(t, []float64{20, 25, 30}, tr.Risk)
	assert.Equal(t, []float64{1, 1.5, 2}, tr.Vibration)
	assert.Equal(t, []float64{2, 3, 4}, tr.Rainfall)
	assert.Equal(t, []float64{40, 41, 42}, tr.Slope)
}

func TestDistributionDefaultsMissingToZero(t *testing.T) {
	d := DistributionFrom(&model.PredictionResult{
		RiskCategory:          model.RiskCritical,
		CategoryProbabilities: map[string]float64{"Critical": 70, "High": 20},
	})
	assert.Equal(t, []string{"Low Risk", "Medium Risk", "High Risk", "Critical Risk"}, d.Labels)
	assert.Equal(t, []float64{0, 0, 20, 70}, d.Values)
	assert.False(t, d.Placeholder)
}

func TestDistributionPlaceholder(t *testing.T) {
	d := DistributionFrom(nil)
	assert.Equal(t, []float64{25, 25, 25, 25}, d.Values)
	assert.True(t, d.Placeholder)
	d.Labels[0] = "changed"
	assert.Equal(t, "Low Risk", DistributionLabels[0])
}

func TestZonesFrom(t *testing.T) {
	z := ZonesFrom([]model.ZoneRisk{
		{Zone: "Zone-A", CurrentRisk: 22, RiskCategory: model.RiskLow, ActiveAlerts: 1},
		{Zone: "Zone-C", CurrentRisk: 68, RiskCategory: model.RiskHigh, ActiveAlerts: 2},
	})
	assert.Equal(t, []string{"Zone-A", "Zone-C"}, z.Labels)
	assert.Equal(t, []float64{22, 68}, z.Risk)
	assert.Equal(t, []model.RiskCategory{model.RiskLow, model.RiskHigh}, z.Categories)
	assert.Equal(t, []int{1, 2}, z.Alerts)
	assert.NotNil(t, ZonesFrom(nil).Labels)
}

func TestRenderTrendPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTrend(&buf, TrendFrom(sampleHistory(5))))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderTrendSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTrend(&buf, TrendFrom(sampleHistory(1))))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderDistributionPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDistribution(&buf, DistributionFrom(nil)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderZonesPNG(t *testing.T) {
	var buf bytes.Buffer
	z := ZonesFrom([]model.ZoneRisk{
		{Zone: "Zone-A", CurrentRisk: 22, RiskCategory: model.RiskLow},
		{Zone: "Zone-B", CurrentRisk: 47, RiskCategory: model.RiskMedium},
	})
	require.NoError(t, RenderZones(&buf, z))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderWithoutData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderTrend(&buf, TrendFrom(nil)), ErrNoData)
	assert.ErrorIs(t, RenderDistribution(&buf, Distribution{Labels: DistributionLabels, Values: []float64{0, 0, 0, 0}}), ErrNoData)
	assert.ErrorIs(t, RenderZones(&buf, ZonesFrom(nil)), ErrNoData)
	assert.Zero(t, buf.Len())
}
