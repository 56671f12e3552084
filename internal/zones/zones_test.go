package zones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/model"
)

func TestGenerateStaysNearBase(t *testing.T) {
	g := NewGenerator(7)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	for round := 0; round < 50; round++ {
		got := g.Generate()
		require.Len(t, got, len(Bases))
		for i, z := range got {
			b := Bases[i]
			assert.Equal(t, b.Zone, z.Zone)
			assert.GreaterOrEqual(t, z.CurrentRisk, 5.0)
			assert.LessOrEqual(t, z.CurrentRisk, 95.0)
			assert.InDelta(t, b.Risk, z.CurrentRisk, 11.1)
			assert.InDelta(t, b.Sensors, z.Sensors, 1)
			assert.InDelta(t, b.Elevation, z.Elevation, 2)
			assert.True(t, z.RiskCategory.Valid())
			assert.False(t, z.LastAlert.After(now))
			assert.True(t, now.Sub(z.LastAlert) <= lastAlertWindow)
			if z.CurrentRisk > 60.05 {
				assert.Contains(t, []int{1, 2}, z.ActiveAlerts)
			} else if z.CurrentRisk < 59.95 {
				assert.Contains(t, []int{0, 1}, z.ActiveAlerts)
			}
		}
	}
}

func TestCategoryThresholds(t *testing.T) {
	cases := map[float64]model.RiskCategory{
		5:    model.RiskLow,
		24.9: model.RiskLow,
		25:   model.RiskMedium,
		49.9: model.RiskMedium,
		50:   model.RiskHigh,
		75:   model.RiskCritical,
		95:   model.RiskCritical,
	}
	for pct, want := range cases {
		assert.Equal(t, want, model.CategoryForPercent(pct, LowBelow, MediumBelow, HighBelow), pct)
	}
}

func TestSameSeedSameOutput(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b := NewGenerator(3), NewGenerator(3)
	a.now = func() time.Time { return now }
	b.now = func() time.Time { return now }
	assert.Equal(t, a.Generate(), b.Generate())
}
