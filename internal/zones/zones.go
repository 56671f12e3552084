// Package zones simulates per-zone risk for the risk map view.
package zones

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"rockwatch/internal/model"
)

type Base struct {
	Zone      string
	Risk      float64
	Sensors   int
	Elevation int
}

var Bases = []Base{
	{Zone: "Zone-A", Risk: 25, Sensors: 6, Elevation: 145},
	{Zone: "Zone-B", Risk: 45, Sensors: 4, Elevation: 198},
	{Zone: "Zone-C", Risk: 65, Sensors: 8, Elevation: 87},
	{Zone: "Zone-D", Risk: 35, Sensors: 5, Elevation: 167},
}

var Names = []string{"Zone-A", "Zone-B", "Zone-C", "Zone-D"}

// Category thresholds on the 0..100 zone risk scale.
const (
	LowBelow    = 25
	MediumBelow = 50
	HighBelow   = 75
)

const lastAlertWindow = 3 * 24 * time.Hour

type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Generate returns the current risk of every zone. Risk drifts slowly
// around each base value on a one-minute sine and is clamped to 5..95.
func (g *Generator) Generate() []model.ZoneRisk {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	phase := float64(now.UnixMilli()) / 60000
	out := make([]model.ZoneRisk, 0, len(Bases))
	for i, b := range Bases {
		risk := b.Risk + math.Sin(phase+float64(i))*8 + g.rng.Float64()*6 - 3
		risk = math.Max(5, math.Min(95, risk))

		sensors := b.Sensors
		if g.rng.Float64() > 0.9 {
			if g.rng.Float64() > 0.5 {
				sensors++
			} else {
				sensors--
			}
		}
		var active int
		if risk > 60 {
			active = g.rng.Intn(2) + 1
		} else {
			active = int(g.rng.Float64() * 1.5)
		}
		out = append(out, model.ZoneRisk{
			Zone:         b.Zone,
			CurrentRisk:  math.Round(risk*10) / 10,
			RiskCategory: model.CategoryForPercent(risk, LowBelow, MediumBelow, HighBelow),
			Sensors:      sensors,
			LastAlert:    now.Add(-time.Duration(g.rng.Float64() * float64(lastAlertWindow))),
			Elevation:    b.Elevation + int(math.Round((g.rng.Float64()-0.5)*4)),
			ActiveAlerts: active,
		})
	}
	return out
}
