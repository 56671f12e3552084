package alerts

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rockwatch/internal/model"
	"rockwatch/internal/zones"
)

var Types = []string{"High Risk Warning", "Sensor Maintenance", "Weather Alert", "Slope Movement"}

const mockWindow = 5 * 24 * time.Hour

// Generator produces a plausible alert history for the risk map view.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	newID func() string
}

// NewGenerator seeds its source with seed, or with the clock when seed is 0.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Generate returns n alerts from the last five days, newest first.
func (g *Generator) Generate(n int) []model.AlertRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	out := make([]model.AlertRecord, 0, n)
	for i := 0; i < n; i++ {
		sev := severityFor(g.rng.Float64() * 100)
		resolveAbove := 0.4
		if sev == model.RiskCritical {
			resolveAbove = 0.2
		}
		out = append(out, model.AlertRecord{
			ID:        g.newID(),
			Type:      Types[g.rng.Intn(len(Types))],
			Zone:      zones.Names[g.rng.Intn(len(zones.Names))],
			Severity:  sev,
			Timestamp: now.Add(-time.Duration(g.rng.Float64() * float64(mockWindow))),
			Message:   "Automated monitoring system alert - " + strings.ToLower(string(sev)) + " priority",
			Resolved:  g.rng.Float64() > resolveAbove,
			Source:    model.AlertSourceMock,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// severityFor maps a 0..100 draw onto the 10/40/35/15 severity split.
func severityFor(draw float64) model.RiskCategory {
	switch {
	case draw < 10:
		return model.RiskLow
	case draw < 50:
		return model.RiskMedium
	case draw < 85:
		return model.RiskHigh
	}
	return model.RiskCritical
}
