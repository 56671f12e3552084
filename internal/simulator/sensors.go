package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"rockwatch/internal/model"
)

var locations = []string{"Sector-North", "Sector-North", "Sector-East", "Sector-South"}

var driftParams = []string{"slope_angle", "joint_spacing", "rock_strength", "weathering_index", "rainfall_24h", "vibration_intensity"}

const trendEvery = 10 * time.Second

// drift holds the slowly wandering baseline of the mock sensors.
type drift struct {
	base       map[string]float64
	trends     map[string]float64
	lastUpdate time.Time
}

func newDrift(now time.Time) *drift {
	d := &drift{
		base: map[string]float64{
			"slope_angle":           45.0,
			"joint_spacing":         1.2,
			"rock_strength":         55.0,
			"weathering_index":      5.5,
			"rainfall_24h":          2.0,
			"temperature_variation": 15.0,
			"vibration_intensity":   2.0,
			"blast_distance":        200.0,
			"excavation_height":     25.0,
		},
		trends:     make(map[string]float64, len(driftParams)),
		lastUpdate: now,
	}
	for _, p := range driftParams {
		d.trends[p] = 0
	}
	return d
}

func (d *drift) reading(now time.Time, rng *rand.Rand) model.SensorReading {
	if now.Sub(d.lastUpdate) > trendEvery {
		for _, p := range driftParams {
			d.trends[p] = clamp(d.trends[p]+uniform(rng, -0.005, 0.005), -0.02, 0.02)
		}
		d.lastUpdate = now
	}
	b, t := d.base, d.trends

	var r model.SensorReading
	r.SlopeAngle = clamp(round(b["slope_angle"]+t["slope_angle"]*100+uniform(rng, -0.3, 0.3), 1), 25, 75)
	r.JointSpacing = clamp(round(b["joint_spacing"]+t["joint_spacing"]*5+uniform(rng, -0.02, 0.02), 2), 0.1, 3)
	r.RockStrength = clamp(round(b["rock_strength"]+t["rock_strength"]*50+uniform(rng, -0.8, 0.8), 1), 20, 90)
	r.WeatheringIndex = clamp(round(b["weathering_index"]+t["weathering_index"]*10+uniform(rng, -0.05, 0.05), 1), 1, 10)
	r.Rainfall24h = round(math.Max(0, b["rainfall_24h"]+t["rainfall_24h"]*20+uniform(rng, -0.1, 0.1)), 1)
	r.Rainfall7d = math.Max(0, round(r.Rainfall24h*7+uniform(rng, -1, 1), 1))

	hour := float64(now.Hour()) + float64(now.Minute())/60
	daily := 3 * math.Sin((hour-6)*math.Pi/12)
	r.TemperatureVariation = clamp(round(b["temperature_variation"]+daily+uniform(rng, -0.2, 0.2), 1), 5, 35)

	r.VibrationIntensity = clamp(round(math.Max(0.1, b["vibration_intensity"]+t["vibration_intensity"]*5+uniform(rng, -0.05, 0.05)), 2), 0.1, 8)
	r.JointOrientation = round(180+uniform(rng, -15, 15), 1)
	r.FreezeThawCycles = mostlyZero(rng)
	r.WindSpeed = round(math.Max(0, 8+uniform(rng, -1.5, 1.5)), 1)
	r.BlastDistance = round(b["blast_distance"]+uniform(rng, -5, 5), 1)
	r.ExcavationHeight = round(b["excavation_height"]+uniform(rng, -0.5, 0.5), 1)
	r.SupportDensity = round(0.6+uniform(rng, -0.05, 0.05), 2)
	r.PreviousRockfall30d = mostlyZero(rng)
	r.MaintenanceDaysSince = float64(5 + rng.Intn(6))

	r.Timestamp = now.Format("2006-01-02T15:04:05.000000")
	r.SensorID = fmt.Sprintf("RS_%d", 1001+now.Unix()%5)
	r.Location = locations[rng.Intn(len(locations))]
	return r
}

// mostlyZero returns 1 a quarter of the time.
func mostlyZero(rng *rand.Rand) float64 {
	if rng.Intn(4) == 3 {
		return 1
	}
	return 0
}

func inputOf(r model.SensorReading) Input {
	return Input(r.Fields())
}
