package validate

import (
	"sort"

	"rockwatch/internal/model"
)

// Field describes one input of the prediction form.
type Field struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
}

func FormFields() []Field {
	return []Field{
		{Key: "slope_angle", Label: "Slope Angle (°)", Min: 0, Max: 90, Step: 0.1},
		{Key: "joint_spacing", Label: "Joint Spacing (m)", Min: 0.1, Max: 5, Step: 0.1},
		{Key: "joint_orientation", Label: "Joint Orientation (°)", Min: 0, Max: 360, Step: 1},
		{Key: "rock_strength", Label: "Rock Strength (MPa)", Min: 0, Max: 200, Step: 0.1},
		{Key: "weathering_index", Label: "Weathering Index (0-10)", Min: 0, Max: 10, Step: 0.1},
		{Key: "rainfall_24h", Label: "Rainfall 24h (mm)", Min: 0, Max: 100, Step: 0.1},
		{Key: "rainfall_7d", Label: "Rainfall 7d (mm)", Min: 0, Max: 200, Step: 0.1},
		{Key: "temperature_variation", Label: "Temperature Variation (°C)", Min: 0, Max: 50, Step: 0.1},
		{Key: "freeze_thaw_cycles", Label: "Freeze-Thaw Cycles", Min: 0, Max: 10, Step: 1},
		{Key: "wind_speed", Label: "Wind Speed (m/s)", Min: 0, Max: 30, Step: 0.1},
		{Key: "vibration_intensity", Label: "Vibration Intensity (mm/s)", Min: 0, Max: 10, Step: 0.1},
		{Key: "blast_distance", Label: "Blast Distance (m)", Min: 50, Max: 1000, Step: 1},
		{Key: "excavation_height", Label: "Excavation Height (m)", Min: 5, Max: 100, Step: 0.1},
		{Key: "support_density", Label: "Support Density (ratio)", Min: 0, Max: 1, Step: 0.01},
		{Key: "previous_rockfall_30d", Label: "Previous Rockfalls (30d)", Min: 0, Max: 20, Step: 1},
		{Key: "maintenance_days_since", Label: "Days Since Maintenance", Min: 0, Max: 100, Step: 1},
	}
}

// DefaultForm is the initial state of the prediction form.
func DefaultForm() model.SensorReading {
	return model.SensorReading{
		SlopeAngle:           45.0,
		JointSpacing:         1.0,
		JointOrientation:     120.0,
		RockStrength:         50.0,
		WeatheringIndex:      5.0,
		Rainfall24h:          2.0,
		Rainfall7d:           15.0,
		TemperatureVariation: 15.0,
		FreezeThawCycles:     1,
		WindSpeed:            5.0,
		VibrationIntensity:   1.0,
		BlastDistance:        200.0,
		ExcavationHeight:     25.0,
		SupportDensity:       0.5,
		PreviousRockfall30d:  0,
		MaintenanceDaysSince: 10,
	}
}

var presets = map[string]model.SensorReading{
	"low_risk": {
		SlopeAngle:           35.0,
		JointSpacing:         2.0,
		JointOrientation:     180.0,
		RockStrength:         70.0,
		WeatheringIndex:      2.0,
		Rainfall24h:          0.5,
		Rainfall7d:           3.0,
		TemperatureVariation: 10.0,
		FreezeThawCycles:     0,
		WindSpeed:            2.0,
		VibrationIntensity:   0.5,
		BlastDistance:        400.0,
		ExcavationHeight:     15.0,
		SupportDensity:       0.8,
		PreviousRockfall30d:  0,
		MaintenanceDaysSince: 5,
	},
	"medium_risk": {
		SlopeAngle:           50.0,
		JointSpacing:         0.8,
		JointOrientation:     135.0,
		RockStrength:         45.0,
		WeatheringIndex:      5.0,
		Rainfall24h:          5.0,
		Rainfall7d:           20.0,
		TemperatureVariation: 18.0,
		FreezeThawCycles:     2,
		WindSpeed:            7.0,
		VibrationIntensity:   2.0,
		BlastDistance:        250.0,
		ExcavationHeight:     30.0,
		SupportDensity:       0.5,
		PreviousRockfall30d:  1,
		MaintenanceDaysSince: 15,
	},
	"high_risk": {
		SlopeAngle:           65.0,
		JointSpacing:         0.3,
		JointOrientation:     90.0,
		RockStrength:         25.0,
		WeatheringIndex:      8.0,
		Rainfall24h:          15.0,
		Rainfall7d:           50.0,
		TemperatureVariation: 25.0,
		FreezeThawCycles:     4,
		WindSpeed:            12.0,
		VibrationIntensity:   4.0,
		BlastDistance:        100.0,
		ExcavationHeight:     50.0,
		SupportDensity:       0.2,
		PreviousRockfall30d:  3,
		MaintenanceDaysSince: 30,
	},
}

// Preset looks up a named preset.
func Preset(name string) (model.SensorReading, bool) {
	p, ok := presets[name]
	return p, ok
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValuesOf converts a reading into form values.
func ValuesOf(r model.SensorReading) Values {
	out := make(Values, 16)
	for k, v := range r.Fields() {
		out[k] = v
	}
	return out
}

// Presets returns a copy of every named preset.
func Presets() map[string]model.SensorReading {
	out := make(map[string]model.SensorReading, len(presets))
	for name, p := range presets {
		out[name] = p
	}
	return out
}
