package model

import (
	"strings"
	"time"
)

type RiskCategory string

const (
	RiskLow      RiskCategory = "Low"
	RiskMedium   RiskCategory = "Medium"
	RiskHigh     RiskCategory = "High"
	RiskCritical RiskCategory = "Critical"
)

// Categories lists every risk category from least to most severe.
var Categories = []RiskCategory{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Rank orders categories; unknown values rank 0.
func (c RiskCategory) Rank() int {
	switch c {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

func (c RiskCategory) Valid() bool {
	return c.Rank() > 0
}

// AtLeast reports whether c is as severe as min or more.
func (c RiskCategory) AtLeast(min RiskCategory) bool {
	return c.Rank() >= min.Rank() && c.Valid()
}

func ParseRiskCategory(s string) (RiskCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, true
	case "medium":
		return RiskMedium, true
	case "high":
		return RiskHigh, true
	case "critical":
		return RiskCritical, true
	}
	return "", false
}

// CategoryForPercent maps a 0..100 risk percentage onto a category using
// the given upper bounds for Low, Medium and High.
func CategoryForPercent(pct, low, medium, high float64) RiskCategory {
	switch {
	case pct < low:
		return RiskLow
	case pct < medium:
		return RiskMedium
	case pct < high:
		return RiskHigh
	}
	return RiskCritical
}

// SensorReading is one complete sensor snapshot as produced by the backend.
type SensorReading struct {
	SlopeAngle           float64 `json:"slope_angle"`
	JointSpacing         float64 `json:"joint_spacing"`
	JointOrientation     float64 `json:"joint_orientation"`
	RockStrength         float64 `json:"rock_strength"`
	WeatheringIndex      float64 `json:"weathering_index"`
	Rainfall24h          float64 `json:"rainfall_24h"`
	Rainfall7d           float64 `json:"rainfall_7d"`
	TemperatureVariation float64 `json:"temperature_variation"`
	FreezeThawCycles     float64 `json:"freeze_thaw_cycles"`
	WindSpeed            float64 `json:"wind_speed"`
	VibrationIntensity   float64 `json:"vibration_intensity"`
	BlastDistance        float64 `json:"blast_distance"`
	ExcavationHeight     float64 `json:"excavation_height"`
	SupportDensity       float64 `json:"support_density"`
	PreviousRockfall30d  float64 `json:"previous_rockfall_30d"`
	MaintenanceDaysSince float64 `json:"maintenance_days_since"`

	SensorID  string `json:"sensor_id,omitempty"`
	Location  string `json:"location,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Fields returns the 16 numeric measurements keyed by their wire names.
func (r SensorReading) Fields() map[string]float64 {
	return map[string]float64{
		"slope_angle":            r.SlopeAngle,
		"joint_spacing":          r.JointSpacing,
		"joint_orientation":      r.JointOrientation,
		"rock_strength":          r.RockStrength,
		"weathering_index":       r.WeatheringIndex,
		"rainfall_24h":           r.Rainfall24h,
		"rainfall_7d":            r.Rainfall7d,
		"temperature_variation":  r.TemperatureVariation,
		"freeze_thaw_cycles":     r.FreezeThawCycles,
		"wind_speed":             r.WindSpeed,
		"vibration_intensity":    r.VibrationIntensity,
		"blast_distance":         r.BlastDistance,
		"excavation_height":      r.ExcavationHeight,
		"support_density":        r.SupportDensity,
		"previous_rockfall_30d":  r.PreviousRockfall30d,
		"maintenance_days_since": r.MaintenanceDaysSince,
	}
}

type PredictionResult struct {
	RiskCategory          RiskCategory       `json:"risk_category"`
	RiskProbability       float64            `json:"risk_probability"`
	Confidence            float64            `json:"confidence"`
	CategoryProbabilities map[string]float64 `json:"category_probabilities"`
	PredictionTime        string             `json:"prediction_time,omitempty"`
	APIVersion            string             `json:"api_version,omitempty"`
	InputSummary          map[string]float64 `json:"input_summary,omitempty"`
}

// Probability returns the breakdown value for a category, 0 when absent.
func (p PredictionResult) Probability(c RiskCategory) float64 {
	if p.CategoryProbabilities == nil {
		return 0
	}
	return p.CategoryProbabilities[string(c)]
}

type SystemStatus struct {
	SensorsOnline   bool   `json:"sensors_online"`
	LastMaintenance string `json:"last_maintenance"`
	AlertLevel      string `json:"alert_level"`
	DataQuality     string `json:"data_quality"`
	NetworkStatus   string `json:"network_status"`
}

// MockData is the payload of the backend live-monitoring endpoint.
type MockData struct {
	SensorData   SensorReading    `json:"sensor_data"`
	Prediction   PredictionResult `json:"prediction"`
	SystemStatus SystemStatus     `json:"system_status"`
}

type HealthStatus struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp,omitempty"`
	ModelStatus string `json:"model_status,omitempty"`
}

type APIStatus struct {
	Message     string            `json:"message"`
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	ModelLoaded bool              `json:"model_loaded"`
	Endpoints   map[string]string `json:"endpoints,omitempty"`
}

type HistoricalPoint struct {
	Timestamp          string       `json:"timestamp"`
	RiskProbability    float64      `json:"risk_probability"`
	RiskCategory       RiskCategory `json:"risk_category"`
	SlopeAngle         float64      `json:"slope_angle"`
	Rainfall24h        float64      `json:"rainfall_24h"`
	VibrationIntensity float64      `json:"vibration_intensity"`
}

type HistoricalSummary struct {
	TotalPoints    int     `json:"total_points"`
	AvgRisk        float64 `json:"avg_risk"`
	HighRiskAlerts int     `json:"high_risk_alerts"`
	Trend          string  `json:"trend"`
}

type HistoricalData struct {
	Data    []HistoricalPoint `json:"data"`
	Summary HistoricalSummary `json:"summary"`
}

// HistoryEntry is one point of the live history window.
type HistoryEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Risk      float64       `json:"risk"`
	Category  RiskCategory  `json:"category"`
	Vibration float64       `json:"vibration"`
	Rainfall  float64       `json:"rainfall"`
	Slope     float64       `json:"slope"`
	Sensor    SensorReading `json:"sensor"`
}

// NewHistoryEntry derives a history point from a live snapshot.
func NewHistoryEntry(ts time.Time, data MockData) HistoryEntry {
	return HistoryEntry{
		Timestamp: ts,
		Risk:      data.Prediction.RiskProbability,
		Category:  data.Prediction.RiskCategory,
		Vibration: data.SensorData.VibrationIntensity,
		Rainfall:  data.SensorData.Rainfall24h,
		Slope:     data.SensorData.SlopeAngle,
		Sensor:    data.SensorData,
	}
}

type AlertRecord struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Zone      string       `json:"zone"`
	Severity  RiskCategory `json:"severity"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Resolved  bool         `json:"resolved"`
	Source    string       `json:"source,omitempty"`
}

const (
	AlertSourceLive = "live"
	AlertSourceMock = "mock"
)

type ZoneRisk struct {
	Zone         string       `json:"zone"`
	CurrentRisk  float64      `json:"current_risk"`
	RiskCategory RiskCategory `json:"risk_category"`
	Sensors      int          `json:"sensors"`
	LastAlert    time.Time    `json:"last_alert"`
	Elevation    int          `json:"elevation"`
	ActiveAlerts int          `json:"active_alerts"`
}

// Snapshot is a live backend payload together with the time it arrived.
type Snapshot struct {
	Data       MockData  `json:"data"`
	ReceivedAt time.Time `json:"received_at"`
}
