package simulator

import (
	"math"
	"math/rand"
	"time"

	"rockwatch/internal/model"
)

const (
	historyHours  = 168
	historyReturn = 48
)

// Historical builds a week of hourly points with an upward drift and a
// daily cycle, and returns the last 48 with a summary.
func Historical(now time.Time, rng *rand.Rand) model.HistoricalData {
	start := now.Add(-7 * 24 * time.Hour)
	points := make([]model.HistoricalPoint, 0, historyHours)
	for i := 0; i < historyHours; i++ {
		trend := float64(i) / historyHours
		daily := 0.5 * math.Sin(2*math.Pi*float64(i)/24)

		risk := clamp(35+trend*15+daily*5+uniform(rng, -3, 3), 10, 85)
		slope := 45 + trend*5 + uniform(rng, -1, 1)
		rain := math.Max(0, 2+trend*3+daily*2+uniform(rng, -0.5, 0.5))
		vib := math.Max(0.1, 2+trend+daily*0.5+uniform(rng, -0.2, 0.2))

		points = append(points, model.HistoricalPoint{
			Timestamp:          start.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04:05.000000"),
			RiskProbability:    round(risk, 1),
			RiskCategory:       model.CategoryForPercent(risk, 25, 50, 70),
			SlopeAngle:         round(slope, 1),
			Rainfall24h:        round(rain, 1),
			VibrationIntensity: round(vib, 2),
		})
	}
	recent := points[len(points)-historyReturn:]
	return model.HistoricalData{Data: recent, Summary: summarize(recent)}
}

func summarize(points []model.HistoricalPoint) model.HistoricalSummary {
	s := model.HistoricalSummary{TotalPoints: len(points), Trend: "stable"}
	if len(points) == 0 {
		return s
	}
	var sum float64
	for _, p := range points {
		sum += p.RiskProbability
		if p.RiskProbability > 60 {
			s.HighRiskAlerts++
		}
	}
	s.AvgRisk = round(sum/float64(len(points)), 1)
	if math.Abs(points[len(points)-1].RiskProbability-points[0].RiskProbability) >= 10 {
		s.Trend = "increasing"
	}
	return s
}
