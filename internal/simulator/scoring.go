package simulator

import (
	"math"
	"math/rand"
	"time"

	"rockwatch/internal/model"
)

const APIVersion = "1.0.0"

// Input is a decoded prediction request. Absent fields take the scoring
// defaults.
type Input map[string]float64

func (in Input) get(key string, def float64) float64 {
	if v, ok := in[key]; ok {
		return v
	}
	return def
}

// RiskScore combines slope, jointing, weathering and vibration into a
// 0..1 score.
func RiskScore(in Input) float64 {
	slope := math.Min(in.get("slope_angle", 45)/90, 1)
	joint := math.Max(0, 1-in.get("joint_spacing", 1)/3)
	weather := math.Min((in.get("rainfall_24h", 0)+in.get("weathering_index", 5))/20, 1)
	vibration := math.Min(in.get("vibration_intensity", 1)/5, 1)
	return slope*0.3 + joint*0.25 + weather*0.25 + vibration*0.2
}

// CategoryForScore returns the category and the base probability for a score.
func CategoryForScore(score float64) (model.RiskCategory, float64) {
	switch {
	case score < 0.3:
		return model.RiskLow, 15 + score*25
	case score < 0.5:
		return model.RiskMedium, 30 + (score-0.3)*50
	case score < 0.7:
		return model.RiskHigh, 55 + (score-0.5)*37.5
	}
	return model.RiskCritical, 70 + (score-0.7)*50
}

// Breakdown spreads a score over the four categories. The values are not
// normalised.
func Breakdown(score float64) map[string]float64 {
	return map[string]float64{
		string(model.RiskLow):      round(math.Max(0, 35-score*35), 1),
		string(model.RiskMedium):   round(math.Max(0, 45-math.Abs(score-0.4)*90), 1),
		string(model.RiskHigh):     round(math.Max(0, 35-math.Abs(score-0.6)*70), 1),
		string(model.RiskCritical): round(math.Max(0, score*30-15), 1),
	}
}

// Predict scores in with a little noise, as the demo model does.
func Predict(in Input, rng *rand.Rand, now time.Time) model.PredictionResult {
	score := RiskScore(in) + uniform(rng, -0.02, 0.02)
	score = clamp(score, 0, 1)
	category, prob := CategoryForScore(score)
	prob = clamp(prob+uniform(rng, -1.5, 1.5), 5, 95)
	confidence := clamp(87+uniform(rng, -3, 3), 75, 95)
	return model.PredictionResult{
		RiskCategory:          category,
		RiskProbability:       round(prob, 1),
		Confidence:            round(confidence, 1),
		CategoryProbabilities: Breakdown(score),
		PredictionTime:        now.Format("2006-01-02T15:04:05.000000"),
	}
}

// SafeDefault is the result given for input that cannot be scored.
func SafeDefault(now time.Time) model.PredictionResult {
	probs := map[string]float64{
		string(model.RiskLow):      25,
		string(model.RiskMedium):   45,
		string(model.RiskHigh):     25,
		string(model.RiskCritical): 5,
	}
	return model.PredictionResult{
		RiskCategory:          model.RiskMedium,
		RiskProbability:       35.0,
		Confidence:            85.0,
		CategoryProbabilities: probs,
		PredictionTime:        now.Format("2006-01-02T15:04:05.000000"),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
