// Package chart shapes view-model data into chart series and renders them.
package chart

import (
	"time"

	"rockwatch/internal/model"
)

const LabelLayout = "15:04:05"

// DistributionLabels are always emitted in this order.
var DistributionLabels = []string{"Low Risk", "Medium Risk", "High Risk", "Critical Risk"}

type Trend struct {
	Labels    []string    `json:"labels"`
	Times     []time.Time `json:"-"`
	Risk      []float64   `json:"risk"`
	Vibration []float64   `json:"vibration"`
	Rainfall  []float64   `json:"rainfall"`
	Slope     []float64   `json:"slope"`
}

type Distribution struct {
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	Placeholder bool      `json:"placeholder"`
}

type ZoneBars struct {
	Labels     []string             `json:"labels"`
	Risk       []float64            `json:"risk"`
	Categories []model.RiskCategory `json:"categories"`
	Alerts     []int                `json:"active_alerts"`
}

// TrendFrom maps history entries, oldest first, onto parallel series.
// An empty history yields empty, non-nil slices.
func TrendFrom(history []model.HistoryEntry) Trend {
	t := Trend{
		Labels:    make([]string, 0, len(history)),
		Times:     make([]time.Time, 0, len(history)),
		Risk:      make([]float64, 0, len(history)),
		Vibration: make([]float64, 0, len(history)),
		Rainfall:  make([]float64, 0, len(history)),
		Slope:     make([]float64, 0, len(history)),
	}
	for _, e := range history {
		t.Labels = append(t.Labels, e.Timestamp.Format(LabelLayout))
		t.Times = append(t.Times, e.Timestamp)
		t.Risk = append(t.Risk, e.Risk)
		t.Vibration = append(t.Vibration, e.Vibration)
		t.Rainfall = append(t.Rainfall, e.Rainfall)
		t.Slope = append(t.Slope, e.Slope)
	}
	return t
}

// DistributionFrom returns the category breakdown of a prediction. A nil
// prediction gives an even placeholder split.
func DistributionFrom(p *model.PredictionResult) Distribution {
	labels := append([]string(nil), DistributionLabels...)
	if p == nil {
		return Distribution{Labels: labels, Values: []float64{25, 25, 25, 25}, Placeholder: true}
	}
	values := make([]float64, len(model.Categories))
	for i, c := range model.Categories {
		values[i] = p.Probability(c)
	}
	return Distribution{Labels: labels, Values: values}
}

func ZonesFrom(zones []model.ZoneRisk) ZoneBars {
	out := ZoneBars{
		Labels:     make([]string, 0, len(zones)),
		Risk:       make([]float64, 0, len(zones)),
		Categories: make([]model.RiskCategory, 0, len(zones)),
		Alerts:     make([]int, 0, len(zones)),
	}
	for _, z := range zones {
		out.Labels = append(out.Labels, z.Zone)
		out.Risk = append(out.Risk, z.CurrentRisk)
		out.Categories = append(out.Categories, z.RiskCategory)
		out.Alerts = append(out.Alerts, z.ActiveAlerts)
	}
	return out
}
