package chart

import (
	"errors"
	"io"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"rockwatch/internal/model"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("chart: no data")

const (
	width  = 800
	height = 400
)

var categoryColors = map[model.RiskCategory]drawing.Color{
	model.RiskLow:      drawing.ColorFromHex("22c55e"),
	model.RiskMedium:   drawing.ColorFromHex("eab308"),
	model.RiskHigh:     drawing.ColorFromHex("f97316"),
	model.RiskCritical: drawing.ColorFromHex("dc2626"),
}

func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3}
}

// RenderTrend draws the risk series on the primary axis and the sensor
// series on the secondary axis.
func RenderTrend(w io.Writer, t Trend) error {
	if len(t.Times) == 0 {
		return ErrNoData
	}
	times := t.Times
	risk, vib, rain, slope := t.Risk, t.Vibration, t.Rainfall, t.Slope
	if len(times) == 1 {
		times = []time.Time{times[0], times[0].Add(time.Second)}
		risk = []float64{risk[0], risk[0]}
		vib = []float64{vib[0], vib[0]}
		rain = []float64{rain[0], rain[0]}
		slope = []float64{slope[0], slope[0]}
	}

	ch := gochart.Chart{
		Title:          "Risk Trend",
		Width:          width,
		Height:         height,
		Background:     gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:          gochart.XAxis{ValueFormatter: gochart.TimeValueFormatterWithFormat(LabelLayout)},
		YAxis:          gochart.YAxis{Name: "Risk %", Range: &gochart.ContinuousRange{Min: 0, Max: 100}},
		YAxisSecondary: gochart.YAxis{Name: "Sensors"},
		Series: []gochart.Series{
			gochart.TimeSeries{Name: "Risk %", XValues: times, YValues: risk, Style: lineStyle(categoryColors[model.RiskCritical])},
			gochart.TimeSeries{Name: "Vibration", XValues: times, YValues: vib, Style: lineStyle(gochart.ColorBlue), YAxis: gochart.YAxisSecondary},
			gochart.TimeSeries{Name: "Rainfall", XValues: times, YValues: rain, Style: lineStyle(gochart.ColorCyan), YAxis: gochart.YAxisSecondary},
			gochart.TimeSeries{Name: "Slope", XValues: times, YValues: slope, Style: lineStyle(gochart.ColorAlternateGray), YAxis: gochart.YAxisSecondary},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch.Render(gochart.PNG, w)
}

// RenderDistribution draws the category breakdown as a pie.
func RenderDistribution(w io.Writer, d Distribution) error {
	values := make([]gochart.Value, 0, len(d.Values))
	var total float64
	for i, v := range d.Values {
		if v <= 0 {
			continue
		}
		total += v
		values = append(values, gochart.Value{
			Label: d.Labels[i],
			Value: v,
			Style: gochart.Style{FillColor: categoryColors[model.Categories[i]]},
		})
	}
	if total == 0 {
		return ErrNoData
	}
	pie := gochart.PieChart{
		Title:  "Risk Distribution",
		Width:  height,
		Height: height,
		Values: values,
	}
	return pie.Render(gochart.PNG, w)
}

// RenderZones draws one bar per zone, coloured by category.
func RenderZones(w io.Writer, z ZoneBars) error {
	if len(z.Labels) == 0 {
		return ErrNoData
	}
	bars := make([]gochart.Value, 0, len(z.Labels))
	for i, label := range z.Labels {
		col, ok := categoryColors[z.Categories[i]]
		if !ok {
			col = gochart.ColorAlternateGray
		}
		bars = append(bars, gochart.Value{
			Label: label,
			Value: z.Risk[i],
			Style: gochart.Style{FillColor: col, StrokeColor: col},
		})
	}
	bc := gochart.BarChart{
		Title:      "Zone Risk",
		Width:      width,
		Height:     height,
		BarWidth:   60,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: 100}},
		Bars:       bars,
	}
	return bc.Render(gochart.PNG, w)
}
