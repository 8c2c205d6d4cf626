package core

import (
	"net/http"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// colorAt linearly interpolates the named scale at t in [0, 1].
func colorAt(scale string, t float64) drawing.Color {
	stops := colorScaleStops[NormalizeColorScale(scale)]
	if t <= stops[0].Pos {
		return hexColor(stops[0].Color)
	}
	last := stops[len(stops)-1]
	if t >= last.Pos {
		return hexColor(last.Color)
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Pos {
			lo, hi := stops[i-1], stops[i]
			span := hi.Pos - lo.Pos
			frac := 0.0
			if span > 0 {
				frac = (t - lo.Pos) / span
			}
			return blend(hexColor(lo.Color), hexColor(hi.Color), frac)
		}
	}
	return hexColor(last.Color)
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func blend(a, b drawing.Color, t float64) drawing.Color {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return drawing.Color{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: 255,
	}
}

// BarPNG renders the bar chart server-side for clients without scripting.
func (a *App) BarPNG(w http.ResponseWriter, r *http.Request) {
	p, ok := a.figureParamsFromQuery(r)
	if !ok {
		http.Error(w, "no data available", http.StatusNotFound)
		return
	}

	rows, err := a.DB.ObservationsFor(p.Year, p.Sex, p.Age)
	if err != nil {
		Errorf("Error loading observations for PNG: %v", err)
		http.Error(w, "failed to build chart", http.StatusInternalServerError)
		return
	}
	rows = barRows(rows, p.Lang)
	if len(rows) == 0 {
		http.Error(w, "no data available", http.StatusNotFound)
		return
	}

	min, max, count, err := a.DB.ValueRange(p.Year, p.Sex, p.Age)
	if err != nil || count == 0 {
		min, max = 0, 1
	}
	if min == max {
		min -= 1e-6
		max += 1e-6
	}

	bars := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		t := (row.Value.Float64 - min) / (max - min)
		bars = append(bars, chart.Value{
			Label: row.NutsID,
			Value: row.Value.Float64,
			Style: chart.Style{
				FillColor:   colorAt(p.Scale, t),
				StrokeColor: colorAt(p.Scale, t),
			},
		})
	}

	bc := chart.BarChart{
		Title:    T(p.Lang, "bar_chart"),
		Width:    1280,
		Height:   600,
		BarWidth: 16,
		Bars:     bars,
		XAxis:    chart.Style{TextRotationDegrees: 90},
	}

	w.Header().Set("Content-Type", "image/png")
	if err := bc.Render(chart.PNG, w); err != nil {
		Errorf("Error rendering bar PNG: %v", err)
	}
}
