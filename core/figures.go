package core

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/TheodorosKourtalis/nuts3-atlas/db"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FigureParams identifies one rendered figure variant.
type FigureParams struct {
	Year  int
	Sex   string
	Age   string
	Scale string
	Lang  string
}

func (p FigureParams) cacheKey(kind string) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s", kind, p.Year, p.Sex, p.Age, p.Scale, p.Lang)
}

// Figure is a plotly figure specification: traces, layout and the plot config.
type Figure struct {
	Data   []map[string]interface{} `json:"data"`
	Layout map[string]interface{}   `json:"layout"`
	Config map[string]interface{}   `json:"config"`
}

var figureConfig = map[string]interface{}{
	"responsive":          true,
	"modeBarButtonsToAdd": []string{"toggleFullscreen"},
}

// colorRange widens a degenerate range so plotly keeps a usable color axis.
// With no values at all it falls back to [0, 1].
func colorRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 1
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		min -= 1e-6
		max += 1e-6
	}
	return min, max
}

func hoverTemplate(lang string) string {
	return fmt.Sprintf("%s: %%{customdata[0]}<br>%s: %%{customdata[1]}<br>%s: %%{customdata[2]}<extra></extra>",
		T(lang, "name"), T(lang, "code"), T(lang, "value"))
}

func collatorFor(lang string) *collate.Collator {
	tag := language.English
	if normalizeLang(lang) == "el" {
		tag = language.Greek
	}
	return collate.New(tag)
}

// ChoroplethJSON returns the cached choropleth figure for the given params.
func (a *App) ChoroplethJSON(p FigureParams) ([]byte, error) {
	key := p.cacheKey("choropleth")
	if raw, ok := a.figCache.Get(key); ok {
		return raw, nil
	}
	fig, err := a.buildChoropleth(p)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(fig)
	if err != nil {
		return nil, err
	}
	a.figCache.Put(key, raw)
	return raw, nil
}

// BarJSON returns the cached bar chart figure for the given params.
func (a *App) BarJSON(p FigureParams) ([]byte, error) {
	key := p.cacheKey("bar")
	if raw, ok := a.figCache.Get(key); ok {
		return raw, nil
	}
	fig, err := a.buildBar(p)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(fig)
	if err != nil {
		return nil, err
	}
	a.figCache.Put(key, raw)
	return raw, nil
}

// FlushFigures clears the figure cache, e.g. after an ingest run.
func (a *App) FlushFigures() {
	a.figCache.Flush()
}

func (a *App) buildChoropleth(p FigureParams) (*Figure, error) {
	rows, err := a.DB.ObservationsFor(p.Year, p.Sex, p.Age)
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}

	locations := make([]string, 0, len(rows))
	z := make([]interface{}, 0, len(rows))
	customdata := make([][]interface{}, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	var values []float64
	for _, row := range rows {
		locations = append(locations, row.NutsID)
		seen[row.NutsID] = struct{}{}
		if row.Value.Valid {
			z = append(z, row.Value.Float64)
			values = append(values, row.Value.Float64)
			customdata = append(customdata, []interface{}{row.Name, row.NutsID, row.Value.Float64})
		} else {
			z = append(z, nil)
			customdata = append(customdata, []interface{}{row.Name, row.NutsID, nil})
		}
	}
	// The geometry is the left side of the join: features the store has never
	// heard of still get their shape drawn, with no value.
	for _, f := range a.Atlas.Features {
		id := f.NutsID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		name := f.Name()
		if name == "" {
			name = id
		}
		locations = append(locations, id)
		z = append(z, nil)
		customdata = append(customdata, []interface{}{name, id, nil})
	}
	zmin, zmax := colorRange(values)

	lat, lon, zoom, err := a.Atlas.CenterZoom()
	if err != nil {
		return nil, fmt.Errorf("computing map framing: %w", err)
	}

	trace := map[string]interface{}{
		"type":          "choroplethmapbox",
		"geojson":       a.Atlas,
		"locations":     locations,
		"z":             z,
		"featureidkey":  "properties.NUTS_ID",
		"colorscale":    scaleStops(p.Scale),
		"zmin":          zmin,
		"zmax":          zmax,
		"customdata":    customdata,
		"hovertemplate": hoverTemplate(p.Lang),
		"colorbar": map[string]interface{}{
			"orientation": "h",
			"xanchor":     "center",
			"x":           0.5,
			"y":           0,
			"thickness":   20,
			"len":         0.8,
			"title":       map[string]interface{}{"text": T(p.Lang, "value")},
		},
	}

	layout := map[string]interface{}{
		"mapbox": map[string]interface{}{
			"style":  "carto-positron",
			"center": map[string]float64{"lat": lat, "lon": lon},
			"zoom":   zoom,
		},
		"margin":   map[string]int{"r": 0, "t": 0, "l": 0, "b": 0},
		"autosize": true,
	}

	return &Figure{
		Data:   []map[string]interface{}{trace},
		Layout: layout,
		Config: figureConfig,
	}, nil
}

// barRows filters to positive values and orders by display name with
// language-aware collation (Greek names sort correctly under "el").
func barRows(rows []db.RegionValue, lang string) []db.RegionValue {
	out := make([]db.RegionValue, 0, len(rows))
	for _, row := range rows {
		if row.Value.Valid && row.Value.Float64 > 0 {
			out = append(out, row)
		}
	}
	c := collatorFor(lang)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

func (a *App) buildBar(p FigureParams) (*Figure, error) {
	rows, err := a.DB.ObservationsFor(p.Year, p.Sex, p.Age)
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}
	rows = barRows(rows, p.Lang)

	x := make([]string, 0, len(rows))
	y := make([]float64, 0, len(rows))
	customdata := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		x = append(x, row.NutsID)
		y = append(y, row.Value.Float64)
		customdata = append(customdata, []interface{}{row.Name, row.NutsID, row.Value.Float64})
	}
	zmin, zmax := colorRange(y)

	trace := map[string]interface{}{
		"type":          "bar",
		"x":             x,
		"y":             y,
		"customdata":    customdata,
		"hovertemplate": hoverTemplate(p.Lang),
		"marker": map[string]interface{}{
			"color":      y,
			"colorscale": scaleStops(p.Scale),
			"cmin":       zmin,
			"cmax":       zmax,
			"colorbar": map[string]interface{}{
				"orientation": "v",
				"xanchor":     "left",
				"x":           1.02,
				"yanchor":     "middle",
				"y":           0.3,
				"thickness":   20,
				"len":         0.7,
			},
		},
	}

	layout := map[string]interface{}{
		"margin":   map[string]int{"r": 20, "t": 80, "l": 0, "b": 0},
		"autosize": true,
		"xaxis":    map[string]interface{}{"title": map[string]interface{}{"text": T(p.Lang, "region")}},
		"yaxis":    map[string]interface{}{"title": map[string]interface{}{"text": T(p.Lang, "value")}},
	}

	return &Figure{
		Data:   []map[string]interface{}{trace},
		Layout: layout,
		Config: figureConfig,
	}, nil
}
