package core

// The selectable continuous color scales. Plotly.js only ships a subset of
// these by name, so each one is spelled out as explicit color stops.
var ColorScales = []string{"Viridis", "Tealrose", "Inferno", "Turbo", "Plasma", "Cividis"}

const DefaultColorScale = "Viridis"

type colorStop struct {
	Pos   float64
	Color string
}

var colorScaleStops = map[string][]colorStop{
	"Viridis": {
		{0, "#440154"}, {0.25, "#3b528b"}, {0.5, "#21918c"}, {0.75, "#5ec962"}, {1, "#fde725"},
	},
	"Tealrose": {
		{0, "#009392"}, {1.0 / 6, "#39b185"}, {2.0 / 6, "#9ccb86"}, {0.5, "#e9e29c"},
		{4.0 / 6, "#eeb479"}, {5.0 / 6, "#e88471"}, {1, "#cf597e"},
	},
	"Inferno": {
		{0, "#000004"}, {0.25, "#57106e"}, {0.5, "#bc3754"}, {0.75, "#f98e09"}, {1, "#fcffa4"},
	},
	"Turbo": {
		{0, "#30123b"}, {0.25, "#28bbec"}, {0.5, "#a4fc3c"}, {0.75, "#fb7e21"}, {1, "#7a0403"},
	},
	"Plasma": {
		{0, "#0d0887"}, {0.25, "#7e03a8"}, {0.5, "#cc4778"}, {0.75, "#f89540"}, {1, "#f0f921"},
	},
	"Cividis": {
		{0, "#00224e"}, {0.25, "#35456c"}, {0.5, "#666970"}, {0.75, "#a59c74"}, {1, "#fee838"},
	},
}

// NormalizeColorScale falls back to the default for unknown names.
func NormalizeColorScale(name string) string {
	if _, ok := colorScaleStops[name]; ok {
		return name
	}
	return DefaultColorScale
}

// scaleStops returns the plotly colorscale representation: [[pos, color], ...].
func scaleStops(name string) [][]interface{} {
	stops := colorScaleStops[NormalizeColorScale(name)]
	out := make([][]interface{}, 0, len(stops))
	for _, s := range stops {
		out = append(out, []interface{}{s.Pos, s.Color})
	}
	return out
}
