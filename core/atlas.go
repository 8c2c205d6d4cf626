package core

import (
	"net/http"
	"strconv"
	"strings"
)

// atlasSelection is the resolved state of the selection form.
type atlasSelection struct {
	Lang     string
	Scale    string
	Dataset  string
	Year     int
	YearStr  string
	Sex      string
	Age      string
	Years    []string
	Sexes    []string
	Ages     []string
	FormType string
}

// resolveSelection validates form values against the available options,
// falling back to the first available value the way the original UI does.
func (a *App) resolveSelection(r *http.Request) (atlasSelection, error) {
	sel := atlasSelection{
		Lang:     ResolveLang(r),
		Scale:    NormalizeColorScale(r.FormValue("color_scale")),
		Dataset:  r.FormValue("dataset"),
		FormType: r.FormValue("form_type"),
	}
	if sel.Dataset == "" {
		sel.Dataset = "Population-NUTS DATA"
	}
	if sel.FormType == "" {
		sel.FormType = "top"
	}

	years, err := a.DB.Years()
	if err != nil {
		return sel, err
	}
	sexes, err := a.DB.Sexes()
	if err != nil {
		return sel, err
	}
	ages, err := a.DB.Ages()
	if err != nil {
		return sel, err
	}
	sel.Years = intsToStrings(years)
	sel.Sexes = sexes
	sel.Ages = ages

	sel.YearStr = pickOption(strings.TrimSpace(r.FormValue("selected_year")), sel.Years)
	sel.Sex = pickOption(strings.TrimSpace(r.FormValue("selected_sex")), sel.Sexes)
	sel.Age = pickOption(strings.TrimSpace(r.FormValue("selected_age")), sel.Ages)
	sel.Year, _ = strconv.Atoi(sel.YearStr)

	return sel, nil
}

func (sel atlasSelection) params() FigureParams {
	return FigureParams{Year: sel.Year, Sex: sel.Sex, Age: sel.Age, Scale: sel.Scale, Lang: sel.Lang}
}

// AtlasPage renders the selection form; on POST it also embeds both figures,
// matching the original GET/POST split.
func (a *App) AtlasPage(w http.ResponseWriter, r *http.Request) {
	sel, err := a.resolveSelection(r)
	if err != nil {
		Errorf("Error resolving atlas selection: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	imopLink := "https://www.dept.aueb.gr/en/imop"
	imopText := "EMOP"
	if sel.Lang == "el" {
		imopLink = "https://www.dept.aueb.gr/el/imop"
		imopText = "ΕΜΟΠ"
	}

	labels := map[string]string{}
	for _, key := range []string{
		"title", "select_language", "select_dataset", "select_year", "select_sex",
		"select_age", "color_scale", "default_data", "generate_map",
		"choropleth_map", "bar_chart", "region", "name", "code", "value", "apply",
	} {
		labels[key] = T(sel.Lang, key)
	}

	data := map[string]interface{}{
		"Lang":          sel.Lang,
		"Labels":        labels,
		"ColorScales":   ColorScales,
		"SelectedScale": sel.Scale,
		"Dataset":       sel.Dataset,
		"Years":         sel.Years,
		"Sexes":         sel.Sexes,
		"Ages":          sel.Ages,
		"SelectedYear":  sel.YearStr,
		"SelectedSex":   sel.Sex,
		"SelectedAge":   sel.Age,
		"IMOPLink":      imopLink,
		"IMOPText":      imopText,
		"AutoScroll":    sel.FormType == "top",
		"HasFigures":    false,
	}

	if r.Method == http.MethodPost && sel.YearStr != "" {
		p := sel.params()
		mapJSON, err := a.ChoroplethJSON(p)
		if err != nil {
			Errorf("Error building choropleth: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		barJSON, err := a.BarJSON(p)
		if err != nil {
			Errorf("Error building bar chart: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		data["HasFigures"] = true
		data["MapFigure"] = string(mapJSON)
		data["BarFigure"] = string(barJSON)
	}

	RenderTemplate(w, r, "atlas.html", data)
}

// AtlasOptionsAPI lists the selectable values.
func (a *App) AtlasOptionsAPI(w http.ResponseWriter, r *http.Request) {
	years, err := a.DB.Years()
	if err != nil {
		http.Error(w, "failed to load options", http.StatusInternalServerError)
		return
	}
	sexes, err := a.DB.Sexes()
	if err != nil {
		http.Error(w, "failed to load options", http.StatusInternalServerError)
		return
	}
	ages, err := a.DB.Ages()
	if err != nil {
		http.Error(w, "failed to load options", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"years":        years,
		"sexes":        sexes,
		"ages":         ages,
		"color_scales": ColorScales,
		"languages":    AvailableLangs(),
	})
}

func (a *App) figureParamsFromQuery(r *http.Request) (FigureParams, bool) {
	sel, err := a.resolveSelection(r)
	if err != nil {
		return FigureParams{}, false
	}
	// Query-style parameter names for the JSON API.
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		ys := pickOption(strings.TrimSpace(v), sel.Years)
		sel.YearStr = ys
		sel.Year, _ = strconv.Atoi(ys)
	}
	if v := q.Get("sex"); v != "" {
		sel.Sex = pickOption(v, sel.Sexes)
	}
	if v := q.Get("age"); v != "" {
		sel.Age = pickOption(v, sel.Ages)
	}
	if v := q.Get("scale"); v != "" {
		sel.Scale = NormalizeColorScale(v)
	}
	if v := q.Get("lang"); v != "" && IsSupportedLang(normalizeLang(v)) {
		sel.Lang = normalizeLang(v)
	}
	if sel.YearStr == "" {
		return FigureParams{}, false
	}
	return sel.params(), true
}

// ChoroplethAPI serves the choropleth figure JSON.
func (a *App) ChoroplethAPI(w http.ResponseWriter, r *http.Request) {
	p, ok := a.figureParamsFromQuery(r)
	if !ok {
		http.Error(w, "no data available", http.StatusNotFound)
		return
	}
	raw, err := a.ChoroplethJSON(p)
	if err != nil {
		Errorf("Error building choropleth: %v", err)
		http.Error(w, "failed to build figure", http.StatusInternalServerError)
		return
	}
	writeJSONRaw(w, raw)
}

// BarAPI serves the bar chart figure JSON.
func (a *App) BarAPI(w http.ResponseWriter, r *http.Request) {
	p, ok := a.figureParamsFromQuery(r)
	if !ok {
		http.Error(w, "no data available", http.StatusNotFound)
		return
	}
	raw, err := a.BarJSON(p)
	if err != nil {
		Errorf("Error building bar chart: %v", err)
		http.Error(w, "failed to build figure", http.StatusInternalServerError)
		return
	}
	writeJSONRaw(w, raw)
}

// HealthzAPI reports liveness and store reachability.
func (a *App) HealthzAPI(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := a.DB.Ping(); err != nil {
		status = "db unreachable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]interface{}{
		"status":  status,
		"regions": len(a.Atlas.Features),
	})
}
