package core

import (
	"net/http"
	"strings"

	"github.com/TheodorosKourtalis/nuts3-atlas/db"
)

type regionRow struct {
	NutsID string
	Name   string
	OnMap  bool
}

// RegionsPage renders the paginated region table with an optional name/code
// search.
func (a *App) RegionsPage(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page := parseListPage(r.URL.Query().Get("page"))
	perPage := parseListPerPage(r.URL.Query().Get("per_page"))

	filter := db.RegionFilter{Query: query}
	total, err := a.DB.CountRegions(filter)
	if err != nil {
		Errorf("Error counting regions: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	pg := buildPagination(r, page, perPage, total, "")
	filter.Limit = pg.PerPage
	filter.Offset = pg.Offset
	regions, err := a.DB.ListRegions(filter)
	if err != nil {
		Errorf("Error listing regions: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := make([]regionRow, 0, len(regions))
	for _, reg := range regions {
		rows = append(rows, regionRow{
			NutsID: reg.NutsID,
			Name:   reg.Name(),
			OnMap:  a.Atlas.Find(reg.NutsID) != nil,
		})
	}

	lang := ResolveLang(r)
	data := map[string]interface{}{
		"Lang":       lang,
		"Title":      T(lang, "regions_title"),
		"Query":      query,
		"Rows":       rows,
		"Pagination": pg,
		"Labels": map[string]string{
			"region": T(lang, "region"),
			"name":   T(lang, "name"),
			"code":   T(lang, "code"),
			"search": T(lang, "search"),
			"on_map": T(lang, "on_map"),
		},
	}
	RenderTemplate(w, r, "regions.html", data)
}

// RegionSeriesAPI returns the yearly series for one region, filtered by the
// sex and age query parameters.
func (a *App) RegionSeriesAPI(w http.ResponseWriter, r *http.Request, nutsID string) {
	region, err := a.DB.GetRegion(nutsID)
	if err != nil {
		Errorf("Error loading region %s: %v", nutsID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if region == nil {
		http.NotFound(w, r)
		return
	}

	sexes, err := a.DB.Sexes()
	if err != nil {
		http.Error(w, "failed to load series", http.StatusInternalServerError)
		return
	}
	ages, err := a.DB.Ages()
	if err != nil {
		http.Error(w, "failed to load series", http.StatusInternalServerError)
		return
	}
	sex := pickOption(strings.TrimSpace(r.URL.Query().Get("sex")), sexes)
	age := pickOption(strings.TrimSpace(r.URL.Query().Get("age")), ages)

	points, err := a.DB.SeriesForRegion(nutsID, sex, age)
	if err != nil {
		Errorf("Error loading series for %s: %v", nutsID, err)
		http.Error(w, "failed to load series", http.StatusInternalServerError)
		return
	}

	series := make([]map[string]interface{}, 0, len(points))
	for _, p := range points {
		var v interface{}
		if p.Value.Valid {
			v = p.Value.Float64
		}
		series = append(series, map[string]interface{}{
			"year":  p.Year,
			"value": v,
		})
	}

	writeJSON(w, map[string]interface{}{
		"nuts_id": region.NutsID,
		"name":    region.Name(),
		"sex":     sex,
		"age":     age,
		"series":  series,
	})
}

// ImportRunsAPI lists recent ingest runs, newest first.
func (a *App) ImportRunsAPI(w http.ResponseWriter, r *http.Request) {
	runs, err := a.DB.ListImportRuns(parseFormInt(r.URL.Query().Get("limit")))
	if err != nil {
		Errorf("Error listing import runs: %v", err)
		http.Error(w, "failed to load import runs", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		entry := map[string]interface{}{
			"id":         run.ID,
			"source":     run.Source,
			"status":     run.Status,
			"rows_ok":    run.RowsOK,
			"rows_err":   run.RowsErr,
			"started_at": run.StartedAt,
		}
		if run.FinishedAt.Valid {
			entry["finished_at"] = run.FinishedAt.Time
		}
		out = append(out, entry)
	}
	writeJSON(w, map[string]interface{}{"runs": out})
}
