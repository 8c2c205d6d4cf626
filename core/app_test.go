package core

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/TheodorosKourtalis/nuts3-atlas/cnf"
	"github.com/TheodorosKourtalis/nuts3-atlas/db"
	"github.com/TheodorosKourtalis/nuts3-atlas/geo"
)

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NUTS_ID": "EL301"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[23.0, 37.0], [24.0, 37.0], [24.0, 38.0], [23.0, 37.0]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"NUTS_ID": "EL411"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[25.0, 39.0], [26.0, 39.0], [26.0, 40.0], [25.0, 39.0]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"NUTS_ID": "EL412", "NUTS_Level_3": "Samos"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[26.5, 37.6], [27.1, 37.6], [27.1, 37.9], [26.5, 37.6]]]
      }
    }
  ]
}`

func testAtlas(t *testing.T) *geo.FeatureCollection {
	t.Helper()
	fc := &geo.FeatureCollection{}
	if err := json.Unmarshal([]byte(testGeoJSON), fc); err != nil {
		t.Fatalf("cannot parse atlas fixture: %v", err)
	}
	return fc
}

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// testApp wires an App over a throwaway sqlite store with a small seeded
// dataset: EL301 and EL411 in 2021 ("T"/"TOTAL"), plus a NULL row. EL412
// exists only in the boundary file, never in the store.
func testApp(t *testing.T) *App {
	t.Helper()
	database, err := db.GetDBManager(db.Config{Engine: "sqlite", Path: filepath.Join(t.TempDir(), "app.db")})
	if err != nil {
		t.Fatalf("GetDBManager: %v", err)
	}
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(database.Close)
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	regions := []db.Region{
		{NutsID: "EL301", Level1: "Attiki", Level3: "Athens"},
		{NutsID: "EL411", Level1: "Nisia Aigaiou", Level3: "Lesvos"},
	}
	for i := range regions {
		if err := database.UpsertRegion(&regions[i]); err != nil {
			t.Fatalf("UpsertRegion: %v", err)
		}
	}
	obs := []db.Observation{
		{NutsID: "EL301", Year: 2021, Sex: "T", Age: "TOTAL", Value: nf(3800000)},
		{NutsID: "EL411", Year: 2021, Sex: "T", Age: "TOTAL", Value: nf(83000)},
		{NutsID: "EL301", Year: 2022, Sex: "T", Age: "TOTAL", Value: sql.NullFloat64{}},
	}
	if _, err := database.ReplaceObservations("seed.xlsx", obs); err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}

	ac, err := cnf.ParseConfig(map[string]string{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	return NewApp(ac, map[string]string{}, database, testAtlas(t))
}
