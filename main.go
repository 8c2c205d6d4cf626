package main

import (
	"log"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"

	"github.com/TheodorosKourtalis/nuts3-atlas/cnf"
	"github.com/TheodorosKourtalis/nuts3-atlas/core"
	"github.com/TheodorosKourtalis/nuts3-atlas/db"
	"github.com/TheodorosKourtalis/nuts3-atlas/geo"
	"github.com/TheodorosKourtalis/nuts3-atlas/modules/ingest"
	"github.com/TheodorosKourtalis/nuts3-atlas/web/handlers"
)

func main() {
	rawCfg, err := cnf.LoadConfig("cnf/config.cfg")
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := cnf.ParseConfig(rawCfg)
	if err != nil {
		log.Fatal(err)
	}
	core.SetLogLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal(err)
		}
		defer logFile.Close()
		core.AttachLoggerOutput(logFile)
	}

	dbCfg := db.Config{
		Engine: cfg.DBEngine,
		Path:   cfg.DBPath,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Name:   cfg.DBName,
	}
	// An optional yaml file overrides the database block.
	if _, err := os.Stat("cnf/config.yaml"); err == nil {
		if yamlCfg, err := db.LoadYamlConfig("cnf/config.yaml"); err == nil {
			dbCfg = *yamlCfg
		} else {
			core.Errorf("Ignoring cnf/config.yaml: %v", err)
		}
	}

	manager, err := db.GetDBManager(dbCfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := manager.Connect(); err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := manager.Migrate(); err != nil {
		log.Fatal(err)
	}

	atlas, err := geo.Load(cfg.GeoJSONPath)
	if err != nil {
		log.Fatal(err)
	}
	core.Infof("Loaded %d NUTS3 features from %s", len(atlas.Features), cfg.GeoJSONPath)

	// The boundary file is the authoritative region list; workbooks only add
	// observations (and names where they carry the level columns).
	for _, f := range atlas.Features {
		id := f.NutsID()
		if id == "" {
			continue
		}
		reg := db.Region{
			NutsID: id,
			Level1: f.Property("NUTS_Level_1"),
			Level2: f.Property("NUTS_Level_2"),
			Level3: f.Property("NUTS_Level_3"),
		}
		if err := manager.UpsertRegion(&reg); err != nil {
			log.Fatal(err)
		}
	}

	if err := core.LoadTemplates("web/templates/*.html"); err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(cfg.ExcelDir); os.IsNotExist(err) {
		log.Fatalf("Excel folder not found at %q. Please update EXCEL_DIR.", cfg.ExcelDir)
	}
	res, err := ingest.ScanDir(manager, cfg.ExcelDir)
	if err != nil {
		log.Fatal(err)
	}
	core.Infof("Ingested %d workbooks (%d rows, %d bad rows)", res.Files, res.RowsOK, res.RowsErr)

	app := core.NewApp(cfg, rawCfg, manager, atlas)

	scheduler := ingest.StartRescan(manager, cfg.ExcelDir, cfg.RescanMins, func(*ingest.Result) {
		app.FlushFigures()
	})
	if scheduler != nil {
		defer scheduler.Stop()
	}

	public := func(fn http.HandlerFunc) http.HandlerFunc {
		return core.ApplyMiddleware(fn, core.BlockIPs, core.SecureHeaders)
	}
	limited := func(fn http.HandlerFunc) http.HandlerFunc {
		return core.ApplyMiddleware(fn, core.RateLimit, core.BlockIPs, core.SecureHeaders)
	}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/", public(app.AtlasPage))
	router.HandlerFunc(http.MethodPost, "/", limited(app.AtlasPage))
	router.HandlerFunc(http.MethodGet, "/regions", public(app.RegionsPage))
	router.HandlerFunc(http.MethodGet, "/figures/bar.png", public(app.BarPNG))
	router.HandlerFunc(http.MethodGet, "/api/atlas/options", public(app.AtlasOptionsAPI))
	router.HandlerFunc(http.MethodGet, "/api/atlas/choropleth", public(app.ChoroplethAPI))
	router.HandlerFunc(http.MethodGet, "/api/atlas/bar", public(app.BarAPI))
	router.HandlerFunc(http.MethodGet, "/api/import-runs", public(app.ImportRunsAPI))
	router.HandlerFunc(http.MethodGet, "/healthz", app.HealthzAPI)
	router.GET("/api/regions/:id/series", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		public(func(w http.ResponseWriter, r *http.Request) {
			app.RegionSeriesAPI(w, r, ps.ByName("id"))
		})(w, r)
	})
	router.HandlerFunc(http.MethodPost, "/upload", limited(handlers.UploadHandler(manager, cfg.AdminHash, app.FlushFigures)))
	router.HandlerFunc(http.MethodGet, "/static/*filepath", handlers.StaticHandler())

	addr := ":" + cfg.HTTPPort
	core.Infof("Server listening on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, router))
}
