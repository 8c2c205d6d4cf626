package core

import (
	"github.com/TheodorosKourtalis/nuts3-atlas/cnf"
	"github.com/TheodorosKourtalis/nuts3-atlas/db"
	"github.com/TheodorosKourtalis/nuts3-atlas/geo"
)

// App bundles the shared dependencies so handlers never reopen resources per
// request.
type App struct {
	Config   map[string]string
	Cfg      cnf.AppConfig
	DB       db.DB
	Atlas    *geo.FeatureCollection
	figCache *figureCache
}

func NewApp(cfg cnf.AppConfig, raw map[string]string, database db.DB, atlas *geo.FeatureCollection) *App {
	return &App{
		Config:   raw,
		Cfg:      cfg,
		DB:       database,
		Atlas:    atlas,
		figCache: newFigureCache(figureCacheMax),
	}
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
