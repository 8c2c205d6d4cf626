package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB implements DB over a local sqlite file. It is the default engine.
type SQLiteDB struct {
	Path string
	Conn *sql.DB
	help sqlHelper
}

func (s *SQLiteDB) Connect() error {
	path := s.Path
	if path == "" {
		path = "./atlas.db"
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("error connecting to sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)
	s.Conn = conn
	s.help = newSQLHelper(conn, "sqlite")
	logInfof("Connected to SQLite at %s", path)
	return nil
}

func (s *SQLiteDB) Close() {
	if s.Conn != nil {
		s.Conn.Close()
	}
}

func (s *SQLiteDB) Ping() error {
	return s.Conn.Ping()
}

func (s *SQLiteDB) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			nuts_id TEXT PRIMARY KEY,
			level1 TEXT NOT NULL DEFAULT '',
			level2 TEXT NOT NULL DEFAULT '',
			level3 TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nuts_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			sex TEXT NOT NULL,
			age TEXT NOT NULL,
			value REAL,
			source TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_obs_key ON observations (nuts_id, year, sex, age);`,
		`CREATE INDEX IF NOT EXISTS idx_obs_source ON observations (source);`,
		`CREATE TABLE IF NOT EXISTS import_runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			rows_ok INTEGER NOT NULL DEFAULT 0,
			rows_err INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.Conn.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteDB) Exec(query string, args ...interface{}) (int64, error) {
	return s.help.exec(query, args...)
}

func (s *SQLiteDB) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	return s.help.queryMaps(query, args...)
}

func (s *SQLiteDB) UpsertRegion(r *Region) error      { return s.help.upsertRegion(r) }
func (s *SQLiteDB) GetRegion(id string) (*Region, error) { return s.help.getRegion(id) }
func (s *SQLiteDB) ListRegions(f RegionFilter) ([]Region, error) {
	return s.help.listRegions(f)
}
func (s *SQLiteDB) CountRegions(f RegionFilter) (int, error) { return s.help.countRegions(f) }

func (s *SQLiteDB) ReplaceObservations(source string, obs []Observation) (int, error) {
	return s.help.replaceObservations(source, obs)
}
func (s *SQLiteDB) Years() ([]int, error)    { return s.help.distinctInts("year") }
func (s *SQLiteDB) Sexes() ([]string, error) { return s.help.distinctStrings("sex") }
func (s *SQLiteDB) Ages() ([]string, error)  { return s.help.distinctStrings("age") }
func (s *SQLiteDB) ObservationsFor(year int, sex, age string) ([]RegionValue, error) {
	return s.help.observationsFor(year, sex, age)
}
func (s *SQLiteDB) ValueRange(year int, sex, age string) (float64, float64, int, error) {
	return s.help.valueRange(year, sex, age)
}
func (s *SQLiteDB) SeriesForRegion(nutsID, sex, age string) ([]SeriesPoint, error) {
	return s.help.seriesForRegion(nutsID, sex, age)
}

func (s *SQLiteDB) CreateImportRun(run *ImportRun) error { return s.help.createImportRun(run) }
func (s *SQLiteDB) FinishImportRun(id, status string, rowsOK, rowsErr int) error {
	return s.help.finishImportRun(id, status, rowsOK, rowsErr)
}
func (s *SQLiteDB) ListImportRuns(limit int) ([]ImportRun, error) {
	return s.help.listImportRuns(limit)
}
