package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type PostgreSQL struct {
	Host    string
	Port    string
	User    string
	Pass    string
	DBName  string
	SSLMode string
	Conn    *sql.DB
	help    sqlHelper
}

func (p *PostgreSQL) Connect() error {
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Pass, p.DBName, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}
	p.Conn = conn
	p.help = newSQLHelper(conn, "postgres")
	logInfof("Connected to PostgreSQL at %s:%s/%s", p.Host, p.Port, p.DBName)
	return nil
}

func (p *PostgreSQL) Close() {
	if p.Conn != nil {
		p.Conn.Close()
	}
}

func (p *PostgreSQL) Ping() error {
	return p.Conn.Ping()
}

func (p *PostgreSQL) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			nuts_id TEXT PRIMARY KEY,
			level1 TEXT NOT NULL DEFAULT '',
			level2 TEXT NOT NULL DEFAULT '',
			level3 TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS observations (
			id BIGSERIAL PRIMARY KEY,
			nuts_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			sex TEXT NOT NULL,
			age TEXT NOT NULL,
			value DOUBLE PRECISION,
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
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		);`,
	}
	for _, stmt := range stmts {
		if _, err := p.Conn.Exec(stmt); err != nil {
			return fmt.Errorf("postgres migration failed: %w", err)
		}
	}
	return nil
}

func (p *PostgreSQL) Exec(query string, args ...interface{}) (int64, error) {
	return p.help.exec(query, args...)
}

func (p *PostgreSQL) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	return p.help.queryMaps(query, args...)
}

func (p *PostgreSQL) UpsertRegion(r *Region) error         { return p.help.upsertRegion(r) }
func (p *PostgreSQL) GetRegion(id string) (*Region, error) { return p.help.getRegion(id) }
func (p *PostgreSQL) ListRegions(f RegionFilter) ([]Region, error) {
	return p.help.listRegions(f)
}
func (p *PostgreSQL) CountRegions(f RegionFilter) (int, error) { return p.help.countRegions(f) }

func (p *PostgreSQL) ReplaceObservations(source string, obs []Observation) (int, error) {
	return p.help.replaceObservations(source, obs)
}
func (p *PostgreSQL) Years() ([]int, error)    { return p.help.distinctInts("year") }
func (p *PostgreSQL) Sexes() ([]string, error) { return p.help.distinctStrings("sex") }
func (p *PostgreSQL) Ages() ([]string, error)  { return p.help.distinctStrings("age") }
func (p *PostgreSQL) ObservationsFor(year int, sex, age string) ([]RegionValue, error) {
	return p.help.observationsFor(year, sex, age)
}
func (p *PostgreSQL) ValueRange(year int, sex, age string) (float64, float64, int, error) {
	return p.help.valueRange(year, sex, age)
}
func (p *PostgreSQL) SeriesForRegion(nutsID, sex, age string) ([]SeriesPoint, error) {
	return p.help.seriesForRegion(nutsID, sex, age)
}

func (p *PostgreSQL) CreateImportRun(run *ImportRun) error { return p.help.createImportRun(run) }
func (p *PostgreSQL) FinishImportRun(id, status string, rowsOK, rowsErr int) error {
	return p.help.finishImportRun(id, status, rowsOK, rowsErr)
}
func (p *PostgreSQL) ListImportRuns(limit int) ([]ImportRun, error) {
	return p.help.listImportRuns(limit)
}
