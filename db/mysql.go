package db

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

type MySQL struct {
	Host   string
	Port   string
	User   string
	Pass   string
	DBName string
	Conn   *sql.DB
	help   sqlHelper
}

func (d *MySQL) Connect() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", d.User, d.Pass, d.Host, d.Port, d.DBName)
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("error connecting to MySQL: %w", err)
	}
	d.Conn = conn
	d.help = newSQLHelper(conn, "mysql")
	logInfof("Connected to MySQL at %s:%s/%s", d.Host, d.Port, d.DBName)
	return nil
}

func (d *MySQL) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *MySQL) Ping() error {
	return d.Conn.Ping()
}

func (d *MySQL) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			nuts_id VARCHAR(8) PRIMARY KEY,
			level1 VARCHAR(255) NOT NULL DEFAULT '',
			level2 VARCHAR(255) NOT NULL DEFAULT '',
			level3 VARCHAR(255) NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS observations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			nuts_id VARCHAR(8) NOT NULL,
			year INT NOT NULL,
			sex VARCHAR(16) NOT NULL,
			age VARCHAR(32) NOT NULL,
			value DOUBLE NULL,
			source VARCHAR(255) NOT NULL DEFAULT '',
			UNIQUE KEY idx_obs_key (nuts_id, year, sex, age),
			KEY idx_obs_source (source)
		);`,
		`CREATE TABLE IF NOT EXISTS import_runs (
			id VARCHAR(36) PRIMARY KEY,
			source VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			rows_ok INT NOT NULL DEFAULT 0,
			rows_err INT NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := d.Conn.Exec(stmt); err != nil {
			return fmt.Errorf("mysql migration failed: %w", err)
		}
	}
	return nil
}

func (d *MySQL) Exec(query string, args ...interface{}) (int64, error) {
	return d.help.exec(query, args...)
}

func (d *MySQL) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	return d.help.queryMaps(query, args...)
}

func (d *MySQL) UpsertRegion(r *Region) error         { return d.help.upsertRegion(r) }
func (d *MySQL) GetRegion(id string) (*Region, error) { return d.help.getRegion(id) }
func (d *MySQL) ListRegions(f RegionFilter) ([]Region, error) {
	return d.help.listRegions(f)
}
func (d *MySQL) CountRegions(f RegionFilter) (int, error) { return d.help.countRegions(f) }

func (d *MySQL) ReplaceObservations(source string, obs []Observation) (int, error) {
	return d.help.replaceObservations(source, obs)
}
func (d *MySQL) Years() ([]int, error)    { return d.help.distinctInts("year") }
func (d *MySQL) Sexes() ([]string, error) { return d.help.distinctStrings("sex") }
func (d *MySQL) Ages() ([]string, error)  { return d.help.distinctStrings("age") }
func (d *MySQL) ObservationsFor(year int, sex, age string) ([]RegionValue, error) {
	return d.help.observationsFor(year, sex, age)
}
func (d *MySQL) ValueRange(year int, sex, age string) (float64, float64, int, error) {
	return d.help.valueRange(year, sex, age)
}
func (d *MySQL) SeriesForRegion(nutsID, sex, age string) ([]SeriesPoint, error) {
	return d.help.seriesForRegion(nutsID, sex, age)
}

func (d *MySQL) CreateImportRun(run *ImportRun) error { return d.help.createImportRun(run) }
func (d *MySQL) FinishImportRun(id, status string, rowsOK, rowsErr int) error {
	return d.help.finishImportRun(id, status, rowsOK, rowsErr)
}
func (d *MySQL) ListImportRuns(limit int) ([]ImportRun, error) {
	return d.help.listImportRuns(limit)
}
