package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Region is one NUTS3 territorial unit. The display name is built from the
// non-empty level names joined with " - ".
type Region struct {
	NutsID string
	Level1 string
	Level2 string
	Level3 string
}

// Name returns the human readable region name.
func (r Region) Name() string {
	parts := []string{}
	for _, p := range []string{r.Level1, r.Level2, r.Level3} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " - ")
}

// Observation is a single statistical data point.
type Observation struct {
	NutsID string
	Year   int
	Sex    string
	Age    string
	Value  sql.NullFloat64
	Source string
}

// RegionValue is an observation joined with its region names, as consumed by
// the figure builders.
type RegionValue struct {
	NutsID string
	Name   string
	Value  sql.NullFloat64
}

// SeriesPoint is one year of a per-region time series.
type SeriesPoint struct {
	Year  int
	Value sql.NullFloat64
}

// ImportRun records one ingestion of a workbook or a directory scan.
type ImportRun struct {
	ID         string
	Source     string
	Status     string
	RowsOK     int
	RowsErr    int
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// RegionFilter narrows and pages region listings.
type RegionFilter struct {
	Query  string
	Limit  int
	Offset int
}

// Config selects and parameterizes a database engine.
type Config struct {
	Engine  string
	Path    string
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	SSLMode string
}

// DB is the storage interface shared by all engines.
type DB interface {
	Connect() error
	Close()
	Ping() error
	Migrate() error
	Exec(query string, args ...interface{}) (int64, error)
	Query(query string, args ...interface{}) ([]map[string]interface{}, error)

	UpsertRegion(r *Region) error
	GetRegion(nutsID string) (*Region, error)
	ListRegions(f RegionFilter) ([]Region, error)
	CountRegions(f RegionFilter) (int, error)

	ReplaceObservations(source string, obs []Observation) (int, error)
	Years() ([]int, error)
	Sexes() ([]string, error)
	Ages() ([]string, error)
	ObservationsFor(year int, sex, age string) ([]RegionValue, error)
	ValueRange(year int, sex, age string) (min, max float64, count int, err error)
	SeriesForRegion(nutsID, sex, age string) ([]SeriesPoint, error)

	CreateImportRun(run *ImportRun) error
	FinishImportRun(id, status string, rowsOK, rowsErr int) error
	ListImportRuns(limit int) ([]ImportRun, error)
}

var active DB

// GetDBManager instantiates the engine named by the configuration.
func GetDBManager(cfg Config) (DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", "sqlite", "sqlite3":
		active = &SQLiteDB{Path: cfg.Path}
	case "mysql":
		active = &MySQL{Host: cfg.Host, Port: cfg.Port, User: cfg.User, Pass: cfg.Pass, DBName: cfg.Name}
	case "postgres", "postgresql":
		active = &PostgreSQL{Host: cfg.Host, Port: cfg.Port, User: cfg.User, Pass: cfg.Pass, DBName: cfg.Name, SSLMode: cfg.SSLMode}
	default:
		return nil, fmt.Errorf("unsupported database engine: %s", cfg.Engine)
	}
	return active, nil
}

// Close shuts down the active manager, if any.
func Close() {
	if active != nil {
		active.Close()
	}
}
