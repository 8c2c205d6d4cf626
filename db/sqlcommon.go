package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// formatPlaceholders rewrites '?' into PostgreSQL-style $1, $2... when needed.
func formatPlaceholders(style, query string) string {
	if strings.ToLower(style) != "postgres" {
		return query
	}
	var b strings.Builder
	idx := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

type sqlHelper struct {
	db    *sql.DB
	style string
}

func newSQLHelper(db *sql.DB, style string) sqlHelper {
	return sqlHelper{db: db, style: strings.ToLower(style)}
}

func (h sqlHelper) exec(query string, args ...interface{}) (int64, error) {
	res, err := h.db.Exec(formatPlaceholders(h.style, query), args...)
	if err != nil {
		return 0, err
	}
	if h.style == "postgres" {
		n, _ := res.RowsAffected()
		return n, nil
	}
	id, _ := res.LastInsertId()
	return id, nil
}

func (h sqlHelper) queryMaps(query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.db.Query(formatPlaceholders(h.style, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// upsertRegion inserts or refreshes a region. Empty incoming level names never
// overwrite names already on record, so a workbook without the name columns
// cannot wipe what the boundary file seeded.
func (h sqlHelper) upsertRegion(r *Region) error {
	var query string
	switch h.style {
	case "mysql":
		query = `INSERT INTO regions (nuts_id, level1, level2, level3) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				level1 = IF(VALUES(level1) <> '', VALUES(level1), level1),
				level2 = IF(VALUES(level2) <> '', VALUES(level2), level2),
				level3 = IF(VALUES(level3) <> '', VALUES(level3), level3)`
	default: // sqlite and postgres share ON CONFLICT
		query = `INSERT INTO regions (nuts_id, level1, level2, level3) VALUES (?, ?, ?, ?)
			ON CONFLICT (nuts_id) DO UPDATE SET
				level1 = CASE WHEN excluded.level1 <> '' THEN excluded.level1 ELSE regions.level1 END,
				level2 = CASE WHEN excluded.level2 <> '' THEN excluded.level2 ELSE regions.level2 END,
				level3 = CASE WHEN excluded.level3 <> '' THEN excluded.level3 ELSE regions.level3 END`
	}
	_, err := h.db.Exec(formatPlaceholders(h.style, query), r.NutsID, r.Level1, r.Level2, r.Level3)
	return err
}

func (h sqlHelper) getRegion(nutsID string) (*Region, error) {
	query := formatPlaceholders(h.style, `SELECT nuts_id, level1, level2, level3 FROM regions WHERE nuts_id = ?`)
	r := &Region{}
	err := h.db.QueryRow(query, nutsID).Scan(&r.NutsID, &r.Level1, &r.Level2, &r.Level3)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func regionFilterClause(f RegionFilter) (string, []interface{}) {
	if strings.TrimSpace(f.Query) == "" {
		return "", nil
	}
	like := "%" + strings.TrimSpace(f.Query) + "%"
	clause := ` WHERE nuts_id LIKE ? OR level1 LIKE ? OR level2 LIKE ? OR level3 LIKE ?`
	return clause, []interface{}{like, like, like, like}
}

func (h sqlHelper) listRegions(f RegionFilter) ([]Region, error) {
	clause, args := regionFilterClause(f)
	query := `SELECT nuts_id, level1, level2, level3 FROM regions` + clause + ` ORDER BY nuts_id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := h.db.Query(formatPlaceholders(h.style, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Region
	for rows.Next() {
		var r Region
		if err := rows.Scan(&r.NutsID, &r.Level1, &r.Level2, &r.Level3); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (h sqlHelper) countRegions(f RegionFilter) (int, error) {
	clause, args := regionFilterClause(f)
	query := formatPlaceholders(h.style, `SELECT COUNT(*) FROM regions`+clause)
	var n int
	if err := h.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// replaceObservations swaps a source file's rows inside one transaction so a
// broken workbook never leaves the table half-written.
func (h sqlHelper) replaceObservations(source string, obs []Observation) (int, error) {
	tx, err := h.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(formatPlaceholders(h.style, `DELETE FROM observations WHERE source = ?`), source); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(formatPlaceholders(h.style,
		`INSERT INTO observations (nuts_id, year, sex, age, value, source) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i := range obs {
		o := &obs[i]
		var val interface{}
		if o.Value.Valid {
			val = o.Value.Float64
		}
		if _, err := stmt.Exec(o.NutsID, o.Year, o.Sex, o.Age, val, source); err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (h sqlHelper) distinctInts(column string) ([]int, error) {
	rows, err := h.db.Query(`SELECT DISTINCT ` + column + ` FROM observations ORDER BY ` + column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (h sqlHelper) distinctStrings(column string) ([]string, error) {
	rows, err := h.db.Query(`SELECT DISTINCT ` + column + ` FROM observations ORDER BY ` + column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// observationsFor keeps regions without a matching observation (left join), so
// the choropleth can still draw their shapes.
func (h sqlHelper) observationsFor(year int, sex, age string) ([]RegionValue, error) {
	query := formatPlaceholders(h.style, `
		SELECT r.nuts_id, r.level1, r.level2, r.level3, o.value
		FROM regions r
		LEFT JOIN observations o
			ON o.nuts_id = r.nuts_id AND o.year = ? AND o.sex = ? AND o.age = ?
		ORDER BY r.nuts_id`)
	rows, err := h.db.Query(query, year, sex, age)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegionValue
	for rows.Next() {
		var r Region
		var v sql.NullFloat64
		if err := rows.Scan(&r.NutsID, &r.Level1, &r.Level2, &r.Level3, &v); err != nil {
			return nil, err
		}
		out = append(out, RegionValue{NutsID: r.NutsID, Name: r.Name(), Value: v})
	}
	return out, rows.Err()
}

func (h sqlHelper) valueRange(year int, sex, age string) (float64, float64, int, error) {
	query := formatPlaceholders(h.style, `
		SELECT MIN(value), MAX(value), COUNT(value)
		FROM observations
		WHERE year = ? AND sex = ? AND age = ? AND value IS NOT NULL`)
	var min, max sql.NullFloat64
	var count int
	if err := h.db.QueryRow(query, year, sex, age).Scan(&min, &max, &count); err != nil {
		return 0, 0, 0, err
	}
	if count == 0 || !min.Valid || !max.Valid {
		return 0, 0, 0, nil
	}
	return min.Float64, max.Float64, count, nil
}

func (h sqlHelper) seriesForRegion(nutsID, sex, age string) ([]SeriesPoint, error) {
	query := formatPlaceholders(h.style, `
		SELECT year, value FROM observations
		WHERE nuts_id = ? AND sex = ? AND age = ?
		ORDER BY year`)
	rows, err := h.db.Query(query, nutsID, sex, age)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Year, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (h sqlHelper) createImportRun(run *ImportRun) error {
	query := formatPlaceholders(h.style, `
		INSERT INTO import_runs (id, source, status, rows_ok, rows_err, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := h.db.Exec(query, run.ID, run.Source, run.Status, run.RowsOK, run.RowsErr, run.StartedAt)
	return err
}

func (h sqlHelper) finishImportRun(id, status string, rowsOK, rowsErr int) error {
	nowFun := "CURRENT_TIMESTAMP"
	query := formatPlaceholders(h.style, `
		UPDATE import_runs SET status = ?, rows_ok = ?, rows_err = ?, finished_at = `+nowFun+`
		WHERE id = ?`)
	_, err := h.db.Exec(query, status, rowsOK, rowsErr, id)
	return err
}

func (h sqlHelper) listImportRuns(limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := formatPlaceholders(h.style, `
		SELECT id, source, status, rows_ok, rows_err, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC LIMIT ?`)
	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &r.RowsOK, &r.RowsErr, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
