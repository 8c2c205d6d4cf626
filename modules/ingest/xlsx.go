// Package ingest loads NUTS3 statistical workbooks into the store.
package ingest

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/TheodorosKourtalis/nuts3-atlas/db"
)

// requiredColumns are the workbook headers, spelled the way the exporting
// pipeline writes them ("age" really is lowercase).
var requiredColumns = []string{"NUTS_ID", "YEAR", "SEX", "age", "VALUE"}

// Optional region-name columns merged into the regions table when present.
var levelColumns = []string{"NUTS_Level_1", "NUTS_Level_2", "NUTS_Level_3"}

// Result summarizes one ingest.
type Result struct {
	Files   int
	RowsOK  int
	RowsErr int
	Skipped []string
}

// Workbook is the parsed content of a single xlsx file.
type Workbook struct {
	Source       string
	Observations []db.Observation
	Regions      map[string]db.Region
	RowsErr      int
}

// ReadWorkbook parses one xlsx stream. The first sheet is used; the header
// row must contain every required column.
func ReadWorkbook(r io.Reader, source string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook %s: %w", source, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", source)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet of %s: %w", source, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s is empty", source)
	}

	colIdx := map[string]int{}
	for i, name := range rows[0] {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q in %s", col, source)
		}
	}

	wb := &Workbook{
		Source:  source,
		Regions: map[string]db.Region{},
	}

	cell := func(row []string, col string) string {
		idx, ok := colIdx[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for _, row := range rows[1:] {
		nutsID := cell(row, "NUTS_ID")
		yearStr := cell(row, "YEAR")
		if nutsID == "" || yearStr == "" {
			wb.RowsErr++
			continue
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			wb.RowsErr++
			continue
		}

		// Non-numeric values become NULL, matching the original coercion.
		value := sql.NullFloat64{}
		if v := cell(row, "VALUE"); v != "" {
			if fl, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64); err == nil {
				value = sql.NullFloat64{Float64: fl, Valid: true}
			}
		}

		wb.Observations = append(wb.Observations, db.Observation{
			NutsID: nutsID,
			Year:   year,
			Sex:    cell(row, "SEX"),
			Age:    cell(row, "age"),
			Value:  value,
			Source: source,
		})

		reg := wb.Regions[nutsID]
		reg.NutsID = nutsID
		if v := cell(row, "NUTS_Level_1"); v != "" {
			reg.Level1 = v
		}
		if v := cell(row, "NUTS_Level_2"); v != "" {
			reg.Level2 = v
		}
		if v := cell(row, "NUTS_Level_3"); v != "" {
			reg.Level3 = v
		}
		wb.Regions[nutsID] = reg
	}

	return wb, nil
}

// Store writes a parsed workbook into the database under a fresh import run.
func Store(database db.DB, wb *Workbook) (string, error) {
	run := &db.ImportRun{
		ID:        uuid.NewString(),
		Source:    wb.Source,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}
	if err := database.CreateImportRun(run); err != nil {
		return "", fmt.Errorf("cannot record import run: %w", err)
	}

	for _, reg := range wb.Regions {
		if err := database.UpsertRegion(&reg); err != nil {
			_ = database.FinishImportRun(run.ID, "failed", 0, wb.RowsErr)
			return run.ID, fmt.Errorf("cannot upsert region %s: %w", reg.NutsID, err)
		}
	}

	inserted, err := database.ReplaceObservations(wb.Source, wb.Observations)
	if err != nil {
		_ = database.FinishImportRun(run.ID, "failed", 0, wb.RowsErr)
		return run.ID, fmt.Errorf("cannot store observations from %s: %w", wb.Source, err)
	}

	if err := database.FinishImportRun(run.ID, "done", inserted, wb.RowsErr); err != nil {
		return run.ID, err
	}
	return run.ID, nil
}

// ScanDir ingests every .xlsx file found in dir. Unreadable workbooks are
// logged and skipped; an ingest where no file yields any row is an error.
func ScanDir(database db.DB, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read excel folder %s: %w", dir, err)
	}

	res := &Result{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		path := filepath.Join(dir, name)

		file, err := os.Open(path)
		if err != nil {
			log.Printf("[INGEST] error opening %s: %v", name, err)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		wb, err := ReadWorkbook(file, name)
		file.Close()
		if err != nil {
			log.Printf("[INGEST] error reading %s: %v", name, err)
			res.Skipped = append(res.Skipped, name)
			continue
		}

		if _, err := Store(database, wb); err != nil {
			log.Printf("[INGEST] error storing %s: %v", name, err)
			res.Skipped = append(res.Skipped, name)
			continue
		}

		res.Files++
		res.RowsOK += len(wb.Observations)
		res.RowsErr += wb.RowsErr
	}

	if res.Files == 0 {
		return res, fmt.Errorf("no valid xlsx files could be read from %s", dir)
	}
	return res, nil
}
