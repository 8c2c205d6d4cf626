package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/TheodorosKourtalis/nuts3-atlas/db"
)

func openTestDB(t *testing.T) db.DB {
	t.Helper()
	database, err := db.GetDBManager(db.Config{Engine: "sqlite", Path: filepath.Join(t.TempDir(), "ingest.db")})
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
	return database
}

// buildWorkbook writes an xlsx with the pipeline's header row plus the given
// data rows and returns the serialized bytes.
func buildWorkbook(t *testing.T, header []string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			t.Fatal(err)
		}
	}
	for ri, row := range rows {
		for ci, val := range row {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("cannot serialize workbook: %v", err)
	}
	return buf.Bytes()
}

var fullHeader = []string{"NUTS_ID", "YEAR", "SEX", "age", "VALUE", "NUTS_Level_1", "NUTS_Level_3"}

func TestReadWorkbook(t *testing.T) {
	raw := buildWorkbook(t, fullHeader, [][]interface{}{
		{"EL301", 2021, "T", "TOTAL", 3800000, "Attiki", "Athens"},
		{"EL411", 2021, "T", "TOTAL", "n/a", "Nisia Aigaiou", "Lesvos"},
		{"", 2021, "T", "TOTAL", 5},
		{"EL521", "notayear", "T", "TOTAL", 5},
	})

	wb, err := ReadWorkbook(bytes.NewReader(raw), "pop.xlsx")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(wb.Observations) != 2 {
		t.Fatalf("parsed %d observations, want 2", len(wb.Observations))
	}
	if wb.RowsErr != 2 {
		t.Errorf("RowsErr = %d, want 2", wb.RowsErr)
	}

	first := wb.Observations[0]
	if first.NutsID != "EL301" || first.Year != 2021 || !first.Value.Valid || first.Value.Float64 != 3800000 {
		t.Errorf("first observation = %+v", first)
	}

	// Non-numeric VALUE cells become NULL rather than dropped rows.
	second := wb.Observations[1]
	if second.NutsID != "EL411" || second.Value.Valid {
		t.Errorf("second observation = %+v", second)
	}

	reg, ok := wb.Regions["EL301"]
	if !ok {
		t.Fatal("region EL301 not captured")
	}
	if reg.Level1 != "Attiki" || reg.Level3 != "Athens" {
		t.Errorf("region = %+v", reg)
	}
}

func TestReadWorkbookDecimalComma(t *testing.T) {
	raw := buildWorkbook(t, fullHeader, [][]interface{}{
		{"EL301", 2021, "T", "TOTAL", "12,5", "Attiki", "Athens"},
	})
	wb, err := ReadWorkbook(bytes.NewReader(raw), "pop.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if v := wb.Observations[0].Value; !v.Valid || v.Float64 != 12.5 {
		t.Errorf("comma decimal parsed as %+v", v)
	}
}

func TestReadWorkbookMissingColumn(t *testing.T) {
	raw := buildWorkbook(t, []string{"NUTS_ID", "YEAR", "SEX", "VALUE"}, nil)
	if _, err := ReadWorkbook(bytes.NewReader(raw), "broken.xlsx"); err == nil {
		t.Fatal("expected error for missing age column")
	}
}

func TestStore(t *testing.T) {
	database := openTestDB(t)
	raw := buildWorkbook(t, fullHeader, [][]interface{}{
		{"EL301", 2021, "T", "TOTAL", 100, "Attiki", "Athens"},
		{"EL301", 2022, "T", "TOTAL", 110, "Attiki", "Athens"},
	})
	wb, err := ReadWorkbook(bytes.NewReader(raw), "pop.xlsx")
	if err != nil {
		t.Fatal(err)
	}

	runID, err := Store(database, wb)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	years, err := database.Years()
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 {
		t.Errorf("years = %v", years)
	}

	region, err := database.GetRegion("EL301")
	if err != nil {
		t.Fatal(err)
	}
	if region == nil || region.Name() != "Attiki - Athens" {
		t.Errorf("region = %+v", region)
	}

	runs, err := database.ListImportRuns(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID || runs[0].Status != "done" || runs[0].RowsOK != 2 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestScanDir(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()

	good := buildWorkbook(t, fullHeader, [][]interface{}{
		{"EL301", 2021, "T", "TOTAL", 100, "Attiki", "Athens"},
	})
	if err := os.WriteFile(filepath.Join(dir, "pop.xlsx"), good, 0o644); err != nil {
		t.Fatal(err)
	}
	// A corrupt workbook must be skipped, not abort the scan.
	if err := os.WriteFile(filepath.Join(dir, "junk.xlsx"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-xlsx files are ignored entirely.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := ScanDir(database, dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if res.Files != 1 || res.RowsOK != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "junk.xlsx" {
		t.Errorf("skipped = %v", res.Skipped)
	}
}

func TestScanDirNoValidFiles(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "junk.xlsx"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ScanDir(database, dir); err == nil {
		t.Fatal("expected error when no workbook could be read")
	}
}
