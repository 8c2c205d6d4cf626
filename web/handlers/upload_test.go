package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/TheodorosKourtalis/nuts3-atlas/db"
)

func openTestDB(t *testing.T) db.DB {
	t.Helper()
	database, err := db.GetDBManager(db.Config{Engine: "sqlite", Path: filepath.Join(t.TempDir(), "upload.db")})
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

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []string{"NUTS_ID", "YEAR", "SEX", "age", "VALUE"}
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			t.Fatal(err)
		}
	}
	values := []interface{}{"EL301", 2021, "T", "TOTAL", 3800000}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, password, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("password", password); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("workbook", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/upload", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func adminHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestUploadHandlerSuccess(t *testing.T) {
	database := openTestDB(t)
	flushed := false
	h := UploadHandler(database, adminHash(t, "sekrit"), func() { flushed = true })

	w := httptest.NewRecorder()
	h(w, uploadRequest(t, "sekrit", "pop.xlsx", workbookBytes(t)))

	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body %s", w.Code, w.Body.String())
	}
	if !flushed {
		t.Error("onDone not called after a successful upload")
	}

	var out struct {
		RunID string `json:"run_id"`
		Rows  int    `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.RunID == "" || out.Rows != 1 {
		t.Errorf("response = %+v", out)
	}

	years, err := database.Years()
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 1 || years[0] != 2021 {
		t.Errorf("ingested years = %v", years)
	}
}

func TestUploadHandlerWrongPassword(t *testing.T) {
	database := openTestDB(t)
	h := UploadHandler(database, adminHash(t, "sekrit"), nil)

	w := httptest.NewRecorder()
	h(w, uploadRequest(t, "wrong", "pop.xlsx", workbookBytes(t)))
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong password = %d, want 403", w.Code)
	}
}

func TestUploadHandlerDisabled(t *testing.T) {
	database := openTestDB(t)
	h := UploadHandler(database, "", nil)

	w := httptest.NewRecorder()
	h(w, uploadRequest(t, "anything", "pop.xlsx", workbookBytes(t)))
	if w.Code != http.StatusForbidden {
		t.Errorf("disabled endpoint = %d, want 403", w.Code)
	}
}

func TestUploadHandlerRejectsNonXlsx(t *testing.T) {
	database := openTestDB(t)
	h := UploadHandler(database, adminHash(t, "sekrit"), nil)

	w := httptest.NewRecorder()
	h(w, uploadRequest(t, "sekrit", "data.csv", []byte("a,b\n1,2\n")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("csv upload = %d, want 400", w.Code)
	}
}

func TestUploadHandlerRejectsCorruptWorkbook(t *testing.T) {
	database := openTestDB(t)
	h := UploadHandler(database, adminHash(t, "sekrit"), nil)

	w := httptest.NewRecorder()
	h(w, uploadRequest(t, "sekrit", "pop.xlsx", []byte("not a zip")))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("corrupt upload = %d, want 422", w.Code)
	}
}

func TestUploadHandlerMethodNotAllowed(t *testing.T) {
	database := openTestDB(t)
	h := UploadHandler(database, adminHash(t, "sekrit"), nil)

	r := httptest.NewRequest(http.MethodGet, "/upload", nil)
	w := httptest.NewRecorder()
	h(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET = %d, want 405", w.Code)
	}
}
