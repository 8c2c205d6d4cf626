package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/TheodorosKourtalis/nuts3-atlas/core"
	"github.com/TheodorosKourtalis/nuts3-atlas/db"
	"github.com/TheodorosKourtalis/nuts3-atlas/modules/ingest"
)

const uploadMaxBytes = 16 << 20

// UploadHandler ingests a posted xlsx workbook. The admin password is checked
// against the bcrypt hash from the configuration; with no hash configured the
// endpoint is disabled.
func UploadHandler(database db.DB, adminHash string, onDone func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if strings.TrimSpace(adminHash) == "" {
			http.Error(w, "uploads are disabled", http.StatusForbidden)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, uploadMaxBytes)
		if err := r.ParseMultipartForm(uploadMaxBytes); err != nil {
			http.Error(w, "invalid upload", http.StatusBadRequest)
			return
		}

		pass := r.FormValue("password")
		if err := bcrypt.CompareHashAndPassword([]byte(adminHash), []byte(pass)); err != nil {
			http.Error(w, "access denied", http.StatusForbidden)
			return
		}

		file, header, err := r.FormFile("workbook")
		if err != nil {
			http.Error(w, "missing workbook file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		name := header.Filename
		if !strings.EqualFold(strings.TrimSpace(name[strings.LastIndex(name, ".")+1:]), "xlsx") {
			http.Error(w, "only xlsx workbooks are accepted", http.StatusBadRequest)
			return
		}

		wb, err := ingest.ReadWorkbook(file, name)
		if err != nil {
			core.Errorf("Upload of %s rejected: %v", name, err)
			http.Error(w, "workbook could not be read", http.StatusUnprocessableEntity)
			return
		}

		runID, err := ingest.Store(database, wb)
		if err != nil {
			core.Errorf("Upload of %s failed: %v", name, err)
			http.Error(w, "workbook could not be stored", http.StatusInternalServerError)
			return
		}

		if onDone != nil {
			onDone()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"run_id": runID,
			"rows":   len(wb.Observations),
		})
	}
}
