package ingest

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/TheodorosKourtalis/nuts3-atlas/db"
)

// StartRescan schedules a periodic directory scan so new workbooks show up
// without a restart. Returns the scheduler so the caller can stop it; nil
// when minutes is zero.
func StartRescan(database db.DB, dir string, minutes int, onDone func(*Result)) *gocron.Scheduler {
	if minutes <= 0 {
		return nil
	}
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(minutes).Minutes().Do(func() {
		res, err := ScanDir(database, dir)
		if err != nil {
			log.Printf("[INGEST] rescan failed: %v", err)
			return
		}
		log.Printf("[INGEST] rescan done: %d files, %d rows", res.Files, res.RowsOK)
		if onDone != nil {
			onDone(res)
		}
	})
	if err != nil {
		log.Printf("[INGEST] cannot schedule rescan: %v", err)
		return nil
	}
	s.StartAsync()
	return s
}
