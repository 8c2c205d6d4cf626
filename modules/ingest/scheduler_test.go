package ingest

import "testing"

func TestStartRescanDisabled(t *testing.T) {
	database := openTestDB(t)
	if s := StartRescan(database, t.TempDir(), 0, nil); s != nil {
		s.Stop()
		t.Error("rescan should be disabled when minutes is 0")
	}
}

func TestStartRescanRuns(t *testing.T) {
	database := openTestDB(t)
	s := StartRescan(database, t.TempDir(), 60, nil)
	if s == nil {
		t.Fatal("scheduler not started")
	}
	defer s.Stop()
	if !s.IsRunning() {
		t.Error("scheduler not running")
	}
	if s.Len() != 1 {
		t.Errorf("scheduler has %d jobs, want 1", s.Len())
	}
}
