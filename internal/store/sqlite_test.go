package store

import (
	"path/filepath"
	"testing"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_EmptyDatabaseLoadsEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestSQLiteStore_SaveThenLoad(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveAtomic(testRecords()); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %d records, want 2", len(loaded))
	}
	// Load orders by date ascending.
	if loaded[0].Company != "Acme" || loaded[1].Company != "Initech" {
		t.Errorf("order = %s, %s", loaded[0].Company, loaded[1].Company)
	}
	if !loaded[0].Date.Equal(testRecords()[0].Date) {
		t.Errorf("date = %v, want %v", loaded[0].Date, testRecords()[0].Date)
	}
	if loaded[1].Status != model.StatusInterviewing {
		t.Errorf("status = %q, want interviewing", loaded[1].Status)
	}
}

func TestSQLiteStore_SaveReplacesSnapshot(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveAtomic(testRecords()); err != nil {
		t.Fatalf("first SaveAtomic: %v", err)
	}
	if err := s.SaveAtomic(testRecords()[1:]); err != nil {
		t.Fatalf("second SaveAtomic: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded = %d records, want 1 (old snapshot replaced)", len(loaded))
	}
	if loaded[0].Company != "Initech" {
		t.Errorf("record = %+v", loaded[0])
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.SaveAtomic(testRecords()); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("loaded = %d records after reopen, want 2", len(loaded))
	}
}
