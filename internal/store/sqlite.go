package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// SQLiteStore persists application records in a SQLite database.
// It implements model.RecordStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the applications table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS applications (
		company  TEXT NOT NULL,
		position TEXT NOT NULL,
		account  TEXT NOT NULL,
		date     TEXT NOT NULL,
		status   TEXT NOT NULL,
		PRIMARY KEY (company, position, account)
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating applications table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns the current snapshot ordered by date ascending.
func (s *SQLiteStore) Load() ([]model.ApplicationRecord, error) {
	rows, err := s.db.Query(
		"SELECT date, company, position, status, account FROM applications ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("loading applications: %w", err)
	}
	defer rows.Close()

	var records []model.ApplicationRecord
	for rows.Next() {
		var dateStr, company, position, status, account string
		if err := rows.Scan(&dateStr, &company, &position, &status, &account); err != nil {
			return nil, fmt.Errorf("scanning application row: %w", err)
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			continue
		}
		records = append(records, model.ApplicationRecord{
			Date:     date,
			Company:  company,
			Position: position,
			Status:   model.ParseStatus(status),
			Account:  account,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading applications: %w", err)
	}
	return records, nil
}

// SaveAtomic replaces the snapshot inside a single transaction; a failure
// rolls back and leaves the previous rows untouched.
func (s *SQLiteStore) SaveAtomic(records []model.ApplicationRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM applications"); err != nil {
		return fmt.Errorf("clearing applications: %w", err)
	}

	insert, err := tx.Prepare(
		"INSERT INTO applications (date, company, position, status, account) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	for _, r := range records {
		_, err := insert.Exec(r.Date.UTC().Format(time.RFC3339), r.Company, r.Position, string(r.Status), r.Account)
		if err != nil {
			return fmt.Errorf("inserting application %s/%s: %w", r.Company, r.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
