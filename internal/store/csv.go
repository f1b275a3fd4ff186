package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// csvHeader is the stable on-disk schema; column order matters for
// compatibility with existing files.
var csvHeader = []string{"date", "company", "position", "status", "email"}

// CSVStore persists application records as a CSV file.
// It implements model.RecordStore.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by the CSV file at path. The file does
// not need to exist yet.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Load reads the current snapshot. A missing file loads as empty. Rows that
// do not parse are skipped so one corrupt line never loses the whole table.
func (s *CSVStore) Load() ([]model.ApplicationRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate short rows, they are skipped below

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading record store: %w", err)
	}

	var records []model.ApplicationRecord
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) < 5 {
			continue
		}
		date, err := time.Parse(model.DateLayout, row[0])
		if err != nil {
			continue
		}
		records = append(records, model.ApplicationRecord{
			Date:     date,
			Company:  row[1],
			Position: row[2],
			Status:   model.ParseStatus(row[3]),
			Account:  row[4],
		})
	}

	return records, nil
}

// SaveAtomic replaces the snapshot via a temp file in the same directory and
// a rename, so a failed write leaves the previous file untouched.
func (s *CSVStore) SaveAtomic(records []model.ApplicationRecord) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".jobs-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp record store: %w", err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	writeErr := writer.Write(csvHeader)
	for _, r := range records {
		if writeErr != nil {
			break
		}
		writeErr = writer.Write([]string{
			r.Date.Format(model.DateLayout),
			r.Company,
			r.Position,
			string(r.Status),
			r.Account,
		})
	}
	if writeErr == nil {
		writer.Flush()
		writeErr = writer.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing record store: %w", writeErr)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing record store: %w", err)
	}
	return nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && row[0] == "date"
}
