// Package state persists the watermark between runs: the cutoff timestamp
// before which messages are already processed. One global watermark is shared
// by every account.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the watermark in a small YAML state file.
// It implements model.WatermarkStore.
type FileStore struct {
	path string
}

// NewFileStore creates a watermark store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type stateFile struct {
	LastRun string `yaml:"last_run"` // RFC 3339
}

// ReadWatermark returns the last successful run time. A missing state file
// means no run has completed yet and returns the zero time.
func (s *FileStore) ReadWatermark() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("read state file: %w", err)
	}

	var sf stateFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return time.Time{}, fmt.Errorf("parse state file: %w", err)
	}
	if sf.LastRun == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, sf.LastRun)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_run %q: %w", sf.LastRun, err)
	}
	return t, nil
}

// WriteWatermark records t as the new cutoff via a temp file and rename.
func (s *FileStore) WriteWatermark(t time.Time) error {
	data, err := yaml.Marshal(stateFile{LastRun: t.UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing state file: %w", writeErr)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
