package model

import (
	"strings"
	"time"
)

// Status is the lifecycle stage of a job application.
type Status string

const (
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusRejected     Status = "rejected"
	StatusAccepted     Status = "accepted"
)

// ParseStatus maps a raw status string to a Status. Unknown values (including
// the literal "None" some classifier responses use for "unset") come back as
// the empty Status, which callers treat as unspecified.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusApplied:
		return StatusApplied
	case StatusInterviewing:
		return StatusInterviewing
	case StatusRejected:
		return StatusRejected
	case StatusAccepted:
		return StatusAccepted
	}
	return ""
}

// ApplicationRecord is one tracked job application. The same shape serves as
// both a scan candidate and a persisted row; at most one record exists per
// (Company, Position, Account) in the durable store.
type ApplicationRecord struct {
	Date     time.Time // date of the observation (email date)
	Company  string
	Position string
	Status   Status
	Account  string // mailbox address the observation came from
}

// RecordKey identifies "the same application" across observations.
type RecordKey struct {
	Company  string
	Position string
	Account  string
}

// Key returns the dedup key for the record.
func (r ApplicationRecord) Key() RecordKey {
	return RecordKey{Company: r.Company, Position: r.Position, Account: r.Account}
}

// DateLayout is the persisted date format. Column order and this layout are
// load-bearing: existing CSV files use them.
const DateLayout = "01-02-2006"

// RecordStore is the durable application table.
type RecordStore interface {
	// Load returns the current snapshot. A missing store is not an error;
	// it loads as empty.
	Load() ([]ApplicationRecord, error)
	// SaveAtomic replaces the snapshot. Either the whole write succeeds or
	// the previous snapshot is left untouched.
	SaveAtomic(records []ApplicationRecord) error
}

// WatermarkStore persists the cutoff timestamp between runs.
type WatermarkStore interface {
	// ReadWatermark returns the last successful run time, or the zero time
	// when no run has completed yet.
	ReadWatermark() (time.Time, error)
	WriteWatermark(t time.Time) error
}

// Notifier reports records that a sync run added or changed.
type Notifier interface {
	Notify(records []ApplicationRecord) error
}
