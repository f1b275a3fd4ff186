// Package merge folds candidate records from a scan run into the existing
// record set, enforcing the one-row-per-application invariant.
package merge

import (
	"sort"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// Merge combines the prior snapshot with candidates from all accounts,
// in order, and returns the new snapshot plus the records the run added or
// changed.
//
// Dedup key is (company, position, account). Records are processed prior
// first, then candidates in the order produced, building a keyed map with
// insertion order preserved:
//
//   - a candidate with status "applied" for an existing key is a duplicate
//     observation and is dropped (first occurrence wins);
//   - a candidate with any other status replaces a row carried over from the
//     prior snapshot — a status transition updates rather than duplicates the
//     application;
//   - when the row was already updated to a non-applied status by this run's
//     candidates, later same-key candidates are dropped: candidates arrive
//     newest-first, so the first non-applied observation recorded is the most
//     recent one and older follow-ups must not overwrite it.
//
// The result is sorted by date ascending before persisting. Merging the same
// candidate set twice is a no-op (idempotent under re-application).
func Merge(prior []model.ApplicationRecord, candidates []model.ApplicationRecord) (merged, changed []model.ApplicationRecord) {
	index := make(map[model.RecordKey]int, len(prior)+len(candidates))
	rows := make([]model.ApplicationRecord, 0, len(prior)+len(candidates))

	for _, r := range prior {
		if _, ok := index[r.Key()]; ok {
			continue // a legacy store may carry duplicates; keep the first
		}
		index[r.Key()] = len(rows)
		rows = append(rows, r)
	}

	byThisRun := make(map[model.RecordKey]bool, len(candidates))

	for _, c := range candidates {
		i, seen := index[c.Key()]
		if !seen {
			index[c.Key()] = len(rows)
			rows = append(rows, c)
			byThisRun[c.Key()] = true
			changed = append(changed, c)
			continue
		}

		if c.Status == model.StatusApplied {
			continue // duplicate confirmation of a tracked application
		}

		if byThisRun[c.Key()] && rows[i].Status != model.StatusApplied {
			continue // an older follow-up; the newest non-applied observation stands
		}

		if !sameRecord(rows[i], c) {
			changed = append(changed, c)
		}
		rows[i] = c
		byThisRun[c.Key()] = true
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	return rows, changed
}

// sameRecord compares records field by field with Date.Equal, so the same
// instant expressed in different zones (mail dates keep their offset, CSV
// loads at UTC) does not count as a change.
func sameRecord(a, b model.ApplicationRecord) bool {
	return a.Date.Equal(b.Date) &&
		a.Company == b.Company &&
		a.Position == b.Position &&
		a.Status == b.Status &&
		a.Account == b.Account
}
