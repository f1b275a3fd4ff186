package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scanResult struct {
	records []model.ApplicationRecord
	err     error
}

// fakeScanner returns scripted results per account and records the watermark
// it was called with.
type fakeScanner struct {
	results    map[string]scanResult
	watermarks map[string]time.Time
}

func (f *fakeScanner) Scan(_ context.Context, account model.Account, watermark time.Time) ([]model.ApplicationRecord, error) {
	if f.watermarks == nil {
		f.watermarks = make(map[string]time.Time)
	}
	f.watermarks[account.Address] = watermark
	r := f.results[account.Address]
	return r.records, r.err
}

type memStore struct {
	records []model.ApplicationRecord
	loadErr error
	saveErr error
	saved   [][]model.ApplicationRecord
}

func (m *memStore) Load() ([]model.ApplicationRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.records, nil
}

func (m *memStore) SaveAtomic(records []model.ApplicationRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, records)
	m.records = records
	return nil
}

type memState struct {
	watermark time.Time
	readErr   error
	writeErr  error
	written   []time.Time
}

func (m *memState) ReadWatermark() (time.Time, error) {
	if m.readErr != nil {
		return time.Time{}, m.readErr
	}
	return m.watermark, nil
}

func (m *memState) WriteWatermark(t time.Time) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, t)
	m.watermark = t
	return nil
}

type captureNotifier struct {
	notified [][]model.ApplicationRecord
	err      error
}

func (c *captureNotifier) Notify(records []model.ApplicationRecord) error {
	c.notified = append(c.notified, records)
	return c.err
}

func rec(company, position, account string, status model.Status, date time.Time) model.ApplicationRecord {
	return model.ApplicationRecord{Date: date, Company: company, Position: position, Status: status, Account: account}
}

var runStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return runStart }

func newTestPipeline(accounts []model.Account, sc Scanner, st *memStore, ws *memState, n *captureNotifier, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	if opts.Backfill == 0 {
		opts.Backfill = 720 * time.Hour
	}
	return New(accounts, sc, st, ws, n, opts, discardLogger())
}

func TestRun_FirstRunUsesBackfillWindow(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{}}
	st := &memStore{}
	ws := &memState{}
	n := &captureNotifier{}

	p := newTestPipeline(accounts, sc, st, ws, n, Options{Backfill: 48 * time.Hour})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}

	want := runStart.Add(-48 * time.Hour)
	if got := sc.watermarks["a@example.com"]; !got.Equal(want) {
		t.Errorf("scan watermark = %v, want %v", got, want)
	}
}

func TestRun_ExistingWatermarkPassedThrough(t *testing.T) {
	wm := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{}}
	ws := &memState{watermark: wm}

	p := newTestPipeline(accounts, sc, &memStore{}, ws, &captureNotifier{}, Options{})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if got := sc.watermarks["a@example.com"]; !got.Equal(wm) {
		t.Errorf("scan watermark = %v, want %v", got, wm)
	}
}

func TestRun_AdvancesWatermarkToRunStart(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{
		"a@example.com": {records: []model.ApplicationRecord{
			rec("Acme", "SWE", "a@example.com", model.StatusApplied, runStart.Add(-time.Hour)),
		}},
	}}
	st := &memStore{}
	ws := &memState{watermark: runStart.Add(-24 * time.Hour)}
	n := &captureNotifier{}

	p := newTestPipeline(accounts, sc, st, ws, n, Options{})
	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if len(ws.written) != 1 || !ws.written[0].Equal(runStart) {
		t.Errorf("watermark writes = %v, want exactly [%v]", ws.written, runStart)
	}
	if !sum.Advanced {
		t.Error("summary.Advanced = false, want true")
	}
	if len(st.saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(st.saved))
	}
	if len(n.notified) != 1 || len(n.notified[0]) != 1 {
		t.Fatalf("expected 1 notification with 1 record, got %v", n.notified)
	}
}

func TestRun_FailedAccountIsIsolated(t *testing.T) {
	accounts := []model.Account{
		{Address: "bad@example.com"},
		{Address: "good@example.com"},
	}
	partial := rec("Acme", "SWE", "bad@example.com", model.StatusApplied, runStart.Add(-time.Hour))
	full := rec("Beta", "SRE", "good@example.com", model.StatusApplied, runStart.Add(-2*time.Hour))
	sc := &fakeScanner{results: map[string]scanResult{
		"bad@example.com":  {records: []model.ApplicationRecord{partial}, err: errors.New("connection reset")},
		"good@example.com": {records: []model.ApplicationRecord{full}},
	}}
	st := &memStore{}
	ws := &memState{watermark: runStart.Add(-24 * time.Hour)}

	p := newTestPipeline(accounts, sc, st, ws, &captureNotifier{}, Options{})
	sum, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() = nil, want error for failed account")
	}

	// Both the healthy account's records and the failed account's partial
	// candidates are persisted.
	if len(st.saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(st.saved))
	}
	if got := len(st.saved[0]); got != 2 {
		t.Errorf("saved %d records, want 2", got)
	}

	if len(ws.written) != 0 {
		t.Errorf("watermark written %v, want no writes after failure", ws.written)
	}
	if sum.Advanced {
		t.Error("summary.Advanced = true, want false")
	}
	if len(sum.FailedAccounts) != 1 || sum.FailedAccounts[0] != "bad@example.com" {
		t.Errorf("FailedAccounts = %v", sum.FailedAccounts)
	}
}

func TestRun_DryRunSkipsSideEffects(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{
		"a@example.com": {records: []model.ApplicationRecord{
			rec("Acme", "SWE", "a@example.com", model.StatusApplied, runStart.Add(-time.Hour)),
		}},
	}}
	st := &memStore{}
	ws := &memState{}
	n := &captureNotifier{}

	p := newTestPipeline(accounts, sc, st, ws, n, Options{DryRun: true})
	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if len(st.saved) != 0 {
		t.Errorf("dry run saved %d snapshots, want 0", len(st.saved))
	}
	if len(ws.written) != 0 {
		t.Errorf("dry run wrote watermark %v, want none", ws.written)
	}
	if len(n.notified) != 0 {
		t.Errorf("dry run notified %v, want none", n.notified)
	}
	if sum.Changed != 1 {
		t.Errorf("summary.Changed = %d, want 1", sum.Changed)
	}
}

func TestRun_NotifyFailureDoesNotBlockWatermark(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{
		"a@example.com": {records: []model.ApplicationRecord{
			rec("Acme", "SWE", "a@example.com", model.StatusApplied, runStart.Add(-time.Hour)),
		}},
	}}
	ws := &memState{}
	n := &captureNotifier{err: errors.New("webhook down")}

	p := newTestPipeline(accounts, sc, &memStore{}, ws, n, Options{})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if len(ws.written) != 1 {
		t.Errorf("watermark writes = %d, want 1", len(ws.written))
	}
}

func TestRun_NoChangesStillSavesAndAdvances(t *testing.T) {
	existing := rec("Acme", "SWE", "a@example.com", model.StatusApplied, runStart.Add(-48*time.Hour))
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{}}
	st := &memStore{records: []model.ApplicationRecord{existing}}
	ws := &memState{watermark: runStart.Add(-24 * time.Hour)}
	n := &captureNotifier{}

	p := newTestPipeline(accounts, sc, st, ws, n, Options{})
	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if sum.Changed != 0 {
		t.Errorf("summary.Changed = %d, want 0", sum.Changed)
	}
	if len(n.notified) != 0 {
		t.Errorf("notified %v for an unchanged run", n.notified)
	}
	if len(ws.written) != 1 {
		t.Errorf("watermark writes = %d, want 1", len(ws.written))
	}
	if len(st.saved) != 1 || len(st.saved[0]) != 1 {
		t.Errorf("saved = %v, want the unchanged snapshot", st.saved)
	}
}

func TestRun_LoadErrorRecoversAsEmpty(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{
		"a@example.com": {records: []model.ApplicationRecord{
			rec("Acme", "SWE", "a@example.com", model.StatusApplied, runStart.Add(-time.Hour)),
		}},
	}}
	st := &memStore{loadErr: errors.New("disk error")}
	ws := &memState{}

	p := newTestPipeline(accounts, sc, st, ws, &captureNotifier{}, Options{})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if len(st.saved) != 1 || len(st.saved[0]) != 1 {
		t.Errorf("saved = %v, want 1 snapshot with 1 record", st.saved)
	}
}

func TestRun_SaveErrorAborts(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{}}
	st := &memStore{saveErr: errors.New("disk full")}
	ws := &memState{}

	p := newTestPipeline(accounts, sc, st, ws, &captureNotifier{}, Options{})
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run() = nil, want save error")
	}
	if len(ws.written) != 0 {
		t.Errorf("watermark written after failed save: %v", ws.written)
	}
}

func TestRun_CorruptWatermarkFallsBackToBackfill(t *testing.T) {
	accounts := []model.Account{{Address: "a@example.com"}}
	sc := &fakeScanner{results: map[string]scanResult{}}
	ws := &memState{readErr: errors.New("yaml: unmarshal error")}

	p := newTestPipeline(accounts, sc, &memStore{}, ws, &captureNotifier{}, Options{Backfill: 24 * time.Hour})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := runStart.Add(-24 * time.Hour)
	if got := sc.watermarks["a@example.com"]; !got.Equal(want) {
		t.Errorf("scan watermark = %v, want %v", got, want)
	}
}
