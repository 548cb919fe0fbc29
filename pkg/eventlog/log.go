package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
)

// LockTimeout bounds how long Append/ReadRange wait to acquire the sidecar
// lock before giving up, matching the teacher's per-file lock timeout.
const LockTimeout = 5 * time.Second

const dateLayout = "2006-01-02"

// Log is an append-only, per-day JSONL event log rooted at a project's
// metrics directory.
type Log struct {
	dir string // <project>/metrics
}

// New creates a Log rooted at the given metrics directory. The directory is
// not created here; callers are expected to have obtained it via
// project.DataDir(..., project.KindMetrics).
func New(metricsDir string) *Log {
	return &Log{dir: metricsDir}
}

func (l *Log) pathForDate(date time.Time) string {
	return filepath.Join(l.dir, date.Format(dateLayout)+".jsonl")
}

// Append serialises event to one JSON line and appends it to today's daily
// file under an exclusive advisory lock. On lock timeout or any I/O error,
// it logs a warning and returns the error — callers at the hook layer must
// treat this as non-fatal (skip the side effect, keep going).
func (l *Log) Append(now time.Time, event any) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	path := l.pathForDate(now)
	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		routerlog.Warnf("eventlog: mkdir %s: %v", l.dir, err)
		return err
	}

	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil || !locked {
		routerlog.Warnf("eventlog: lock timeout on %s", path)
		return fmt.Errorf("acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		routerlog.Warnf("eventlog: open %s: %v", path, err)
		return err
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		routerlog.Warnf("eventlog: write %s: %v", path, err)
		return err
	}
	return nil
}

// ReadRange returns every event recorded in daily files between since and
// until (inclusive, by calendar date). Malformed lines are skipped with a
// warning rather than aborting the read. Missing daily files are silently
// treated as empty.
func (l *Log) ReadRange(since, until time.Time) ([]RawEvent, error) {
	var events []RawEvent

	for d := truncateDay(since); !d.After(truncateDay(until)); d = d.AddDate(0, 0, 1) {
		path := l.pathForDate(d)
		dayEvents, err := l.readFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return events, err
		}
		events = append(events, dayEvents...)
	}

	return events, nil
}

func (l *Log) readFile(path string) ([]RawEvent, error) {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := lock.TryRLockContext(ctx, 25*time.Millisecond)
	if err == nil && locked {
		defer lock.Unlock()
	}
	// A lock timeout on a read is not fatal: we proceed and read whatever is
	// on disk rather than blocking the caller indefinitely.

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []RawEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var evt RawEvent
		if err := json.Unmarshal(line, &evt); err != nil {
			routerlog.Warnf("eventlog: %s:%d: malformed line skipped: %v", path, lineNo, err)
			continue
		}
		evt.raw = append([]byte(nil), line...)
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return events, err
	}

	return events, nil
}

// TailLines reads the last n well-formed lines of today's daily file,
// implementing the bounded-scan contract the Compliance Tracker relies on
// (spec.md §4.6: "the last N ≈ 200 lines").
func (l *Log) TailLines(now time.Time, n int) ([]RawEvent, error) {
	events, err := l.readFile(l.pathForDate(now))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(events) <= n {
		return events, nil
	}
	return events[len(events)-n:], nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Cleanup deletes daily files strictly older than retentionDays, counted
// from "now". It never touches files outside this Log's own directory tree
// (state/, memory/, and cache/ live elsewhere per the project data layout).
func (l *Log) Cleanup(now time.Time, retentionDays int) (int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := truncateDay(now).AddDate(0, 0, -retentionDays)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	deleted := 0
	for _, name := range names {
		dateStr := name[:len(name)-len(".jsonl")]
		date, err := time.ParseInLocation(dateLayout, dateStr, now.Location())
		if err != nil {
			continue // not a daily file we recognise; leave it alone
		}
		if date.Before(cutoff) {
			path := filepath.Join(l.dir, name)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return deleted, err
			}
			os.Remove(path + ".lock")
			deleted++
		}
	}

	return deleted, nil
}
