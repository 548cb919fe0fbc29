// Package workqueue implements the WIP-limited, dependency-aware,
// priority-ordered work queue persisted as a single JSON document per
// project.
package workqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
)

// LockTimeout bounds how long queue operations wait for the exclusive
// sidecar lock.
const LockTimeout = 5 * time.Second

// Status is a WorkItem's place in its state machine.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// WorkItem is a single unit of delegated work.
type WorkItem struct {
	ID                  string     `json:"id"`
	Description         string     `json:"description"`
	Agent               string     `json:"agent"`
	Priority            int        `json:"priority"`
	Status              Status     `json:"status"`
	Dependencies        []string   `json:"dependencies"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	EstimatedComplexity *int       `json:"estimated_complexity,omitempty"`
	FailureReason       string     `json:"failure_reason,omitempty"`
}

// State is the whole persisted document.
type State struct {
	WIPLimit            int         `json:"wip_limit"`
	Active              []WorkItem  `json:"active"`
	Queued              []WorkItem  `json:"queued"`
	CompletedIDs        []string    `json:"completed_ids"`
	CompletedTimestamps []time.Time `json:"completed_timestamps"`
}

// StateInvariantViolation is returned for a rejected state transition.
type StateInvariantViolation struct {
	Reason string
}

func (e *StateInvariantViolation) Error() string { return e.Reason }

// Store persists a project's WorkQueueState at <project>/state/work-queue.json.
type Store struct {
	path string
}

// New creates a Store rooted at the given state directory.
func New(stateDir string) *Store {
	return &Store{path: filepath.Join(stateDir, "work-queue.json")}
}

func (s *Store) lockPath() string { return s.path + ".lock" }

func defaultState() State {
	return State{
		WIPLimit:            3,
		Active:              []WorkItem{},
		Queued:              []WorkItem{},
		CompletedIDs:        []string{},
		CompletedTimestamps: []time.Time{},
	}
}

func (s *Store) load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultState(), nil
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		routerlog.Warnf("workqueue: corrupted state file %s, starting fresh: %v", s.path, err)
		return defaultState(), nil
	}
	return st, nil
}

// save writes st atomically: temp file in the same directory, then rename.
func (s *Store) save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".work-queue-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// withLock runs fn with the store's state loaded, persisting any mutation
// fn makes before the exclusive lock is released.
func (s *Store) withLock(fn func(State) (State, error)) (State, error) {
	lock := flock.New(s.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil || !locked {
		return State{}, fmt.Errorf("acquire lock on %s: %w", s.path, err)
	}
	defer lock.Unlock()

	st, err := s.load()
	if err != nil {
		return State{}, err
	}

	newSt, err := fn(st)
	if err != nil {
		return State{}, err
	}

	if err := s.save(newSt); err != nil {
		return State{}, err
	}
	return newSt, nil
}

// Status returns the current persisted state without mutation.
func (s *Store) Status() (State, error) {
	return s.load()
}

// Enqueue appends item in queued status, rejecting any other initial status
// (an empty status is treated as queued).
func (s *Store) Enqueue(item WorkItem) error {
	if item.Status != "" && item.Status != StatusQueued {
		return &StateInvariantViolation{Reason: fmt.Sprintf("item %q cannot be enqueued with status %q", item.ID, item.Status)}
	}
	item.Status = StatusQueued
	_, err := s.withLock(func(st State) (State, error) {
		st.Queued = append(st.Queued, item)
		return st, nil
	})
	return err
}

// dependenciesSatisfied reports whether every dependency id of item is in
// completedIDs.
func dependenciesSatisfied(item WorkItem, completedIDs []string) bool {
	completed := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}
	for _, dep := range item.Dependencies {
		if _, ok := completed[dep]; !ok {
			return false
		}
	}
	return true
}

// countDependents counts, among candidates, how many depend (directly) on
// id — used as the start_next tiebreaker favouring items that unblock the
// most dependents.
func countDependents(id string, candidates []WorkItem) int {
	count := 0
	for _, c := range candidates {
		for _, dep := range c.Dependencies {
			if dep == id {
				count++
				break
			}
		}
	}
	return count
}

// StartNext selects and activates the highest-priority queued item whose
// dependencies are all satisfied, tiebreaking on the number of dependents
// it would unblock and then on id. Returns (nil, nil) when the WIP limit is
// reached or no eligible item exists.
func (s *Store) StartNext(now time.Time) (*WorkItem, error) {
	var started *WorkItem

	_, err := s.withLock(func(st State) (State, error) {
		if len(st.Active) >= st.WIPLimit {
			return st, nil
		}

		var eligible []WorkItem
		for _, item := range st.Queued {
			if dependenciesSatisfied(item, st.CompletedIDs) {
				eligible = append(eligible, item)
			}
		}
		if len(eligible) == 0 {
			return st, nil
		}

		sort.SliceStable(eligible, func(i, j int) bool {
			if eligible[i].Priority != eligible[j].Priority {
				return eligible[i].Priority > eligible[j].Priority
			}
			di := countDependents(eligible[i].ID, st.Queued)
			dj := countDependents(eligible[j].ID, st.Queued)
			if di != dj {
				return di > dj
			}
			return eligible[i].ID < eligible[j].ID
		})

		chosen := eligible[0]
		chosen.Status = StatusInProgress
		startedAt := now
		chosen.StartedAt = &startedAt

		var remaining []WorkItem
		for _, item := range st.Queued {
			if item.ID != chosen.ID {
				remaining = append(remaining, item)
			}
		}
		st.Queued = remaining
		st.Active = append(st.Active, chosen)

		started = &chosen
		return st, nil
	})

	if err != nil {
		return nil, err
	}
	return started, nil
}

var ErrNotFound = errors.New("work item not found")

// Complete transitions id from in_progress to completed.
func (s *Store) Complete(id string, now time.Time) error {
	_, err := s.withLock(func(st State) (State, error) {
		idx := findActive(st.Active, id)
		if idx < 0 {
			return st, &StateInvariantViolation{Reason: fmt.Sprintf("item %q is not in_progress", id)}
		}
		st.Active = removeActive(st.Active, idx)
		st.CompletedIDs = append(st.CompletedIDs, id)
		st.CompletedTimestamps = append(st.CompletedTimestamps, now)
		return st, nil
	})
	return err
}

// Fail transitions id from in_progress to failed.
func (s *Store) Fail(id, reason string, now time.Time) error {
	_, err := s.withLock(func(st State) (State, error) {
		idx := findActive(st.Active, id)
		if idx < 0 {
			return st, &StateInvariantViolation{Reason: fmt.Sprintf("item %q is not in_progress", id)}
		}
		item := st.Active[idx]
		item.Status = StatusFailed
		item.FailureReason = reason
		completedAt := now
		item.CompletedAt = &completedAt

		st.Active = removeActive(st.Active, idx)
		// Failed items are not added to completed_ids: nothing else may
		// treat their id as a satisfied dependency.
		return st, nil
	})
	return err
}

func findActive(active []WorkItem, id string) int {
	for i, item := range active {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func removeActive(active []WorkItem, idx int) []WorkItem {
	out := make([]WorkItem, 0, len(active)-1)
	out = append(out, active[:idx]...)
	out = append(out, active[idx+1:]...)
	return out
}

// RecomputeWIPLimit implements the adaptive WIP policy from spec.md §4.7,
// run periodically (e.g. at session-end) over the last 24h of activity.
func RecomputeWIPLimit(completionRate, stallRate float64) int {
	switch {
	case stallRate > 0.30:
		return 1
	case completionRate > 2.0 && stallRate < 0.10:
		return 4
	default:
		return 3
	}
}

// completionWindow and stallAge bound the adaptive WIP policy's inputs,
// per spec.md §4.7.
const (
	completionWindow = 24 * time.Hour
	stallAge         = 1 * time.Hour
)

// CompletionAndStallRates computes the two adaptive-WIP inputs from st as
// observed at now: completion_rate is completions in the trailing 24h
// divided by 24 (items/hour); stall_rate is the fraction of active items
// whose age exceeds one hour.
func CompletionAndStallRates(st State, now time.Time) (completionRate, stallRate float64) {
	cutoff := now.Add(-completionWindow)
	completions := 0
	for _, ts := range st.CompletedTimestamps {
		if ts.After(cutoff) {
			completions++
		}
	}
	completionRate = float64(completions) / (completionWindow.Hours())

	if len(st.Active) == 0 {
		return completionRate, 0
	}
	stalled := 0
	for _, item := range st.Active {
		if item.StartedAt != nil && now.Sub(*item.StartedAt) > stallAge {
			stalled++
		}
	}
	stallRate = float64(stalled) / float64(len(st.Active))
	return completionRate, stallRate
}

// SetWIPLimit persists a new wip_limit, returning the resulting state.
func (s *Store) SetWIPLimit(limit int) (State, error) {
	return s.withLock(func(st State) (State, error) {
		st.WIPLimit = limit
		return st, nil
	})
}

// Equal reports whether two states marshal identically, used by callers
// that need to check for observable change (e.g. idempotence tests).
func (st State) Equal(other State) bool {
	a, err1 := json.Marshal(st)
	b, err2 := json.Marshal(other)
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(a, b)
}
