// Package sessionflags persists per-session one-shot boolean flags, such as
// the context-threshold warning, across the short-lived hook processes that
// share a session.
package sessionflags

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the session-flags document under a project's state directory.
const FileName = "session-flags.json"

// lockTimeout matches the event log's bounded wait.
const lockTimeout = 5 * time.Second

// Flags is the recognised set of session-scoped one-shot flags.
type Flags struct {
	ContextThresholdWarned bool `json:"context_threshold_warned"`
}

// Store persists Flags for a single project's state directory. Sessions are
// distinguished by the caller (one Store per project/session pairing in
// practice, since the state file lives under the project's directory and a
// single session owns it at a time in this single-host model).
type Store struct {
	path string
}

// New creates a Store rooted at the given state directory.
func New(stateDir string) *Store {
	return &Store{path: filepath.Join(stateDir, FileName)}
}

// Load reads the current flags, defaulting to all-false if the file does
// not exist or is corrupt.
func (s *Store) Load() Flags {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Flags{}
	}
	var f Flags
	if err := json.Unmarshal(data, &f); err != nil {
		return Flags{}
	}
	return f
}

// Clear resets all flags to false. Called at session start.
func (s *Store) Clear() error {
	return s.write(Flags{})
}

// SetContextThresholdWarned sets the warned flag to true under an exclusive
// lock, returning the previous value so callers can detect a false→true
// transition exactly once.
func (s *Store) SetContextThresholdWarned() (alreadySet bool, err error) {
	lock := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, lerr := lock.TryLockContext(ctx, 25*time.Millisecond)
	if lerr != nil || !locked {
		return false, lerr
	}
	defer lock.Unlock()

	f := s.Load()
	if f.ContextThresholdWarned {
		return true, nil
	}
	f.ContextThresholdWarned = true
	return false, s.write(f)
}

func (s *Store) write(f Flags) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "session-flags-*.tmp")
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
