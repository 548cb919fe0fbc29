package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPutAndGetRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	entry := Entry{
		Key:         Key("fix the typo", "ctxhash"),
		RequestText: "fix the typo",
		AgentUsed:   "haiku-general",
		Result:      "done",
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ContextHash: "ctxhash",
		TTLDays:     30,
	}
	if err := store.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(entry.Key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.AgentUsed != "haiku-general" {
		t.Fatalf("agent_used = %q", got.AgentUsed)
	}
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	store := New(t.TempDir())
	_, ok, err := store.Get("nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss")
	}
}

func TestValidRejectsExpiredEntry(t *testing.T) {
	entry := Entry{Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), TTLDays: 1, ContextHash: "x"}
	now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	if Valid(entry, now, "x") {
		t.Fatal("expected expired entry to be invalid")
	}
}

func TestValidRejectsContextHashMismatch(t *testing.T) {
	entry := Entry{Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), TTLDays: 30, ContextHash: "old"}
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if Valid(entry, now, "new") {
		t.Fatal("expected context hash mismatch to invalidate entry")
	}
}

func TestContextHashChangesWhenDependencyMtimeChanges(t *testing.T) {
	root := t.TempDir()
	depPath := filepath.Join(root, "dep.go")
	if err := os.WriteFile(depPath, []byte("package x"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := ContextHash(root, []string{"*.go"})
	if err != nil {
		t.Fatalf("ContextHash: %v", err)
	}

	later := time.Now().Add(1 * time.Hour)
	if err := os.Chtimes(depPath, later, later); err != nil {
		t.Fatal(err)
	}

	second, err := ContextHash(root, []string{"*.go"})
	if err != nil {
		t.Fatalf("ContextHash: %v", err)
	}

	if first == second {
		t.Fatal("expected context hash to change after dependency mtime changed")
	}
}
