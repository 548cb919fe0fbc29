package hooks

import (
	"testing"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/project"
	"github.com/yannickloth/claude-router-system-sub002/pkg/registry"
	"github.com/yannickloth/claude-router-system-sub002/pkg/router"
	"github.com/yannickloth/claude-router-system-sub002/pkg/sessionflags"
)

// TestTwoProjectsProduceDisjointLogs drives a prompt-submit and an
// agent-start through two distinct project contexts, each with its own
// metrics directory (as project.DataDir would derive from distinct
// project ids), and asserts neither project's event log observes the
// other's events.
func TestTwoProjectsProduceDisjointLogs(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	depsFor := func(root string) (Deps, string) {
		metricsDir := t.TempDir()
		stateDir := t.TempDir()
		reg, err := registry.New([]registry.Definition{
			{ID: "haiku-general", ModelTier: registry.TierHaiku, Keywords: []string{"typo", "fix", "readme"}},
		}, registry.NewLoader("", ""))
		if err != nil {
			t.Fatalf("registry.New: %v", err)
		}
		return Deps{
			Project:   project.Project{ID: project.ID(root), Root: root, Name: "proj"},
			Config:    project.Config{RouterEnabled: true},
			Log:       eventlog.New(metricsDir),
			Flags:     sessionflags.New(stateDir),
			Registry:  reg,
			Matcher:   router.KeywordMatcher{Agents: reg.List()},
			RouterCfg: router.DefaultConfig(),
			Stdout:    nopWriter{},
			Stderr:    nopWriter{},
			Now:       now,
		}, metricsDir
	}

	depsA, _ := depsFor("/tmp/A")
	depsB, _ := depsFor("/tmp/B")

	if depsA.Project.ID == depsB.Project.ID {
		t.Fatalf("expected distinct project ids, got %q for both", depsA.Project.ID)
	}

	PromptSubmit(depsA, PromptSubmitInput{Prompt: "Fix typo in README.md"})
	AgentStart(depsA, AgentStartInput{AgentType: "haiku-general", AgentID: "a1"})

	PromptSubmit(depsB, PromptSubmitInput{Prompt: "Fix typo in README.md"})

	eventsA, err := depsA.Log.ReadRange(now, now)
	if err != nil {
		t.Fatalf("ReadRange A: %v", err)
	}
	eventsB, err := depsB.Log.ReadRange(now, now)
	if err != nil {
		t.Fatalf("ReadRange B: %v", err)
	}

	if len(eventsA) != 3 {
		t.Fatalf("project A: expected 3 events (recommendation + agent_start + request_tracking), got %d", len(eventsA))
	}
	if len(eventsB) != 1 {
		t.Fatalf("project B: expected 1 event (recommendation only), got %d", len(eventsB))
	}

	for _, e := range eventsA {
		if e.Project.ID != depsA.Project.ID {
			t.Fatalf("project A event carries id %q, want %q", e.Project.ID, depsA.Project.ID)
		}
	}
	for _, e := range eventsB {
		if e.Project.ID != depsB.Project.ID {
			t.Fatalf("project B event carries id %q, want %q", e.Project.ID, depsB.Project.ID)
		}
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
