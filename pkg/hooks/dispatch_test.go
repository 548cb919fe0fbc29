package hooks

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/project"
	"github.com/yannickloth/claude-router-system-sub002/pkg/registry"
	"github.com/yannickloth/claude-router-system-sub002/pkg/router"
	"github.com/yannickloth/claude-router-system-sub002/pkg/sessionflags"
	"github.com/yannickloth/claude-router-system-sub002/pkg/workqueue"
)

func testDeps(t *testing.T, metricsDir, stateDir string) (Deps, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	reg, err := registry.New([]registry.Definition{
		{ID: "haiku-general", ModelTier: registry.TierHaiku, Keywords: []string{"typo", "fix", "readme"}},
	}, registry.NewLoader("", ""))
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}

	matcher := router.KeywordMatcher{Agents: reg.List()}

	return Deps{
		Project:   project.Project{ID: "proj1", Root: "/tmp/proj1", Name: "proj1"},
		Config:    project.Config{RouterEnabled: true},
		Log:       eventlog.New(metricsDir),
		Flags:     sessionflags.New(stateDir),
		Registry:  reg,
		Matcher:   matcher,
		RouterCfg: router.DefaultConfig(),
		WorkQueue: workqueue.New(stateDir),
		Stdout:    &stdout,
		Stderr:    &stderr,
		Now:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}, &stdout, &stderr
}

func TestPromptSubmitWritesRoutingRecommendationEnvelopeAndEvent(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, stdout, stderr := testDeps(t, metricsDir, stateDir)

	PromptSubmit(d, PromptSubmitInput{Prompt: "Fix typo in README.md"})

	if !strings.Contains(stdout.String(), "<routing-recommendation>") {
		t.Fatalf("expected routing-recommendation envelope in stdout, got: %s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "<current-datetime>") {
		t.Fatalf("expected current-datetime envelope in stdout")
	}
	if stderr.Len() == 0 {
		t.Fatal("expected a human-readable summary on stderr")
	}

	events, err := d.Log.ReadRange(d.Now, d.Now)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].RecordType != eventlog.RecordRoutingRecommendation {
		t.Fatalf("record_type = %v", events[0].RecordType)
	}
}

func TestPromptSubmitNoOpWhenRouterDisabled(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, stdout, _ := testDeps(t, metricsDir, stateDir)
	d.Config.RouterEnabled = false

	PromptSubmit(d, PromptSubmitInput{Prompt: "Fix typo in README.md"})

	if stdout.Len() != 0 {
		t.Fatalf("expected no stdout output when router disabled, got: %s", stdout.String())
	}
	events, err := d.Log.ReadRange(d.Now, d.Now)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events when router disabled, got %d", len(events))
	}
}

func TestAgentStartTracksComplianceAndLogsEvent(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, _, stderr := testDeps(t, metricsDir, stateDir)

	PromptSubmit(d, PromptSubmitInput{Prompt: "Fix typo in README.md"})
	AgentStart(d, AgentStartInput{AgentType: "haiku-general", AgentID: "a1"})

	events, err := d.Log.ReadRange(d.Now, d.Now)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}

	var sawAgentEvent, sawTracking bool
	for _, e := range events {
		switch e.RecordType {
		case eventlog.RecordAgentEvent:
			sawAgentEvent = true
		case eventlog.RecordRequestTracking:
			sawTracking = true
		}
	}
	if !sawAgentEvent || !sawTracking {
		t.Fatalf("expected both agent_event and request_tracking, got %d events", len(events))
	}
	if !strings.Contains(stderr.String(), "agent_start") {
		t.Fatalf("expected agent_start line on stderr, got: %s", stderr.String())
	}
}

func TestSessionStartClearsFlags(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, _, _ := testDeps(t, metricsDir, stateDir)

	if _, err := d.Flags.SetContextThresholdWarned(); err != nil {
		t.Fatal(err)
	}
	SessionStart(d, SessionStartInput{})
	if d.Flags.Load().ContextThresholdWarned {
		t.Fatal("expected flags cleared after session-start")
	}
}

func TestSessionStartEmitsBriefingForOpenItems(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, stdout, _ := testDeps(t, metricsDir, stateDir)

	if err := d.WorkQueue.Enqueue(workqueue.WorkItem{ID: "a", Priority: 1}); err != nil {
		t.Fatal(err)
	}
	if err := d.WorkQueue.Enqueue(workqueue.WorkItem{ID: "b", Priority: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WorkQueue.StartNext(d.Now); err != nil {
		t.Fatal(err)
	}

	SessionStart(d, SessionStartInput{})

	if !strings.Contains(stdout.String(), "<session-briefing>") {
		t.Fatalf("expected session-briefing envelope in stdout, got: %s", stdout.String())
	}
	if !strings.Contains(stdout.String(), `"open_item_count":2`) {
		t.Fatalf("expected open_item_count 2 in briefing, got: %s", stdout.String())
	}

	events, err := d.Log.ReadRange(d.Now, d.Now)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	var sawBriefing bool
	for _, e := range events {
		if e.RecordType == eventlog.RecordSessionBriefing {
			sawBriefing = true
		}
	}
	if !sawBriefing {
		t.Fatal("expected a session_briefing event")
	}
}

func TestSessionEndPersistsSummaryAndAdjustsWIPLimit(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, _, stderr := testDeps(t, metricsDir, stateDir)

	if err := d.WorkQueue.Enqueue(workqueue.WorkItem{ID: "a", Priority: 1}); err != nil {
		t.Fatal(err)
	}
	item, err := d.WorkQueue.StartNext(d.Now.Add(-2 * time.Hour))
	if err != nil || item == nil {
		t.Fatalf("StartNext: item=%v err=%v", item, err)
	}

	SessionEnd(d, SessionEndInput{})

	if !strings.Contains(stderr.String(), "session summary") {
		t.Fatalf("expected session summary line on stderr, got: %s", stderr.String())
	}

	st, err := d.WorkQueue.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	// One active item stalled (age > 1h) out of one active: stall_rate=1.0 > 0.30 -> wip_limit 1.
	if st.WIPLimit != 1 {
		t.Fatalf("wip_limit = %d, want 1 (stall_rate forces the floor)", st.WIPLimit)
	}

	events, err := d.Log.ReadRange(d.Now, d.Now)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	var sawSummary bool
	for _, e := range events {
		if e.RecordType == eventlog.RecordSessionSummary {
			sawSummary = true
		}
	}
	if !sawSummary {
		t.Fatal("expected a session_summary event")
	}
}

func TestPreToolUseApprovesByDefault(t *testing.T) {
	metricsDir := t.TempDir()
	stateDir := t.TempDir()
	d, _, _ := testDeps(t, metricsDir, stateDir)

	out := PreToolUse(d, PreToolUseInput{ToolName: "Bash"})
	if out.Decision != "approve" {
		t.Fatalf("decision = %q, want approve", out.Decision)
	}
}
