package hooks

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/compliance"
	"github.com/yannickloth/claude-router-system-sub002/pkg/contextmon"
	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/project"
	"github.com/yannickloth/claude-router-system-sub002/pkg/registry"
	"github.com/yannickloth/claude-router-system-sub002/pkg/router"
	"github.com/yannickloth/claude-router-system-sub002/pkg/sessionflags"
	"github.com/yannickloth/claude-router-system-sub002/pkg/workqueue"
)

// Deps bundles everything a hook handler needs, resolved once per
// invocation by the cmd/hook binary from the detected Project.
type Deps struct {
	Project   project.Project
	Config    project.Config
	Log       *eventlog.Log
	Flags     *sessionflags.Store
	Registry  *registry.Registry
	Matcher   router.Matcher
	RouterCfg router.Config
	WorkQueue *workqueue.Store
	Stdout    io.Writer
	Stderr    io.Writer
	Now       time.Time
}

// PromptSubmit implements the prompt-submit hook: route the request,
// record a routing_recommendation event, and advise the host via stdout.
func PromptSubmit(d Deps, in PromptSubmitInput) {
	if !d.Config.RouterEnabled {
		return // echo prompt-through: no side effects, nothing on stdout
	}

	decision := router.RouteSafe(in.Prompt, d.Matcher, d.RouterCfg)

	agent := ""
	if decision.Agent != nil {
		agent = *decision.Agent
	}

	event := eventlog.RoutingRecommendationEvent{
		RecordType:  eventlog.RecordRoutingRecommendation,
		Timestamp:   d.Now,
		RequestHash: decision.RequestHash,
		Recommendation: eventlog.Recommendation{
			Agent:      agent,
			Reason:     decision.Reason,
			Confidence: decision.Confidence,
		},
		FullAnalysis: map[string]any{
			"decision":   string(decision.Decision),
			"confidence": decision.Confidence,
		},
		Project: eventlog.ProjectEnvelope{ID: d.Project.ID, Root: d.Project.Root, Name: d.Project.Name},
	}
	if err := d.Log.Append(d.Now, event); err != nil {
		routerlog.Warnf("prompt-submit: appending routing_recommendation: %v", err)
	}

	payload := fmt.Sprintf(`{"decision":%q,"agent":%q,"reason":%q,"confidence":%.2f,"request_hash":%q}`,
		decision.Decision, agent, decision.Reason, decision.Confidence, decision.RequestHash)
	fmt.Fprint(d.Stdout, writeEnvelope(RoutingRecommendationTag, payload))
	fmt.Fprint(d.Stdout, writeEnvelope(CurrentDatetimeTag, d.Now.Format(time.RFC3339)))

	fmt.Fprintf(d.Stderr, "router: %s%s (confidence %.2f) — %s\n",
		decision.Decision, agentSuffix(agent), decision.Confidence, decision.Reason)

	if in.TranscriptPath != "" {
		checkContextThreshold(d, in.TranscriptPath)
	}
}

func agentSuffix(agent string) string {
	if agent == "" {
		return ""
	}
	return " -> " + agent
}

func checkContextThreshold(d Deps, transcriptPath string) {
	result, _, err := contextmon.Check(d.Flags, transcriptPath, contextmon.DefaultWindowTokens)
	if err != nil {
		routerlog.Warnf("prompt-submit: context threshold check: %v", err)
		return
	}
	if !result.ShouldWarn {
		return
	}
	fmt.Fprintf(d.Stderr, "router: warning: estimated context usage at %.0f%% of window\n", result.Fraction*100)
	fmt.Fprint(d.Stdout, writeEnvelope(ContextWarningTag,
		fmt.Sprintf(`{"fraction":%.3f,"estimated_tokens":%d}`, result.Fraction, result.EstimatedTokens)))
}

// AgentStart implements the agent-start hook: record an agent_start event
// and run the Compliance Tracker.
func AgentStart(d Deps, in AgentStartInput) {
	tier := d.Registry.ModelTier(in.AgentType)

	event := eventlog.AgentEvent{
		RecordType: eventlog.RecordAgentEvent,
		Event:      eventlog.AgentEventStart,
		Timestamp:  d.Now,
		AgentType:  sanitizeFreeText(in.AgentType),
		AgentID:    in.AgentID,
		ModelTier:  string(tier),
		Project:    eventlog.ProjectEnvelope{ID: d.Project.ID, Root: d.Project.Root, Name: d.Project.Name},
	}
	if err := d.Log.Append(d.Now, event); err != nil {
		routerlog.Warnf("agent-start: appending agent_event: %v", err)
	}

	envelope := eventlog.ProjectEnvelope{ID: d.Project.ID, Root: d.Project.Root, Name: d.Project.Name}
	if _, err := compliance.TrackInvocation(d.Log, envelope, in.AgentType, d.Now); err != nil {
		routerlog.Warnf("agent-start: compliance tracking: %v", err)
	}

	fmt.Fprintf(d.Stderr, "router: agent_start %s (%s)\n", in.AgentType, tier)
}

// AgentStop implements the agent-stop hook: record an agent_stop event with
// the looked-up model tier, sanitising any free-text fields.
func AgentStop(d Deps, in AgentStopInput) {
	tier := d.Registry.ModelTier(in.AgentType)
	duration := in.DurationSec

	event := eventlog.AgentEvent{
		RecordType:  eventlog.RecordAgentEvent,
		Event:       eventlog.AgentEventStop,
		Timestamp:   d.Now,
		AgentType:   sanitizeFreeText(in.AgentType),
		AgentID:     in.AgentID,
		ModelTier:   string(tier),
		DurationSec: &duration,
		Project:     eventlog.ProjectEnvelope{ID: d.Project.ID, Root: d.Project.Root, Name: d.Project.Name},
	}
	if err := d.Log.Append(d.Now, event); err != nil {
		routerlog.Warnf("agent-stop: appending agent_event: %v", err)
	}

	fmt.Fprintf(d.Stderr, "router: agent_stop %s status=%s duration=%.1fs\n",
		in.AgentType, sanitizeFreeText(in.Status), duration)
}

// SessionStart implements the session-start hook: clear session flags and
// emit a morning briefing event listing open work items.
func SessionStart(d Deps, in SessionStartInput) {
	if err := d.Flags.Clear(); err != nil {
		routerlog.Warnf("session-start: clearing flags: %v", err)
	}

	if d.WorkQueue == nil {
		return
	}
	st, err := d.WorkQueue.Status()
	if err != nil {
		routerlog.Warnf("session-start: reading work queue: %v", err)
		return
	}

	activeIDs := itemIDs(st.Active)
	queuedIDs := itemIDs(st.Queued)

	event := eventlog.SessionBriefingEvent{
		RecordType:    eventlog.RecordSessionBriefing,
		Timestamp:     d.Now,
		OpenItemCount: len(activeIDs) + len(queuedIDs),
		ActiveItemIDs: activeIDs,
		QueuedItemIDs: queuedIDs,
		Project:       eventlog.ProjectEnvelope{ID: d.Project.ID, Root: d.Project.Root, Name: d.Project.Name},
	}
	if err := d.Log.Append(d.Now, event); err != nil {
		routerlog.Warnf("session-start: appending session_briefing: %v", err)
	}

	payload := fmt.Sprintf(`{"open_item_count":%d,"active":%d,"queued":%d}`,
		event.OpenItemCount, len(activeIDs), len(queuedIDs))
	fmt.Fprint(d.Stdout, writeEnvelope(SessionBriefingTag, payload))
	fmt.Fprintf(d.Stderr, "router: session briefing — %d open work item(s) (%d active, %d queued)\n",
		event.OpenItemCount, len(activeIDs), len(queuedIDs))
}

func itemIDs(items []workqueue.WorkItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

// SessionEnd implements the session-end hook: persist a summary event and
// run the adaptive WIP policy (spec.md §4.5, §4.7).
func SessionEnd(d Deps, in SessionEndInput) {
	if d.WorkQueue == nil {
		return
	}
	st, err := d.WorkQueue.Status()
	if err != nil {
		routerlog.Warnf("session-end: reading work queue: %v", err)
		return
	}

	completionRate, stallRate := workqueue.CompletionAndStallRates(st, d.Now)
	newLimit := workqueue.RecomputeWIPLimit(completionRate, stallRate)

	if newLimit != st.WIPLimit {
		if _, err := d.WorkQueue.SetWIPLimit(newLimit); err != nil {
			routerlog.Warnf("session-end: adjusting wip_limit: %v", err)
		}
	}

	event := eventlog.SessionSummaryEvent{
		RecordType:     eventlog.RecordSessionSummary,
		Timestamp:      d.Now,
		CompletionRate: completionRate,
		StallRate:      stallRate,
		WIPLimitBefore: st.WIPLimit,
		WIPLimitAfter:  newLimit,
		Project:        eventlog.ProjectEnvelope{ID: d.Project.ID, Root: d.Project.Root, Name: d.Project.Name},
	}
	if err := d.Log.Append(d.Now, event); err != nil {
		routerlog.Warnf("session-end: appending session_summary: %v", err)
	}

	fmt.Fprintf(d.Stderr, "router: session summary — completion_rate=%.2f stall_rate=%.2f wip_limit %d->%d\n",
		completionRate, stallRate, st.WIPLimit, newLimit)
}

// PreToolUse implements the pre-tool-use hook: approve by default.
func PreToolUse(d Deps, in PreToolUseInput) SyncHookJSONOutput {
	return SyncHookJSONOutput{Decision: "approve"}
}

// Exit always returns 0: hooks never propagate failure status to the
// host, per the contract in spec.md §4.5/§7.
func Exit() {
	os.Exit(0)
}
