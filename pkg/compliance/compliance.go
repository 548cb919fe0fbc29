// Package compliance implements the Compliance Tracker: correlating a
// routing recommendation with the agent subsequently invoked, purely by
// temporal proximity, since the host does not propagate a request id
// through to the agent-start hook.
package compliance

import (
	"encoding/json"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
)

// Window is the temporal correlation window between a routing
// recommendation and the agent invocation it is compared against.
const Window = 60 * time.Second

// tailLines is the bound on how far back TrackInvocation scans today's log
// looking for the most recent routing_recommendation.
const tailLines = 200

// recommendationView is the subset of a routing_recommendation event this
// package needs, decoded from RawEvent.Raw().
type recommendationView struct {
	Timestamp      time.Time               `json:"timestamp"`
	RequestHash    string                  `json:"request_hash"`
	Recommendation eventlog.Recommendation `json:"recommendation"`
}

// TrackInvocation correlates the most recent routing recommendation within
// Window of now against the agent actually invoked, emits a
// request_tracking event, and returns the resulting event (so callers may
// decide whether to warn on stderr).
func TrackInvocation(log *eventlog.Log, project eventlog.ProjectEnvelope, agentID string, now time.Time) (eventlog.RequestTrackingEvent, error) {
	raw, err := log.TailLines(now, tailLines)
	if err != nil {
		return eventlog.RequestTrackingEvent{}, err
	}

	rec, found := mostRecentRecommendation(raw, now)

	evt := eventlog.RequestTrackingEvent{
		RecordType:    eventlog.RecordRequestTracking,
		Timestamp:     now,
		ActualHandler: "agent",
		AgentInvoked:  true,
		AgentID:       agentID,
		Project:       project,
	}

	if !found {
		evt.ComplianceStatus = eventlog.ComplianceUnknown
		if err := log.Append(now, evt); err != nil {
			return evt, err
		}
		return evt, nil
	}

	evt.RequestHash = rec.RequestHash
	evt.RoutingDecision = recDecisionLabel(rec)
	evt.RoutingAgent = rec.Recommendation.Agent
	evt.RoutingConfidence = rec.Recommendation.Confidence
	evt.ComplianceStatus = classify(rec, agentID)

	if err := log.Append(now, evt); err != nil {
		return evt, err
	}

	if evt.ComplianceStatus == eventlog.ComplianceIgnored {
		routerlog.Warnf("compliance: ignored — recommended %q, invoked %q", evt.RoutingAgent, agentID)
	}

	return evt, nil
}

// recDecisionLabel reports whether the recommendation was a direct route
// (non-empty agent) or an escalation (empty agent), matching the labels
// used in routing_recommendation.full_analysis.decision.
func recDecisionLabel(rec recommendationView) string {
	if rec.Recommendation.Agent == "" {
		return "ESCALATE"
	}
	return "DIRECT"
}

// classify implements the compliance table from spec.md §4.6.
func classify(rec recommendationView, invokedAgentID string) eventlog.ComplianceStatus {
	recommended := rec.Recommendation.Agent
	if recommended == "" {
		// ESCALATE, agent = null: any escalation counts as followed.
		return eventlog.ComplianceFollowed
	}
	if recommended == invokedAgentID {
		return eventlog.ComplianceFollowed
	}
	return eventlog.ComplianceIgnored
}

// mostRecentRecommendation scans raw (oldest-first, as returned by
// TailLines) for the most recent routing_recommendation event whose
// timestamp is within Window of now.
func mostRecentRecommendation(raw []eventlog.RawEvent, now time.Time) (recommendationView, bool) {
	var best recommendationView
	found := false

	for _, r := range raw {
		if r.RecordType != eventlog.RecordRoutingRecommendation {
			continue
		}
		var rec recommendationView
		if err := json.Unmarshal(r.Raw(), &rec); err != nil {
			continue
		}
		delta := now.Sub(rec.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta > Window {
			continue
		}
		if !found || rec.Timestamp.After(best.Timestamp) {
			best = rec
			found = true
		}
	}

	return best, found
}
