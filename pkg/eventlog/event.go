// Package eventlog implements the append-only, per-day JSON-line event log
// that every other component reads or writes to: routing recommendations,
// compliance tracking, agent lifecycle events, and ad-hoc metrics.
package eventlog

import "time"

// RecordType discriminates the kinds of events carried by the log.
type RecordType string

const (
	RecordRoutingRecommendation RecordType = "routing_recommendation"
	RecordRequestTracking       RecordType = "request_tracking"
	RecordAgentEvent            RecordType = "agent_event"
	RecordMetric                RecordType = "metric"
	RecordSessionBriefing       RecordType = "session_briefing"
	RecordSessionSummary        RecordType = "session_summary"
)

// ProjectEnvelope is carried by every event.
type ProjectEnvelope struct {
	ID   string `json:"id"`
	Root string `json:"root"`
	Name string `json:"name"`
}

// ComplianceStatus is the outcome of correlating a routing recommendation
// with the agent subsequently invoked.
type ComplianceStatus string

const (
	ComplianceFollowed    ComplianceStatus = "followed"
	ComplianceIgnored     ComplianceStatus = "ignored"
	ComplianceNoDirective ComplianceStatus = "no_directive"
	ComplianceUnknown     ComplianceStatus = "unknown"
)

// Recommendation is the routing recommendation carried by a
// routing_recommendation event.
type Recommendation struct {
	Agent      string  `json:"agent"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// RoutingRecommendationEvent is emitted by the prompt-submit hook.
type RoutingRecommendationEvent struct {
	RecordType     RecordType      `json:"record_type"`
	Timestamp      time.Time       `json:"timestamp"`
	RequestHash    string          `json:"request_hash"`
	Recommendation Recommendation  `json:"recommendation"`
	FullAnalysis   map[string]any  `json:"full_analysis"`
	Project        ProjectEnvelope `json:"project"`
}

// RequestTrackingEvent is emitted by the Compliance Tracker.
type RequestTrackingEvent struct {
	RecordType        RecordType       `json:"record_type"`
	Timestamp         time.Time        `json:"timestamp"`
	RequestHash       string           `json:"request_hash,omitempty"`
	RoutingDecision   string           `json:"routing_decision"`
	RoutingAgent      string           `json:"routing_agent,omitempty"`
	RoutingConfidence float64          `json:"routing_confidence"`
	ActualHandler     string           `json:"actual_handler"` // "agent" | "main"
	AgentInvoked      bool             `json:"agent_invoked"`
	AgentID           string           `json:"agent_id,omitempty"`
	ComplianceStatus  ComplianceStatus `json:"compliance_status"`
	Project           ProjectEnvelope  `json:"project"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
}

// AgentEventKind distinguishes agent_event sub-types.
type AgentEventKind string

const (
	AgentEventStart AgentEventKind = "agent_start"
	AgentEventStop  AgentEventKind = "agent_stop"
)

// AgentEvent is emitted on SubagentStart/SubagentStop.
type AgentEvent struct {
	RecordType  RecordType      `json:"record_type"`
	Event       AgentEventKind  `json:"event"`
	Timestamp   time.Time       `json:"timestamp"`
	AgentType   string          `json:"agent_type"`
	AgentID     string          `json:"agent_id"`
	ModelTier   string          `json:"model_tier"`
	DurationSec *float64        `json:"duration_sec,omitempty"`
	Project     ProjectEnvelope `json:"project"`
}

// SessionBriefingEvent is emitted by the session-start hook, listing the
// work items still open (queued or in_progress) at session start.
type SessionBriefingEvent struct {
	RecordType    RecordType      `json:"record_type"`
	Timestamp     time.Time       `json:"timestamp"`
	OpenItemCount int             `json:"open_item_count"`
	ActiveItemIDs []string        `json:"active_item_ids"`
	QueuedItemIDs []string        `json:"queued_item_ids"`
	Project       ProjectEnvelope `json:"project"`
}

// SessionSummaryEvent is emitted by the session-end hook: the adaptive WIP
// policy inputs and outcome for that session.
type SessionSummaryEvent struct {
	RecordType     RecordType      `json:"record_type"`
	Timestamp      time.Time       `json:"timestamp"`
	CompletionRate float64         `json:"completion_rate"`
	StallRate      float64         `json:"stall_rate"`
	WIPLimitBefore int             `json:"wip_limit_before"`
	WIPLimitAfter  int             `json:"wip_limit_after"`
	Project        ProjectEnvelope `json:"project"`
}

// MetricEvent is an arbitrary named/valued sample for the aggregator.
type MetricEvent struct {
	RecordType RecordType      `json:"record_type"`
	Solution   string          `json:"solution"`
	Name       string          `json:"name"`
	Value      float64         `json:"value"`
	Timestamp  time.Time       `json:"timestamp"`
	Project    ProjectEnvelope `json:"project"`
}

// RawEvent is the minimally-typed view used by readers that only need to
// discriminate record_type/timestamp before deciding whether to decode
// further. Unknown record types are valid and must be ignored, not
// rejected (spec.md §6).
type RawEvent struct {
	RecordType RecordType      `json:"record_type"`
	Timestamp  time.Time       `json:"timestamp"`
	Project    ProjectEnvelope `json:"project"`
	raw        []byte
}

// Raw returns the original serialized line backing this RawEvent.
func (e RawEvent) Raw() []byte { return e.raw }
