package hooks

import "fmt"

// writeEnvelope frames payload between a literal delimiter pair the host
// recognises, per spec.md §6: <tag>...</tag>.
func writeEnvelope(tag, payload string) string {
	return fmt.Sprintf("<%s>\n%s\n</%s>\n", tag, payload, tag)
}

// RoutingRecommendationTag is the stdout delimiter wrapping a routing
// decision for host context injection.
const RoutingRecommendationTag = "routing-recommendation"

// CurrentDatetimeTag wraps an ISO-8601 timestamp the host can use to
// ground relative-time language in its own context.
const CurrentDatetimeTag = "current-datetime"

// ContextWarningTag wraps a context-threshold warning advisory, offering
// the host a hook to propose a continuation prompt.
const ContextWarningTag = "context-threshold-warning"

// SessionBriefingTag wraps the session-start work queue summary.
const SessionBriefingTag = "session-briefing"
