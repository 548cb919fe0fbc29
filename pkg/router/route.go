package router

import (
	"fmt"
	"strings"
)

// maxRequestLength is the inclusive upper bound on request size after
// stripping, per the input-validation stage.
const maxRequestLength = 10000

// KeywordConfidenceThreshold and SemanticConfidenceThreshold are the
// default per-matcher thresholds; callers may override via Config.
const (
	KeywordConfidenceThreshold  = 0.8
	SemanticConfidenceThreshold = 0.7
)

// Config parameterises a single Route call.
type Config struct {
	// KeywordThreshold and SemanticThreshold gate trigger (g).
	// SemanticThreshold applies whenever the matcher is a SemanticMatcher,
	// including calls where it fell back to its keyword matcher;
	// KeywordThreshold applies to every other matcher.
	KeywordThreshold  float64
	SemanticThreshold float64
}

// DefaultConfig returns the spec's default thresholds.
func DefaultConfig() Config {
	return Config{KeywordThreshold: KeywordConfidenceThreshold, SemanticThreshold: SemanticConfidenceThreshold}
}

// InputInvalidError is raised when a request fails the validation stage.
type InputInvalidError struct {
	Reason string
}

func (e *InputInvalidError) Error() string {
	return e.Reason
}

// validate enforces "non-empty string of length <= 10000 after stripping".
func validate(request string) (string, error) {
	trimmed := strings.TrimSpace(request)
	if trimmed == "" {
		return "", &InputInvalidError{Reason: "request is empty/invalid"}
	}
	if len(trimmed) > maxRequestLength {
		return "", &InputInvalidError{Reason: fmt.Sprintf("request is invalid: exceeds %d bytes", maxRequestLength)}
	}
	return trimmed, nil
}

// Route is the Router Core's pure function: request -> RoutingDecision.
// A request that fails validation yields an *InputInvalidError and no
// decision; hook-layer callers use RouteSafe instead, which converts that
// error into an ESCALATE decision. RequestHash is computed over request
// exactly as given, before trimming.
func Route(request string, matcher Matcher, cfg Config) (RoutingDecision, error) {
	trimmed, err := validate(request)
	if err != nil {
		return RoutingDecision{}, err
	}
	lower := strings.ToLower(trimmed)

	switch {
	case triggerA(lower):
		return escalate("Request contains complexity signal keywords", 1.0, request), nil
	case triggerB(lower):
		return escalate("Bulk destructive operation", 1.0, request), nil
	case triggerC(lower):
		return escalate("File operation needs path discovery", 1.0, request), nil
	case triggerD(lower):
		return escalate("Agent definition modification", 1.0, request), nil
	case triggerE(lower):
		return escalate("Multiple objectives", 1.0, request), nil
	case triggerF(lower):
		return escalate("Creation/design requires planning", 1.0, request), nil
	case triggerH(lower):
		return escalate("Meta-request about routing", 1.0, request), nil
	}

	// Triggers a-f and h have failed; consult the matcher once.
	match := matcher.Match(trimmed)

	threshold := cfg.KeywordThreshold
	if _, ok := matcher.(SemanticMatcher); ok {
		threshold = cfg.SemanticThreshold
	}

	if match.AgentID == "" || match.Confidence < threshold {
		// Step 4 exception: an explicit, syntactically simple file
		// reference bypasses the confidence threshold.
		if hasExplicitPath(lower) && conjunctionCount(lower) <= 1 && match.AgentID != "" {
			return direct(match.AgentID, "Explicit file reference bypasses confidence threshold", match.Confidence, request), nil
		}
		return escalate(fmt.Sprintf("Low confidence match (%.2f)", match.Confidence), 1.0, request), nil
	}

	return direct(match.AgentID, "High-confidence agent match", match.Confidence, request), nil
}

// RouteSafe wraps Route so that it never returns an error: InputInvalidError
// is translated into an ESCALATE decision, per the Router Core's contract
// that it "never throws to the hook layer".
func RouteSafe(request string, matcher Matcher, cfg Config) RoutingDecision {
	decision, err := Route(request, matcher, cfg)
	if err == nil {
		return decision
	}

	if invalidErr, ok := err.(*InputInvalidError); ok {
		return escalate(invalidErr.Reason, 1.0, request)
	}
	return escalate(fmt.Sprintf("routing failed: %v", err), 1.0, request)
}
