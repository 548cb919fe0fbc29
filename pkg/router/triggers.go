package router

import (
	"regexp"
	"strings"
)

// judgmentKeywords signal that a request needs a design/trade-off decision
// rather than mechanical execution.
var judgmentKeywords = []string{
	"complex", "best", "should i", "recommend", "design",
	"architecture", "strategy", "trade-off", "tradeoff",
	"which approach", "decide",
}

var destructiveVerbs = []string{"delete", "remove", "drop"}
var bulkQuantifiers = []string{"all", "multiple", "every", "*"}

var fileOpVerbs = []string{"edit", "modify", "change", "update", "delete", "remove"}

// explicitPathPattern recognises tokens that look like a file path or
// filename: something containing a slash, or a bare name with an extension.
var explicitPathPattern = regexp.MustCompile(`(?i)[a-z0-9_\-./]+/[a-z0-9_\-./]+|\b[a-z0-9_\-]+\.[a-z0-9]{1,10}\b`)

var agentDefPathPattern = regexp.MustCompile(`(?i)\.claude/agents/`)

var conjunctions = []string{" and ", ", then ", " after ", " before ", ";"}

var creationKeywords = []string{"new", "create", "design", "build", "implement"}

var newFileExplicitPattern = regexp.MustCompile(`(?i)^new file\s+\S+`)

var metaRoutingKeywords = []string{"router", "routing", "agent", "delegate"}
var metaInterrogativePattern = regexp.MustCompile(`(?i)^(what|how|why|which|does|is|are)\b.*\?$`)

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// triggerA: judgment keywords.
func triggerA(lower string) bool {
	return containsAny(lower, judgmentKeywords)
}

// triggerB: destructive verb + bulk quantifier.
func triggerB(lower string) bool {
	return containsAny(lower, destructiveVerbs) && containsAny(lower, bulkQuantifiers)
}

// triggerC: file operation verb without an explicit path/filename.
func triggerC(lower string) bool {
	if !containsAny(lower, fileOpVerbs) {
		return false
	}
	return !explicitPathPattern.MatchString(lower)
}

// triggerD: mutating verb referencing .claude/agents/.
func triggerD(lower string) bool {
	return agentDefPathPattern.MatchString(lower) && containsAny(lower, fileOpVerbs)
}

// triggerE: two or more coordinating conjunctions.
func triggerE(lower string) bool {
	count := 0
	for _, c := range conjunctions {
		count += strings.Count(lower, c)
	}
	return count >= 2
}

// triggerF: creation/design keyword not of the form "new file <name>".
func triggerF(lower string) bool {
	if !containsAny(lower, creationKeywords) {
		return false
	}
	return !newFileExplicitPattern.MatchString(strings.TrimSpace(lower))
}

// triggerH: meta-request about the routing system itself.
func triggerH(lower string) bool {
	if !containsAny(lower, metaRoutingKeywords) {
		return false
	}
	return metaInterrogativePattern.MatchString(strings.TrimSpace(lower)) || strings.Contains(lower, "?")
}

// conjunctionCount reports how many coordinating conjunctions occur in
// lower, used by the explicit-file-path exception (step 4) to determine
// "syntactically simple".
func conjunctionCount(lower string) int {
	count := 0
	for _, c := range conjunctions {
		count += strings.Count(lower, c)
	}
	return count
}

// hasExplicitPath reports whether the request names an explicit file path
// or filename.
func hasExplicitPath(lower string) bool {
	return explicitPathPattern.MatchString(lower)
}
