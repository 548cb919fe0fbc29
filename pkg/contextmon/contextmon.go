// Package contextmon implements the Context Threshold Monitor: a one-shot
// per-session warning when the host transcript suggests a configured
// fraction of the context window has been consumed.
package contextmon

import (
	"bufio"
	"os"

	"github.com/yannickloth/claude-router-system-sub002/pkg/sessionflags"
)

// TokensPerTurn is the literal heuristic the spec prescribes: no tokenizer
// is wired here, since none of the example repos' token estimators apply
// to an arbitrary host's transcript format (see DESIGN.md).
const TokensPerTurn = 1000

// DefaultWindowTokens is the assumed context window size when the host
// does not supply one via configuration.
const DefaultWindowTokens = 200_000

// WarnThreshold is the fraction of the window that triggers a warning.
const WarnThreshold = 0.70

// Result reports what the monitor decided for this invocation.
type Result struct {
	EstimatedTokens int
	WindowTokens    int
	Fraction        float64
	ShouldWarn      bool
}

// EstimateTokens counts transcript turns (one per non-empty line, the
// simplest observable proxy for "a turn happened") and multiplies by
// TokensPerTurn.
func EstimateTokens(transcriptPath string) (int, error) {
	f, err := os.Open(transcriptPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	turns := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			turns++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return turns * TokensPerTurn, nil
}

// Check evaluates the monitor for one prompt-submit invocation: estimates
// usage, compares it to the threshold, and — if warranted and not already
// warned this session — flips the one-shot flag. The flag transition is
// reported via alreadyWarned so callers can distinguish "first warning"
// from "already warned, stay silent".
func Check(store *sessionflags.Store, transcriptPath string, windowTokens int) (Result, bool, error) {
	if windowTokens <= 0 {
		windowTokens = DefaultWindowTokens
	}

	estimated, err := EstimateTokens(transcriptPath)
	if err != nil {
		return Result{}, false, err
	}

	fraction := float64(estimated) / float64(windowTokens)
	result := Result{EstimatedTokens: estimated, WindowTokens: windowTokens, Fraction: fraction}

	if fraction < WarnThreshold {
		return result, false, nil
	}

	alreadyWarned, err := store.SetContextThresholdWarned()
	if err != nil {
		return result, false, err
	}
	result.ShouldWarn = !alreadyWarned
	return result, alreadyWarned, nil
}
