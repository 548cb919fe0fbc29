// Package hooks implements the six lifecycle entry points a host invokes:
// prompt-submit, agent-start, agent-stop, session-start, session-end, and
// pre-tool-use. Each hook reads a JSON object on stdin, produces advisory
// stdout and user-visible stderr, and always exits 0.
package hooks

import (
	"strings"
	"unicode"
)

// BaseHookInput carries the fields every hook invocation supplies,
// mirroring the host's own BaseHookInput embedding idiom.
type BaseHookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	PermissionMode string `json:"permission_mode,omitempty"`
}

// PromptSubmitInput is the input for the prompt-submit hook.
type PromptSubmitInput struct {
	BaseHookInput
	Prompt string `json:"prompt"`
}

// AgentStartInput is the input for the agent-start hook.
type AgentStartInput struct {
	BaseHookInput
	AgentType string `json:"agent_type"`
	AgentID   string `json:"agent_id"`
}

// AgentStopInput is the input for the agent-stop hook.
type AgentStopInput struct {
	BaseHookInput
	AgentType   string  `json:"agent_type"`
	AgentID     string  `json:"agent_id"`
	DurationSec float64 `json:"duration_sec"`
	Status      string  `json:"status"`
}

// SessionStartInput is the input for the session-start hook.
type SessionStartInput struct {
	BaseHookInput
}

// SessionEndInput is the input for the session-end hook.
type SessionEndInput struct {
	BaseHookInput
	Reason string `json:"reason,omitempty"`
}

// PreToolUseInput is the input for the pre-tool-use hook.
type PreToolUseInput struct {
	BaseHookInput
	ToolName  string `json:"tool_name"`
	ToolInput any    `json:"tool_input"`
}

// SyncHookJSONOutput is the stdout envelope shape reused verbatim from the
// host so downstream hosts that parse it generically keep working, even
// though this router layers its own delimited envelopes on top (see
// writeEnvelope).
type SyncHookJSONOutput struct {
	Continue      *bool  `json:"continue,omitempty"`
	Decision      string `json:"decision,omitempty"`
	SystemMessage string `json:"systemMessage,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// sanitizeFreeText strips characters that would break the line-oriented
// stderr/log framing this package relies on: pipes, newlines, and other
// control characters.
func sanitizeFreeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '|' || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
