// The hook binary is invoked by the host at each lifecycle event: prompt
// submission, subagent start/stop, session start/end, and pre-tool-use.
// It reads a JSON object on stdin, performs the event's side effects, and
// always exits 0 — hooks never block the host on failure.
//
// Usage:
//
//	hook prompt-submit   < input.json
//	hook agent-start     < input.json
//	hook agent-stop      < input.json
//	hook session-start   < input.json
//	hook session-end     < input.json
//	hook pre-tool-use     < input.json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/hooks"
	"github.com/yannickloth/claude-router-system-sub002/pkg/project"
	"github.com/yannickloth/claude-router-system-sub002/pkg/registry"
	"github.com/yannickloth/claude-router-system-sub002/pkg/router"
	"github.com/yannickloth/claude-router-system-sub002/pkg/sessionflags"
	"github.com/yannickloth/claude-router-system-sub002/pkg/workqueue"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hook <prompt-submit|agent-start|agent-stop|session-start|session-end|pre-tool-use>")
		hooks.Exit()
		return
	}
	event := os.Args[1]

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		routerlog.Warnf("hook: reading stdin: %v", err)
		hooks.Exit()
		return
	}

	cwd := cwdFromInput(body)
	deps, err := buildDeps(cwd)
	if err != nil {
		routerlog.Warnf("hook: resolving project context: %v", err)
		hooks.Exit()
		return
	}

	switch event {
	case "prompt-submit":
		var in hooks.PromptSubmitInput
		if decodeOrWarn(body, &in) {
			hooks.PromptSubmit(deps, in)
		}
	case "agent-start":
		var in hooks.AgentStartInput
		if decodeOrWarn(body, &in) {
			hooks.AgentStart(deps, in)
		}
	case "agent-stop":
		var in hooks.AgentStopInput
		if decodeOrWarn(body, &in) {
			hooks.AgentStop(deps, in)
		}
	case "session-start":
		var in hooks.SessionStartInput
		if decodeOrWarn(body, &in) {
			hooks.SessionStart(deps, in)
		}
	case "session-end":
		var in hooks.SessionEndInput
		if decodeOrWarn(body, &in) {
			hooks.SessionEnd(deps, in)
		}
	case "pre-tool-use":
		var in hooks.PreToolUseInput
		if decodeOrWarn(body, &in) {
			out := hooks.PreToolUse(deps, in)
			enc := json.NewEncoder(os.Stdout)
			if err := enc.Encode(out); err != nil {
				routerlog.Warnf("hook: encoding pre-tool-use output: %v", err)
			}
		}
	default:
		routerlog.Warnf("hook: unknown event %q", event)
	}

	hooks.Exit()
}

func decodeOrWarn(body []byte, target any) bool {
	if err := json.Unmarshal(body, target); err != nil {
		routerlog.Warnf("hook: malformed input JSON: %v", err)
		return false
	}
	return true
}

// cwdFromInput extracts "cwd" from the raw body without committing to a
// specific input shape, so a malformed body for one hook type does not
// prevent project-context resolution for the fallback warning path.
func cwdFromInput(body []byte) string {
	var probe struct {
		CWD string `json:"cwd"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.CWD
}

// buildDeps resolves the project context, configuration, event log,
// session flags, agent registry, and matcher for a single hook invocation.
func buildDeps(cwd string) (hooks.Deps, error) {
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return hooks.Deps{}, err
		}
	}

	proj := project.Detect(cwd)
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	cfg := project.LoadConfig(proj.Root, home)

	dataRoot, err := project.DataRoot()
	if err != nil {
		return hooks.Deps{}, err
	}

	metricsDir, err := project.DataDir(dataRoot, proj.ID, project.KindMetrics)
	if err != nil {
		return hooks.Deps{}, err
	}
	stateDir, err := project.DataDir(dataRoot, proj.ID, project.KindState)
	if err != nil {
		return hooks.Deps{}, err
	}

	log := eventlog.New(metricsDir)
	flags := sessionflags.New(stateDir)
	workQueue := workqueue.New(stateDir)

	agentsDir := ""
	if proj.Root != project.GlobalSentinel {
		agentsDir = proj.Root + "/.claude/agents"
	}
	userAgentsDir := ""
	if home != "" {
		userAgentsDir = home + "/.claude/agents"
	}
	loader := registry.NewLoader(agentsDir, userAgentsDir)
	reg, err := registry.New(nil, loader)
	if err != nil {
		return hooks.Deps{}, err
	}

	keywordMatcher := router.KeywordMatcher{Agents: reg.List()}
	var matcher router.Matcher = keywordMatcher
	if os.Getenv("ROUTER_USE_LLM") != "" {
		matcher = router.NewSemanticMatcher(
			"router-semantic-matcher", nil, 5*time.Second, keywordMatcher,
		)
	}

	routerCfg := router.Config{
		KeywordThreshold:  cfg.ConfidenceThresholdKeyword,
		SemanticThreshold: cfg.ConfidenceThresholdSemantic,
	}

	return hooks.Deps{
		Project:   proj,
		Config:    cfg,
		Log:       log,
		Flags:     flags,
		Registry:  reg,
		Matcher:   matcher,
		RouterCfg: routerCfg,
		WorkQueue: workQueue,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Now:       time.Now(),
	}, nil
}
