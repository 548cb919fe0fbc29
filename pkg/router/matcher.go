package router

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/registry"
)

// Match is the result of consulting an agent matcher.
type Match struct {
	AgentID    string
	Confidence float64
	Reason     string
}

// Matcher maps a request to a candidate agent with a confidence score.
// agentID is empty when no agent matches.
type Matcher interface {
	Match(request string) Match
}

// KeywordMatcher scores each candidate agent by how many of the keywords
// recognised in the request it covers (see Match for the denominator);
// always available and deterministic.
type KeywordMatcher struct {
	Agents []registry.Definition
}

// Match implements Matcher. A keyword is considered matched when it
// appears as a substring of the (lowercased) request, so "README.md"
// satisfies a "readme" keyword without requiring exact token boundaries.
//
// Score is normalised against the distinct keywords actually recognisable
// in the request (the union, across every candidate agent, of keywords
// found as a substring) rather than against each agent's full keyword
// list size — an agent is not penalised for covering topics the request
// never mentions.
func (m KeywordMatcher) Match(request string) Match {
	lower := strings.ToLower(request)
	if strings.TrimSpace(lower) == "" {
		return Match{}
	}

	recognised := make(map[string]struct{})
	for _, agent := range m.Agents {
		for _, kw := range agent.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				recognised[strings.ToLower(kw)] = struct{}{}
			}
		}
	}
	if len(recognised) == 0 {
		return Match{}
	}

	type candidate struct {
		id    string
		score float64
	}
	var candidates []candidate

	for _, agent := range m.Agents {
		if len(agent.Keywords) == 0 {
			continue
		}
		matched := 0
		for _, kw := range agent.Keywords {
			if _, ok := recognised[strings.ToLower(kw)]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(recognised))
		candidates = append(candidates, candidate{id: agent.ID, score: score})
	}

	if len(candidates) == 0 {
		return Match{}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	best := candidates[0]
	return Match{AgentID: best.id, Confidence: best.score, Reason: "keyword match"}
}

// semanticResponse is the JSON contract an external semantic matcher
// process must emit on stdout.
type semanticResponse struct {
	Agent      *string `json:"agent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// SemanticMatcher delegates to an external classifier process, falling
// back to a keyword matcher on any failure (non-zero exit, timeout,
// malformed JSON, or an agent id the registry does not enumerate).
type SemanticMatcher struct {
	Command  string
	Args     []string
	Timeout  time.Duration
	Fallback KeywordMatcher
	KnownIDs map[string]struct{}
}

// NewSemanticMatcher builds a SemanticMatcher whose KnownIDs is derived
// from fallback.Agents.
func NewSemanticMatcher(command string, args []string, timeout time.Duration, fallback KeywordMatcher) SemanticMatcher {
	known := make(map[string]struct{}, len(fallback.Agents))
	for _, a := range fallback.Agents {
		known[a.ID] = struct{}{}
	}
	return SemanticMatcher{Command: command, Args: args, Timeout: timeout, Fallback: fallback, KnownIDs: known}
}

// Match implements Matcher.
func (m SemanticMatcher) Match(request string) Match {
	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.Command, m.Args...)
	cmd.Stdin = strings.NewReader(request)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		routerlog.Warnf("router: semantic matcher failed, falling back to keyword matcher: %v", err)
		return m.Fallback.Match(request)
	}

	var resp semanticResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		routerlog.Warnf("router: semantic matcher returned malformed JSON, falling back to keyword matcher: %v", err)
		return m.Fallback.Match(request)
	}

	if resp.Agent == nil || *resp.Agent == "" {
		return Match{}
	}
	if _, ok := m.KnownIDs[*resp.Agent]; !ok {
		routerlog.Warnf("router: semantic matcher named unknown agent %q, falling back to keyword matcher", *resp.Agent)
		return m.Fallback.Match(request)
	}

	reason := resp.Reason
	if reason == "" {
		reason = "semantic match"
	}
	return Match{AgentID: *resp.Agent, Confidence: resp.Confidence, Reason: reason}
}
