// Package registry enumerates available agents, loading their definitions
// from filesystem manifests the way the host's own subagent loader does:
// Markdown files with YAML frontmatter, cascaded by source priority.
package registry

import "strings"

// ModelTier is the coarse capability/cost tier an agent runs at.
type ModelTier string

const (
	TierHaiku   ModelTier = "haiku"
	TierSonnet  ModelTier = "sonnet"
	TierOpus    ModelTier = "opus"
	TierUnknown ModelTier = "unknown"
)

// Source identifies where an agent definition came from. Mirrors the
// host's subagent.AgentSource priority scheme.
type Source int

const (
	SourceBuiltIn Source = iota
	SourcePlugin
	SourceUser
	SourceProject
)

func (s Source) priority() int {
	switch s {
	case SourceBuiltIn:
		return 0
	case SourcePlugin:
		return 10
	case SourceUser:
		return 20
	case SourceProject:
		return 30
	default:
		return -1
	}
}

// Definition is a routable agent: a model tier, a keyword fingerprint used
// by the keyword matcher, and a free-text description used by the semantic
// matcher.
type Definition struct {
	ID          string    `yaml:"name"`
	ModelTier   ModelTier `yaml:"model"`
	Description string    `yaml:"description"`
	Keywords    flexList  `yaml:"keywords"`

	Source   Source `yaml:"-"`
	FilePath string `yaml:"-"`
}

// NormalizedTier maps a raw frontmatter model value (alias or full ID) to
// one of the three recognised tiers, defaulting to TierUnknown with a
// warning left to the caller.
func NormalizedTier(raw string) ModelTier {
	switch raw {
	case "haiku", "sonnet", "opus":
		return ModelTier(raw)
	}
	switch {
	case strings.Contains(raw, "haiku"):
		return TierHaiku
	case strings.Contains(raw, "opus"):
		return TierOpus
	case strings.Contains(raw, "sonnet"):
		return TierSonnet
	default:
		return TierUnknown
	}
}
