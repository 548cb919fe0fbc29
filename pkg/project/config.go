package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
)

// SettingsFile is the JSON configuration file consulted by the cascade.
const SettingsFile = "settings.json"

// Config is the resolved view of the recognised top-level options, merged
// across the project → user → defaults cascade (first match wins).
type Config struct {
	RouterEnabled              bool
	ForceMode                  string // "", "single_stage", "multi_stage"
	ConfidenceThresholdKeyword float64
	ConfidenceThresholdSemantic float64
	CacheTTLDays               int
	WIPLimit                   int
	RetentionDays              int
}

// Defaults returns the built-in default configuration (cascade level 3).
func Defaults() Config {
	return Config{
		RouterEnabled:               true,
		ForceMode:                   "",
		ConfidenceThresholdKeyword:  0.8,
		ConfidenceThresholdSemantic: 0.7,
		CacheTTLDays:                30,
		WIPLimit:                    3,
		RetentionDays:               90,
	}
}

// rawDoc is the generic decode target for a settings file: either a JSON or
// YAML document, flattened to a nested map for cascade lookups.
type rawDoc map[string]any

// loadRawFile reads and parses a single settings file. A missing or
// unreadable file yields nil; a malformed file is logged as a warning and
// also yields nil, so cascade resolution falls through to the next level.
func loadRawFile(path string) rawDoc {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc rawDoc
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			routerlog.Warnf("config: %s: %v", path, err)
			return nil
		}
		return doc
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		routerlog.Warnf("config: %s: %v", path, err)
		return nil
	}
	return doc
}

// LoadConfig resolves Config for a project, cascading
// <projectRoot>/.claude/settings.json → <userHome>/.claude/settings.json →
// built-in defaults, first match (per key) wins.
func LoadConfig(projectRoot, userHome string) Config {
	cfg := Defaults()

	var projectDoc, userDoc rawDoc
	if projectRoot != "" && projectRoot != GlobalSentinel {
		projectDoc = loadRawFile(filepath.Join(projectRoot, markerDir, SettingsFile))
	}
	if userHome != "" {
		userDoc = loadRawFile(filepath.Join(userHome, markerDir, SettingsFile))
	}

	applyDoc := func(doc rawDoc) {
		if doc == nil {
			return
		}
		if v, ok := lookupBool(doc, "plugins", "router", "enabled"); ok {
			cfg.RouterEnabled = v
		}
		if v, ok := lookupString(doc, "force_mode"); ok {
			cfg.ForceMode = v
		}
		if v, ok := lookupFloat(doc, "confidence_threshold"); ok {
			cfg.ConfidenceThresholdKeyword = v
			cfg.ConfidenceThresholdSemantic = v
		}
		if v, ok := lookupInt(doc, "cache_ttl_days"); ok {
			cfg.CacheTTLDays = v
		}
		if v, ok := lookupInt(doc, "wip_limit"); ok {
			cfg.WIPLimit = v
		}
		if v, ok := lookupInt(doc, "retention_days"); ok {
			cfg.RetentionDays = v
		}
	}

	// Cascade order per spec: project, then user, then defaults. Apply the
	// lowest-precedence source first so higher-precedence sources overwrite.
	applyDoc(userDoc)
	applyDoc(projectDoc)

	return cfg
}

// LoadFeatureYAML resolves a per-feature YAML config (e.g. "router.yaml")
// using the same cascade as LoadConfig, returning the raw decoded document
// for the caller to interpret. Returns nil if no level provides the file.
func LoadFeatureYAML(projectRoot, userHome, featureName string) rawDoc {
	name := featureName
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}

	if projectRoot != "" && projectRoot != GlobalSentinel {
		if doc := loadRawFile(filepath.Join(projectRoot, markerDir, name)); doc != nil {
			return doc
		}
	}
	if userHome != "" {
		if doc := loadRawFile(filepath.Join(userHome, markerDir, name)); doc != nil {
			return doc
		}
	}
	return nil
}

func lookupBool(doc rawDoc, path ...string) (bool, bool) {
	v, ok := lookup(doc, path...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func lookupString(doc rawDoc, path ...string) (string, bool) {
	v, ok := lookup(doc, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func lookupFloat(doc rawDoc, path ...string) (float64, bool) {
	v, ok := lookup(doc, path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func lookupInt(doc rawDoc, path ...string) (int, bool) {
	v, ok := lookup(doc, path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// lookup walks a nested map by successive keys, treating nested YAML maps
// (map[string]any, the yaml.v3 default) and JSON maps uniformly.
func lookup(doc rawDoc, path ...string) (any, bool) {
	var cur any = map[string]any(doc)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
