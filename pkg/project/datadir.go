package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind enumerates the per-project data directory kinds.
type Kind string

const (
	KindState   Kind = "state"
	KindMetrics Kind = "metrics"
	KindLogs    Kind = "logs"
	KindMemory  Kind = "memory"
	KindCache   Kind = "cache"
)

// PluginNamespace is the sub-directory under <user_home>/.claude/ where this
// plugin's per-project data lives.
const PluginNamespace = "router"

// DataRoot returns <user_home>/.claude/<plugin_namespace>.
func DataRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(home, ".claude", PluginNamespace), nil
}

// DataDir returns the path of the form <data_root>/projects/<id>/<kind>,
// creating it on demand with mode 0700. Idempotent: calling it twice for
// the same (dataRoot, id, kind) is a no-op on the second call.
func DataDir(dataRoot, id string, kind Kind) (string, error) {
	dir := filepath.Join(dataRoot, "projects", id, string(kind))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create project data dir %s: %w", dir, err)
	}
	return dir, nil
}
