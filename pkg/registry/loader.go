package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
)

// Loader discovers agent manifests from the filesystem.
type Loader struct {
	projectDir string   // .claude/agents in the project
	userDir    string   // ~/.claude/agents
	pluginDirs []string
}

// NewLoader creates a Loader scanning the given directories. Missing
// directories are silently skipped.
func NewLoader(projectDir, userDir string, pluginDirs ...string) *Loader {
	return &Loader{projectDir: projectDir, userDir: userDir, pluginDirs: pluginDirs}
}

// LoadAll discovers and parses every *.md manifest across all sources,
// returning a map of id → Definition. Higher-priority sources overwrite
// lower ones on a name collision (plugin < user < project; built-in is
// supplied separately by the caller and has the lowest priority of all).
func (l *Loader) LoadAll() (map[string]Definition, error) {
	result := make(map[string]Definition)

	for _, dir := range l.pluginDirs {
		l.scanInto(result, dir, SourcePlugin)
	}
	if l.userDir != "" {
		l.scanInto(result, l.userDir, SourceUser)
	}
	if l.projectDir != "" {
		l.scanInto(result, l.projectDir, SourceProject)
	}

	return result, nil
}

func (l *Loader) scanInto(result map[string]Definition, dir string, source Source) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			routerlog.Warnf("registry: reading %s: %v", dir, err)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			routerlog.Warnf("registry: reading %s: %v", path, err)
			continue
		}
		def, err := ParseManifest(data, path)
		if err != nil {
			routerlog.Warnf("registry: %v", err)
			continue
		}
		def.Source = source

		if existing, ok := result[def.ID]; ok && existing.Source.priority() > source.priority() {
			continue
		}
		result[def.ID] = def
	}
}
