// Package project derives project identity from a working directory and
// resolves the per-project data root, cascaded configuration, and the
// router-enabled gate. It is the substrate every other package in this
// module builds on: two distinct working directories must never resolve to
// the same on-disk state.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/yannickloth/claude-router-system-sub002/internal/routerlog"
)

// GlobalSentinel is the identity used when no project marker is found.
const GlobalSentinel = "global"

// EnvRootOverride is the environment variable that may override project
// root detection. It must name an absolute, existing path containing a
// ".claude" directory; otherwise it is rejected with a warning and
// auto-detection is used instead.
const EnvRootOverride = "CLAUDE_PROJECT_ROOT"

// markerDir is the directory name that identifies a project root.
const markerDir = ".claude"

// Project is the derived identity of a working directory.
type Project struct {
	ID   string // first 16 hex digits of SHA-256(Root), or GlobalSentinel
	Root string // absolute path, or GlobalSentinel
	Name string // basename of Root, empty for the sentinel
}

// Detect resolves the Project for cwd. It never returns an error: a project
// root that cannot be established degrades to the global sentinel, per the
// component's failure semantics (filesystem errors are never fatal here).
func Detect(cwd string) Project {
	root := detectRoot(cwd)
	return Project{
		ID:   ID(root),
		Root: root,
		Name: name(root),
	}
}

// detectRoot implements the precedence between CLAUDE_PROJECT_ROOT and the
// ancestor walk: the override wins when it is a valid absolute path
// containing a ".claude" directory (resolved Open Question, see DESIGN.md);
// otherwise the walk result (or the global sentinel) is used.
func detectRoot(cwd string) string {
	if override := os.Getenv(EnvRootOverride); override != "" {
		if root, ok := validOverride(override); ok {
			routerlog.Warnf("using %s override for project root: %s", EnvRootOverride, root)
			return root
		}
		routerlog.Warnf("%s=%q is not an absolute existing path with a %s directory; falling back to auto-detection", EnvRootOverride, override, markerDir)
	}

	if walked, ok := walkForMarker(cwd); ok {
		return walked
	}
	return GlobalSentinel
}

func validOverride(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		return "", false
	}
	info, err := os.Stat(filepath.Join(path, markerDir))
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}

// walkForMarker walks from cwd up to the filesystem root looking for a
// child ".claude" directory.
func walkForMarker(cwd string) (string, bool) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", false
	}

	dir := abs
	for {
		info, err := os.Stat(filepath.Join(dir, markerDir))
		if err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ID computes the stable project identity for root. The same absolute path
// always yields the same ID; distinct paths yield distinct IDs with
// overwhelming probability (SHA-256 collision resistance).
func ID(root string) string {
	if root == GlobalSentinel {
		return GlobalSentinel
	}
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:])[:16]
}

func name(root string) string {
	if root == GlobalSentinel {
		return ""
	}
	return filepath.Base(root)
}
