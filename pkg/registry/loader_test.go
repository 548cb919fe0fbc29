package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
}

func TestLoadAllMergesSources(t *testing.T) {
	plugin := t.TempDir()
	user := t.TempDir()
	project := t.TempDir()

	writeManifest(t, plugin, "reviewer.md", "---\nname: reviewer\ndescription: reviews code\nmodel: haiku\n---\nbody\n")
	writeManifest(t, user, "tester.md", "---\nname: tester\ndescription: runs tests\nmodel: sonnet\n---\nbody\n")
	writeManifest(t, project, "reviewer.md", "---\nname: reviewer\ndescription: project reviewer\nmodel: opus\nkeywords: review, lint\n---\nbody\n")

	loader := NewLoader(project, user, plugin)
	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}

	reviewer, ok := defs["reviewer"]
	if !ok {
		t.Fatal("expected reviewer definition")
	}
	if reviewer.Source != SourceProject {
		t.Fatalf("expected project source to win, got %v", reviewer.Source)
	}
	if reviewer.ModelTier != TierOpus {
		t.Fatalf("expected project definition to override plugin, got tier %v", reviewer.ModelTier)
	}
	if len(reviewer.Keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", reviewer.Keywords)
	}

	tester, ok := defs["tester"]
	if !ok {
		t.Fatal("expected tester definition")
	}
	if tester.Source != SourceUser {
		t.Fatalf("expected user source, got %v", tester.Source)
	}
}

func TestLoadAllSkipsMalformedManifest(t *testing.T) {
	project := t.TempDir()
	writeManifest(t, project, "broken.md", "no frontmatter here\n")
	writeManifest(t, project, "good.md", "---\nname: good\ndescription: ok\n---\nbody\n")

	loader := NewLoader(project, "")
	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, ok := defs["broken"]; ok {
		t.Fatal("malformed manifest should have been skipped")
	}
	if _, ok := defs["good"]; !ok {
		t.Fatal("expected good manifest to be loaded")
	}
}

func TestLoadAllMissingDirectoriesAreSkipped(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"), "")
	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected no definitions, got %d", len(defs))
	}
}

func TestLoadAllLowerPrioritySourceDoesNotOverwrite(t *testing.T) {
	plugin := t.TempDir()
	project := t.TempDir()

	writeManifest(t, project, "a.md", "---\nname: a\ndescription: project version\nmodel: opus\n---\nbody\n")
	writeManifest(t, plugin, "a.md", "---\nname: a\ndescription: plugin version\nmodel: haiku\n---\nbody\n")

	loader := NewLoader(project, "", plugin)
	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if defs["a"].ModelTier != TierOpus {
		t.Fatalf("expected project definition to remain, got %v", defs["a"].ModelTier)
	}
}
