package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// flexList handles YAML keyword lists that may be written as a
// comma-separated string or as a YAML sequence — the same convenience the
// host's agent frontmatter parser offers for its `tools` field.
type flexList []string

func (f *flexList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*f = list
		return nil
	case yaml.ScalarNode:
		parts := strings.Split(value.Value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		*f = result
		return nil
	default:
		return fmt.Errorf("expected string or list for keywords, got YAML kind %d", value.Kind)
	}
}

// splitFrontmatter extracts the YAML frontmatter block from a Markdown
// file, delimited by "---" lines at the start of the content.
func splitFrontmatter(data []byte) (yamlPart []byte, ok bool) {
	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return nil, false
	}

	rest := content[3:]
	if len(rest) > 0 && rest[0] == '\n' {
		rest = rest[1:]
	} else if len(rest) > 1 && rest[0] == '\r' && rest[1] == '\n' {
		rest = rest[2:]
	}

	endIdx := strings.Index(rest, "\n---")
	if endIdx < 0 {
		return nil, false
	}
	return []byte(rest[:endIdx]), true
}

// ParseManifest parses an agent manifest file (Markdown + YAML frontmatter)
// into a Definition. The description field is required; name defaults to
// the filename stem when absent.
func ParseManifest(data []byte, path string) (Definition, error) {
	yamlPart, ok := splitFrontmatter(data)
	if !ok {
		return Definition{}, fmt.Errorf("no frontmatter found in %s", path)
	}

	var def Definition
	if err := yaml.Unmarshal(yamlPart, &def); err != nil {
		return Definition{}, fmt.Errorf("parsing YAML in %s: %w", path, err)
	}

	if def.ID == "" {
		base := filepath.Base(path)
		def.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if def.Description == "" {
		return Definition{}, fmt.Errorf("missing required field 'description' in %s", path)
	}

	def.ModelTier = NormalizedTier(string(def.ModelTier))
	def.FilePath = path
	return def, nil
}
