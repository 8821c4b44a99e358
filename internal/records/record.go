package records

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one content record.
type Record struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Schema      string    `yaml:"schema,omitempty"`
	Folder      []string  `yaml:"folder,omitempty"`
	Publication string    `yaml:"publication,omitempty"`
	Fields      yaml.Node `yaml:"fields,omitempty"`
}

// Pair is a single key/value entry read from a record.
type Pair struct {
	Key   string
	Value string
}

// Schema is a content schema.
type Schema struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Key     string   `yaml:"key,omitempty"`
	Purpose string   `yaml:"purpose,omitempty"`
	Folder  []string `yaml:"folder,omitempty"`
}

// SchemaPurposeComponent marks schemas used for content records.
const SchemaPurposeComponent = "component"

// Template is a rendering template.
type Template struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Key         string   `yaml:"key,omitempty"`
	Publishable bool     `yaml:"publishable,omitempty"`
	Folder      []string `yaml:"folder,omitempty"`
}

// Taxonomy is a category root.
type Taxonomy struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Key   string `yaml:"key,omitempty"`
}

// keyOrTitle returns key, or a key derived from title when key is empty.
func keyOrTitle(key, title string) string {
	if key != "" {
		return key
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "")
}

// EffectiveKey returns the key published for the schema.
func (s Schema) EffectiveKey() string { return keyOrTitle(s.Key, s.Title) }

// EffectiveKey returns the key published for the template.
func (t Template) EffectiveKey() string { return keyOrTitle(t.Key, t.Title) }

// EffectiveKey returns the key published for the taxonomy.
func (t Taxonomy) EffectiveKey() string { return keyOrTitle(t.Key, t.Title) }

// field returns the value node of a top-level field, nil when absent.
func (r Record) field(name string) *yaml.Node {
	m := &r.Fields
	if m.Kind == yaml.DocumentNode && len(m.Content) == 1 {
		m = m.Content[0]
	}
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == name {
			return m.Content[i+1]
		}
	}
	return nil
}

// Text returns a scalar field value, "" when absent or not a scalar.
func (r Record) Text(name string) string {
	n := r.field(name)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// LinkIDs returns the record ids held by a link field. A scalar counts as a
// single link.
func (r Record) LinkIDs(name string) ([]string, error) {
	n := r.field(name)
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil, nil
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("field %q: link at line %d is not a scalar id", name, c.Line)
			}
			out = append(out, c.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q is not a link list", name)
	}
}

// Under reports whether folder lies within root (root is a prefix of folder).
func Under(folder, root []string) bool {
	if len(folder) < len(root) {
		return false
	}
	for i := range root {
		if folder[i] != root[i] {
			return false
		}
	}
	return true
}
