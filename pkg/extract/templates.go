package extract

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/japaniel/mythos/pkg/corpus"
)

//go:embed templates.yaml
var defaultTemplates []byte

// LabelRule says how one attribute label is read.
type LabelRule struct {
	Plural bool   `yaml:"plural"`
	Field  string `yaml:"field"`
}

// Template is the declared mapping for one entity type: the attribute labels
// it recognizes, the page regions it reads, and heading keywords per field.
type Template struct {
	Regions  []string             `yaml:"regions"`
	Labels   map[string]LabelRule `yaml:"labels"`
	Headings map[string][]string  `yaml:"headings"`
}

// Templates is the full template set; Common applies to every type and a
// type's own entries win on conflict.
type Templates struct {
	Common Template                       `yaml:"common"`
	Types  map[corpus.EntityType]Template `yaml:"types"`

	merged map[corpus.EntityType]*Template
}

// DefaultTemplates returns the embedded template set.
func DefaultTemplates() (*Templates, error) {
	return ParseTemplates(defaultTemplates)
}

// ParseTemplates decodes a YAML template set.
func ParseTemplates(data []byte) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for typ := range t.Types {
		if !typ.Valid() {
			return nil, fmt.Errorf("parse templates: unknown entity type %q", typ)
		}
	}
	t.merged = map[corpus.EntityType]*Template{}
	return &t, nil
}

// LoadTemplates reads path and overlays it on the embedded set: types
// present in the file replace the embedded ones, common labels and headings
// are merged key by key.
func LoadTemplates(path string) (*Templates, error) {
	base, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, corpus.NewConfigError("templates", "read %s: %v", path, err)
	}
	over, err := ParseTemplates(data)
	if err != nil {
		return nil, &corpus.ConfigError{Op: "templates", Err: err}
	}
	base.Common = mergeTemplate(base.Common, over.Common)
	if base.Types == nil {
		base.Types = map[corpus.EntityType]Template{}
	}
	for typ, tpl := range over.Types {
		base.Types[typ] = tpl
	}
	return base, nil
}

func mergeTemplate(base, over Template) Template {
	out := Template{
		Regions:  append(append([]string(nil), base.Regions...), over.Regions...),
		Labels:   map[string]LabelRule{},
		Headings: map[string][]string{},
	}
	for k, v := range base.Labels {
		out.Labels[k] = v
	}
	for k, v := range over.Labels {
		out.Labels[k] = v
	}
	for k, v := range base.Headings {
		out.Headings[k] = v
	}
	for k, v := range over.Headings {
		out.Headings[k] = v
	}
	return out
}

// For returns the effective template for typ.
func (t *Templates) For(typ corpus.EntityType) *Template {
	if m, ok := t.merged[typ]; ok {
		return m
	}
	m := mergeTemplate(t.Common, t.Types[typ])
	return &m
}

// warm caches every merged template so that For is read-only afterwards
// and the set can be shared between workers.
func (t *Templates) warm() {
	if t.merged == nil {
		t.merged = map[corpus.EntityType]*Template{}
	}
	for _, typ := range append(corpus.EntityTypes(), corpus.TypeOther) {
		m := mergeTemplate(t.Common, t.Types[typ])
		t.merged[typ] = &m
	}
}

// Rule looks up a normalized label.
func (t *Template) Rule(label string) (LabelRule, bool) {
	r, ok := t.Labels[label]
	return r, ok
}

// Reads reports whether the template consults region.
func (t *Template) Reads(region string) bool {
	for _, r := range t.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// HeadingMatches reports whether heading text matches one of the keywords
// declared for field.
func (t *Template) HeadingMatches(field, heading string) bool {
	h := strings.ToLower(heading)
	for _, kw := range t.Headings[field] {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}
