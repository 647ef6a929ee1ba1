package extract

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/japaniel/mythos/pkg/corpus"
)

// Sidecar is the optional enrichment file for one page. Every field it sets
// wins over the page; attributes merge key by key.
type Sidecar struct {
	Name             string               `json:"name,omitempty"`
	Subtitle         string               `json:"subtitle,omitempty"`
	ShortDescription string               `json:"shortDescription,omitempty"`
	LongDescription  string               `json:"longDescription,omitempty"`
	Attributes       corpus.Attributes    `json:"attributes,omitempty"`
	Linguistic       *corpus.Linguistic   `json:"linguistic,omitempty"`
	Geographical     *corpus.Geographical `json:"geographical,omitempty"`
	Temporal         *corpus.Temporal     `json:"temporal,omitempty"`
	Sources          []string             `json:"sources,omitempty"`
}

// SidecarPath is <dir>/<mythology>/<stem>.json.
func SidecarPath(dir string, src corpus.SourceDescriptor) string {
	return filepath.Join(dir, string(src.Mythology), src.Stem()+".json")
}

// LoadSidecar reads the sidecar for src. A missing file is not an error and
// returns nil.
func LoadSidecar(dir string, src corpus.SourceDescriptor) (*Sidecar, error) {
	if dir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(SidecarPath(dir, src))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Apply merges sc over r with sidecar > page precedence.
func (sc *Sidecar) Apply(r *corpus.EntityRecord) {
	if sc == nil {
		return
	}
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&r.Name, sc.Name)
	setIf(&r.Subtitle, sc.Subtitle)
	setIf(&r.ShortDescription, sc.ShortDescription)
	setIf(&r.LongDescription, sc.LongDescription)
	if len(sc.Attributes) > 0 {
		if r.Attributes == nil {
			r.Attributes = corpus.Attributes{}
		}
		for k, v := range sc.Attributes {
			r.Attributes[k] = v
		}
	}
	if sc.Linguistic != nil {
		r.Linguistic = sc.Linguistic
	}
	if sc.Geographical != nil {
		r.Geographical = sc.Geographical
	}
	if sc.Temporal != nil {
		r.Temporal = sc.Temporal
	}
	if len(sc.Sources) > 0 {
		r.Sources = sc.Sources
	}
}

func (s *state) sidecar() {
	sc, err := LoadSidecar(s.e.sidecars, s.p.Source)
	if err != nil {
		s.warn(WarnSidecar + err.Error())
		return
	}
	sc.Apply(s.rec)
}
