// Package extract maps a parsed page onto an EntityRecord following the
// per-type templates.
package extract

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
	"github.com/japaniel/mythos/pkg/reading"
)

// Warning codes attached to metadata.warnings.
const (
	WarnMissingHeader       = "missing-header"
	WarnMissingIcon         = "missing-icon"
	WarnEmptyAttributes     = "empty-attributes"
	WarnUnknownAttribute    = "unknown-attribute:"
	WarnUnknownParallel     = "unrecognized-parallel-mythology:"
	WarnMissingMythology    = "missing-mythology-section"
	WarnReadabilityFallback = "long-description-from-readability"
	WarnLowCompleteness     = "low-completeness"
	WarnSidecar             = "sidecar:"
	WarnIDFromFilename      = "id-from-filename"
)

// DefaultDraftThreshold is the completeness score below which records are
// emitted as drafts.
const DefaultDraftThreshold = 50

// Options configures an Extractor. Zero values select the defaults.
type Options struct {
	Templates *Templates
	// SidecarDir holds <mythology>/<stem>.json enrichment files.
	SidecarDir     string
	DraftThreshold int
	Weights        *Weights
	Now            func() time.Time
	Logger         *zap.Logger
	// Readings enables hiragana pronunciation for Japanese names.
	Readings *reading.Analyzer
	// NoReadability disables the readability fallback for longDescription.
	NoReadability bool
}

// Extractor is stateless per page and safe for concurrent use.
type Extractor struct {
	tpl       *Templates
	sidecars  string
	threshold int
	weights   Weights
	version   string
	now       func() time.Time
	log       *zap.Logger
	readings  *reading.Analyzer
	fallback  bool
}

// New builds an Extractor.
func New(opts Options) (*Extractor, error) {
	tpl := opts.Templates
	if tpl == nil {
		var err error
		if tpl, err = DefaultTemplates(); err != nil {
			return nil, err
		}
	}
	tpl.warm()
	w := DefaultWeights
	if opts.Weights != nil {
		w = *opts.Weights
	}
	threshold := opts.DraftThreshold
	if threshold <= 0 {
		threshold = DefaultDraftThreshold
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		tpl:       tpl,
		sidecars:  opts.SidecarDir,
		threshold: threshold,
		weights:   w,
		version:   VersionString(w),
		now:       now,
		log:       log,
		readings:  opts.Readings,
		fallback:  !opts.NoReadability,
	}, nil
}

// Version is the extractor version recorded in metadata.
func (e *Extractor) Version() string { return e.version }

// ExtractFile parses and extracts one source. A page that cannot be parsed
// yields an extraction-failed stub together with the ParseError.
func (e *Extractor) ExtractFile(root string, src corpus.SourceDescriptor) (corpus.EntityRecord, error) {
	p, err := page.ParseFile(root, src)
	if err != nil {
		return e.Stub(src, err), err
	}
	return e.Extract(p), nil
}

// Stub builds the placeholder for a page whose extraction failed.
func (e *Extractor) Stub(src corpus.SourceDescriptor, err error) corpus.EntityRecord {
	return corpus.Stub(src, e.version, e.now(), err)
}

// state carries one extraction.
type state struct {
	e        *Extractor
	p        *page.Page
	tpl      *Template
	rec      *corpus.EntityRecord
	warnings []string
	// routed collects attribute values by template field, e.g. "domains".
	routed map[string][]string

	cachedBlocks []block
}

func (s *state) warn(w string) { s.warnings = append(s.warnings, w) }

// Extract maps p onto a record. It never fails; problems become warnings.
func (e *Extractor) Extract(p *page.Page) corpus.EntityRecord {
	src := p.Source
	rec := corpus.EntityRecord{
		Mythology: src.Mythology,
		Type:      src.EntityType,
		Metadata: corpus.Metadata{
			SourceFile:       src.Path,
			ExtractedAt:      e.now(),
			ExtractorVersion: e.version,
		},
	}
	s := &state{e: e, p: p, tpl: e.tpl.For(src.EntityType), rec: &rec, routed: map[string][]string{}}
	if src.Warning != "" {
		s.warn("source:" + src.Warning)
	}
	s.warnings = append(s.warnings, p.Warnings...)

	s.identity()
	s.display()
	s.attributes()
	s.narrative()
	s.relationships()
	s.payload()
	s.links()
	s.structured()
	s.sidecar()

	// A name with no Latin letters slugs to nothing and the id comes from
	// the file name instead.
	rec.ID = corpus.Slug(rec.Name)
	if rec.ID == "" {
		rec.ID = corpus.Slug(src.Stem())
		s.warn(WarnIDFromFilename)
	}
	rec.Metadata.CompletenessScore = e.weights.Score(&rec)
	rec.Status = corpus.StatusPublished
	if rec.Metadata.CompletenessScore < e.threshold {
		rec.Status = corpus.StatusDraft
		s.warn(WarnLowCompleteness)
	}
	rec.Metadata.Warnings = dedupe(s.warnings)
	e.log.Debug("extracted",
		zap.String("id", rec.ID),
		zap.String("source", src.Path),
		zap.Int("score", rec.Metadata.CompletenessScore),
		zap.Strings("warnings", rec.Metadata.Warnings))
	return rec
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, w := range in {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
