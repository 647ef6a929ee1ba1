package upload

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/store"
)

// CountCheck compares the expected number of documents with what the store
// holds. The store never deletes, so more than expected still passes.
type CountCheck struct {
	Expected int  `json:"expected"`
	Actual   int  `json:"actual"`
	OK       bool `json:"ok"`
}

// SampleCheck is the byte-level fetch of one record.
type SampleCheck struct {
	Mythology  corpus.Mythology `json:"mythology"`
	ID         string           `json:"id"`
	Scripts    []string         `json:"scripts,omitempty"`
	OK         bool             `json:"ok"`
	Mismatches []string         `json:"mismatches,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Verification is the post-upload query suite.
type Verification struct {
	ByMythology map[corpus.Mythology]CountCheck  `json:"byMythology"`
	ByType      map[corpus.EntityType]CountCheck `json:"byType"`
	Samples     []SampleCheck                    `json:"samples"`
	OK          bool                             `json:"ok"`
}

// Fields whose stored value legitimately differs from a fresh build: an
// unchanged document keeps its original extraction time.
var volatileFields = map[string]bool{"metadata.extractedAt": true}

// Verify runs the query suite for the ready records selected from records
// and verdicts.
func (d *Driver) Verify(ctx context.Context, records []corpus.EntityRecord, verdicts []corpus.ValidationVerdict) (*Verification, error) {
	if d.st == nil {
		return nil, corpus.NewConfigError("verify", "no document store configured")
	}
	selected, _ := d.Select(records, verdicts)
	return d.verify(ctx, selected)
}

// verify counts documents per mythology and per type and fetches one
// sample per mythology, preferring a record that carries non-Latin script.
func (d *Driver) verify(ctx context.Context, selected []*corpus.EntityRecord) (*Verification, error) {
	v := &Verification{
		ByMythology: map[corpus.Mythology]CountCheck{},
		ByType:      map[corpus.EntityType]CountCheck{},
	}
	samples := map[corpus.Mythology]*corpus.EntityRecord{}
	for _, r := range selected {
		c := v.ByMythology[r.Mythology]
		c.Expected++
		v.ByMythology[r.Mythology] = c
		t := v.ByType[r.Type]
		t.Expected++
		v.ByType[r.Type] = t
		if cur, ok := samples[r.Mythology]; !ok || (len(sampleScripts(cur)) == 0 && len(sampleScripts(r)) > 0) {
			samples[r.Mythology] = r
		}
	}

	myths := make([]corpus.Mythology, 0, len(v.ByMythology))
	for m := range v.ByMythology {
		myths = append(myths, m)
	}
	types := make([]corpus.EntityType, 0, len(v.ByType))
	for t := range v.ByType {
		types = append(types, t)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.VerifyConcurrency)
	for _, m := range myths {
		g.Go(func() error {
			n, err := d.st.Count(gctx, "mythology", string(m))
			if err != nil {
				return err
			}
			mu.Lock()
			c := v.ByMythology[m]
			c.Actual, c.OK = n, n >= c.Expected
			v.ByMythology[m] = c
			mu.Unlock()
			return nil
		})
	}
	for _, t := range types {
		g.Go(func() error {
			n, err := d.st.Count(gctx, "type", string(t))
			if err != nil {
				return err
			}
			mu.Lock()
			c := v.ByType[t]
			c.Actual, c.OK = n, n >= c.Expected
			v.ByType[t] = c
			mu.Unlock()
			return nil
		})
	}
	for _, r := range samples {
		g.Go(func() error {
			check := d.sample(gctx, r)
			mu.Lock()
			v.Samples = append(v.Samples, check)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(v.Samples, func(i, j int) bool { return v.Samples[i].Mythology < v.Samples[j].Mythology })
	v.OK = true
	for _, c := range v.ByMythology {
		v.OK = v.OK && c.OK
	}
	for _, c := range v.ByType {
		v.OK = v.OK && c.OK
	}
	for _, s := range v.Samples {
		v.OK = v.OK && s.OK
	}
	d.log.Info("verification complete", zap.Bool("ok", v.OK), zap.Int("samples", len(v.Samples)))
	return v, nil
}

func (d *Driver) sample(ctx context.Context, r *corpus.EntityRecord) SampleCheck {
	check := SampleCheck{Mythology: r.Mythology, ID: r.ID, Scripts: sampleScripts(r)}
	want, err := BuildDocument(r, d.opts.Readings)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	got, err := d.st.Get(ctx, r.ID)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	stored := store.StringLeaves(got.Fields)
	for path, s := range store.StringLeaves(want.Fields) {
		if volatileFields[path] {
			continue
		}
		if stored[path] != s {
			check.Mismatches = append(check.Mismatches, path)
		}
	}
	sort.Strings(check.Mismatches)
	check.OK = len(check.Mismatches) == 0
	return check
}

func sampleScripts(r *corpus.EntityRecord) []string {
	parts := []string{r.Name, r.Subtitle}
	if r.Icon != nil {
		parts = append(parts, r.Icon.Glyph)
	}
	if r.Linguistic != nil {
		parts = append(parts, r.Linguistic.OriginalName, r.Linguistic.Transliteration)
	}
	return corpus.ScriptsIn(strings.Join(parts, " "))
}
