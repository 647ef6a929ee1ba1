package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/mythos/pkg/corpus"
)

func TestDefaultWeightsSumTo100(t *testing.T) {
	w := DefaultWeights
	sum := w.ID + w.Name + w.Mythology + w.Type + w.AttributeCap +
		w.Description + w.KeyMyths + w.Sources + w.Family + w.AlliesEnemies + w.Parallels
	assert.Equal(t, 100, sum)
}

func TestVersionTracksWeights(t *testing.T) {
	v := VersionString(DefaultWeights)
	assert.True(t, strings.HasPrefix(v, Semver+"+w"), v)
	assert.Equal(t, v, VersionString(DefaultWeights))

	other := DefaultWeights
	other.Sources = 6
	assert.NotEqual(t, v, VersionString(other))
}

// The Horus page is cut down one region at a time; the score must never
// rise as recognized content disappears.
func TestCompletenessMonotonic(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "mythos", "egyptian", "deities", "horus.html"))
	require.NoError(t, err)
	html := string(raw)

	cuts := []struct{ from, to string }{
		{`<section id="sources">`, `</section>`},
		{`<section class="interlink-panel">`, `</section>`},
		{`<h3>Allies &amp; Enemies</h3>`, `</ul>`},
		{`<h3>Family</h3>`, `</ul>`},
		{`<h3>Key Myths</h3>`, `</ul>`},
		{`<section id="mythology">`, `</section>`},
		{`<div class="attribute-card">`, "</div>\n    </div>"},
		{`<div class="attribute-card">`, "</div>\n    </div>"},
		{`<section id="attributes">`, `</section>`},
		{`<h1>Horus</h1>`, `</h1>`},
	}

	e := newExtractor(t, Options{})
	prev := extractHTML(t, e, "mythos/egyptian/deities/horus.html", html).Metadata.CompletenessScore
	require.Equal(t, 100, prev)
	for _, c := range cuts {
		start := strings.Index(html, c.from)
		require.GreaterOrEqual(t, start, 0, "fixture lost %q", c.from)
		end := strings.Index(html[start:], c.to)
		require.GreaterOrEqual(t, end, 0)
		html = html[:start] + html[start+end+len(c.to):]

		score := extractHTML(t, e, "mythos/egyptian/deities/horus.html", html).Metadata.CompletenessScore
		assert.LessOrEqual(t, score, prev, "removing %q raised the score", c.from)
		assert.GreaterOrEqual(t, score, 0)
		prev = score
	}
}

func TestScoreAddingFieldsNeverDecreases(t *testing.T) {
	w := DefaultWeights
	r := &corpus.EntityRecord{}
	steps := []func(){
		func() { r.ID = "zeus" },
		func() { r.Name = "Zeus" },
		func() { r.Mythology = "greek" },
		func() { r.Type = corpus.TypeDeity },
		func() { r.Attributes = corpus.Attributes{"symbols": corpus.List("thunderbolt")} },
		func() { r.Attributes["domains"] = corpus.List("sky") },
		func() { r.LongDescription = "King of the gods." },
		func() { r.KeyMyths = []corpus.Myth{{Title: "Titanomachy"}} },
		func() { r.Sources = []string{"Hesiod"} },
		func() { r.Relationships = &corpus.Relationships{Family: &corpus.Family{Parents: corpus.Names{"Cronus"}}} },
		func() { r.Relationships.CrossCulturalParallels = []corpus.Parallel{{Name: "Jupiter", Mythology: "roman"}} },
	}
	prev := w.Score(r)
	for i, step := range steps {
		step()
		got := w.Score(r)
		assert.GreaterOrEqual(t, got, prev, "step %d", i)
		prev = got
	}
	assert.LessOrEqual(t, prev, 100)
}

func TestLoadTemplatesOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
common:
  labels:
    shipsName: {}
types:
  hero:
    labels:
      quest: {plural: true, field: quest}
`), 0o644))

	tpl, err := LoadTemplates(path)
	require.NoError(t, err)
	e := newExtractor(t, Options{Templates: tpl})
	rec := extractFixture(t, e, "mythos/greek/heroes/jason.html")
	assert.NotContains(t, rec.Metadata.Warnings, WarnUnknownAttribute+"shipsName")
	assert.Equal(t, corpus.List("retrieve the Golden Fleece"), rec.Attributes["quest"])
	// Types absent from the overlay keep the embedded template.
	_, ok := tpl.For(corpus.TypeDeity).Rule("vahana")
	assert.True(t, ok)

	_, err = LoadTemplates(filepath.Join(dir, "missing.yaml"))
	var cfgErr *corpus.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	require.NoError(t, os.WriteFile(path, []byte("types:\n  wizard: {}\n"), 0o644))
	_, err = LoadTemplates(path)
	assert.ErrorAs(t, err, &cfgErr)
}
