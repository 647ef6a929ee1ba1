package extract

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newExtractor(t *testing.T, opts Options) *Extractor {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	opts.NoReadability = true
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func source(rel string) corpus.SourceDescriptor {
	m, typ := corpus.Classify(rel)
	return corpus.SourceDescriptor{Path: rel, Mythology: m, EntityType: typ}
}

func extractFixture(t *testing.T, e *Extractor, rel string) corpus.EntityRecord {
	t.Helper()
	rec, err := e.ExtractFile("testdata", source(rel))
	require.NoError(t, err)
	return rec
}

func extractHTML(t *testing.T, e *Extractor, rel, html string) corpus.EntityRecord {
	t.Helper()
	p, err := page.Parse(source(rel), []byte(html))
	require.NoError(t, err)
	return e.Extract(p)
}

func TestHieroglyphIcon(t *testing.T) {
	e := newExtractor(t, Options{})
	rec := extractFixture(t, e, "mythos/egyptian/deities/horus.html")

	require.NotNil(t, rec.Icon)
	assert.Equal(t, corpus.Icon{Glyph: "\U00013080", FontHint: "egyptian-hieroglyph"}, *rec.Icon)
	assert.Equal(t, corpus.TypeDeity, rec.Type)
	assert.Equal(t, corpus.Mythology("egyptian"), rec.Mythology)
	assert.NotContains(t, rec.Metadata.Warnings, WarnMissingIcon)

	data, err := corpus.Encode(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"icon":{"glyph":"𓂀","fontHint":"egyptian-hieroglyph"}`)
}

func TestHorusRecord(t *testing.T) {
	e := newExtractor(t, Options{})
	rec := extractFixture(t, e, "mythos/egyptian/deities/horus.html")

	assert.Equal(t, "horus", rec.ID)
	assert.Equal(t, "Horus", rec.Name)
	assert.Equal(t, "Falcon-headed god of the sky and kingship", rec.Subtitle)
	assert.True(t, strings.HasPrefix(rec.LongDescription, "Horus was conceived"))
	assert.Equal(t, corpus.List("Sky", "kingship", "protection", "war"), rec.Attributes["domains"])
	assert.Equal(t, corpus.List("Falcon"), rec.Attributes["sacredAnimals"])
	assert.Equal(t, corpus.Scalar("Edfu"), rec.Attributes["cultCenter"])

	require.Len(t, rec.KeyMyths, 2)
	assert.Equal(t, corpus.Myth{
		Title:       "The Contendings of Horus and Seth",
		Description: "An eighty-year dispute before the Ennead over the kingship.",
	}, rec.KeyMyths[0])
	assert.Len(t, rec.Sources, 2)

	require.NotNil(t, rec.Relationships)
	assert.Equal(t, corpus.Names{"Osiris", "Isis"}, rec.Relationships.Family.Parents)
	assert.Equal(t, corpus.Names{"Hathor"}, rec.Relationships.Family.Consorts)
	assert.Len(t, rec.Relationships.Family.Children, 4)
	assert.Equal(t, corpus.Names{"Seth"}, rec.Relationships.AlliesEnemies.Enemies)
	assert.Equal(t, []corpus.Parallel{{Name: "Apollo", Mythology: "greek", URL: "../../greek/deities/apollo.html"}},
		rec.Relationships.CrossCulturalParallels)

	d := rec.Deity()
	require.NotNil(t, d)
	assert.Equal(t, []string{"Edfu"}, d.Worship.SacredSites)
	assert.Equal(t, []string{"Eye of Horus", "falcon", "double crown"}, d.Symbols)
	assert.Equal(t, []string{"Falcon"}, d.Sacred.Animals)

	require.NotNil(t, rec.Linguistic)
	assert.Equal(t, "Ḥr", rec.Linguistic.OriginalName)

	assert.Equal(t, 100, rec.Metadata.CompletenessScore)
	assert.Equal(t, corpus.StatusPublished, rec.Status)
	assert.Equal(t, e.Version(), rec.Metadata.ExtractorVersion)
	assert.Equal(t, fixedNow, rec.Metadata.ExtractedAt)
	assert.Empty(t, rec.Metadata.Warnings)
}

func TestHeroLabors(t *testing.T) {
	e := newExtractor(t, Options{})
	rec := extractFixture(t, e, "mythos/greek/heroes/heracles.html")

	assert.Equal(t, "Heracles", rec.Name)
	assert.Equal(t, "heracles", rec.ID)
	h := rec.Hero()
	require.NotNil(t, h)
	require.Len(t, h.Labors, 12)
	assert.Equal(t, 1, h.Labors[0].Number)
	assert.Equal(t, "Nemean Lion", h.Labors[0].Title)
	assert.Equal(t, 12, h.Labors[11].Number)
	assert.Equal(t, "Cerberus", h.Labors[11].Title)
	assert.Equal(t, "Complete twelve labors for King Eurystheus.", h.Quest)
	assert.Equal(t, []string{"Club", "bow", "lion skin"}, h.Weapons)
	require.Len(t, h.Narrative, 2)
	assert.Equal(t, "Birth", h.Narrative[0].Title)
	assert.Equal(t, corpus.Icon{Glyph: "🦁"}, *rec.Icon)
	assert.NotContains(t, rec.Metadata.Warnings, WarnMissingHeader)
}

func TestAttributeSplit(t *testing.T) {
	e := newExtractor(t, Options{})
	rec := extractFixture(t, e, "mythos/greek/heroes/jason.html")

	assert.Equal(t, corpus.List("lotus", "discus", "conch"), rec.Attributes["symbols"])
	assert.Equal(t, corpus.Scalar("retrieve the Golden Fleece"), rec.Attributes["quest"])
	assert.Equal(t, "retrieve the Golden Fleece", rec.Hero().Quest)
	assert.Equal(t, corpus.Inline(`Raised by <a href="chiron.html">Chiron</a> on Pelion`), rec.Attributes["mentor"])

	assert.Contains(t, rec.Metadata.Warnings, WarnUnknownAttribute+"shipsName")
	assert.Contains(t, rec.Metadata.Warnings, WarnUnknownParallel+"atlantean")
	assert.Contains(t, rec.Metadata.Warnings, WarnMissingMythology)
	require.Len(t, rec.Relationships.CrossCulturalParallels, 2)
	assert.Equal(t, corpus.Mythology("norse"), rec.Relationships.CrossCulturalParallels[0].Mythology)
}

func TestDeityWorshipFormsAndSidecar(t *testing.T) {
	e := newExtractor(t, Options{SidecarDir: "testdata/sidecars"})
	rec := extractFixture(t, e, "mythos/hindu/deities/vishnu.html")

	d := rec.Deity()
	require.NotNil(t, d)
	assert.Equal(t, []string{"Tirupati", "Srirangam"}, d.Worship.SacredSites)
	assert.Equal(t, []string{"Vaikuntha Ekadashi"}, d.Worship.Festivals)
	assert.Equal(t, []corpus.Form{
		{Name: "Matsya", Description: "The fish who saved Manu from the flood."},
		{Name: "Rama", Description: "Prince of Ayodhya."},
	}, d.Forms)
	assert.Equal(t, []string{"Om Namo Narayanaya", "Oṃ Namo Bhagavate Vāsudevāya"}, d.Mantras)
	assert.Equal(t, []string{"Garuda"}, d.Vahana)
	assert.Equal(t, corpus.Names{"Lakshmi", "Bhudevi"}, rec.Relationships.Family.Consorts)

	require.NotNil(t, rec.Linguistic)
	assert.Equal(t, "विष्णु", rec.Linguistic.OriginalName)
	assert.Equal(t, "devanagari", rec.Linguistic.OriginalScript)
	assert.Equal(t, "sa", rec.Linguistic.LanguageCode)
	assert.Equal(t, "Viṣṇu", rec.Linguistic.Transliteration)

	// Sidecar wins over the page and merges attributes key by key.
	assert.Equal(t, "Preserver of the universe", rec.ShortDescription)
	assert.Equal(t, corpus.List("preservation", "dharma"), rec.Attributes["domains"])
	assert.Equal(t, corpus.List("lotus", "discus", "conch"), rec.Attributes["symbols"])
	require.NotNil(t, rec.Temporal)
	assert.Equal(t, "Vedic period", rec.Temporal.CulturalPeriod)
}

func TestIdentityIsDeterministic(t *testing.T) {
	e := newExtractor(t, Options{})
	for _, rel := range []string{
		"mythos/egyptian/deities/horus.html",
		"mythos/greek/heroes/heracles.html",
		"mythos/greek/heroes/jason.html",
		"mythos/hindu/deities/vishnu.html",
	} {
		a := extractFixture(t, e, rel)
		b := extractFixture(t, e, rel)
		assert.Equal(t, corpus.Slug(a.Name), a.ID, rel)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("%s: second extraction differs (-first +second):\n%s", rel, diff)
		}
	}
}

func TestNameFallbacks(t *testing.T) {
	e := newExtractor(t, Options{})

	rec := extractHTML(t, e, "mythos/norse/deities/tyr.html", `<html><head><title>Týr - Norse Mythology</title></head><body><p>x</p></body></html>`)
	assert.Equal(t, "Týr", rec.Name)
	assert.Equal(t, "tr", rec.ID)
	assert.Contains(t, rec.Metadata.Warnings, WarnMissingHeader)
	assert.Contains(t, rec.Metadata.Warnings, WarnEmptyAttributes)

	rec = extractHTML(t, e, "mythos/norse/beings/fenris_wolf.html", `<html><body><p>nothing here</p></body></html>`)
	assert.Equal(t, "Fenris Wolf", rec.Name)
	assert.Equal(t, "fenris-wolf", rec.ID)
	assert.Equal(t, corpus.StatusDraft, rec.Status)
	assert.Contains(t, rec.Metadata.Warnings, WarnLowCompleteness)
}

func TestNonLatinNameTakesIDFromFilename(t *testing.T) {
	e := newExtractor(t, Options{})
	html := `<html><body><section class="deity-header"><h1>天照大神</h1></section></body></html>`
	rec := extractHTML(t, e, "mythos/japanese/deities/amaterasu.html", html)
	assert.Equal(t, "天照大神", rec.Name)
	assert.Equal(t, "", corpus.Slug(rec.Name))
	assert.Equal(t, "amaterasu", rec.ID)
	assert.Contains(t, rec.Metadata.Warnings, WarnIDFromFilename)

	again := extractHTML(t, e, "mythos/japanese/deities/amaterasu.html", html)
	assert.Equal(t, rec.ID, again.ID)

	latin := extractHTML(t, e, "mythos/japanese/deities/amaterasu.html",
		`<html><body><section class="deity-header"><h1>Amaterasu Omikami</h1></section></body></html>`)
	assert.Equal(t, corpus.Slug(latin.Name), latin.ID)
	assert.NotContains(t, latin.Metadata.Warnings, WarnIDFromFilename)
}

func TestScriptPreservation(t *testing.T) {
	samples := []string{"𓂀𓁹", "ॐ नमः शिवाय", "天照大御神", "あまてらす", "アマテラス", "יהוה", "الله", "Lakṣmī", "Æsir"}
	for _, s := range samples {
		html := `<html><body><section class="deity-header"><h1>` + s + `</h1><p class="subtitle">` + s + `</p></section>` +
			`<section id="attributes"><div class="attribute-card"><div class="attribute-label">Epithets</div><div class="attribute-value">` + s + `</div></div></section></body></html>`
		e := newExtractor(t, Options{})
		rec := extractHTML(t, e, "mythos/comparative/deities/x.html", html)
		data, err := corpus.Encode(rec)
		require.NoError(t, err)
		assert.Contains(t, string(data), s, "script sample %q must survive byte for byte", s)

		var back corpus.EntityRecord
		require.NoError(t, json.Unmarshal(data, &back))
		if diff := cmp.Diff(rec, back, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%q: round trip differs:\n%s", s, diff)
		}
	}
}

func TestExtractFileStubsParseFailures(t *testing.T) {
	e := newExtractor(t, Options{})
	dir := t.TempDir()
	src := source("mythos/greek/deities/empty.html")
	writeFile(t, dir, src.Path, "   ")
	rec, err := e.ExtractFile(dir, src)
	require.Error(t, err)
	assert.Equal(t, corpus.StatusExtractionFailed, rec.Status)
	assert.Equal(t, "empty", rec.ID)
	assert.NotEmpty(t, rec.Error)
	assert.Equal(t, src.Path, rec.Metadata.SourceFile)
}
