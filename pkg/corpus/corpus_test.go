package corpus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Zeus":                  "zeus",
		"  Heracles (Hercules) ": "heracles-hercules",
		"golden_fleece":         "golden-fleece",
		"Amun-Ra":               "amun-ra",
		"Mount   Olympus":       "mount-olympus",
		"--Odin--":              "odin",
		"Yggdrasil's Root":      "yggdrasils-root",
		"Ātman":                 "tman",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "Slug(%q)", in)
	}
}

func TestSlugIsIdempotent(t *testing.T) {
	for _, in := range []string{"Quetzalcoatl", "Thoth & Seshat", "Key_Myths  2"} {
		once := Slug(in)
		assert.Equal(t, once, Slug(once))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		myth Mythology
		typ  EntityType
	}{
		{"mythos/egyptian/deities/horus.html", "egyptian", TypeDeity},
		{"mythos/greek/heroes/heracles.html", "greek", TypeHero},
		{"mythos/norse/beings/fenrir.html", "norse", TypeCreature},
		{"mythos/hindu/cosmology/loka.html", "hindu", TypeCosmology},
		{"mythos/celtic/misc/notes.html", "celtic", TypeOther},
		{"site/mythos/Japanese/places/takamagahara.html", "japanese", TypePlace},
		{"mythos/stray.html", "", TypeOther},
		{"about.html", "", TypeOther},
		{"docs/deities/guide.html", "", TypeDeity},
	}
	for _, tt := range tests {
		m, ty := Classify(tt.path)
		assert.Equal(t, tt.myth, m, tt.path)
		assert.Equal(t, tt.typ, ty, tt.path)
	}
}

func TestAttributeValueJSON(t *testing.T) {
	attrs := Attributes{
		"symbols": List("lotus", "discus", "conch"),
		"quest":   Scalar("retrieve the Golden Fleece"),
		"consort": Inline(`<a href="../deities/lakshmi.html">Lakshmi</a> & Bhudevi`),
	}
	data, err := Encode(attrs)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"symbols":["lotus","discus","conch"]`)
	assert.Contains(t, string(data), `"quest":"retrieve the Golden Fleece"`)
	assert.Contains(t, string(data), `<a href=\"../deities/lakshmi.html\">Lakshmi</a> & Bhudevi`)

	var back Attributes
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, attrs, back)
}

func TestNamesEncodesSingleAsString(t *testing.T) {
	data, err := Encode(Family{Parents: Names{"Kronos", "Rhea"}, Consorts: Names{"Hera"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"parents":["Kronos","Rhea"],"consorts":"Hera"}`, string(data))
}

func TestIconEncoding(t *testing.T) {
	data, err := Encode(Icon{Glyph: "𓂀", FontHint: "egyptian-hieroglyph"})
	require.NoError(t, err)
	assert.Equal(t, `{"glyph":"𓂀","fontHint":"egyptian-hieroglyph"}`, string(data))

	data, err = Encode(Icon{Glyph: "⚡"})
	require.NoError(t, err)
	assert.Equal(t, `"⚡"`, string(data))
}

func sampleRecord() EntityRecord {
	return EntityRecord{
		ID:        "vishnu",
		Name:      "Vishnu",
		Mythology: "hindu",
		Type:      TypeDeity,
		Status:    StatusPublished,
		Icon:      &Icon{Glyph: "ॐ"},
		Subtitle:  "The Preserver · विष्णु",
		Attributes: Attributes{
			"symbols": List("lotus", "discus", "conch"),
			"mount":   Scalar("Garuda"),
		},
		Sections: []Section{{Title: "Overview", Level: 2, Content: []ContentItem{
			{Type: ContentParagraph, Text: "Viṣṇu preserves dharma."},
			{Type: ContentList, Items: []string{"Matsya", "Kurma"}, Ordered: true},
		}}},
		Relationships: &Relationships{
			Family:                 &Family{Consorts: Names{"Lakshmi"}},
			CrossCulturalParallels: []Parallel{{Name: "Zeus", Mythology: "greek", URL: "../../greek/deities/zeus.html"}},
		},
		Payload: &DeityPayload{
			Mantras: []string{"ॐ नमो नारायणाय"},
			Forms:   []Form{{Name: "Narasimha", Description: "Man-lion"}},
			Worship: &Worship{Festivals: []string{"Vaikuntha Ekadashi"}},
		},
		Linguistic: &Linguistic{OriginalName: "विष्णु", OriginalScript: "Devanagari", Transliteration: "Viṣṇu", LanguageCode: "sa"},
		Links:      &Links{Internal: []Link{{Href: "../deities/lakshmi.html", Text: "Lakshmi"}}},
		Sources:    []string{"Vishnu Purana"},
		Metadata: Metadata{
			SourceFile:        "mythos/hindu/deities/vishnu.html",
			ExtractedAt:       time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
			ExtractorVersion:  "test",
			CompletenessScore: 82,
			Warnings:          []string{"missing-icon"},
		},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := sampleRecord()
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back EntityRecord
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(rec, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, back.Deity())
	assert.Nil(t, back.Hero())
}

func TestRecordPreservesScriptBytes(t *testing.T) {
	rec := sampleRecord()
	data, err := Encode(rec)
	require.NoError(t, err)
	for _, s := range []string{"विष्णु", "Viṣṇu", "ॐ नमो नारायणाय"} {
		assert.Contains(t, string(data), s)
	}
}

func TestReferences(t *testing.T) {
	rec := sampleRecord()
	rec.Links.Internal = append(rec.Links.Internal,
		Link{Href: "../../greek/deities/zeus.html#family"},
		Link{Href: "../index.html"},
		Link{Href: "https://en.wikipedia.org/wiki/Vishnu"},
	)
	refs := rec.References()
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.TargetID)
	}
	assert.Equal(t, []string{"zeus", "lakshmi"}, ids)
	assert.Equal(t, "relationships.crossCulturalParallels[0].url", refs[0].Path)
}

func TestStubCarriesSource(t *testing.T) {
	src := SourceDescriptor{Path: "mythos/norse/deities/Loki_Trickster.html", Mythology: "norse", EntityType: TypeDeity}
	stub := Stub(src, "v", time.Now(), assert.AnError)
	assert.Equal(t, "loki-trickster", stub.ID)
	assert.Equal(t, StatusExtractionFailed, stub.Status)
	assert.Equal(t, src.Path, stub.Metadata.SourceFile)
	assert.NotEmpty(t, stub.Error)
}
