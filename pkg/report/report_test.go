package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/upload"
	"github.com/japaniel/mythos/pkg/validate"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(myth corpus.Mythology, typ corpus.EntityType, id string, score int) corpus.EntityRecord {
	return corpus.EntityRecord{
		ID:        id,
		Name:      id,
		Mythology: myth,
		Type:      typ,
		Status:    corpus.StatusPublished,
		Metadata: corpus.Metadata{
			SourceFile:        "mythos/" + string(myth) + "/" + string(typ) + "/" + id + ".html",
			ExtractedAt:       now,
			ExtractorVersion:  "1.4.0+wdeadbeef",
			CompletenessScore: score,
		},
	}
}

func fixtureRecords() []corpus.EntityRecord {
	horus := record("egyptian", corpus.TypeDeity, "horus", 80)
	horus.Icon = &corpus.Icon{Glyph: "\U00013080", FontHint: "egyptian-hieroglyph"}
	horus.Attributes = corpus.Attributes{
		"domains": corpus.List("sky", "kingship"),
		"epithet": corpus.Inline(`<em>Lord</em> of the sky &amp; sun`),
	}
	horus.Payload = &corpus.DeityPayload{Domains: []string{"sky", "kingship"}}

	setDeity := record("egyptian", corpus.TypeDeity, "set", 60)
	setConcept := record("egyptian", corpus.TypeConcept, "set", 20)
	setConcept.Status = corpus.StatusDraft
	failed := corpus.Stub(corpus.SourceDescriptor{
		Path:       "mythos/hindu/deities/broken.html",
		Mythology:  "hindu",
		EntityType: corpus.TypeDeity,
	}, "1.4.0+wdeadbeef", now, errors.New("no DOM"))
	vishnu := record("hindu", corpus.TypeDeity, "vishnu", 90)
	vishnu.Linguistic = &corpus.Linguistic{OriginalName: "विष्णु", Transliteration: "Viṣṇu"}
	return []corpus.EntityRecord{horus, setDeity, setConcept, failed, vishnu}
}

func TestWriteExtractedThenLoad(t *testing.T) {
	dir := t.TempDir()
	records := fixtureRecords()
	skipped := []corpus.SourceDescriptor{{Path: "mythos/hindu/deities/blob.html", Mythology: "hindu", Warning: "not a text file"}}

	sums, err := WriteExtracted(dir, "1.4.0+wdeadbeef", records, skipped, now)
	require.NoError(t, err)

	eg := sums["egyptian"]
	require.NotNil(t, eg)
	assert.Equal(t, 3, eg.Total)
	assert.Equal(t, 2, eg.Published)
	assert.Equal(t, 1, eg.Draft)
	assert.InDelta(t, 160.0/3, eg.AverageScore, 1e-9)
	assert.Contains(t, eg.Files, "set--deity.json")
	assert.Contains(t, eg.Files, "set--concept.json")
	assert.Contains(t, eg.Files, "horus.json")

	hi := sums["hindu"]
	assert.Equal(t, 1, hi.Failed)
	assert.Equal(t, 1, hi.Skipped)
	assert.Equal(t, []string{"mythos/hindu/deities/broken.html"}, hi.FailedFiles)
	assert.FileExists(t, filepath.Join(dir, "hindu", SummaryFile))

	raw, err := os.ReadFile(filepath.Join(dir, "egyptian", "horus.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\U00013080", "glyph must be stored unescaped")
	assert.Contains(t, string(raw), `<em>Lord</em> of the sky &amp; sun`)
	assert.NotContains(t, string(raw), `\u`)

	loaded, failures, err := LoadCorpus(dir, "")
	require.NoError(t, err)
	assert.Empty(t, failures)
	want := append([]corpus.EntityRecord(nil), records...)
	sortRecords(want)
	sortRecords(loaded)
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Fatalf("round trip changed records (-want +got):\n%s", diff)
	}

	only, _, err := LoadCorpus(dir, "hindu")
	require.NoError(t, err)
	assert.Len(t, only, 2)
}

func TestWriteExtractedKeepsSameTypeDuplicates(t *testing.T) {
	dir := t.TempDir()
	apollo := record("greek", corpus.TypeDeity, "apollo", 70)
	phoebus := record("greek", corpus.TypeDeity, "apollo", 65)
	phoebus.Metadata.SourceFile = "mythos/greek/deities/phoebus.html"
	again := record("greek", corpus.TypeDeity, "apollo", 60)
	again.Metadata.SourceFile = "mythos/greek/deities/archive/apollo.html"
	records := []corpus.EntityRecord{apollo, phoebus, again}

	sums, err := WriteExtracted(dir, "v", records, nil, now)
	require.NoError(t, err)
	gr := sums["greek"]
	assert.Equal(t, 3, gr.Total)
	assert.Equal(t, map[string]string{
		"apollo--deity.json":          "mythos/greek/deity/apollo.html",
		"apollo--deity--phoebus.json": "mythos/greek/deities/phoebus.html",
		"apollo--deity-2.json":        "mythos/greek/deities/archive/apollo.html",
	}, gr.Files)

	loaded, failures, err := LoadCorpus(dir, "")
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, loaded, 3)

	res, err := validate.New(validate.Policy{}, nil).Validate(context.Background(), loaded)
	require.NoError(t, err)
	for _, v := range res.Verdicts {
		assert.False(t, v.Ready, v.SourceFile)
		assert.True(t, hasIssue(v, corpus.IssueDuplicateID), v.SourceFile)
	}
}

func TestWriteExtractedLoadsUnclassified(t *testing.T) {
	dir := t.TempDir()
	stray := record("", corpus.TypeOther, "about", 10)
	stray.Metadata.SourceFile = "about.html"
	_, err := WriteExtracted(dir, "v", []corpus.EntityRecord{stray, record("greek", corpus.TypeDeity, "zeus", 80)}, nil, now)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, UnclassifiedDir, "about.json"))
	assert.NoFileExists(t, filepath.Join(dir, "about.json"))

	loaded, _, err := LoadCorpus(dir, "")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func hasIssue(v corpus.ValidationVerdict, kind corpus.IssueKind) bool {
	for _, is := range v.Issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

func sortRecords(rs []corpus.EntityRecord) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && corpus.Less(&rs[j], &rs[j-1]); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

func TestLoadCorpusReportsSyntaxFailures(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteExtracted(dir, "v", fixtureRecords()[:1], nil, now)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "egyptian", "bad.json"), []byte(`{"id": "bad",`), 0o644))

	records, failures, err := LoadCorpus(dir, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "egyptian/bad.json", failures[0].SourceFile)
	assert.False(t, failures[0].Ready)
	assert.Equal(t, corpus.IssueSyntax, failures[0].Issues[0].Kind)

	_, _, err = LoadCorpus(filepath.Join(dir, "missing"), "")
	var cfgErr *corpus.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	res, err := validate.New(validate.DefaultPolicy, nil).Validate(t.Context(), fixtureRecords())
	require.NoError(t, err)
	p, err := WriteValidation(dir, validate.DefaultPolicy, res, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ValidationFile), p)

	back, err := ReadValidation(dir)
	require.NoError(t, err)
	assert.Equal(t, validate.DefaultPolicy, back.Policy)
	assert.Equal(t, res.Summary.Ready, back.Summary.Ready)
	if diff := cmp.Diff(res.Verdicts, back.Verdicts); diff != "" {
		t.Fatalf("verdicts changed (-want +got):\n%s", diff)
	}
}

func TestIndexManifest(t *testing.T) {
	m := Indexes("entities")
	require.Len(t, m.Indexes, 5)
	for _, idx := range m.Indexes {
		assert.Equal(t, "entities", idx.CollectionGroup)
		assert.Equal(t, "COLLECTION", idx.QueryScope)
	}
	assert.Equal(t, []IndexField{
		{FieldPath: "tags", ArrayConfig: "CONTAINS"},
		{FieldPath: "createdAt", Order: "DESCENDING"},
	}, m.Indexes[3].Fields)

	dir := t.TempDir()
	p, err := WriteIndexes(dir, "entities")
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"arrayConfig": "CONTAINS"`)
	assert.Contains(t, string(data), `"fieldOverrides": []`)
}

func TestTrackerPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrackerFile)
	tr, err := LoadTracker(path, now)
	require.NoError(t, err)

	id := tr.Begin(StageExtract, now)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	tr.RecordExtraction(fixtureRecords())
	tr.End(StageExtract, now.Add(time.Minute), nil)
	tr.Begin(StageUpload, now.Add(2*time.Minute))
	tr.RecordUpload(&upload.Report{
		ByMythology: map[corpus.Mythology]*upload.Tally{"hindu": {Uploaded: 1, Errors: 1}},
		Verification: &upload.Verification{
			ByMythology: map[corpus.Mythology]upload.CountCheck{"hindu": {Expected: 1, Actual: 1, OK: true}},
			Samples:     []upload.SampleCheck{{Mythology: "hindu", ID: "vishnu", OK: true}},
		},
	})
	tr.End(StageUpload, now.Add(3*time.Minute), errors.New("upload aborted"))
	require.NoError(t, tr.Save())

	back, err := LoadTracker(path, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, now, back.CreatedAt.UTC())
	assert.Equal(t, id, back.Stages[StageExtract].RunID)
	assert.True(t, back.Stages[StageExtract].OK)
	assert.False(t, back.Stages[StageUpload].OK)
	assert.Equal(t, "upload aborted", back.Stages[StageUpload].Error)
	assert.Equal(t, Progress{Extracted: 2, Failed: 1, Uploaded: 1, Errors: 1, Verified: true}, *back.Mythologies["hindu"])
	assert.Equal(t, 3, back.Mythologies["egyptian"].Extracted)

	// A second extraction replaces rather than accumulates.
	back.RecordExtraction(fixtureRecords()[:1])
	assert.Equal(t, 1, back.Mythologies["egyptian"].Extracted)
}

func TestRenderUploadReport(t *testing.T) {
	rep := &upload.Report{
		Tally:   upload.Tally{Uploaded: 2, Updated: 1, Errors: 1},
		Skipped: 3,
		ByMythology: map[corpus.Mythology]*upload.Tally{
			"norse":    {Uploaded: 1, Errors: 1},
			"egyptian": {Uploaded: 1, Updated: 1},
		},
		ByType:   map[corpus.EntityType]*upload.Tally{"deity": {Uploaded: 2, Updated: 1, Errors: 1}},
		Failures: []upload.Failure{{ID: "fenrir", Mythology: "norse", SourceFile: "mythos/norse/beings/fenrir.html", Error: "rejected | bad"}},
		Verification: &upload.Verification{
			ByMythology: map[corpus.Mythology]upload.CountCheck{"egyptian": {OK: true}, "norse": {OK: false}},
			Samples: []upload.SampleCheck{
				{Mythology: "egyptian", ID: "horus", Scripts: []string{"egyptian-hieroglyphs"}, OK: true},
			},
		},
	}
	summary := validate.Summary{Total: 6, Ready: 3, NotReady: 3,
		ByKind:      map[corpus.IssueKind]int{corpus.IssueDuplicateID: 2},
		ByMythology: map[corpus.Mythology]validate.Counts{"egyptian": {Total: 2, Ready: 2}, "norse": {Total: 4, Ready: 1}}}

	out, err := RenderUploadReport(rep, &summary, now)
	require.NoError(t, err)
	md := string(out)
	assert.True(t, strings.HasPrefix(md, "# All Mythologies Upload Report\n"))
	assert.Contains(t, md, "| 2 | 1 | 0 | 1 | 3 |")
	assert.Contains(t, md, "3 of 6 records are ready")
	assert.Contains(t, md, "| duplicate-id | 2 |")
	assert.Contains(t, md, "| egyptian | 2 | 1 | 1 | 0 | 0 | yes |")
	assert.Contains(t, md, "| norse | 1 | 1 | 0 | 0 | 1 | no |")
	assert.Contains(t, md, "| egyptian | horus | egyptian-hieroglyphs | ok |")
	assert.Contains(t, md, `rejected \| bad`)
	assert.Less(t, strings.Index(md, "| egyptian | 2 |"), strings.Index(md, "| norse | 1 |"))
	assert.NotContains(t, md, "Dry run")
}
