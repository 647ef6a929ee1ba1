package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/extract"
	"github.com/japaniel/mythos/pkg/walker"
)

// listSource replays a fixed set of descriptors.
type listSource []corpus.SourceDescriptor

func (l listSource) Root() string { return "root" }

func (l listSource) Walk(ctx context.Context) <-chan corpus.SourceDescriptor {
	out := make(chan corpus.SourceDescriptor, len(l))
	for _, d := range l {
		out <- d
	}
	close(out)
	return out
}

// fakeExtractor names the record after the file stem and panics or fails
// on request.
type fakeExtractor struct {
	panicOn string
	failOn  string
}

func (f fakeExtractor) ExtractFile(root string, src corpus.SourceDescriptor) (corpus.EntityRecord, error) {
	switch src.Stem() {
	case f.panicOn:
		panic("selector blew up")
	case f.failOn:
		err := &corpus.ParseError{Path: src.Path, Err: errors.New("no DOM")}
		return f.Stub(src, err), err
	}
	return corpus.EntityRecord{
		ID:        src.Stem(),
		Name:      src.Stem(),
		Mythology: src.Mythology,
		Type:      src.EntityType,
		Status:    corpus.StatusPublished,
		Metadata:  corpus.Metadata{SourceFile: src.Path},
	}, nil
}

func (f fakeExtractor) Stub(src corpus.SourceDescriptor, err error) corpus.EntityRecord {
	return corpus.Stub(src, "test", time.Time{}, err)
}

func desc(rel string) corpus.SourceDescriptor {
	m, t := corpus.Classify(rel)
	return corpus.SourceDescriptor{Path: rel, Mythology: m, EntityType: t}
}

func ids(recs []corpus.EntityRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestRunSortsAndStubsFailures(t *testing.T) {
	src := listSource{
		desc("mythos/norse/deities/thor.html"),
		desc("mythos/greek/heroes/perseus.html"),
		desc("mythos/greek/deities/zeus.html"),
		desc("mythos/greek/deities/hera.html"),
		desc("mythos/egyptian/deities/set.html"),
	}
	bad := desc("mythos/norse/beings/blob.html")
	bad.Warning = "not a text file: application/octet-stream"
	src = append(src, bad)

	res, err := NewRunner(3, nil).Run(context.Background(), src, fakeExtractor{panicOn: "hera", failOn: "set"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"set", "hera", "zeus", "perseus", "thor"}
	if got := ids(res.Records); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("records = %v; want %v", got, want)
	}
	if res.Failed != 2 {
		t.Errorf("Failed = %d; want 2", res.Failed)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Path != bad.Path {
		t.Errorf("Skipped = %v; want the blob descriptor", res.Skipped)
	}
	hera := res.Records[1]
	if hera.Status != corpus.StatusExtractionFailed || !strings.Contains(hera.Error, "selector blew up") {
		t.Errorf("panicking page = %+v; want an extraction-failed stub", hera)
	}
	if hera.Metadata.SourceFile != "mythos/greek/deities/hera.html" {
		t.Errorf("stub sourceFile = %q", hera.Metadata.SourceFile)
	}
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	var src listSource
	for _, m := range []string{"greek", "norse", "hindu", "celtic"} {
		for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
			src = append(src, desc("mythos/"+m+"/deities/"+n+".html"))
		}
	}
	one, err := NewRunner(1, nil).Run(context.Background(), src, fakeExtractor{})
	if err != nil {
		t.Fatal(err)
	}
	many, err := NewRunner(8, nil).Run(context.Background(), src, fakeExtractor{})
	if err != nil {
		t.Fatal(err)
	}
	if len(one.Records) != 24 || len(many.Records) != 24 {
		t.Fatalf("got %d and %d records; want 24", len(one.Records), len(many.Records))
	}
	for i := range one.Records {
		if one.Records[i].Key() != many.Records[i].Key() {
			t.Fatalf("record %d differs: %s vs %s", i, one.Records[i].Key(), many.Records[i].Key())
		}
	}
}

func TestRunExtractsFixtureTree(t *testing.T) {
	w, err := walker.New("../extract/testdata", walker.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ex, err := extract.New(extract.Options{SidecarDir: "../extract/testdata/sidecars"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewRunner(2, nil).Run(context.Background(), w, ex)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Records) != 4 || res.Failed != 0 {
		t.Fatalf("got %d records, %d failed; want 4, 0", len(res.Records), res.Failed)
	}
	if !sort.SliceIsSorted(res.Records, func(i, j int) bool { return corpus.Less(&res.Records[i], &res.Records[j]) }) {
		t.Errorf("records not in (mythology, type, id) order: %v", ids(res.Records))
	}
	if res.Records[0].Mythology != "egyptian" || res.Records[3].Mythology != "hindu" {
		t.Errorf("unexpected order: %v", ids(res.Records))
	}
}

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestRunHandlesSubmitError(t *testing.T) {
	r := NewRunner(2, nil)
	r.PoolFactory = func(workers, queue int) Pool { return &failingPool{} }
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := r.Run(ctx, listSource{desc("mythos/greek/deities/zeus.html")}, fakeExtractor{})
	if err == nil || !strings.Contains(err.Error(), "submit failed") {
		t.Fatalf("expected submit error, got %v", err)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewRunner(2, nil).Run(ctx, listSource{desc("mythos/greek/deities/zeus.html")}, fakeExtractor{})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result with cancelled context, got %+v", res)
	}
}
