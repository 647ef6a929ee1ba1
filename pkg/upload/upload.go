// Package upload writes ready records to a document store in batches, keyed
// by id, and verifies the result.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/reading"
	"github.com/japaniel/mythos/pkg/store"
)

// DefaultBatchSize is the number of records per commit.
const DefaultBatchSize = 250

const (
	// A failed commit is split in half at most this many times.
	maxHalvings = 2
	// This many consecutive batches with no successful write abort the run.
	abortAfter = 2
)

// UploadError aborts a run when failures look environmental rather than
// caused by individual records.
type UploadError struct {
	Batch int
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload aborted at batch %d: %v", e.Batch, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Options tunes a Driver.
type Options struct {
	BatchSize int
	DryRun    bool
	// Mythology restricts the run to one tradition.
	Mythology corpus.Mythology
	// Readings adds Japanese readings to searchTerms; nil disables them.
	Readings *reading.Analyzer
	// VerifyConcurrency bounds the verification queries in flight.
	VerifyConcurrency int
	Logger            *zap.Logger
}

// Driver uploads a validated corpus. One Driver owns one store client.
type Driver struct {
	st   store.Store
	opts Options
	log  *zap.Logger
}

// New returns a Driver. st may be nil only for dry runs.
func New(st store.Store, opts Options) *Driver {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.VerifyConcurrency <= 0 {
		opts.VerifyConcurrency = 4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{st: st, opts: opts, log: log}
}

// Tally counts outcomes for one slice of the corpus.
type Tally struct {
	Uploaded  int `json:"uploaded"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
}

// Failure is one record that could not be written.
type Failure struct {
	ID         string           `json:"id"`
	Mythology  corpus.Mythology `json:"mythology"`
	SourceFile string           `json:"sourceFile"`
	Error      string           `json:"error"`
}

// Report is the aggregate outcome of an upload.
type Report struct {
	DryRun bool `json:"dryRun"`
	Tally
	// Skipped counts records excluded because their verdict is not ready.
	Skipped      int                          `json:"skipped"`
	ByMythology  map[corpus.Mythology]*Tally  `json:"byMythology"`
	ByType       map[corpus.EntityType]*Tally `json:"byType"`
	Failures     []Failure                    `json:"failures,omitempty"`
	Verification *Verification                `json:"verification,omitempty"`
	Aborted      string                       `json:"aborted,omitempty"`
}

func newReport(dry bool) *Report {
	return &Report{
		DryRun:      dry,
		ByMythology: map[corpus.Mythology]*Tally{},
		ByType:      map[corpus.EntityType]*Tally{},
	}
}

// count applies fn to the overall, mythology and type tallies.
func (r *Report) count(rec *corpus.EntityRecord, fn func(*Tally)) {
	m, ok := r.ByMythology[rec.Mythology]
	if !ok {
		m = &Tally{}
		r.ByMythology[rec.Mythology] = m
	}
	t, ok := r.ByType[rec.Type]
	if !ok {
		t = &Tally{}
		r.ByType[rec.Type] = t
	}
	fn(&r.Tally)
	fn(m)
	fn(t)
}

func (r *Report) fail(rec *corpus.EntityRecord, err error) {
	r.count(rec, func(t *Tally) { t.Errors++ })
	r.Failures = append(r.Failures, Failure{
		ID:         rec.ID,
		Mythology:  rec.Mythology,
		SourceFile: rec.Metadata.SourceFile,
		Error:      err.Error(),
	})
}

// planned pairs a write with the record it came from.
type planned struct {
	op  store.Op
	rec *corpus.EntityRecord
}

type failed struct {
	planned
	err error
}

// Select returns the records an upload would consider: ready, inside the
// mythology filter, in (mythology, type, id) order. skipped counts the
// records dropped for not being ready.
func (d *Driver) Select(records []corpus.EntityRecord, verdicts []corpus.ValidationVerdict) (selected []*corpus.EntityRecord, skipped int) {
	ready := map[string]bool{}
	for _, v := range verdicts {
		if v.Ready {
			ready[fmt.Sprintf("%s/%s/%s", v.Mythology, v.Type, v.RecordID)] = true
		}
	}
	for i := range records {
		r := &records[i]
		if d.opts.Mythology != "" && r.Mythology != d.opts.Mythology {
			continue
		}
		if !ready[r.Key()] {
			skipped++
			continue
		}
		selected = append(selected, r)
	}
	sort.SliceStable(selected, func(i, j int) bool { return corpus.Less(selected[i], selected[j]) })
	return selected, skipped
}

// Upload writes every ready record. Existing documents with an equal
// content hash are left alone, changed ones are updated with their
// createdAt kept, and new ones inserted; nothing is deleted. A cancelled
// ctx stops the run between records and batches that were already
// committed stay committed.
func (d *Driver) Upload(ctx context.Context, records []corpus.EntityRecord, verdicts []corpus.ValidationVerdict) (*Report, error) {
	if d.st == nil && !d.opts.DryRun {
		return nil, corpus.NewConfigError("upload", "no document store configured")
	}
	selected, skipped := d.Select(records, verdicts)
	report := newReport(d.opts.DryRun)
	report.Skipped = skipped

	consecutive := 0
	processed := 0
	for start, batchNo := 0, 1; start < len(selected); start, batchNo = start+d.opts.BatchSize, batchNo+1 {
		end := min(start+d.opts.BatchSize, len(selected))
		items, err := d.plan(ctx, selected[start:end], report, &processed, len(selected))
		if err != nil {
			return report, err
		}
		if d.opts.DryRun {
			for _, it := range items {
				tallyOp(report, it)
			}
			continue
		}
		if len(items) == 0 {
			continue
		}

		fails := d.commit(ctx, items, 0)
		failedIDs := map[string]bool{}
		for _, f := range fails {
			failedIDs[f.op.Doc.ID] = true
			report.fail(f.rec, f.err)
		}
		for _, it := range items {
			if !failedIDs[it.op.Doc.ID] {
				tallyOp(report, it)
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if len(fails) == len(items) {
			consecutive++
		} else {
			consecutive = 0
		}
		if consecutive >= abortAfter {
			uerr := &UploadError{Batch: batchNo, Err: fails[len(fails)-1].err}
			report.Aborted = uerr.Error()
			d.log.Error("upload aborted", zap.Int("batch", batchNo), zap.Error(uerr.Err))
			return report, uerr
		}
		d.log.Info("batch committed",
			zap.Int("batch", batchNo),
			zap.Int("writes", len(items)-len(fails)),
			zap.Int("failed", len(fails)))
	}

	d.log.Info("upload complete",
		zap.Bool("dryRun", d.opts.DryRun),
		zap.Int("uploaded", report.Uploaded),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("errors", report.Errors),
		zap.Int("skipped", report.Skipped))

	if d.opts.DryRun {
		return report, nil
	}
	v, err := d.verify(ctx, selected)
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}
	report.Verification = v
	return report, nil
}

func tallyOp(r *Report, it planned) {
	r.count(it.rec, func(t *Tally) {
		if it.op.Kind == store.Insert {
			t.Uploaded++
		} else {
			t.Updated++
		}
	})
}

// plan decides the write for each record of a batch. Records whose stored
// hash matches are counted as unchanged and produce no write.
func (d *Driver) plan(ctx context.Context, recs []*corpus.EntityRecord, report *Report, processed *int, total int) ([]planned, error) {
	var out []planned
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		*processed++
		d.log.Info("upload",
			zap.Int("processed", *processed),
			zap.Int("total", total),
			zap.String("id", rec.ID))

		doc, err := BuildDocument(rec, d.opts.Readings)
		if err != nil {
			report.fail(rec, err)
			continue
		}
		if d.st == nil {
			out = append(out, planned{op: store.Op{Kind: store.Insert, Doc: doc}, rec: rec})
			continue
		}
		existing, err := d.st.Get(ctx, rec.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			out = append(out, planned{op: store.Op{Kind: store.Insert, Doc: doc}, rec: rec})
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.fail(rec, err)
		case existing.ContentHash == doc.ContentHash:
			report.count(rec, func(t *Tally) { t.Unchanged++ })
		default:
			doc.CreatedAt = existing.CreatedAt
			out = append(out, planned{op: store.Op{Kind: store.Update, Doc: doc}, rec: rec})
		}
	}
	return out, nil
}

// commit writes items, halving the batch on failure up to maxHalvings
// times. It returns the items that could not be written.
func (d *Driver) commit(ctx context.Context, items []planned, depth int) []failed {
	ops := make([]store.Op, len(items))
	for i, it := range items {
		ops[i] = it.op
	}
	err := d.st.Commit(ctx, ops)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || depth >= maxHalvings || len(items) == 1 {
		out := make([]failed, len(items))
		for i, it := range items {
			out[i] = failed{planned: it, err: err}
		}
		return out
	}
	d.log.Warn("commit failed, halving batch", zap.Int("size", len(items)), zap.Int("depth", depth), zap.Error(err))
	mid := len(items) / 2
	return append(d.commit(ctx, items[:mid], depth+1), d.commit(ctx, items[mid:], depth+1)...)
}
