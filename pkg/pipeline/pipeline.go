// Package pipeline runs the walk and extract stages concurrently, one page
// per job, and returns the records in deterministic order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
)

// Source yields the pages of one corpus root.
type Source interface {
	Root() string
	Walk(ctx context.Context) <-chan corpus.SourceDescriptor
}

// Extractor turns one page into a record. It must be safe for concurrent
// use. On failure ExtractFile returns a stub together with the error.
type Extractor interface {
	ExtractFile(root string, src corpus.SourceDescriptor) (corpus.EntityRecord, error)
	Stub(src corpus.SourceDescriptor, err error) corpus.EntityRecord
}

// Runner holds the concurrency settings for an extraction run.
type Runner struct {
	Workers int
	Logger  *zap.Logger
	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) Pool
}

// NewRunner returns a Runner with workers goroutines.
func NewRunner(workers int, log *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Workers: workers, Logger: log}
}

// Result is the outcome of an extraction run.
type Result struct {
	// Records are sorted by (mythology, type, id). Failed pages appear as
	// extraction-failed stubs.
	Records []corpus.EntityRecord
	// Skipped are the descriptors the walker flagged as unreadable.
	Skipped []corpus.SourceDescriptor
	Failed  int
}

type extracted struct {
	index int
	rec   corpus.EntityRecord
	err   error
}

// Run walks src and extracts every readable page. A page that fails or
// panics becomes a stub and never stops the run. Run returns ctx.Err()
// when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, src Source, ex Extractor) (*Result, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{}
	var pages []corpus.SourceDescriptor
	for d := range src.Walk(ctx) {
		if d.Warning != "" {
			log.Warn("skipping page", zap.String("path", d.Path), zap.String("warning", d.Warning))
			res.Skipped = append(res.Skipped, d)
			continue
		}
		pages = append(pages, d)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var wp Pool
	if r.PoolFactory != nil {
		wp = r.PoolFactory(r.Workers, r.Workers*2)
	} else {
		wp = NewWorkerPool(r.Workers, r.Workers*2)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	results := make(chan extracted, r.Workers*2)
	collected := make([]extracted, 0, len(pages))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for it := range results {
			collected = append(collected, it)
			log.Info("extract",
				zap.Int("processed", len(collected)),
				zap.Int("total", len(pages)),
				zap.String("id", it.rec.ID))
			if it.err != nil {
				log.Warn("extraction failed", zap.String("path", it.rec.Metadata.SourceFile), zap.Error(it.err))
			}
			for _, w := range it.rec.Metadata.Warnings {
				log.Debug("extraction warning", zap.String("id", it.rec.ID), zap.String("warning", w))
			}
		}
	}()

	root := src.Root()
	var submitErr error
	for i, d := range pages {
		job := func(ctx context.Context) error {
			it := extractOne(ex, root, d)
			it.index = i
			select {
			case results <- it:
			case <-ctx.Done():
			}
			return it.err
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if !errors.Is(err, ctx.Err()) && !errors.Is(err, ErrPoolClosed) {
				submitErr = fmt.Errorf("submit %s: %w", d.Path, err)
			}
			break
		}
	}

	wp.Close()
	close(results)
	wg.Wait()

	if submitErr != nil {
		return nil, submitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(collected) != len(pages) {
		return nil, fmt.Errorf("extracted %d of %d pages", len(collected), len(pages))
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	res.Records = make([]corpus.EntityRecord, len(collected))
	for i, it := range collected {
		res.Records[i] = it.rec
		if it.rec.Status == corpus.StatusExtractionFailed {
			res.Failed++
		}
	}
	sort.SliceStable(res.Records, func(i, j int) bool { return corpus.Less(&res.Records[i], &res.Records[j]) })
	log.Info("extraction complete",
		zap.Int("records", len(res.Records)),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

// extractOne runs one extraction, turning a panic into a stub.
func extractOne(ex Extractor, root string, d corpus.SourceDescriptor) (it extracted) {
	defer func() {
		if p := recover(); p != nil {
			err := &corpus.ParseError{Path: d.Path, Err: fmt.Errorf("panic: %v", p)}
			it = extracted{rec: ex.Stub(d, err), err: err}
		}
	}()
	rec, err := ex.ExtractFile(root, d)
	return extracted{rec: rec, err: err}
}
