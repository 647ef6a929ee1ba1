// Package walker enumerates the HTML pages of a corpus tree and classifies
// each one by mythology and entity type.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
)

// ErrNotDirectory is wrapped in the ConfigError returned for a bad root.
var ErrNotDirectory = errors.New("corpus root is not a directory")

var skippedNames = map[string]bool{
	"index.html":         true,
	"corpus-search.html": true,
}

var excludedSegments = map[string]bool{
	".svn":         true,
	"_dev":         true,
	"__pycache__":  true,
	"node_modules": true,
}

// Options narrows a walk. Zero values mean no filter.
type Options struct {
	Mythology corpus.Mythology
	Type      corpus.EntityType
	// SingleFile, when set, is a path relative to the root (or absolute)
	// and replaces the tree walk.
	SingleFile string
	// Include is an optional doublestar pattern matched against the
	// slash-separated relative path, e.g. "mythos/greek/**/*.html".
	Include string
}

// Walker produces SourceDescriptors for one corpus root.
type Walker struct {
	root string
	opts Options
	log  *zap.Logger
}

// New validates root and returns a Walker. A missing or non-directory root
// fails with *corpus.ConfigError.
func New(root string, opts Options, log *zap.Logger) (*Walker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, &corpus.ConfigError{Op: "walker", Err: fmt.Errorf("corpus root %q: %w", root, err)}
	}
	if !info.IsDir() {
		return nil, &corpus.ConfigError{Op: "walker", Err: fmt.Errorf("%q: %w", root, ErrNotDirectory)}
	}
	if opts.Include != "" && !doublestar.ValidatePattern(opts.Include) {
		return nil, corpus.NewConfigError("walker", "invalid include pattern %q", opts.Include)
	}
	return &Walker{root: root, opts: opts, log: log}, nil
}

// Root returns the corpus root the walker was built for.
func (w *Walker) Root() string { return w.root }

// Walk starts the traversal and returns a channel of descriptors that is
// closed when the walk ends. Each call performs a fresh pass; the channel
// itself cannot be rewound. Unreadable files arrive as descriptors with
// Warning set and never stop the pass.
func (w *Walker) Walk(ctx context.Context) <-chan corpus.SourceDescriptor {
	out := make(chan corpus.SourceDescriptor, 64)
	go func() {
		defer close(out)
		if w.opts.SingleFile != "" {
			w.emitSingle(ctx, out)
			return
		}
		conf := fastwalk.Config{Follow: false}
		err := fastwalk.Walk(&conf, w.root, func(p string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				w.log.Warn("walk error", zap.String("path", p), zap.Error(err))
				return nil
			}
			if d.IsDir() {
				if excludedSegments[d.Name()] {
					return fastwalk.SkipDir
				}
				return nil
			}
			rel, relErr := filepath.Rel(w.root, p)
			if relErr != nil {
				return nil
			}
			desc, ok := w.describe(filepath.ToSlash(rel), p)
			if !ok {
				return nil
			}
			select {
			case out <- desc:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			w.log.Warn("walk aborted", zap.Error(err))
		}
	}()
	return out
}

// Collect drains a fresh walk into a slice.
func (w *Walker) Collect(ctx context.Context) []corpus.SourceDescriptor {
	var out []corpus.SourceDescriptor
	for d := range w.Walk(ctx) {
		out = append(out, d)
	}
	return out
}

func (w *Walker) emitSingle(ctx context.Context, out chan<- corpus.SourceDescriptor) {
	p := w.opts.SingleFile
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.root, p)
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		rel = filepath.Base(p)
	}
	rel = filepath.ToSlash(rel)
	desc, ok := w.describe(rel, p)
	if !ok {
		// An explicitly named file is still reported when filtered out by
		// name rules, so the operator can see why nothing happened.
		myth, typ := corpus.Classify(rel)
		warn := "excluded by walker rules"
		if myth == "" {
			warn = "outside mythos/<mythology>/"
		}
		desc = corpus.SourceDescriptor{Path: rel, Mythology: myth, EntityType: typ, Warning: warn}
	}
	select {
	case out <- desc:
	case <-ctx.Done():
	}
}

// describe applies the skip rules and filters and stats the file.
func (w *Walker) describe(rel, abs string) (corpus.SourceDescriptor, bool) {
	if !strings.EqualFold(filepath.Ext(rel), ".html") {
		return corpus.SourceDescriptor{}, false
	}
	if skippedNames[strings.ToLower(filepath.Base(rel))] {
		return corpus.SourceDescriptor{}, false
	}
	for _, seg := range strings.Split(rel, "/") {
		if excludedSegments[seg] {
			return corpus.SourceDescriptor{}, false
		}
	}
	if w.opts.Include != "" {
		if ok, _ := doublestar.Match(w.opts.Include, rel); !ok {
			return corpus.SourceDescriptor{}, false
		}
	}
	myth, typ := corpus.Classify(rel)
	if myth == "" {
		// Only pages under mythos/<mythology>/ belong to the corpus.
		return corpus.SourceDescriptor{}, false
	}
	if w.opts.Mythology != "" && myth != w.opts.Mythology {
		return corpus.SourceDescriptor{}, false
	}
	if w.opts.Type != "" && typ != w.opts.Type {
		return corpus.SourceDescriptor{}, false
	}

	desc := corpus.SourceDescriptor{Path: rel, Mythology: myth, EntityType: typ}
	info, err := os.Stat(abs)
	if err != nil {
		desc.Warning = fmt.Sprintf("stat failed: %v", err)
		return desc, true
	}
	desc.FileMTime = info.ModTime().UTC()
	desc.FileSize = info.Size()
	if warn := probe(abs); warn != "" {
		desc.Warning = warn
	}
	return desc, true
}

// probe opens the file and sniffs its head. It returns a warning when the
// file cannot be read or is not text.
func probe(abs string) string {
	f, err := os.Open(abs)
	if err != nil {
		return fmt.Sprintf("unreadable: %v", err)
	}
	defer f.Close()
	head := make([]byte, 3072)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Sprintf("unreadable: %v", err)
	}
	if n == 0 {
		return ""
	}
	mt := mimetype.Detect(head[:n])
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/html") {
			return ""
		}
	}
	return fmt.Sprintf("not a text file: %s", mt.String())
}
