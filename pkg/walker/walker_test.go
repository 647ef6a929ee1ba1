package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/mythos/pkg/corpus"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	page := []byte("<html><body><h1>x</h1></body></html>")
	for _, rel := range []string{
		"mythos/greek/deities/zeus.html",
		"mythos/greek/heroes/heracles.html",
		"mythos/greek/index.html",
		"mythos/greek/corpus-search.html",
		"mythos/egyptian/deities/horus.html",
		"mythos/egyptian/misc/notes.html",
		"mythos/egyptian/_dev/draft.html",
		"mythos/norse/node_modules/pkg/readme.html",
		"mythos/norse/beings/fenrir.html",
	} {
		writeFile(t, root, rel, page)
	}
	writeFile(t, root, "mythos/greek/deities/zeus.json", []byte("{}"))
	writeFile(t, root, "mythos/norse/beings/blob.html", []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x00, 0x10})
	return root
}

func paths(ds []corpus.SourceDescriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Path)
	}
	sort.Strings(out)
	return out
}

func TestWalkAppliesSkipRules(t *testing.T) {
	root := buildTree(t)
	w, err := New(root, Options{}, nil)
	require.NoError(t, err)

	got := w.Collect(context.Background())
	assert.Equal(t, []string{
		"mythos/egyptian/deities/horus.html",
		"mythos/egyptian/misc/notes.html",
		"mythos/greek/deities/zeus.html",
		"mythos/greek/heroes/heracles.html",
		"mythos/norse/beings/blob.html",
		"mythos/norse/beings/fenrir.html",
	}, paths(got))

	byPath := map[string]corpus.SourceDescriptor{}
	for _, d := range got {
		byPath[d.Path] = d
	}
	horus := byPath["mythos/egyptian/deities/horus.html"]
	assert.Equal(t, corpus.Mythology("egyptian"), horus.Mythology)
	assert.Equal(t, corpus.TypeDeity, horus.EntityType)
	assert.NotZero(t, horus.FileSize)
	assert.False(t, horus.FileMTime.IsZero())
	assert.Empty(t, horus.Warning)

	assert.Equal(t, corpus.TypeOther, byPath["mythos/egyptian/misc/notes.html"].EntityType)
	assert.Equal(t, corpus.TypeCreature, byPath["mythos/norse/beings/fenrir.html"].EntityType)
	assert.NotEmpty(t, byPath["mythos/norse/beings/blob.html"].Warning)
}

func TestWalkFilters(t *testing.T) {
	root := buildTree(t)

	w, err := New(root, Options{Mythology: "greek"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mythos/greek/deities/zeus.html",
		"mythos/greek/heroes/heracles.html",
	}, paths(w.Collect(context.Background())))

	w, err = New(root, Options{Type: corpus.TypeDeity}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mythos/egyptian/deities/horus.html",
		"mythos/greek/deities/zeus.html",
	}, paths(w.Collect(context.Background())))

	w, err = New(root, Options{Include: "mythos/*/heroes/**"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mythos/greek/heroes/heracles.html"}, paths(w.Collect(context.Background())))
}

func TestWalkSingleFile(t *testing.T) {
	root := buildTree(t)
	w, err := New(root, Options{SingleFile: "mythos/greek/heroes/heracles.html"}, nil)
	require.NoError(t, err)
	got := w.Collect(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, corpus.TypeHero, got[0].EntityType)
	assert.Empty(t, got[0].Warning)
}

func TestWalkIsRepeatable(t *testing.T) {
	root := buildTree(t)
	w, err := New(root, Options{}, nil)
	require.NoError(t, err)
	first := paths(w.Collect(context.Background()))
	second := paths(w.Collect(context.Background()))
	assert.Equal(t, first, second)
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), Options{}, nil)
	var cfgErr *corpus.ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)

	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err = New(f, Options{}, nil)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestWalkStopsOnCancel(t *testing.T) {
	root := buildTree(t)
	w, err := New(root, Options{}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	for range w.Walk(ctx) {
		n++
	}
	assert.LessOrEqual(t, n, 6)
}

func TestWalkIgnoresPagesOutsideMythologies(t *testing.T) {
	root := buildTree(t)
	page := []byte("<html><body><h1>About</h1></body></html>")
	writeFile(t, root, "about.html", page)
	writeFile(t, root, "docs/deities/guide.html", page)
	writeFile(t, root, "mythos/stray.html", page)

	w, err := New(root, Options{}, nil)
	require.NoError(t, err)
	got := w.Collect(context.Background())
	assert.Len(t, got, 6)
	for _, d := range got {
		assert.NotEmpty(t, d.Mythology, d.Path)
	}

	w, err = New(root, Options{SingleFile: "about.html"}, nil)
	require.NoError(t, err)
	single := w.Collect(context.Background())
	require.Len(t, single, 1)
	assert.Empty(t, single[0].Mythology)
	assert.Contains(t, single[0].Warning, "outside mythos")
}
