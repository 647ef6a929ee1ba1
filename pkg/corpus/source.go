package corpus

import (
	"path"
	"strings"
	"time"
)

// SourceDescriptor describes one HTML input file. It is immutable once the
// walker has created it.
type SourceDescriptor struct {
	// Path is slash-separated and relative to the corpus root.
	Path       string
	Mythology  Mythology
	EntityType EntityType
	FileMTime  time.Time
	FileSize   int64
	// Warning is set when the file was seen but cannot be processed.
	Warning string
}

// Stem returns the file name without directory or extension.
func (d SourceDescriptor) Stem() string {
	base := path.Base(d.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Classify infers mythology and entity type from a corpus-relative path.
// The mythology is the directory right after "mythos"; a path with no such
// directory has no mythology. The entity type is the first segment found in
// the plural table, or TypeOther.
func Classify(rel string) (Mythology, EntityType) {
	segs := strings.Split(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "/")
	var myth Mythology
	for i, s := range segs {
		if s == "mythos" && i+1 < len(segs)-1 {
			myth = Mythology(strings.ToLower(segs[i+1]))
			break
		}
	}
	// The last segment is the file itself and never names a type.
	for _, s := range segs[:len(segs)-1] {
		if t, ok := SingularType(strings.ToLower(s)); ok {
			return myth, t
		}
	}
	return myth, TypeOther
}
