package report

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/japaniel/mythos/pkg/corpus"
)

// ExtractionSummary is written per mythology next to its records.
type ExtractionSummary struct {
	Mythology        corpus.Mythology          `json:"mythology"`
	GeneratedAt      time.Time                 `json:"generatedAt"`
	ExtractorVersion string                    `json:"extractorVersion"`
	Total            int                       `json:"total"`
	Published        int                       `json:"published"`
	Draft            int                       `json:"draft"`
	Failed           int                       `json:"failed"`
	Skipped          int                       `json:"skipped"`
	AverageScore     float64                   `json:"averageCompletenessScore"`
	ByType           map[corpus.EntityType]int `json:"byType"`
	Files            map[string]string         `json:"files"`
	SkippedFiles     []Skip                    `json:"skippedFiles,omitempty"`
	FailedFiles      []string                  `json:"failedFiles,omitempty"`
}

// Skip is a page the walker could not read.
type Skip struct {
	Path    string `json:"path"`
	Warning string `json:"warning"`
}

// WriteExtracted writes one JSON file per record under
// <dataDir>/<mythology>/ and a summary per mythology. Every record gets its
// own file: ids that collide inside one mythology are written as
// <id>--<type>.json, then <id>--<type>--<stem>.json, then with a counter.
// Records without a mythology go to _unclassified/ so validation still sees
// them. The returned summaries are keyed by mythology.
func WriteExtracted(dataDir, version string, records []corpus.EntityRecord, skipped []corpus.SourceDescriptor, now time.Time) (map[corpus.Mythology]*ExtractionSummary, error) {
	summaries := map[corpus.Mythology]*ExtractionSummary{}
	get := func(m corpus.Mythology) *ExtractionSummary {
		s, ok := summaries[m]
		if !ok {
			s = &ExtractionSummary{
				Mythology:        m,
				GeneratedAt:      now,
				ExtractorVersion: version,
				ByType:           map[corpus.EntityType]int{},
				Files:            map[string]string{},
			}
			summaries[m] = s
		}
		return s
	}

	ids := map[corpus.Mythology]map[string]int{}
	for i := range records {
		m := records[i].Mythology
		if ids[m] == nil {
			ids[m] = map[string]int{}
		}
		ids[m][records[i].ID]++
	}

	scores := map[corpus.Mythology]int{}
	for i := range records {
		r := &records[i]
		s := get(r.Mythology)
		name := FileName(r, ids[r.Mythology][r.ID] > 1)
		if _, taken := s.Files[name]; taken {
			name = uniqueName(s.Files, r)
		}
		if err := writeJSON(filepath.Join(dataDir, dirFor(r.Mythology), name), r); err != nil {
			return nil, fmt.Errorf("write %s: %w", r.Key(), err)
		}
		s.Files[name] = r.Metadata.SourceFile
		s.Total++
		s.ByType[r.Type]++
		scores[r.Mythology] += r.Metadata.CompletenessScore
		switch r.Status {
		case corpus.StatusPublished:
			s.Published++
		case corpus.StatusDraft:
			s.Draft++
		case corpus.StatusExtractionFailed:
			s.Failed++
			s.FailedFiles = append(s.FailedFiles, r.Metadata.SourceFile)
		}
	}
	for _, d := range skipped {
		s := get(d.Mythology)
		s.Skipped++
		s.SkippedFiles = append(s.SkippedFiles, Skip{Path: d.Path, Warning: d.Warning})
	}

	for m, s := range summaries {
		if s.Total > 0 {
			s.AverageScore = float64(scores[m]) / float64(s.Total)
		}
		sort.Strings(s.FailedFiles)
		sort.Slice(s.SkippedFiles, func(i, j int) bool { return s.SkippedFiles[i].Path < s.SkippedFiles[j].Path })
		if err := writeJSON(filepath.Join(dataDir, dirFor(m), SummaryFile), s); err != nil {
			return nil, fmt.Errorf("write %s summary: %w", m, err)
		}
	}
	return summaries, nil
}

// FileName is the record's file name inside its mythology directory.
func FileName(r *corpus.EntityRecord, collides bool) string {
	if collides {
		return fmt.Sprintf("%s--%s.json", r.ID, r.Type)
	}
	return r.ID + ".json"
}

// uniqueName picks a free name for a record whose id and type both collide
// with one already written.
func uniqueName(taken map[string]string, r *corpus.EntityRecord) string {
	base := fmt.Sprintf("%s--%s", r.ID, r.Type)
	if stem := corpus.Slug(stemOf(r.Metadata.SourceFile)); stem != "" && stem != r.ID {
		base += "--" + stem
	}
	name := base + ".json"
	for n := 2; ; n++ {
		if _, ok := taken[name]; !ok {
			return name
		}
		name = fmt.Sprintf("%s-%d.json", base, n)
	}
}

func stemOf(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// dirFor is the directory of a mythology inside the extracted tree.
func dirFor(m corpus.Mythology) string {
	if m == "" {
		return UnclassifiedDir
	}
	return string(m)
}
