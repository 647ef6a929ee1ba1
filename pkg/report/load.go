package report

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/validate"
)

// RecordPattern matches the record files of an extracted tree.
const RecordPattern = "*/*.json"

// LoadCorpus reads every record under dataDir. Files that are not valid
// JSON come back as syntax-failure verdicts instead of records. Summary
// files (leading underscore) are ignored. mythology, when set, restricts the
// load to one directory.
func LoadCorpus(dataDir string, mythology corpus.Mythology) ([]corpus.EntityRecord, []corpus.ValidationVerdict, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, nil, &corpus.ConfigError{Op: "load", Err: fmt.Errorf("data dir %q: %w", dataDir, err)}
	}
	if !info.IsDir() {
		return nil, nil, corpus.NewConfigError("load", "data dir %q is not a directory", dataDir)
	}
	pattern := RecordPattern
	if mythology != "" {
		pattern = string(mythology) + "/*.json"
	}
	fsys := os.DirFS(dataDir)
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var records []corpus.EntityRecord
	var failures []corpus.ValidationVerdict
	for _, m := range matches {
		if strings.HasPrefix(path.Base(m), "_") {
			continue
		}
		rec, err := readRecord(fsys, m)
		if err != nil {
			failures = append(failures, validate.SyntaxFailure(m, err))
			continue
		}
		records = append(records, rec)
	}
	return records, failures, nil
}

func readRecord(fsys fs.FS, name string) (corpus.EntityRecord, error) {
	var rec corpus.EntityRecord
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
