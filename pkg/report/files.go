// Package report reads and writes the on-disk artefacts of a run: the
// extracted JSON tree, validation results, the Markdown upload report, the
// index manifest and the migration tracker.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/japaniel/mythos/pkg/corpus"
)

// File names written at the output root.
const (
	ValidationFile   = "validation-results.json"
	UploadReportFile = "ALL_MYTHOLOGIES_UPLOAD_REPORT.md"
	IndexesFile      = "firestore.indexes.json"
	TrackerFile      = "MIGRATION_TRACKER.json"
	SummaryFile      = "_extraction_summary.json"

	// UnclassifiedDir holds records and skips without a mythology.
	UnclassifiedDir = "_unclassified"
)

// EncodeIndent renders v as indented JSON without escaping HTML characters
// or non-ASCII text.
func EncodeIndent(v any) ([]byte, error) {
	data, err := corpus.Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writeJSON writes v to path through a temp file and rename, so readers
// never see a partial document.
func writeJSON(path string, v any) error {
	data, err := EncodeIndent(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
