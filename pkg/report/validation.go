package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/validate"
)

// ValidationReport is the machine-readable form of a validation run.
type ValidationReport struct {
	GeneratedAt time.Time                  `json:"generatedAt"`
	Policy      validate.Policy            `json:"policy"`
	Summary     validate.Summary           `json:"summary"`
	Verdicts    []corpus.ValidationVerdict `json:"verdicts"`
}

// WriteValidation writes validation-results.json under outDir and returns
// its path.
func WriteValidation(outDir string, policy validate.Policy, res *validate.Result, now time.Time) (string, error) {
	p := filepath.Join(outDir, ValidationFile)
	err := writeJSON(p, ValidationReport{
		GeneratedAt: now,
		Policy:      policy,
		Summary:     res.Summary,
		Verdicts:    res.Verdicts,
	})
	if err != nil {
		return "", err
	}
	return p, nil
}

// ReadValidation loads the report written by WriteValidation.
func ReadValidation(outDir string) (*ValidationReport, error) {
	data, err := os.ReadFile(filepath.Join(outDir, ValidationFile))
	if err != nil {
		return nil, err
	}
	var rep ValidationReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("%s: %w", ValidationFile, err)
	}
	return &rep, nil
}
