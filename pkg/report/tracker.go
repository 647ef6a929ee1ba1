package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/upload"
	"github.com/japaniel/mythos/pkg/validate"
)

// Stage names recorded in the tracker.
const (
	StageExtract  = "extract"
	StageValidate = "validate"
	StageUpload   = "upload"
	StageVerify   = "verify"
)

// StageRun timestamps the latest run of one stage.
type StageRun struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
}

// Progress counts one mythology's way through the stages.
type Progress struct {
	Extracted int  `json:"extracted"`
	Failed    int  `json:"failed"`
	Ready     int  `json:"ready"`
	NotReady  int  `json:"notReady"`
	Uploaded  int  `json:"uploaded"`
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
	Errors    int  `json:"errors"`
	Verified  bool `json:"verified"`
}

// Tracker is the aggregate progress kept across commands. It is an
// explicit value: load it, update it, save it.
type Tracker struct {
	path string

	CreatedAt   time.Time                      `json:"createdAt"`
	UpdatedAt   time.Time                      `json:"updatedAt"`
	Stages      map[string]*StageRun           `json:"stages"`
	Mythologies map[corpus.Mythology]*Progress `json:"mythologies"`
}

// LoadTracker reads the tracker at path, or starts a new one when the
// file does not exist yet.
func LoadTracker(path string, now time.Time) (*Tracker, error) {
	t := &Tracker{
		path:        path,
		CreatedAt:   now,
		UpdatedAt:   now,
		Stages:      map[string]*StageRun{},
		Mythologies: map[corpus.Mythology]*Progress{},
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if t.Stages == nil {
		t.Stages = map[string]*StageRun{}
	}
	if t.Mythologies == nil {
		t.Mythologies = map[corpus.Mythology]*Progress{}
	}
	return t, nil
}

// Path is where Save writes.
func (t *Tracker) Path() string { return t.path }

// Begin opens a new run of stage and returns its id.
func (t *Tracker) Begin(stage string, now time.Time) string {
	id := uuid.NewString()
	t.Stages[stage] = &StageRun{RunID: id, StartedAt: now}
	t.UpdatedAt = now
	return id
}

// End closes the current run of stage. err may be nil.
func (t *Tracker) End(stage string, now time.Time, err error) {
	run, ok := t.Stages[stage]
	if !ok {
		run = &StageRun{RunID: uuid.NewString(), StartedAt: now}
		t.Stages[stage] = run
	}
	run.FinishedAt = now
	run.OK = err == nil
	run.Error = ""
	if err != nil {
		run.Error = err.Error()
	}
	t.UpdatedAt = now
}

func (t *Tracker) progress(m corpus.Mythology) *Progress {
	p, ok := t.Mythologies[m]
	if !ok {
		p = &Progress{}
		t.Mythologies[m] = p
	}
	return p
}

// RecordExtraction resets the extraction counts of every mythology present
// in records.
func (t *Tracker) RecordExtraction(records []corpus.EntityRecord) {
	seen := map[corpus.Mythology]bool{}
	for i := range records {
		r := &records[i]
		p := t.progress(r.Mythology)
		if !seen[r.Mythology] {
			seen[r.Mythology] = true
			p.Extracted, p.Failed = 0, 0
		}
		p.Extracted++
		if r.Status == corpus.StatusExtractionFailed {
			p.Failed++
		}
	}
}

// RecordValidation stores the ready counts per mythology.
func (t *Tracker) RecordValidation(s validate.Summary) {
	for m, c := range s.ByMythology {
		p := t.progress(m)
		p.Ready, p.NotReady = c.Ready, c.Total-c.Ready
	}
}

// RecordUpload stores the write counts per mythology and, after a real
// run, the verification outcome.
func (t *Tracker) RecordUpload(r *upload.Report) {
	if r.DryRun {
		return
	}
	for m, c := range r.ByMythology {
		p := t.progress(m)
		p.Uploaded, p.Updated, p.Unchanged, p.Errors = c.Uploaded, c.Updated, c.Unchanged, c.Errors
	}
	if r.Verification != nil {
		t.RecordVerification(r.Verification)
	}
}

// RecordVerification marks each mythology verified when its count check
// and its sample both passed.
func (t *Tracker) RecordVerification(v *upload.Verification) {
	ok := map[corpus.Mythology]bool{}
	for m, c := range v.ByMythology {
		ok[m] = c.OK
	}
	for _, s := range v.Samples {
		ok[s.Mythology] = ok[s.Mythology] && s.OK
	}
	for m, verified := range ok {
		t.progress(m).Verified = verified
	}
}

// Save writes the tracker back to its path.
func (t *Tracker) Save() error {
	return writeJSON(t.path, t)
}
