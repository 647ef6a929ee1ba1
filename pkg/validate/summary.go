package validate

import (
	"github.com/japaniel/mythos/pkg/corpus"
)

// Counts is a ready/total pair.
type Counts struct {
	Total int `json:"total"`
	Ready int `json:"ready"`
}

// Summary aggregates a validation run.
type Summary struct {
	Total       int                          `json:"total"`
	Ready       int                          `json:"ready"`
	NotReady    int                          `json:"notReady"`
	ByKind      map[corpus.IssueKind]int     `json:"byKind"`
	BySeverity  map[corpus.Severity]int      `json:"bySeverity"`
	ByMythology map[corpus.Mythology]Counts  `json:"byMythology"`
	ByType      map[corpus.EntityType]Counts `json:"byType"`
	Scripts     map[string]int               `json:"scripts,omitempty"`
}

// Summarize folds verdicts into a Summary.
func Summarize(verdicts []corpus.ValidationVerdict) Summary {
	s := Summary{
		ByKind:      map[corpus.IssueKind]int{},
		BySeverity:  map[corpus.Severity]int{},
		ByMythology: map[corpus.Mythology]Counts{},
		ByType:      map[corpus.EntityType]Counts{},
		Scripts:     map[string]int{},
	}
	for i := range verdicts {
		v := &verdicts[i]
		s.Total++
		m, t := s.ByMythology[v.Mythology], s.ByType[v.Type]
		m.Total++
		t.Total++
		if v.Ready {
			s.Ready++
			m.Ready++
			t.Ready++
		} else {
			s.NotReady++
		}
		s.ByMythology[v.Mythology], s.ByType[v.Type] = m, t
		for _, is := range v.Issues {
			s.ByKind[is.Kind]++
			s.BySeverity[is.Severity]++
		}
		for _, sc := range Scripts(v) {
			s.Scripts[sc]++
		}
	}
	return s
}

// ReadyIDs returns the keys of ready verdicts as "<mythology>/<type>/<id>".
func (r *Result) ReadyIDs() map[string]bool {
	out := map[string]bool{}
	for _, v := range r.Verdicts {
		if v.Ready {
			out[string(v.Mythology)+"/"+string(v.Type)+"/"+v.RecordID] = true
		}
	}
	return out
}

// Add appends verdicts produced outside Validate, such as syntax failures
// from loading the corpus, and refreshes the summary.
func (r *Result) Add(verdicts ...corpus.ValidationVerdict) {
	r.Verdicts = append(r.Verdicts, verdicts...)
	r.Summary = Summarize(r.Verdicts)
}
