package validate

import (
	"strings"

	"github.com/japaniel/mythos/pkg/corpus"
)

// duplicates adds one duplicate-id issue to every member of each id group
// of size two or more. sorted and verdicts are index-aligned.
func (v *Validator) duplicates(sorted []*corpus.EntityRecord, verdicts []corpus.ValidationVerdict) {
	groups := map[string][]int{}
	for i, r := range sorted {
		if r.ID == "" {
			continue
		}
		groups[r.ID] = append(groups[r.ID], i)
	}
	for _, id := range sortedKeys(groups) {
		members := groups[id]
		if len(members) < 2 {
			continue
		}
		files := make([]string, len(members))
		for n, i := range members {
			files[n] = sorted[i].Metadata.SourceFile
		}
		for _, i := range members {
			verdicts[i].Issues = append(verdicts[i].Issues, issue(corpus.IssueDuplicateID, corpus.SeverityError, "id",
				"id %q produced by %d records: %s", id, len(members), strings.Join(files, ", ")))
		}
	}
}

// brokenRefs flags id-shaped references that resolve to no record.
func (v *Validator) brokenRefs(sorted []*corpus.EntityRecord, verdicts []corpus.ValidationVerdict) {
	known := make(map[string]bool, len(sorted))
	for _, r := range sorted {
		if r.ID != "" {
			known[r.ID] = true
		}
	}
	sev := corpus.SeverityWarning
	if v.policy.BrokenRefBlocks {
		sev = corpus.SeverityError
	}
	for i, r := range sorted {
		for _, ref := range r.References() {
			if known[ref.TargetID] {
				continue
			}
			verdicts[i].Issues = append(verdicts[i].Issues, issue(corpus.IssueBrokenRef, sev, ref.Path,
				"no record with id %q (%s)", ref.TargetID, ref.Href))
		}
	}
}
