// Package validate checks an extracted corpus before upload. Pass A looks at
// each record on its own, Pass B at the corpus as a whole. Findings are
// collected into verdicts and never returned as errors.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
)

// Policy holds the tunable limits and the blocking rules.
type Policy struct {
	// BrokenRefBlocks makes broken cross-references error severity.
	BrokenRefBlocks bool `json:"brokenRefBlocks"`
	MaxDocBytes     int  `json:"maxDocBytes"`
	MaxDepth        int  `json:"maxDepth"`
	MaxArrayLen     int  `json:"maxArrayLen"`
}

// DefaultPolicy matches document-store limits: 1 MiB documents, 20 levels
// of nesting, and a warning past 1000 array elements.
var DefaultPolicy = Policy{
	MaxDocBytes: 1 << 20,
	MaxDepth:    20,
	MaxArrayLen: 1000,
}

// Validator runs both passes under one policy.
type Validator struct {
	policy Policy
	log    *zap.Logger
}

// New returns a Validator. Zero limits in policy fall back to DefaultPolicy.
func New(policy Policy, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.MaxDocBytes <= 0 {
		policy.MaxDocBytes = DefaultPolicy.MaxDocBytes
	}
	if policy.MaxDepth <= 0 {
		policy.MaxDepth = DefaultPolicy.MaxDepth
	}
	if policy.MaxArrayLen <= 0 {
		policy.MaxArrayLen = DefaultPolicy.MaxArrayLen
	}
	return &Validator{policy: policy, log: log}
}

// Policy returns the effective policy.
func (v *Validator) Policy() Policy { return v.policy }

// Result is the outcome of a full validation run.
type Result struct {
	Verdicts []corpus.ValidationVerdict `json:"verdicts"`
	Summary  Summary                    `json:"summary"`
}

// Validate runs Pass A on every record, then Pass B over the set. Verdicts
// come back in (mythology, type, id) order. A cancelled ctx stops Pass A
// between records and returns ctx.Err().
func (v *Validator) Validate(ctx context.Context, records []corpus.EntityRecord) (*Result, error) {
	sorted := make([]*corpus.EntityRecord, len(records))
	for i := range records {
		sorted[i] = &records[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool { return corpus.Less(sorted[i], sorted[j]) })

	verdicts := make([]corpus.ValidationVerdict, len(sorted))
	for i, r := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		verdicts[i] = v.Check(r)
		v.log.Info("validated",
			zap.Int("processed", i+1),
			zap.Int("total", len(sorted)),
			zap.String("id", r.ID),
			zap.Int("issues", len(verdicts[i].Issues)))
	}

	v.duplicates(sorted, verdicts)
	v.brokenRefs(sorted, verdicts)
	for i := range verdicts {
		verdicts[i].Ready = Ready(verdicts[i].Issues)
	}

	res := &Result{Verdicts: verdicts, Summary: Summarize(verdicts)}
	v.log.Info("validation complete",
		zap.Int("records", res.Summary.Total),
		zap.Int("ready", res.Summary.Ready),
		zap.Int("notReady", res.Summary.NotReady))
	return res, nil
}

// Check runs Pass A on a single record. Ready is computed from the Pass A
// issues alone; Validate recomputes it after Pass B.
func (v *Validator) Check(r *corpus.EntityRecord) corpus.ValidationVerdict {
	verdict := corpus.ValidationVerdict{
		RecordID:   r.ID,
		Mythology:  r.Mythology,
		Type:       r.Type,
		SourceFile: r.Metadata.SourceFile,
		Issues:     []corpus.Issue{},
	}
	add := func(is ...corpus.Issue) { verdict.Issues = append(verdict.Issues, is...) }

	data, err := corpus.Encode(r)
	if err != nil {
		add(issue(corpus.IssueSyntax, corpus.SeverityError, "", "encode: %v", err))
		verdict.Ready = false
		return verdict
	}
	add(roundTrip(data)...)
	add(schema(r)...)
	add(links(r)...)

	doc, err := decodeGeneric(data)
	if err != nil {
		add(issue(corpus.IssueSyntax, corpus.SeverityError, "", "decode: %v", err))
	} else {
		add(v.storeCompat(doc, len(data))...)
		add(specialChars(doc)...)
	}
	verdict.Ready = Ready(verdict.Issues)
	return verdict
}

// SyntaxFailure builds the verdict for a corpus file that could not be
// decoded at all.
func SyntaxFailure(path string, err error) corpus.ValidationVerdict {
	issues := []corpus.Issue{issue(corpus.IssueSyntax, corpus.SeverityError, "", "%v", err)}
	return corpus.ValidationVerdict{SourceFile: path, Issues: issues, Ready: false}
}

// Ready reports whether none of issues is error severity. Issue kinds that
// never block (special-char audit, broken-ref by default) are emitted with
// lower severity, so severity alone decides.
func Ready(issues []corpus.Issue) bool {
	for _, is := range issues {
		if is.Severity == corpus.SeverityError {
			return false
		}
	}
	return true
}

func issue(kind corpus.IssueKind, sev corpus.Severity, path, format string, args ...any) corpus.Issue {
	return corpus.Issue{Kind: kind, Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)}
}

// roundTrip decodes the encoding and encodes it again; the bytes must match.
func roundTrip(data []byte) []corpus.Issue {
	var back corpus.EntityRecord
	if err := json.Unmarshal(data, &back); err != nil {
		return []corpus.Issue{issue(corpus.IssueSyntax, corpus.SeverityError, "", "does not decode: %v", err)}
	}
	again, err := corpus.Encode(&back)
	if err != nil {
		return []corpus.Issue{issue(corpus.IssueSyntax, corpus.SeverityError, "", "re-encode: %v", err)}
	}
	if !bytes.Equal(data, again) {
		return []corpus.Issue{issue(corpus.IssueSyntax, corpus.SeverityError, "", "serialization does not round-trip")}
	}
	return nil
}

func decodeGeneric(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func schema(r *corpus.EntityRecord) []corpus.Issue {
	var out []corpus.Issue
	bad := func(path, format string, args ...any) {
		out = append(out, issue(corpus.IssueSchema, corpus.SeverityError, path, format, args...))
	}
	if r.Status == corpus.StatusExtractionFailed {
		bad("status", "extraction failed: %s", r.Error)
	} else if !r.Status.Valid() {
		bad("status", "status %q is not draft or published", r.Status)
	}
	switch {
	case r.ID == "":
		bad("id", "id is required")
	case !corpus.IsIDShaped(r.ID):
		bad("id", "id %q is not a slug", r.ID)
	}
	if strings.TrimSpace(r.Name) == "" {
		bad("name", "name is required")
	}
	if !r.Mythology.Valid() {
		bad("mythology", "mythology %q is not recognized", r.Mythology)
	}
	if !r.Type.Valid() {
		bad("type", "type %q is not in the entity type enum", r.Type)
	}
	if r.Payload != nil && corpus.PayloadFor(r.Type) == nil {
		bad("payload", "type %q carries no payload", r.Type)
	}
	if s := r.Metadata.CompletenessScore; s < 0 || s > 100 {
		bad("metadata.completenessScore", "score %d out of range [0,100]", s)
	}
	if r.Metadata.SourceFile == "" {
		bad("metadata.sourceFile", "source file is required")
	}
	if r.Metadata.ExtractorVersion == "" {
		bad("metadata.extractorVersion", "extractor version is required")
	}
	if r.Metadata.ExtractedAt.IsZero() {
		bad("metadata.extractedAt", "extraction time is required")
	}
	for _, k := range sortedKeys(r.Attributes) {
		if r.Attributes[k].IsEmpty() {
			bad("attributes."+k, "attribute has no value")
		}
	}
	return out
}

func links(r *corpus.EntityRecord) []corpus.Issue {
	var out []corpus.Issue
	missing := func(path string) {
		out = append(out, issue(corpus.IssueSchema, corpus.SeverityError, path, "link has no href"))
	}
	if r.Links != nil {
		for i, l := range r.Links.Internal {
			if strings.TrimSpace(l.Href) == "" {
				missing(fmt.Sprintf("links.internal[%d].href", i))
			}
		}
		for i, l := range r.Links.External {
			if strings.TrimSpace(l.Href) == "" {
				missing(fmt.Sprintf("links.external[%d].href", i))
			}
		}
		for i, l := range r.Links.Corpus {
			if strings.TrimSpace(l.Href) == "" {
				missing(fmt.Sprintf("links.corpus[%d].href", i))
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
