package corpus

// IssueKind classifies a validation finding.
type IssueKind string

const (
	IssueSyntax      IssueKind = "syntax"
	IssueSchema      IssueKind = "schema"
	IssueDuplicateID IssueKind = "duplicate-id"
	IssueBrokenRef   IssueKind = "broken-ref"
	IssueStoreCompat IssueKind = "store-compat"
	IssueSpecialChar IssueKind = "special-char-warning"
)

// Severity decides whether an issue can block a record.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one finding against a record.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Path     string    `json:"path,omitempty"`
	Message  string    `json:"message"`
}

// ValidationVerdict is the per-record outcome of validation.
type ValidationVerdict struct {
	RecordID   string     `json:"recordId"`
	Mythology  Mythology  `json:"mythology"`
	Type       EntityType `json:"type"`
	SourceFile string     `json:"sourceFile"`
	Ready      bool       `json:"ready"`
	Issues     []Issue    `json:"issues"`
}

// Count returns how many issues of kind k the verdict holds.
func (v *ValidationVerdict) Count(k IssueKind) int {
	n := 0
	for _, is := range v.Issues {
		if is.Kind == k {
			n++
		}
	}
	return n
}
