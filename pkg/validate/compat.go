package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/japaniel/mythos/pkg/corpus"
)

// storeCompat walks the generic form of a record the way a document store
// would see it.
func (v *Validator) storeCompat(doc map[string]any, size int) []corpus.Issue {
	var out []corpus.Issue
	if size > v.policy.MaxDocBytes {
		out = append(out, issue(corpus.IssueStoreCompat, corpus.SeverityError, "",
			"document is %d bytes, limit %d", size, v.policy.MaxDocBytes))
	}
	tooDeep := false
	var walk func(path string, val any, depth int)
	walk = func(path string, val any, depth int) {
		if depth > v.policy.MaxDepth && !tooDeep {
			tooDeep = true
			out = append(out, issue(corpus.IssueStoreCompat, corpus.SeverityError, path,
				"nesting depth exceeds %d", v.policy.MaxDepth))
		}
		switch t := val.(type) {
		case map[string]any:
			for _, k := range sortedKeys(t) {
				p := join(path, k)
				if reason := badFieldName(k); reason != "" {
					out = append(out, issue(corpus.IssueStoreCompat, corpus.SeverityError, p, "field name %q %s", k, reason))
				}
				walk(p, t[k], depth+1)
			}
		case []any:
			if len(t) > v.policy.MaxArrayLen {
				out = append(out, issue(corpus.IssueStoreCompat, corpus.SeverityWarning, path,
					"array has %d elements, more than %d", len(t), v.policy.MaxArrayLen))
			}
			for i, e := range t {
				walk(fmt.Sprintf("%s[%d]", path, i), e, depth+1)
			}
		}
	}
	walk("", doc, 1)
	return out
}

func badFieldName(k string) string {
	switch {
	case k == "":
		return "is empty"
	case strings.Contains(k, "."):
		return "contains '.'"
	case strings.HasPrefix(k, "__"):
		return "starts with '__'"
	}
	return ""
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// specialChars reports the scripts present in the record's string values.
// The audit is informational.
func specialChars(doc map[string]any) []corpus.Issue {
	seen := map[string]bool{}
	var walk func(val any)
	walk = func(val any) {
		switch t := val.(type) {
		case string:
			for _, s := range corpus.ScriptsIn(t) {
				seen[s] = true
			}
		case map[string]any:
			for _, e := range t {
				walk(e)
			}
		case []any:
			for _, e := range t {
				walk(e)
			}
		}
	}
	walk(doc)
	if len(seen) == 0 {
		return nil
	}
	scripts := make([]string, 0, len(seen))
	for s := range seen {
		scripts = append(scripts, s)
	}
	sort.Strings(scripts)
	return []corpus.Issue{issue(corpus.IssueSpecialChar, corpus.SeverityInfo, "", "scripts: %s", strings.Join(scripts, ", "))}
}

// Scripts returns the scripts named by a verdict's special-char issue.
func Scripts(v *corpus.ValidationVerdict) []string {
	for _, is := range v.Issues {
		if is.Kind == corpus.IssueSpecialChar {
			return strings.Split(strings.TrimPrefix(is.Message, "scripts: "), ", ")
		}
	}
	return nil
}
