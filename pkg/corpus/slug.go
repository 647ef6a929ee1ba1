package corpus

import (
	"regexp"
	"strings"
)

var (
	reSeparators = regexp.MustCompile(`[\s_]+`)
	reNonSlug    = regexp.MustCompile(`[^a-z0-9-]`)
	reHyphens    = regexp.MustCompile(`-{2,}`)
)

// Slug derives a record id from a display name: lowercase, whitespace and
// underscore runs become one hyphen, anything outside [a-z0-9-] is dropped,
// and leading or trailing hyphens are trimmed.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reSeparators.ReplaceAllString(s, "-")
	s = reNonSlug.ReplaceAllString(s, "")
	s = reHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var reIDShaped = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsIDShaped reports whether s could be a record id.
func IsIDShaped(s string) bool { return reIDShaped.MatchString(s) }
