package corpus

import (
	"fmt"
	"path"
	"strings"
)

// Reference is a cross-reference from a record to another record's id.
type Reference struct {
	// Path is the JSON field path where the reference was found.
	Path     string
	Href     string
	TargetID string
}

// TargetID extracts the id a page link points at: the stem of an .html
// path inside the site. External URLs that do not route through mythos/
// and index pages yield false.
func TargetID(href string) (string, bool) {
	h := strings.TrimSpace(href)
	if h == "" || strings.HasPrefix(h, "#") || strings.HasPrefix(h, "mailto:") {
		return "", false
	}
	if i := strings.IndexAny(h, "?#"); i >= 0 {
		h = h[:i]
	}
	if strings.Contains(h, "://") && !strings.Contains(h, "/mythos/") {
		return "", false
	}
	base := path.Base(h)
	if !strings.HasSuffix(base, ".html") {
		return "", false
	}
	stem := strings.TrimSuffix(base, ".html")
	if stem == "index" || stem == "corpus-search" {
		return "", false
	}
	if !IsIDShaped(stem) {
		return "", false
	}
	return stem, true
}

// References lists the id-shaped cross-references held by the record,
// de-duplicated by target id. Parallels come first, then internal links,
// then corpus links.
func (r *EntityRecord) References() []Reference {
	var out []Reference
	seen := map[string]bool{}
	add := func(p, href string) {
		id, ok := TargetID(href)
		if !ok || id == r.ID || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, Reference{Path: p, Href: href, TargetID: id})
	}
	if r.Relationships != nil {
		for i, p := range r.Relationships.CrossCulturalParallels {
			add(fmt.Sprintf("relationships.crossCulturalParallels[%d].url", i), p.URL)
		}
	}
	if r.Links != nil {
		for i, l := range r.Links.Internal {
			add(fmt.Sprintf("links.internal[%d].href", i), l.Href)
		}
		for i, l := range r.Links.Corpus {
			add(fmt.Sprintf("links.corpus[%d].href", i), l.Href)
		}
	}
	return out
}
