package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

var titleSeparators = regexp.MustCompile(`\s+(?:[-|:–—]|::)\s+`)

// identity resolves the display name: header h1, hero-section h2, the
// <title> with its suffix dropped, then the filename stem.
func (s *state) identity() {
	p := s.p
	if !page.Present(p.Header) {
		s.warn(WarnMissingHeader)
	}
	candidates := []string{
		page.Text(p.Header.Find("h1").First()),
		page.Text(p.Doc.Find(".hero-section h2").First()),
		strippedTitle(p.Title),
		TitleStem(p.Source.Stem()),
	}
	for _, c := range candidates {
		if c != "" {
			s.rec.Name = c
			return
		}
	}
}

// strippedTitle drops " - Egyptian Mythology" style suffixes and a bare
// trailing "Mythology" word.
func strippedTitle(t string) string {
	if t == "" {
		return ""
	}
	if loc := titleSeparators.FindStringIndex(t); loc != nil {
		t = t[:loc[0]]
	}
	t = strings.TrimSpace(strings.TrimSuffix(t, " Mythology"))
	return t
}

var (
	iconSelectors        = []string{".deity-icon", ".hero-icon", ".entity-icon", ".header-icon", ".icon"}
	subtitleSelectors    = []string{".subtitle", ".deity-subtitle", ".hero-subtitle", ".tagline"}
	descriptionSelectors = []string{".description", ".hero-description", ".deity-description", "p.lead", ".intro"}
)

func findFirst(scope *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := scope.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return scope.Slice(0, 0)
}

// display fills icon, subtitle and short description from the header.
func (s *state) display() {
	h := s.p.Header
	if !page.Present(h) {
		h = s.p.Doc.Find(".hero-section").First()
	}

	icon := findFirst(h, iconSelectors)
	if glyph := page.Text(icon); glyph != "" {
		s.rec.Icon = &corpus.Icon{Glyph: glyph, FontHint: s.fontHint(icon)}
	} else {
		s.warn(WarnMissingIcon)
	}

	sub := findFirst(h, subtitleSelectors)
	s.rec.Subtitle = page.Text(sub)
	desc := findFirst(h, descriptionSelectors)
	if !page.Present(desc) {
		// First paragraph in the header that is not the subtitle.
		h.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			if sub.Length() > 0 && p.Nodes[0] == sub.Nodes[0] {
				return true
			}
			desc = p
			return false
		})
	}
	s.rec.ShortDescription = page.Text(desc)
}

// fontHint reports the specialized font named on the icon element or one
// of its descendants, using the nodes the parser flagged.
func (s *state) fontHint(icon *goquery.Selection) string {
	if len(s.p.FontHinted) == 0 || icon.Length() == 0 {
		return ""
	}
	flagged := make(map[*html.Node]bool, len(s.p.FontHinted))
	for _, n := range s.p.FontHinted {
		flagged[n] = true
	}
	var hint string
	icon.Find("*").AddSelection(icon).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !flagged[el.Nodes[0]] {
			return true
		}
		style, _ := el.Attr("style")
		class, _ := el.Attr("class")
		hint = FontHintFor(style + " " + class)
		return hint == ""
	})
	return hint
}

var fontHints = []struct {
	needle string
	hint   string
}{
	{"hieroglyph", "egyptian-hieroglyph"},
	{"cuneiform", "cuneiform"},
	{"runic", "runic"},
	{"linear b", "linear-b"},
	{"linear-b", "linear-b"},
	{"phoenician", "phoenician"},
	{"ogham", "ogham"},
	{"devanagari", "devanagari"},
	{"old persian", "old-persian"},
}

// FontHintFor maps a style or class value to a fontHint, or "" when the
// value names no specialized script font.
func FontHintFor(styleOrClass string) string {
	v := strings.ToLower(styleOrClass)
	for _, h := range fontHints {
		if strings.Contains(v, h.needle) {
			return h.hint
		}
	}
	return ""
}
