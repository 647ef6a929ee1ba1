package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

func isExternal(href string) bool {
	h := strings.ToLower(href)
	return (strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://") || strings.HasPrefix(h, "//")) &&
		!strings.Contains(h, "/mythos/")
}

func isCorpusLink(a *goquery.Selection, href string) bool {
	if _, ok := a.Attr("data-term"); ok {
		return true
	}
	return a.HasClass("corpus-link") || strings.Contains(href, "corpus-search")
}

// links classifies every anchor in the main content. Breadcrumb anchors
// and in-page fragments are skipped.
func (s *state) links() {
	l := &corpus.Links{}
	seen := map[string]bool{}
	s.scope().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if a.ParentsFiltered("nav.breadcrumb").Length() > 0 {
			return
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
			return
		}
		text := page.Text(a)
		switch {
		case isCorpusLink(a, href):
			key := "c:" + href
			if seen[key] {
				return
			}
			seen[key] = true
			term := a.AttrOr("data-term", "")
			if term == "" {
				term = text
			}
			l.Corpus = append(l.Corpus, corpus.CorpusLink{Term: term, Tradition: a.AttrOr("data-tradition", ""), Href: href, Text: text})
		case isExternal(href):
			if seen["e:"+href] {
				return
			}
			seen["e:"+href] = true
			l.External = append(l.External, corpus.Link{Href: href, Text: text})
		default:
			if seen["i:"+href] {
				return
			}
			seen["i:"+href] = true
			l.Internal = append(l.Internal, corpus.Link{Href: href, Text: text})
		}
	})
	if len(l.Internal)+len(l.External)+len(l.Corpus) > 0 {
		s.rec.Links = l
	}
}
