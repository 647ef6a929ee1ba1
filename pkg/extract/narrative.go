package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

func (s *state) narrative() {
	p := s.p
	if page.Present(p.Mythology) {
		s.rec.LongDescription = p.IntroParagraph()
	} else {
		s.warn(WarnMissingMythology)
		if s.e.fallback {
			if d := s.readabilityText(); d != "" {
				s.rec.LongDescription = d
				s.warn(WarnReadabilityFallback)
			}
		}
	}
	s.rec.Sections = s.sections()
	s.rec.KeyMyths = s.keyMyths()
	s.rec.Sources = s.sources()
}

// readabilityText runs the article extractor over the page and keeps its
// first substantial paragraph.
func (s *state) readabilityText() string {
	u, _ := url.Parse("file:///" + s.p.Source.Path)
	article, err := readability.FromReader(strings.NewReader(page.StripRuby(s.p.HTML)), u)
	if err != nil {
		s.e.log.Debug("readability failed", zap.String("source", s.p.Source.Path), zap.Error(err))
		return ""
	}
	for _, line := range strings.Split(article.TextContent, "\n") {
		if t := page.CollapseSpace(line); len([]rune(t)) >= 40 {
			return t
		}
	}
	return page.CollapseSpace(article.TextContent)
}

func (s *state) isStructural(sec *goquery.Selection) bool {
	p := s.p
	for _, r := range []*goquery.Selection{p.Header, p.Attributes, p.Interlink} {
		if r.Length() > 0 && sec.Nodes[0] == r.Nodes[0] {
			return true
		}
	}
	return false
}

// sections renders every titled main section as ordered content items.
func (s *state) sections() []corpus.Section {
	var out []corpus.Section
	s.p.MainSections.Each(func(_ int, sec *goquery.Selection) {
		if s.isStructural(sec) {
			return
		}
		h := sec.ChildrenFiltered("h2").First()
		title := page.Text(h)
		if title == "" {
			return
		}
		section := corpus.Section{Title: title, Level: 2}
		collect(sec.Children().Not("h2"), "p, ul, ol, h3, h4").Each(func(_ int, el *goquery.Selection) {
			if el.ParentsFiltered("li").Length() > 0 {
				return
			}
			switch name := goquery.NodeName(el); name {
			case "p":
				if t := page.Text(el); t != "" {
					section.Content = append(section.Content, corpus.ContentItem{Type: corpus.ContentParagraph, Text: t})
				}
			case "ul", "ol":
				items := texts(el.ChildrenFiltered("li"))
				if len(items) > 0 {
					section.Content = append(section.Content, corpus.ContentItem{Type: corpus.ContentList, Items: items, Ordered: name == "ol"})
				}
			default:
				if t := page.Text(el); t != "" {
					section.Content = append(section.Content, corpus.ContentItem{Type: corpus.ContentHeading, Text: t, Level: headingLevel(el)})
				}
			}
		})
		out = append(out, section)
	})
	return out
}

var mythSplit = regexp.MustCompile(`^(.{1,120}?)\s*[:–—-]\s+(.+)$`)

// splitMyth separates "Title: description" list items.
func splitMyth(li *goquery.Selection) corpus.Myth {
	if strong := li.Find("strong, b").First(); strong.Length() > 0 {
		title := strings.TrimRight(page.Text(strong), ":–—- ")
		rest := page.Text(li)
		rest = strings.TrimSpace(strings.TrimPrefix(rest, page.Text(strong)))
		rest = strings.TrimSpace(strings.TrimLeft(rest, ":–—-"))
		return corpus.Myth{Title: title, Description: rest}
	}
	t := page.Text(li)
	if m := mythSplit.FindStringSubmatch(t); m != nil {
		return corpus.Myth{Title: m[1], Description: m[2]}
	}
	return corpus.Myth{Title: t}
}

func (s *state) keyMyths() []corpus.Myth {
	var out []corpus.Myth
	for _, b := range s.blocks() {
		if !containsFold(b.Title, "key myth", "major myth", "famous myth", "key stories") {
			continue
		}
		collect(b.Body, "li").Each(func(_ int, li *goquery.Selection) {
			if m := splitMyth(li); m.Title != "" {
				out = append(out, m)
			}
		})
	}
	s.scope().Find(".myth-card").Each(func(_ int, card *goquery.Selection) {
		title := page.Text(card.Find("h3, h4, .myth-title").First())
		if title == "" {
			return
		}
		out = append(out, corpus.Myth{Title: title, Description: page.Text(card.Find("p").First())})
	})
	return out
}

var sourceSelectors = []string{"section#sources", "section#references", ".sources", ".citations", ".references"}

func (s *state) sources() []string {
	if box := findFirst(s.p.Doc.Selection, sourceSelectors); box.Length() > 0 {
		if items := texts(box.Find("li")); len(items) > 0 {
			return items
		}
		return texts(box.Find("p, cite"))
	}
	var out []string
	for _, b := range s.blocks() {
		if containsFold(b.Title, "sources", "references", "bibliography", "further reading") {
			out = append(out, b.Items()...)
		}
	}
	return out
}
