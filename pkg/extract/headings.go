package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/japaniel/mythos/pkg/page"
)

// block is a heading plus the sibling content that follows it up to the
// next heading of the same or a higher level.
type block struct {
	Title string
	Level int
	Body  *goquery.Selection
}

var stopAt = map[int]string{
	2: "h1, h2",
	3: "h1, h2, h3",
	4: "h1, h2, h3, h4",
}

func headingLevel(sel *goquery.Selection) int {
	switch goquery.NodeName(sel) {
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	}
	return 0
}

// blocksIn splits scope into heading blocks in document order.
func blocksIn(scope *goquery.Selection) []block {
	var out []block
	scope.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		lvl := headingLevel(h)
		title := page.Text(h)
		if title == "" {
			return
		}
		out = append(out, block{Title: title, Level: lvl, Body: h.NextUntil(stopAt[lvl])})
	})
	return out
}

// collect gathers elements matching sel among body and its descendants,
// preserving document order.
func collect(body *goquery.Selection, sel string) *goquery.Selection {
	out := body.Slice(0, 0)
	body.Each(func(_ int, n *goquery.Selection) {
		if n.Is(sel) {
			out = out.AddSelection(n)
			return
		}
		out = out.AddSelection(n.Find(sel))
	})
	return out
}

func texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, n *goquery.Selection) {
		if t := page.Text(n); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Paragraphs returns the paragraph texts of the block, skipping those
// nested in list items.
func (b block) Paragraphs() []string {
	return texts(collect(b.Body, "p").FilterFunction(func(_ int, p *goquery.Selection) bool {
		return p.ParentsFiltered("li").Length() == 0
	}))
}

// Items returns list item texts, or the paragraphs when the block holds no list.
func (b block) Items() []string {
	if items := texts(collect(b.Body, "li")); len(items) > 0 {
		return items
	}
	return b.Paragraphs()
}

// scope returns the main content region, falling back to body.
func (s *state) scope() *goquery.Selection {
	if m := s.p.Doc.Find("main").First(); m.Length() > 0 {
		return m
	}
	return s.p.Doc.Find("body").First()
}

func (s *state) blocks() []block {
	if s.cachedBlocks == nil {
		s.cachedBlocks = blocksIn(s.scope())
		if s.cachedBlocks == nil {
			s.cachedBlocks = []block{}
		}
	}
	return s.cachedBlocks
}

// blocksFor returns the blocks whose heading matches the keywords the
// template declares for field.
func (s *state) blocksFor(field string) []block {
	var out []block
	for _, b := range s.blocks() {
		if s.tpl.HeadingMatches(field, b.Title) {
			out = append(out, b)
		}
	}
	return out
}

// itemsFor flattens the items of every block matching field.
func (s *state) itemsFor(field string) []string {
	var out []string
	for _, b := range s.blocksFor(field) {
		out = append(out, b.Items()...)
	}
	return out
}

func containsFold(haystack string, needles ...string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, n) {
			return true
		}
	}
	return false
}
