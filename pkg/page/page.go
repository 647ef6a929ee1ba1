// Package page parses one corpus HTML file into a DOM and the handful of
// regions the extractor reads from.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/japaniel/mythos/pkg/corpus"
)

// ErrEmptyDocument is wrapped in the ParseError for blank files.
var ErrEmptyDocument = errors.New("document is empty")

// Crumb is one breadcrumb entry.
type Crumb struct {
	Text string
	Href string
}

// AttributeCard is one labeled property card.
type AttributeCard struct {
	Label string
	Value *goquery.Selection
}

// Page is a parsed document plus the derived regions. Regions that are
// absent on the page are empty selections, never nil.
type Page struct {
	Source   corpus.SourceDescriptor
	HTML     string
	Encoding string
	Doc      *goquery.Document

	Title         string
	Breadcrumb    []Crumb
	Header        *goquery.Selection
	MainSections  *goquery.Selection
	Attributes    *goquery.Selection
	Cards         []AttributeCard
	Mythology     *goquery.Selection
	Relationships *goquery.Selection
	Worship       *goquery.Selection
	Forms         *goquery.Selection
	Interlink     *goquery.Selection
	SeeAlso       *goquery.Selection
	// FontHinted holds elements whose inline style or class names a font,
	// in document order. The extractor maps them to fontHint values.
	FontHinted []*html.Node

	// Warnings are parser observations, e.g. an encoding fallback.
	Warnings []string
}

var (
	headerSelectors = []string{
		"section.deity-header",
		".hero-header",
		".hero-section",
		"section.entity-header",
		"header.page-header",
	}
	seeAlsoSelectors = []string{
		"section#see-also",
		".see-also",
		"section#related",
		".related-links",
	}
	interlinkSelectors = []string{
		"section.interlink-panel",
		".interlink-panel",
		"#cross-cultural",
	}
)

const fontHintXPath = `//*[contains(translate(@style,'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'font-family') or contains(@class,'hieroglyph') or contains(@class,'script-')]`

// ParseFile reads and parses the file named by src relative to root.
func ParseFile(root string, src corpus.SourceDescriptor) (*Page, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(src.Path)))
	if err != nil {
		return nil, &corpus.ParseError{Path: src.Path, Err: err}
	}
	return Parse(src, data)
}

// Parse decodes data and builds the page view. It fails only when no DOM
// can be produced; malformed markup is repaired by the HTML5 parser.
func Parse(src corpus.SourceDescriptor, data []byte) (*Page, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &corpus.ParseError{Path: src.Path, Err: ErrEmptyDocument}
	}
	text, enc, lossy := Decode(data)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, &corpus.ParseError{Path: src.Path, Err: err}
	}
	if len(doc.Nodes) == 0 {
		return nil, &corpus.ParseError{Path: src.Path, Err: ErrEmptyDocument}
	}

	p := &Page{Source: src, HTML: text, Encoding: enc, Doc: doc}
	if enc != EncUTF8 && enc != EncUTF8BOM {
		w := "encoding-fallback:" + enc
		if guess := GuessCharset(data); guess != "" {
			w += " (detected " + guess + ")"
		}
		if lossy {
			w += " lossy"
		}
		p.Warnings = append(p.Warnings, w)
	}
	p.index()
	return p, nil
}

func (p *Page) index() {
	d := p.Doc
	p.Title = Text(d.Find("head > title").First())
	if p.Title == "" {
		p.Title = Text(d.Find("title").First())
	}

	d.Find("nav.breadcrumb").First().Find("a, li > span, span.current").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "span" && s.ParentsFiltered("a").Length() > 0 {
			return
		}
		t := Text(s)
		if t == "" {
			return
		}
		href, _ := s.Attr("href")
		p.Breadcrumb = append(p.Breadcrumb, Crumb{Text: t, Href: href})
	})

	p.Header = firstOf(d.Selection, headerSelectors)
	p.MainSections = d.Find("main section")
	if p.MainSections.Length() == 0 {
		p.MainSections = d.Find("body section")
	}

	p.Attributes = d.Find("section#attributes").First()
	cards := p.Attributes.Find("div.attribute-card")
	if p.Attributes.Length() == 0 {
		cards = d.Find("div.attribute-card")
	}
	cards.Each(func(_ int, s *goquery.Selection) {
		label := Text(s.Find(".attribute-label").First())
		if label == "" {
			return
		}
		p.Cards = append(p.Cards, AttributeCard{Label: label, Value: s.Find(".attribute-value").First()})
	})

	p.Mythology = d.Find("section#mythology").First()
	p.Relationships = d.Find("section#relationships").First()
	p.Worship = d.Find("section#worship").First()
	p.Forms = d.Find("section#forms").First()
	p.Interlink = firstOf(d.Selection, interlinkSelectors)
	p.SeeAlso = firstOf(d.Selection, seeAlsoSelectors)

	if nodes, err := htmlquery.QueryAll(d.Nodes[0], fontHintXPath); err == nil {
		p.FontHinted = nodes
	}
}

func firstOf(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return none(s)
}

func none(s *goquery.Selection) *goquery.Selection { return s.Slice(0, 0) }

// XPath evaluates expr against the document root.
func (p *Page) XPath(expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(p.Doc.Nodes[0], expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// IntroParagraph returns the first non-empty paragraph that follows the
// mythology section heading, or the first paragraph in the section when
// there is no heading.
func (p *Page) IntroParagraph() string {
	for _, expr := range []string{
		`//section[@id='mythology']/*[self::h2 or self::h3][1]/following-sibling::p`,
		`//section[@id='mythology']//p`,
	} {
		nodes, err := p.XPath(expr)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			if t := NodeText(n); t != "" {
				return t
			}
		}
	}
	return ""
}

// Section finds a top-level section by id, falling back to a section whose
// h2 text contains heading (case-insensitive).
func (p *Page) Section(id, heading string) *goquery.Selection {
	if id != "" {
		if s := p.Doc.Find("section#" + id).First(); s.Length() > 0 {
			return s
		}
	}
	if heading == "" {
		return none(p.Doc.Selection)
	}
	want := strings.ToLower(heading)
	var out *goquery.Selection
	p.Doc.Find("section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h := strings.ToLower(Text(s.ChildrenFiltered("h2").First()))
		if h != "" && strings.Contains(h, want) {
			out = s
			return false
		}
		return true
	})
	if out == nil {
		return none(p.Doc.Selection)
	}
	return out
}
