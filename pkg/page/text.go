package page

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// CollapseSpace folds runs of ASCII whitespace into a single space and trims
// ASCII whitespace at both ends. Non-ASCII characters, including non-breaking
// and ideographic spaces, are left exactly as they are.
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isASCIISpace(c) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteByte(c)
	}
	return b.String()
}

// Text returns the collapsed text content of sel.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return CollapseSpace(sel.Text())
}

// NodeText returns the collapsed text content of a single node.
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return CollapseSpace(buf.String())
}

// InnerHTML renders the children of sel's first node.
func InnerHTML(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var buf bytes.Buffer
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Present reports whether sel matched anything.
func Present(sel *goquery.Selection) bool { return sel != nil && sel.Length() > 0 }

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// StripRuby removes ruby annotations (<rt> and <rp>) so that text extraction
// over Japanese pages does not repeat the furigana after each kanji run.
func StripRuby(src string) string {
	return reRP.ReplaceAllString(reRT.ReplaceAllString(src, ""), "")
}
