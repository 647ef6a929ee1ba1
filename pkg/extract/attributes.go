package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

// inlinePolicy keeps anchors and emphasis only. Policies are safe for
// concurrent use once built.
var inlinePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("em", "strong", "i", "b")
	return p
}()

// InlineFragment sanitizes the inner HTML of sel down to anchors and
// emphasis and collapses its ASCII whitespace.
func InlineFragment(sel *goquery.Selection) string {
	return page.CollapseSpace(inlinePolicy.Sanitize(page.InnerHTML(sel)))
}

func (s *state) attributes() {
	attrs := corpus.Attributes{}
	for _, card := range s.p.Cards {
		label := CamelLabel(card.Label)
		if label == "" {
			continue
		}
		rule, known := s.tpl.Rule(label)
		if !known {
			s.warn(WarnUnknownAttribute + label)
		}
		v, plain := attributeValue(card.Value, rule)
		if v.IsEmpty() {
			continue
		}
		if _, dup := attrs[label]; dup {
			continue
		}
		attrs[label] = v
		if rule.Field != "" {
			s.routed[rule.Field] = append(s.routed[rule.Field], plain...)
		}
	}
	if len(attrs) == 0 {
		s.warn(WarnEmptyAttributes)
		return
	}
	s.rec.Attributes = attrs
}

// attributeValue picks the variant from the label rule and the markup: a
// value carrying anchors is kept as an inline fragment, a value written as a
// list stays a list, and a plural label splits on commas. plain is the text
// form used to route the value into typed fields.
func attributeValue(val *goquery.Selection, rule LabelRule) (v corpus.AttributeValue, plain []string) {
	if !page.Present(val) {
		return corpus.Scalar(""), nil
	}
	var items []string
	val.Find("li").Each(func(_ int, li *goquery.Selection) {
		if t := page.Text(li); t != "" {
			items = append(items, t)
		}
	})
	text := page.Text(val)
	switch {
	case len(items) > 0:
		plain = items
	case rule.Plural:
		plain = SplitList(text)
	case text != "":
		plain = []string{text}
	}

	if val.Find("a[href]").Length() > 0 {
		if frag := strings.TrimSpace(InlineFragment(val)); frag != "" {
			return corpus.Inline(frag), plain
		}
	}
	if len(items) > 0 || (rule.Plural && len(plain) > 0) {
		return corpus.List(plain...), plain
	}
	return corpus.Scalar(text), plain
}

// route returns the values collected for a template field.
func (s *state) route(field string) []string { return s.routed[field] }

// routeOne returns the first value collected for field.
func (s *state) routeOne(field string) string {
	if v := s.routed[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}
