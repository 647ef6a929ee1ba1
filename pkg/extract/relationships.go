package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

var slotLabels = []struct {
	re   *regexp.Regexp
	slot string
}{
	{regexp.MustCompile(`(?i)^(parents?|father|mother)\b`), "parents"},
	{regexp.MustCompile(`(?i)^(consorts?|consort\(s\)|spouses?|wife|wives|husbands?)\b`), "consorts"},
	{regexp.MustCompile(`(?i)^(children|child|offspring)\b`), "children"},
	{regexp.MustCompile(`(?i)^(siblings?|brothers?|sisters?)\b`), "siblings"},
	{regexp.MustCompile(`(?i)^(allies|ally|friends)\b`), "allies"},
	{regexp.MustCompile(`(?i)^(enemies|enemy|foes|rivals|adversaries)\b`), "enemies"},
}

func slotFor(label string) string {
	label = strings.TrimSpace(label)
	for _, l := range slotLabels {
		if l.re.MatchString(label) {
			return l.slot
		}
	}
	return ""
}

var labeledItem = regexp.MustCompile(`^([^:]{1,40}):\s*(.+)$`)

// labeledValue reads "<strong>Parents:</strong> Zeus and Hera" or
// "Parents: Zeus and Hera".
func labeledValue(el *goquery.Selection) (label, value string) {
	text := page.Text(el)
	if strong := el.Find("strong, b").First(); strong.Length() > 0 {
		label = strings.TrimRight(page.Text(strong), ": ")
		value = strings.TrimSpace(strings.TrimPrefix(text, page.Text(strong)))
		return label, strings.TrimSpace(strings.TrimPrefix(value, ":"))
	}
	if m := labeledItem.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	return "", text
}

func (s *state) relationships() {
	rel := &corpus.Relationships{}
	slots := map[string][]string{}

	if sec := s.p.Relationships; page.Present(sec) {
		sec.Find("li, p").Each(func(_ int, el *goquery.Selection) {
			if goquery.NodeName(el) == "p" && el.ParentsFiltered("li").Length() > 0 {
				return
			}
			label, value := labeledValue(el)
			slot := slotFor(label)
			if slot == "" && label == "" && goquery.NodeName(el) == "li" {
				// Unlabeled items inherit the slot named by the list's h3.
				slot = slotFor(page.Text(el.Parent().PrevAllFiltered("h3").First()))
			}
			if slot == "" {
				return
			}
			slots[slot] = append(slots[slot], SplitNames(value)...)
		})
	}
	for _, slot := range []string{"parents", "consorts", "children", "siblings"} {
		if len(slots[slot]) == 0 {
			slots[slot] = splitAll(s.route("family." + slot))
		}
	}
	for _, slot := range []string{"allies", "enemies"} {
		if len(slots[slot]) == 0 {
			slots[slot] = splitAll(s.route(slot))
		}
	}

	if fam := (corpus.Family{
		Parents:  slots["parents"],
		Consorts: slots["consorts"],
		Children: slots["children"],
		Siblings: slots["siblings"],
	}); len(fam.Parents)+len(fam.Consorts)+len(fam.Children)+len(fam.Siblings) > 0 {
		rel.Family = &fam
	}
	if len(slots["allies"])+len(slots["enemies"]) > 0 {
		rel.AlliesEnemies = &corpus.AlliesEnemies{Allies: slots["allies"], Enemies: slots["enemies"]}
	}
	rel.CrossCulturalParallels = s.parallels()

	if rel.HasFamily() || rel.HasAlliesEnemies() || rel.HasParallels() {
		s.rec.Relationships = rel
	}
}

func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, SplitNames(v)...)
	}
	return out
}

var traditionAliases = map[string]corpus.Mythology{
	"egypt":        "egyptian",
	"hinduism":     "hindu",
	"vedic":        "hindu",
	"buddhism":     "buddhist",
	"judaism":      "jewish",
	"hebrew":       "jewish",
	"christianity": "christian",
	"islam":        "islamic",
	"shinto":       "japanese",
	"maya":         "mayan",
	"zoroastrian":  "persian",
	"mesoamerican": "aztec",
	"viking":       "norse",
	"greco-roman":  "greek",
}

// NormalizeTradition maps a tradition marker such as "Greek Mythology" to a
// Mythology. ok is false when the token is not recognized.
func NormalizeTradition(marker string) (m corpus.Mythology, token string, ok bool) {
	token = strings.ToLower(page.CollapseSpace(marker))
	token = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(token, " mythology"), " tradition"))
	if m = corpus.Mythology(token); m.Valid() {
		return m, token, true
	}
	if m, ok = traditionAliases[token]; ok {
		return m, token, true
	}
	return corpus.Mythology(token), token, false
}

var (
	parallelCardSelector = ".interlink-card, .parallel-card, .interlink-item"
	traditionSelector    = ".tradition, .interlink-tradition, .mythology-label, .tradition-marker"
	parallelNameSelector = ".interlink-name, .parallel-name, h4, h3, strong"
)

func (s *state) parallels() []corpus.Parallel {
	panel := s.p.Interlink
	if !page.Present(panel) {
		return nil
	}
	cards := panel.Find(parallelCardSelector)
	if cards.Length() == 0 {
		cards = panel.Find("li")
	}
	var out []corpus.Parallel
	cards.Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Attr("href")
		if href == "" {
			href, _ = card.Find("a[href]").First().Attr("href")
		}
		marker, hasData := card.Attr("data-tradition")
		tradition := card.Find(traditionSelector).First()
		if !hasData {
			marker = page.Text(tradition)
		}
		name := page.Text(card.Find(parallelNameSelector).First())
		if name == "" {
			name = page.Text(card.Find("a").First())
		}
		if name == "" {
			name = strings.TrimSpace(strings.TrimSuffix(page.Text(card), page.Text(tradition)))
		}
		if name == "" {
			return
		}
		myth, token, ok := NormalizeTradition(marker)
		if !ok {
			if token == "" {
				token = "none"
			}
			s.warn(WarnUnknownParallel + token)
		}
		out = append(out, corpus.Parallel{Name: name, Mythology: myth, URL: href})
	})
	return out
}
