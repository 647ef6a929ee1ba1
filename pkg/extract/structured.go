package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
	"github.com/japaniel/mythos/pkg/reading"
)

// structured fills the linguistic, geographical and temporal blocks from
// routed attributes and script detection. Nothing is invented: a block
// without evidence stays nil.
func (s *state) structured() {
	s.rec.Linguistic = s.linguistic()
	s.rec.Geographical = s.geographical()
	s.rec.Temporal = s.temporal()
}

var reIAST = regexp.MustCompile(`[\p{L}]*[āīūṛṝṣṅśḍṭṇḷṃḥ][\p{L}]*`)

func languageFor(script string, m corpus.Mythology) string {
	switch script {
	case "devanagari":
		return "sa"
	case "hebrew":
		return "he"
	case "arabic":
		if m == "persian" {
			return "fa"
		}
		return "ar"
	case "greek", "greek-extended":
		return "grc"
	case "egyptian-hieroglyphs":
		return "egy"
	case "cuneiform":
		if m == "sumerian" {
			return "sux"
		}
		return "akk"
	case "kana":
		return "ja"
	case "cjk":
		if m == "japanese" {
			return "ja"
		}
		return "zh"
	case "runic":
		return "non"
	}
	return ""
}

func (s *state) linguistic() *corpus.Linguistic {
	l := &corpus.Linguistic{
		OriginalName:    s.routeOne("linguistic.originalName"),
		Transliteration: s.routeOne("linguistic.transliteration"),
		Pronunciation:   s.routeOne("linguistic.pronunciation"),
	}
	if d, m := s.routeOne("linguistic.etymology"), s.routeOne("linguistic.meaning"); d != "" || m != "" {
		l.Etymology = &corpus.Etymology{Derivation: d, Meaning: m}
	}

	scope := s.p.Header
	if !page.Present(scope) {
		scope = s.scope()
	}
	scope.Find("[lang]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		lang, _ := el.Attr("lang")
		t := page.Text(el)
		if t == "" || strings.HasPrefix(strings.ToLower(lang), "en") {
			return true
		}
		if l.OriginalName == "" {
			l.OriginalName = t
		}
		l.LanguageCode = lang
		return false
	})

	if l.OriginalName == "" {
		for _, text := range []string{s.rec.Name, s.rec.Subtitle, s.headerText()} {
			if run, _ := corpus.ScriptRun(text); run != "" {
				l.OriginalName = run
				break
			}
		}
	}
	if l.OriginalName != "" {
		_, l.OriginalScript = corpus.ScriptRun(l.OriginalName)
	}
	if l.LanguageCode == "" {
		l.LanguageCode = languageFor(l.OriginalScript, s.rec.Mythology)
	}

	if l.Transliteration == "" {
		for _, text := range []string{s.rec.Name, s.rec.Subtitle} {
			if m := reIAST.FindString(text); m != "" {
				l.Transliteration = m
				if l.LanguageCode == "" && (s.rec.Mythology == "hindu" || s.rec.Mythology == "buddhist") {
					l.LanguageCode = "sa"
				}
				break
			}
		}
	}

	if l.Pronunciation == "" && s.e.readings != nil && s.rec.Mythology == "japanese" && reading.HasJapanese(l.OriginalName) {
		l.Pronunciation = s.e.readings.Pronounce(l.OriginalName)
	}

	if l.OriginalName == "" && l.Transliteration == "" && l.Pronunciation == "" && l.LanguageCode == "" && l.Etymology == nil {
		return nil
	}
	return l
}

// headerText is the header's text without the icon, which is decorative.
func (s *state) headerText() string {
	if !page.Present(s.p.Header) {
		return ""
	}
	h := s.p.Header.Clone()
	h.Find(strings.Join(iconSelectors, ", ")).Remove()
	return page.Text(h)
}

func (s *state) geographical() *corpus.Geographical {
	g := &corpus.Geographical{
		Region:          s.routeOne("geo.region"),
		CulturalArea:    s.routeOne("geo.culturalArea"),
		ModernCountries: merge(nil, s.route("geo.modernCountries")...),
	}
	if o := s.routeOne("geo.origin"); o != "" {
		g.OriginPoint = &corpus.OriginPoint{Name: o}
	}
	if g.Region == "" && g.CulturalArea == "" && g.OriginPoint == nil && len(g.ModernCountries) == 0 {
		return nil
	}
	return g
}

var (
	reDatePoint = regexp.MustCompile(`(?i)\b(c(?:a|irca)?\.?\s*)?(\d{1,4})\s*(BCE|BC|CE|AD)?\b`)
	reDateRange = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(BCE|BC|CE|AD)?\s*[–—-]\s*(\d{1,4})\s*(BCE|BC|CE|AD)?\b`)
)

func signed(year int, era string) int {
	switch strings.ToUpper(era) {
	case "BCE", "BC":
		return -year
	}
	return year
}

// ParseDate reads "c. 1200 BCE" style dates. BCE years are negative.
func ParseDate(v string) (*corpus.DatePoint, bool) {
	m := reDatePoint.FindStringSubmatch(v)
	if m == nil {
		return nil, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}
	d := &corpus.DatePoint{Year: signed(year, m[3]), Circa: m[1] != "", Display: strings.TrimSpace(m[0])}
	if d.Circa {
		d.Confidence = "approximate"
	}
	return d, true
}

// ParseRange reads "3100–2686 BCE". A trailing era applies to both ends
// when the start carries none.
func ParseRange(v string) (*corpus.HistoricalDate, bool) {
	m := reDateRange.FindStringSubmatch(v)
	if m == nil {
		return nil, false
	}
	start, err1 := strconv.Atoi(m[1])
	end, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil {
		return nil, false
	}
	startEra := m[2]
	if startEra == "" {
		startEra = m[4]
	}
	return &corpus.HistoricalDate{
		Start:   signed(start, startEra),
		End:     signed(end, m[4]),
		Display: strings.TrimSpace(m[0]),
	}, true
}

func (s *state) temporal() *corpus.Temporal {
	t := &corpus.Temporal{
		CulturalPeriod:   s.routeOne("time.culturalPeriod"),
		TimelinePosition: s.routeOne("time.timelinePosition"),
	}
	if v := s.routeOne("time.firstAttestation"); v != "" {
		fa := &corpus.FirstAttestation{}
		if d, ok := ParseDate(v); ok {
			fa.Date = d
		}
		if i := strings.Index(v, "("); i > 0 && strings.HasSuffix(v, ")") {
			fa.Source = strings.TrimSpace(v[i+1 : len(v)-1])
		}
		if fa.Date != nil || fa.Source != "" {
			t.FirstAttestation = fa
		}
	}
	if r, ok := ParseRange(t.CulturalPeriod); ok {
		t.HistoricalDate = r
	}
	if t.CulturalPeriod == "" && t.TimelinePosition == "" && t.FirstAttestation == nil && t.HistoricalDate == nil {
		return nil
	}
	return t
}
