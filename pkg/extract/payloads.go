package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/page"
)

// payload dispatches on the entity type. Types without a typed block keep
// a nil payload.
func (s *state) payload() {
	var p corpus.Payload
	switch s.rec.Type {
	case corpus.TypeDeity:
		p = s.deity()
	case corpus.TypeHero:
		p = s.hero()
	case corpus.TypeCreature:
		p = s.creature()
	case corpus.TypePlace:
		p = s.place()
	case corpus.TypeRitual:
		p = s.ritual()
	case corpus.TypeText:
		p = s.text()
	case corpus.TypeSymbol, corpus.TypeItem, corpus.TypeConcept:
		p = s.symbolic()
	}
	if corpus.PayloadPopulated(p) {
		s.rec.Payload = p
	}
}

// merge appends the values of more that are not already in base.
func merge(base []string, more ...string) []string {
	for _, m := range more {
		dup := false
		for _, b := range base {
			if strings.EqualFold(b, m) {
				dup = true
				break
			}
		}
		if !dup && m != "" {
			base = append(base, m)
		}
	}
	return base
}

func (s *state) deity() *corpus.DeityPayload {
	d := &corpus.DeityPayload{}
	w := &corpus.Worship{}
	if page.Present(s.p.Worship) {
		for _, b := range blocksIn(s.p.Worship) {
			switch {
			case s.tpl.HeadingMatches("worship.sacredSites", b.Title):
				w.SacredSites = merge(w.SacredSites, b.Items()...)
			case s.tpl.HeadingMatches("worship.festivals", b.Title):
				w.Festivals = merge(w.Festivals, b.Items()...)
			case s.tpl.HeadingMatches("worship.offerings", b.Title):
				w.Offerings = merge(w.Offerings, b.Items()...)
			case s.tpl.HeadingMatches("worship.prayers", b.Title):
				w.Prayers = merge(w.Prayers, b.Items()...)
			}
		}
	}
	w.SacredSites = merge(w.SacredSites, s.route("worship.sacredSites")...)
	w.Festivals = merge(w.Festivals, s.route("worship.festivals")...)
	w.Offerings = merge(w.Offerings, s.route("worship.offerings")...)
	if len(w.SacredSites)+len(w.Festivals)+len(w.Offerings)+len(w.Prayers) > 0 {
		d.Worship = w
	}

	d.Forms = s.forms()
	d.Domains = merge(nil, s.route("domains")...)
	d.Symbols = merge(nil, s.route("symbols")...)
	d.Epithets = merge(nil, s.route("epithets")...)
	d.Vahana = merge(nil, s.route("vahana")...)
	d.Weapons = merge(nil, s.route("weapons")...)
	if sacred := (corpus.Sacred{
		Animals: merge(nil, s.route("sacred.animals")...),
		Plants:  merge(nil, s.route("sacred.plants")...),
		Colors:  merge(nil, s.route("sacred.colors")...),
	}); len(sacred.Animals)+len(sacred.Plants)+len(sacred.Colors) > 0 {
		d.Sacred = &sacred
	}
	d.Mantras = s.mantras()
	return d
}

func (s *state) forms() []corpus.Form {
	sec := s.p.Forms
	if !page.Present(sec) {
		return nil
	}
	var out []corpus.Form
	sec.Find(".form-card").Each(func(_ int, card *goquery.Selection) {
		name := page.Text(card.Find(".form-name, h3, h4, strong").First())
		if name == "" {
			return
		}
		out = append(out, corpus.Form{Name: name, Description: page.Text(card.Find(".form-description, p").First())})
	})
	if len(out) > 0 {
		return out
	}
	sec.Find("li").Each(func(_ int, li *goquery.Selection) {
		m := splitMyth(li)
		if m.Title != "" {
			out = append(out, corpus.Form{Name: m.Title, Description: m.Description})
		}
	})
	if len(out) > 0 {
		return out
	}
	for _, b := range blocksIn(sec) {
		if b.Level < 3 {
			continue
		}
		out = append(out, corpus.Form{Name: b.Title, Description: strings.Join(b.Paragraphs(), " ")})
	}
	return out
}

var (
	reOm      = regexp.MustCompile(`^(?:ॐ|(?:Om|OM|Aum)[\s,.!])`)
	reQuoted  = regexp.MustCompile(`[“"]([^”"]{3,200})[”"]`)
	reSanskrt = regexp.MustCompile(`[āīūṛṝḷṣṅśḍṭṇṃḥ\x{0900}-\x{097F}]`)
)

// mantras collects text opening with Om or ॐ, quoted text carrying
// Sanskrit markers, elements classed "mantra", and strong runs under a
// mantra heading.
func (s *state) mantras() []string {
	var out []string
	s.scope().Find("p, li, blockquote, .mantra").Each(func(_ int, el *goquery.Selection) {
		t := page.Text(el)
		if t == "" {
			return
		}
		if el.HasClass("mantra") || (reOm.MatchString(t) && len([]rune(t)) <= 300) {
			out = merge(out, strings.Trim(t, `“”"`))
			return
		}
		for _, m := range reQuoted.FindAllStringSubmatch(t, -1) {
			if reSanskrt.MatchString(m[1]) {
				out = merge(out, m[1])
			}
		}
	})
	for _, b := range s.blocksFor("mantras") {
		strong := texts(collect(b.Body, "strong, b"))
		if len(strong) == 0 {
			strong = b.Items()
		}
		out = merge(out, strong...)
	}
	return merge(out, s.route("mantras")...)
}

var (
	reDigits      = regexp.MustCompile(`\d+`)
	reLeadingNum  = regexp.MustCompile(`^(?:labou?r\s+)?\d+\s*[.):–—-]?\s*`)
	reStepHeading = regexp.MustCompile(`(?i)\b(step|stage|phase|procedure)\b`)
	reStepPrefix  = regexp.MustCompile(`(?i)^(step|stage|phase)\s*\d*\s*[:.–—-]?\s*`)
)

func (s *state) hero() *corpus.HeroPayload {
	h := &corpus.HeroPayload{}
	s.scope().Find(".labor-card").Each(func(i int, card *goquery.Selection) {
		n := i + 1
		if v, ok := card.Attr("data-number"); ok {
			if x, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				n = x
			}
		} else if d := reDigits.FindString(page.Text(card.Find(".labor-number").First())); d != "" {
			n, _ = strconv.Atoi(d)
		}
		titleSel := card.Find(".labor-title, h3, h4, strong").First()
		title := reLeadingNum.ReplaceAllString(page.Text(titleSel), "")
		if title == "" {
			return
		}
		desc := card.Find(".labor-description").First()
		if desc.Length() == 0 {
			desc = card.Find("p").First()
		}
		h.Labors = append(h.Labors, corpus.Labor{Number: n, Title: title, Description: page.Text(desc)})
	})

	if q := s.p.Doc.Find(".quest-card").First(); q.Length() > 0 {
		h.Quest = page.Text(q.Find("p").First())
		if h.Quest == "" {
			h.Quest = page.Text(q)
		}
	}
	if h.Quest == "" {
		h.Quest = s.routeOne("quest")
	}
	h.Weapons = merge(nil, s.route("weapons")...)

	if page.Present(s.p.Mythology) {
		for _, b := range blocksIn(s.p.Mythology) {
			if b.Level != 3 || containsFold(b.Title, "key myth") {
				continue
			}
			h.Narrative = append(h.Narrative, corpus.NarrativeBlock{Title: b.Title, Paragraphs: b.Paragraphs()})
		}
	}
	return h
}

func (s *state) firstParagraph(field string) string {
	for _, b := range s.blocksFor(field) {
		if ps := b.Paragraphs(); len(ps) > 0 {
			return ps[0]
		}
	}
	return ""
}

func (s *state) creature() *corpus.CreaturePayload {
	c := &corpus.CreaturePayload{
		Habitats:   merge(merge(nil, s.route("habitats")...), s.itemsFor("habitats")...),
		Abilities:  merge(merge(nil, s.route("abilities")...), s.itemsFor("abilities")...),
		Weaknesses: merge(merge(nil, s.route("weaknesses")...), s.itemsFor("weaknesses")...),
		Symbolism:  s.routeOne("symbolism"),
	}
	if c.Symbolism == "" {
		c.Symbolism = s.firstParagraph("symbolism")
	}
	return c
}

var reCoords = regexp.MustCompile(`(-?\d{1,3}(?:\.\d+)?)\s*°?\s*([NS])?\s*[,/ ]\s*(-?\d{1,3}(?:\.\d+)?)\s*°?\s*([EW])?`)

// ParseCoordinates reads "29.97° N, 31.13° E" or "29.97, 31.13".
func ParseCoordinates(v string) (*corpus.Coordinates, bool) {
	m := reCoords.FindStringSubmatch(v)
	if m == nil {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false
	}
	if m[2] == "S" {
		lat = -lat
	}
	if m[4] == "W" {
		lon = -lon
	}
	return &corpus.Coordinates{Lat: lat, Lon: lon}, true
}

func accessibilityOf(v string) corpus.Accessibility {
	switch {
	case containsFold(v, "physical"):
		return corpus.AccessPhysical
	case containsFold(v, "spiritual"):
		return corpus.AccessSpiritual
	case containsFold(v, "mythical", "mythic", "legendary"):
		return corpus.AccessMythical
	}
	return ""
}

func (s *state) place() *corpus.PlacePayload {
	pl := &corpus.PlacePayload{Accessibility: accessibilityOf(s.routeOne("accessibility"))}
	if pl.Accessibility == "" {
		pl.Accessibility = accessibilityOf(s.firstParagraph("accessibility"))
	}
	geo := &corpus.PlaceGeography{Region: s.routeOne("geo.region")}
	if c, ok := ParseCoordinates(s.routeOne("geo.coordinates")); ok {
		geo.Coordinates = c
	} else if el := s.p.Doc.Find("[data-lat][data-lon]").First(); el.Length() > 0 {
		lat, _ := el.Attr("data-lat")
		lon, _ := el.Attr("data-lon")
		if c, ok := ParseCoordinates(lat + ", " + lon); ok {
			geo.Coordinates = c
		}
	}
	if geo.Region != "" || geo.Coordinates != nil {
		pl.Geographical = geo
	}
	return pl
}

func stepOf(i int, li *goquery.Selection) corpus.Step {
	st := corpus.Step{Step: i + 1, Instruction: page.Text(li)}
	if strong := li.Find("strong, b").First(); strong.Length() > 0 {
		st.Instruction = strings.TrimRight(page.Text(strong), ":.– ")
		rest := strings.TrimSpace(strings.TrimPrefix(page.Text(li), page.Text(strong)))
		st.Details = strings.TrimSpace(strings.TrimLeft(rest, ":.–—- "))
	}
	return st
}

func (s *state) ritual() *corpus.RitualPayload {
	r := &corpus.RitualPayload{RitualType: s.routeOne("ritualType")}
	proc := &corpus.Procedure{
		Duration:     s.routeOne("procedure.duration"),
		Participants: s.routeOne("procedure.participants"),
		Materials:    merge(merge(nil, s.route("procedure.materials")...), s.itemsFor("procedure.materials")...),
	}

	var ol *goquery.Selection
	if sec := s.p.Section("procedure", ""); page.Present(sec) {
		ol = sec.Find("ol").First()
	}
	if ol == nil || ol.Length() == 0 {
		for _, b := range s.blocksFor("procedure") {
			if found := collect(b.Body, "ol").First(); found.Length() > 0 {
				ol = found
				break
			}
		}
	}
	if ol != nil && ol.Length() > 0 {
		ol.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
			proc.Steps = append(proc.Steps, stepOf(i, li))
		})
	} else {
		for _, b := range s.blocks() {
			if b.Level < 3 || !reStepHeading.MatchString(b.Title) {
				continue
			}
			title := strings.TrimSpace(reStepPrefix.ReplaceAllString(b.Title, ""))
			if title == "" {
				title = b.Title
			}
			proc.Steps = append(proc.Steps, corpus.Step{
				Step:        len(proc.Steps) + 1,
				Instruction: title,
				Details:     strings.Join(b.Paragraphs(), " "),
			})
		}
	}
	if len(proc.Steps) > 0 || proc.Duration != "" || proc.Participants != "" || len(proc.Materials) > 0 {
		r.Procedure = proc
	}

	timing := &corpus.Timing{
		Occasions:      merge(merge(nil, s.route("timing.occasions")...), s.itemsFor("timing.occasions")...),
		Frequency:      s.routeOne("timing.frequency"),
		SeasonalTiming: s.routeOne("timing.seasonalTiming"),
	}
	if len(timing.Occasions) > 0 || timing.Frequency != "" || timing.SeasonalTiming != "" {
		r.Timing = timing
	}
	return r
}

var (
	reEraDate   = regexp.MustCompile(`\b(?:c\.\s*)?\d{3,4}\s*(?:BCE|CE)\b`)
	reCircaDate = regexp.MustCompile(`\bc\.?\s*\d{3,4}\b`)
	reAuthor    = regexp.MustCompile(`\b[Aa]uthor(?:ed)? by\s+((?:the\s+)?[A-Z][\p{L}'’-]*(?:\s+(?:of\s+)?[A-Z][\p{L}'’-]*)*)`)
)

// ApproximateDating finds the first era date ("1200 BCE") or circa date
// ("c. 800") in text.
func ApproximateDating(text string) string {
	if m := reEraDate.FindString(text); m != "" {
		return m
	}
	return reCircaDate.FindString(text)
}

// Authorship finds an "authored by X" attribution in text.
func Authorship(text string) string {
	if m := reAuthor.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func (s *state) text() *corpus.TextPayload {
	t := &corpus.TextPayload{Structure: merge(nil, s.route("structure")...)}
	declared := len(t.Structure) > 0
	for _, sec := range s.rec.Sections {
		if !declared {
			t.Structure = append(t.Structure, sec.Title)
		}
		ts := corpus.TextSection{Title: sec.Title}
		for _, c := range sec.Content {
			if c.Type == corpus.ContentParagraph {
				ts.Summary = c.Text
				break
			}
		}
		t.DetailedSections = append(t.DetailedSections, ts)
	}
	t.KeyThemes = merge(merge(nil, s.route("keyThemes")...), s.itemsFor("keyThemes")...)
	t.FamousPassages = merge(texts(s.scope().Find("blockquote")), s.itemsFor("famousPassages")...)
	t.TextualParallels = s.itemsFor("textualParallels")

	body := page.Text(s.scope())
	t.ApproximateDating = s.routeOne("dating")
	if t.ApproximateDating == "" {
		t.ApproximateDating = ApproximateDating(body)
	}
	t.PossibleAuthorship = s.routeOne("authorship")
	if t.PossibleAuthorship == "" {
		t.PossibleAuthorship = Authorship(body)
	}
	return t
}

func (s *state) symbolic() *corpus.SymbolicPayload {
	sy := &corpus.SymbolicPayload{
		Meanings:        merge(merge(nil, s.route("meanings")...), s.itemsFor("meanings")...),
		RitualUsage:     merge(merge(nil, s.route("ritualUsage")...), s.itemsFor("ritualUsage")...),
		Usage:           merge(merge(nil, s.route("usage")...), s.itemsFor("usage")...),
		Symbolism:       s.routeOne("symbolism"),
		Interpretations: s.itemsFor("interpretations"),
	}
	for _, b := range s.blocksFor("visualDescription") {
		for _, p := range b.Paragraphs() {
			if len(p) > len(sy.VisualDescription) {
				sy.VisualDescription = p
			}
		}
	}
	if sy.VisualDescription == "" {
		sy.VisualDescription = page.Text(s.p.Doc.Find(".hero-description").First())
	}
	if sy.Symbolism == "" {
		sy.Symbolism = s.firstParagraph("symbolism")
	}
	return sy
}
