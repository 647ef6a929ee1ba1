package corpus

import (
	"encoding/json"
	"fmt"
)

// Payload is the type-specific part of a record. The concrete types are
// DeityPayload, HeroPayload, CreaturePayload, PlacePayload, RitualPayload,
// TextPayload and SymbolicPayload (symbol, item and concept records).
type Payload interface {
	payloadKind() payloadKind
}

type payloadKind int

const (
	kindDeity payloadKind = iota + 1
	kindHero
	kindCreature
	kindPlace
	kindRitual
	kindText
	kindSymbolic
)

// PayloadFor returns an empty payload of the right concrete type for t, or
// nil when t carries no type-specific block.
func PayloadFor(t EntityType) Payload {
	switch t {
	case TypeDeity:
		return &DeityPayload{}
	case TypeHero:
		return &HeroPayload{}
	case TypeCreature:
		return &CreaturePayload{}
	case TypePlace:
		return &PlacePayload{}
	case TypeRitual:
		return &RitualPayload{}
	case TypeText:
		return &TextPayload{}
	case TypeSymbol, TypeItem, TypeConcept:
		return &SymbolicPayload{}
	default:
		return nil
	}
}

func decodePayload(t EntityType, raw json.RawMessage) (Payload, error) {
	p := PayloadFor(t)
	if p == nil {
		return nil, fmt.Errorf("type %q carries no payload", t)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}

type Worship struct {
	SacredSites []string `json:"sacredSites,omitempty"`
	Festivals   []string `json:"festivals,omitempty"`
	Offerings   []string `json:"offerings,omitempty"`
	Prayers     []string `json:"prayers,omitempty"`
}

func (w *Worship) empty() bool {
	return w == nil || len(w.SacredSites)+len(w.Festivals)+len(w.Offerings)+len(w.Prayers) == 0
}

// Form is one manifestation of a deity.
type Form struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Sacred struct {
	Animals []string `json:"animals,omitempty"`
	Plants  []string `json:"plants,omitempty"`
	Colors  []string `json:"colors,omitempty"`
}

func (s *Sacred) empty() bool {
	return s == nil || len(s.Animals)+len(s.Plants)+len(s.Colors) == 0
}

type DeityPayload struct {
	Worship  *Worship `json:"worship,omitempty"`
	Forms    []Form   `json:"forms,omitempty"`
	Domains  []string `json:"domains,omitempty"`
	Symbols  []string `json:"symbols,omitempty"`
	Sacred   *Sacred  `json:"sacred,omitempty"`
	Mantras  []string `json:"mantras,omitempty"`
	Epithets []string `json:"epithets,omitempty"`
	Vahana   []string `json:"vahana,omitempty"`
	Weapons  []string `json:"weapons,omitempty"`
}

func (*DeityPayload) payloadKind() payloadKind { return kindDeity }

// Labor is one numbered exploit from a labors grid.
type Labor struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// NarrativeBlock is an h3-delimited story segment on a hero page.
type NarrativeBlock struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs,omitempty"`
}

type HeroPayload struct {
	Labors    []Labor          `json:"labors,omitempty"`
	Quest     string           `json:"quest,omitempty"`
	Weapons   []string         `json:"weapons,omitempty"`
	Narrative []NarrativeBlock `json:"narrative,omitempty"`
}

func (*HeroPayload) payloadKind() payloadKind { return kindHero }

type CreaturePayload struct {
	Habitats   []string `json:"habitats,omitempty"`
	Abilities  []string `json:"abilities,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
	Symbolism  string   `json:"symbolism,omitempty"`
}

func (*CreaturePayload) payloadKind() payloadKind { return kindCreature }

type Accessibility string

const (
	AccessPhysical  Accessibility = "physical"
	AccessSpiritual Accessibility = "spiritual"
	AccessMythical  Accessibility = "mythical"
)

type PlaceGeography struct {
	Region      string       `json:"region,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type PlacePayload struct {
	Accessibility Accessibility   `json:"accessibility,omitempty"`
	Geographical  *PlaceGeography `json:"geographical,omitempty"`
}

func (*PlacePayload) payloadKind() payloadKind { return kindPlace }

type Step struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
	Details     string `json:"details,omitempty"`
}

type Procedure struct {
	Steps        []Step   `json:"steps,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Participants string   `json:"participants,omitempty"`
	Materials    []string `json:"materials,omitempty"`
}

type Timing struct {
	Occasions      []string `json:"occasions,omitempty"`
	Frequency      string   `json:"frequency,omitempty"`
	SeasonalTiming string   `json:"seasonalTiming,omitempty"`
}

type RitualPayload struct {
	RitualType string     `json:"ritualType,omitempty"`
	Procedure  *Procedure `json:"procedure,omitempty"`
	Timing     *Timing    `json:"timing,omitempty"`
}

func (*RitualPayload) payloadKind() payloadKind { return kindRitual }

// TextSection is one high-level division of a sacred or literary text.
type TextSection struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

type TextPayload struct {
	Structure          []string      `json:"structure,omitempty"`
	DetailedSections   []TextSection `json:"detailedSections,omitempty"`
	KeyThemes          []string      `json:"keyThemes,omitempty"`
	FamousPassages     []string      `json:"famousPassages,omitempty"`
	TextualParallels   []string      `json:"textualParallels,omitempty"`
	ApproximateDating  string        `json:"approximateDating,omitempty"`
	PossibleAuthorship string        `json:"possibleAuthorship,omitempty"`
}

func (*TextPayload) payloadKind() payloadKind { return kindText }

// SymbolicPayload is shared by symbol, item and concept records.
type SymbolicPayload struct {
	VisualDescription string   `json:"visualDescription,omitempty"`
	Meanings          []string `json:"meanings,omitempty"`
	RitualUsage       []string `json:"ritualUsage,omitempty"`
	Usage             []string `json:"usage,omitempty"`
	Symbolism         string   `json:"symbolism,omitempty"`
	Interpretations   []string `json:"interpretations,omitempty"`
}

func (*SymbolicPayload) payloadKind() payloadKind { return kindSymbolic }

// PayloadPopulated reports whether p holds at least one field.
func PayloadPopulated(p Payload) bool {
	switch v := p.(type) {
	case nil:
		return false
	case *DeityPayload:
		return !v.Worship.empty() || len(v.Forms) > 0 || len(v.Domains) > 0 || len(v.Symbols) > 0 ||
			!v.Sacred.empty() || len(v.Mantras) > 0 || len(v.Epithets) > 0 || len(v.Vahana) > 0 || len(v.Weapons) > 0
	case *HeroPayload:
		return len(v.Labors) > 0 || v.Quest != "" || len(v.Weapons) > 0 || len(v.Narrative) > 0
	case *CreaturePayload:
		return len(v.Habitats) > 0 || len(v.Abilities) > 0 || len(v.Weaknesses) > 0 || v.Symbolism != ""
	case *PlacePayload:
		return v.Accessibility != "" || v.Geographical != nil
	case *RitualPayload:
		return v.RitualType != "" || v.Procedure != nil || v.Timing != nil
	case *TextPayload:
		return len(v.Structure) > 0 || len(v.DetailedSections) > 0 || len(v.KeyThemes) > 0 ||
			len(v.FamousPassages) > 0 || len(v.TextualParallels) > 0 || v.ApproximateDating != "" || v.PossibleAuthorship != ""
	case *SymbolicPayload:
		return v.VisualDescription != "" || len(v.Meanings) > 0 || len(v.RitualUsage) > 0 ||
			len(v.Usage) > 0 || v.Symbolism != "" || len(v.Interpretations) > 0
	default:
		return false
	}
}

// Deity returns the deity payload, or nil when the record is not a deity.
func (r *EntityRecord) Deity() *DeityPayload {
	p, _ := r.Payload.(*DeityPayload)
	return p
}

// Hero returns the hero payload, or nil.
func (r *EntityRecord) Hero() *HeroPayload {
	p, _ := r.Payload.(*HeroPayload)
	return p
}

// Creature returns the creature payload, or nil.
func (r *EntityRecord) Creature() *CreaturePayload {
	p, _ := r.Payload.(*CreaturePayload)
	return p
}

// Place returns the place payload, or nil.
func (r *EntityRecord) Place() *PlacePayload {
	p, _ := r.Payload.(*PlacePayload)
	return p
}

// Ritual returns the ritual payload, or nil.
func (r *EntityRecord) Ritual() *RitualPayload {
	p, _ := r.Payload.(*RitualPayload)
	return p
}

// Text returns the text payload, or nil.
func (r *EntityRecord) Text() *TextPayload {
	p, _ := r.Payload.(*TextPayload)
	return p
}

// Symbolic returns the symbol/item/concept payload, or nil.
func (r *EntityRecord) Symbolic() *SymbolicPayload {
	p, _ := r.Payload.(*SymbolicPayload)
	return p
}
