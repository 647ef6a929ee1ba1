package corpus

import "sort"

// Mythology is a named cultural tradition, e.g. "egyptian".
type Mythology string

var mythologies = map[Mythology]bool{
	"egyptian": true, "norse": true, "hindu": true, "buddhist": true, "greek": true,
	"roman": true, "celtic": true, "persian": true, "sumerian": true, "babylonian": true,
	"islamic": true, "jewish": true, "christian": true, "chinese": true, "japanese": true,
	"aztec": true, "mayan": true, "yoruba": true, "tarot": true, "apocryphal": true,
	"comparative": true,
}

// Valid reports whether m is one of the recognized traditions.
func (m Mythology) Valid() bool { return mythologies[m] }

// Mythologies returns the recognized traditions in lexical order.
func Mythologies() []Mythology {
	out := make([]Mythology, 0, len(mythologies))
	for m := range mythologies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EntityType classifies a record. TypeOther is used when no path segment matches.
type EntityType string

const (
	TypeDeity     EntityType = "deity"
	TypeHero      EntityType = "hero"
	TypeCreature  EntityType = "creature"
	TypePlace     EntityType = "place"
	TypeItem      EntityType = "item"
	TypeConcept   EntityType = "concept"
	TypeText      EntityType = "text"
	TypeSymbol    EntityType = "symbol"
	TypeRitual    EntityType = "ritual"
	TypeMagic     EntityType = "magic"
	TypeCosmology EntityType = "cosmology"
	TypeHerb      EntityType = "herb"
	TypeArchetype EntityType = "archetype"
	TypeAngel     EntityType = "angel"
	TypeDemon     EntityType = "demon"
	TypePath      EntityType = "path"
	TypeFigure    EntityType = "figure"
	TypeOther     EntityType = "other"
)

var entityTypes = map[EntityType]bool{
	TypeDeity: true, TypeHero: true, TypeCreature: true, TypePlace: true, TypeItem: true,
	TypeConcept: true, TypeText: true, TypeSymbol: true, TypeRitual: true, TypeMagic: true,
	TypeCosmology: true, TypeHerb: true, TypeArchetype: true, TypeAngel: true, TypeDemon: true,
	TypePath: true, TypeFigure: true,
}

// Valid reports whether t is a member of the closed entity-type enum.
// TypeOther is not valid for a published record.
func (t EntityType) Valid() bool { return entityTypes[t] }

// EntityTypes returns the valid entity types in lexical order.
func EntityTypes() []EntityType {
	out := make([]EntityType, 0, len(entityTypes))
	for t := range entityTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// pluralTypes maps the directory names used under mythos/<mythology>/ to entity types.
var pluralTypes = map[string]EntityType{
	"deities":    TypeDeity,
	"gods":       TypeDeity,
	"heroes":     TypeHero,
	"beings":     TypeCreature,
	"creatures":  TypeCreature,
	"places":     TypePlace,
	"locations":  TypePlace,
	"items":      TypeItem,
	"artifacts":  TypeItem,
	"concepts":   TypeConcept,
	"texts":      TypeText,
	"scriptures": TypeText,
	"symbols":    TypeSymbol,
	"rituals":    TypeRitual,
	"magic":      TypeMagic,
	"cosmology":  TypeCosmology,
	"herbs":      TypeHerb,
	"archetypes": TypeArchetype,
	"angels":     TypeAngel,
	"demons":     TypeDemon,
	"paths":      TypePath,
	"figures":    TypeFigure,
}

// SingularType looks up a plural path segment. The second result is false
// when the segment is not in the table.
func SingularType(segment string) (EntityType, bool) {
	t, ok := pluralTypes[segment]
	return t, ok
}

// Status is the publication state of a record.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPublished        Status = "published"
	StatusExtractionFailed Status = "extraction-failed"
)

// Valid reports whether s is draft or published.
func (s Status) Valid() bool { return s == StatusDraft || s == StatusPublished }
