package corpus

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityRecord is the normalized unit emitted by the extractor and consumed
// by the validator and the upload driver.
type EntityRecord struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Mythology Mythology  `json:"mythology"`
	Type      EntityType `json:"type"`
	Status    Status     `json:"status"`

	Icon             *Icon  `json:"icon,omitempty"`
	Subtitle         string `json:"subtitle,omitempty"`
	ShortDescription string `json:"shortDescription,omitempty"`
	LongDescription  string `json:"longDescription,omitempty"`

	Attributes    Attributes     `json:"attributes,omitempty"`
	Sections      []Section      `json:"sections,omitempty"`
	KeyMyths      []Myth         `json:"keyMyths,omitempty"`
	Relationships *Relationships `json:"relationships,omitempty"`

	// Payload holds the type-specific block; its concrete type follows Type.
	Payload Payload `json:"payload,omitempty"`

	Linguistic   *Linguistic   `json:"linguistic,omitempty"`
	Geographical *Geographical `json:"geographical,omitempty"`
	Temporal     *Temporal     `json:"temporal,omitempty"`
	Links        *Links        `json:"links,omitempty"`
	Sources      []string      `json:"sources,omitempty"`

	Metadata Metadata `json:"metadata"`
	// Error is only set on extraction-failed stubs.
	Error string `json:"error,omitempty"`
}

// Icon is either a bare grapheme cluster or a glyph that needs a special font.
// It encodes as a JSON string when FontHint is empty.
type Icon struct {
	Glyph    string `json:"glyph"`
	FontHint string `json:"fontHint,omitempty"`
}

type iconAlias Icon

func (i Icon) MarshalJSON() ([]byte, error) {
	if i.FontHint == "" {
		return Encode(i.Glyph)
	}
	return Encode(iconAlias(i))
}

func (i *Icon) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = Icon{Glyph: s}
		return nil
	}
	var a iconAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Icon(a)
	return nil
}

// ContentKind discriminates section content items.
type ContentKind string

const (
	ContentParagraph ContentKind = "paragraph"
	ContentList      ContentKind = "list"
	ContentHeading   ContentKind = "heading"
)

// Section is one titled region of prose.
type Section struct {
	Title   string        `json:"title"`
	Level   int           `json:"level"`
	Content []ContentItem `json:"content,omitempty"`
}

// ContentItem is a paragraph, a list or a sub-heading.
type ContentItem struct {
	Type    ContentKind `json:"type"`
	Text    string      `json:"text,omitempty"`
	Items   []string    `json:"items,omitempty"`
	Ordered bool        `json:"ordered,omitempty"`
	Level   int         `json:"level,omitempty"`
}

// Myth is one entry of a "Key Myths" list.
type Myth struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Relationships struct {
	Family                 *Family        `json:"family,omitempty"`
	AlliesEnemies          *AlliesEnemies `json:"alliesEnemies,omitempty"`
	CrossCulturalParallels []Parallel     `json:"crossCulturalParallels,omitempty"`
}

type Family struct {
	Parents  Names `json:"parents,omitempty"`
	Consorts Names `json:"consorts,omitempty"`
	Children Names `json:"children,omitempty"`
	Siblings Names `json:"siblings,omitempty"`
}

func (f *Family) empty() bool {
	return f == nil || len(f.Parents)+len(f.Consorts)+len(f.Children)+len(f.Siblings) == 0
}

type AlliesEnemies struct {
	Allies  Names `json:"allies,omitempty"`
	Enemies Names `json:"enemies,omitempty"`
}

func (a *AlliesEnemies) empty() bool {
	return a == nil || len(a.Allies)+len(a.Enemies) == 0
}

// Parallel is a cross-cultural counterpart listed in the interlink panel.
type Parallel struct {
	Name      string    `json:"name"`
	Mythology Mythology `json:"mythology"`
	URL       string    `json:"url,omitempty"`
}

// HasFamily reports whether any family slot is populated.
func (r *Relationships) HasFamily() bool { return r != nil && !r.Family.empty() }

// HasAlliesEnemies reports whether allies or enemies are populated.
func (r *Relationships) HasAlliesEnemies() bool { return r != nil && !r.AlliesEnemies.empty() }

// HasParallels reports whether any cross-cultural parallel was recorded.
func (r *Relationships) HasParallels() bool { return r != nil && len(r.CrossCulturalParallels) > 0 }

type Linguistic struct {
	OriginalName    string     `json:"originalName,omitempty"`
	OriginalScript  string     `json:"originalScript,omitempty"`
	Transliteration string     `json:"transliteration,omitempty"`
	Pronunciation   string     `json:"pronunciation,omitempty"`
	LanguageCode    string     `json:"languageCode,omitempty"`
	Etymology       *Etymology `json:"etymology,omitempty"`
	Cognates        []Cognate  `json:"cognates,omitempty"`
}

type Etymology struct {
	RootLanguage string `json:"rootLanguage,omitempty"`
	Meaning      string `json:"meaning,omitempty"`
	Derivation   string `json:"derivation,omitempty"`
}

type Cognate struct {
	Language string `json:"language"`
	Word     string `json:"word,omitempty"`
	Term     string `json:"term,omitempty"`
	Script   string `json:"script,omitempty"`
}

type Coordinates struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation,omitempty"`
	Accuracy  string  `json:"accuracy,omitempty"`
}

type Geographical struct {
	Region          string       `json:"region,omitempty"`
	CulturalArea    string       `json:"culturalArea,omitempty"`
	OriginPoint     *OriginPoint `json:"originPoint,omitempty"`
	ModernCountries []string     `json:"modernCountries,omitempty"`
}

type OriginPoint struct {
	Name        string       `json:"name,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Temporal struct {
	TimelinePosition string            `json:"timelinePosition,omitempty"`
	CulturalPeriod   string            `json:"culturalPeriod,omitempty"`
	FirstAttestation *FirstAttestation `json:"firstAttestation,omitempty"`
	HistoricalDate   *HistoricalDate   `json:"historicalDate,omitempty"`
}

type FirstAttestation struct {
	Date   *DatePoint `json:"date,omitempty"`
	Source string     `json:"source,omitempty"`
	Type   string     `json:"type,omitempty"`
}

type DatePoint struct {
	Year        int    `json:"year"`
	Circa       bool   `json:"circa,omitempty"`
	Uncertainty int    `json:"uncertainty,omitempty"`
	Display     string `json:"display,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
}

type HistoricalDate struct {
	Start   int    `json:"start,omitempty"`
	End     int    `json:"end,omitempty"`
	Display string `json:"display,omitempty"`
}

// Link is one anchor found on the page.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

// CorpusLink is an anchor that points into the shared term corpus.
type CorpusLink struct {
	Term      string `json:"term"`
	Tradition string `json:"tradition,omitempty"`
	Href      string `json:"href"`
	Text      string `json:"text,omitempty"`
}

type Links struct {
	Internal []Link       `json:"internal,omitempty"`
	External []Link       `json:"external,omitempty"`
	Corpus   []CorpusLink `json:"corpus,omitempty"`
}

type Metadata struct {
	SourceFile        string    `json:"sourceFile"`
	ExtractedAt       time.Time `json:"extractedAt"`
	ExtractorVersion  string    `json:"extractorVersion"`
	CompletenessScore int       `json:"completenessScore"`
	Warnings          []string  `json:"warnings,omitempty"`
}

// Stub builds the placeholder emitted when extraction of a page fails.
func Stub(src SourceDescriptor, version string, at time.Time, err error) EntityRecord {
	return EntityRecord{
		ID:        Slug(src.Stem()),
		Name:      src.Stem(),
		Mythology: src.Mythology,
		Type:      src.EntityType,
		Status:    StatusExtractionFailed,
		Error:     err.Error(),
		Metadata: Metadata{
			SourceFile:       src.Path,
			ExtractedAt:      at,
			ExtractorVersion: version,
		},
	}
}

// Key is the ordering and uniqueness key (mythology, type, id).
func (r *EntityRecord) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.Mythology, r.Type, r.ID)
}

// Less orders records lexicographically by (mythology, type, id).
func Less(a, b *EntityRecord) bool {
	if a.Mythology != b.Mythology {
		return a.Mythology < b.Mythology
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Metadata.SourceFile < b.Metadata.SourceFile
}

type recordAlias EntityRecord

// UnmarshalJSON decodes the payload according to the record's type.
func (r *EntityRecord) UnmarshalJSON(data []byte) error {
	aux := struct {
		*recordAlias
		Payload json.RawMessage `json:"payload,omitempty"`
	}{recordAlias: (*recordAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Payload = nil
	if len(aux.Payload) == 0 || string(aux.Payload) == "null" {
		return nil
	}
	p, err := decodePayload(r.Type, aux.Payload)
	if err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	r.Payload = p
	return nil
}

// MarshalJSON keeps HTML characters unescaped throughout the record.
func (r EntityRecord) MarshalJSON() ([]byte, error) {
	return Encode(recordAlias(r))
}
