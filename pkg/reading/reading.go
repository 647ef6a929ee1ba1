// Package reading derives hiragana readings and search terms for Japanese
// names with the kagome morphological analyzer.
package reading

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token is one analyzed unit of a name.
type Token struct {
	Surface    string // as written, e.g. "天照"
	BaseForm   string // dictionary form
	Reading    string // katakana reading from the dictionary, may be empty
	PrimaryPOS string
}

// Analyzer wraps a kagome tokenizer. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer builds a tokenizer over the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

var (
	sharedOnce sync.Once
	shared     *Analyzer
	sharedErr  error
)

// Shared returns a process-wide analyzer; loading the dictionary is costly.
func Shared() (*Analyzer, error) {
	sharedOnce.Do(func() { shared, sharedErr = NewAnalyzer() })
	return shared, sharedErr
}

// Analyze splits text into tokens with readings and base forms.
func (a *Analyzer) Analyze(text string) []Token {
	var out []Token
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		// IPA features: 0 POS, 6 base form, 7 reading.
		features := tok.Features()
		base := tok.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		pos := ""
		if len(features) > 0 {
			pos = features[0]
		}
		out = append(out, Token{Surface: tok.Surface, BaseForm: base, Reading: reading, PrimaryPOS: pos})
	}
	return out
}

// Pronounce returns the hiragana reading of text. Tokens without a
// dictionary reading contribute their surface form, converted when it is
// katakana. Symbols and punctuation are dropped.
func (a *Analyzer) Pronounce(text string) string {
	var b strings.Builder
	for _, tok := range a.Analyze(text) {
		if tok.PrimaryPOS == "記号" {
			continue
		}
		if tok.Reading != "" {
			b.WriteString(ToHiragana(tok.Reading))
			continue
		}
		b.WriteString(ToHiragana(tok.Surface))
	}
	return b.String()
}

// SearchTerms returns the distinct base forms of the content words in text,
// in first-seen order.
func (a *Analyzer) SearchTerms(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range a.Analyze(text) {
		switch tok.PrimaryPOS {
		case "助詞", "助動詞", "記号":
			continue
		}
		term := strings.ToLower(tok.BaseForm)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}

// ToHiragana converts katakana to hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// HasJapanese reports whether s contains kana or CJK ideographs.
func HasJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
