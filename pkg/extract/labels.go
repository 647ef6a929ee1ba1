package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state, so each call builds its own.
func titleCase(s string) string { return cases.Title(language.English).String(s) }
func lowerCase(s string) string { return cases.Lower(language.English).String(s) }

// CamelLabel normalizes an attribute label to lowerCamelCase. Apostrophes
// and parentheses are dropped; any other punctuation separates words.
//
//	"Sacred Animals" -> "sacredAnimals"
//	"Allies & Enemies" -> "alliesEnemies"
//	"Consort(s)" -> "consorts"
func CamelLabel(label string) string {
	var cleaned strings.Builder
	for _, r := range label {
		switch {
		case r == '\'' || r == '’' || r == '(' || r == ')':
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			cleaned.WriteRune(r)
		default:
			cleaned.WriteByte(' ')
		}
	}
	words := strings.Fields(cleaned.String())
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(lowerCase(w))
			continue
		}
		b.WriteString(titleCase(w))
	}
	return b.String()
}

// TitleStem turns a filename stem such as "tyr_one-handed" into "Tyr One Handed".
func TitleStem(stem string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return titleCase(strings.Join(strings.Fields(s), " "))
}

var listSplit = regexp.MustCompile(`\s*[,;]\s*`)

// SplitList splits a comma-separated value, trimming items and dropping
// empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range listSplit.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var nameSplit = regexp.MustCompile(`\s*(?:,|;|&|\band\b)\s*`)

// SplitNames splits a relationship value such as "Cronus and Rhea".
func SplitNames(s string) []string {
	var out []string
	for _, part := range nameSplit.Split(s, -1) {
		part = strings.Trim(strings.TrimSpace(part), ".")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
