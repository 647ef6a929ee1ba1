package corpus

import (
	"sort"
	"strings"
	"unicode"
)

type scriptRange struct {
	name   string
	lo, hi rune
}

// Names reported by ScriptOf, in audit order.
var scriptRanges = []scriptRange{
	{"egyptian-hieroglyphs", 0x13000, 0x1342F},
	{"cuneiform", 0x12000, 0x123FF},
	{"devanagari", 0x0900, 0x097F},
	{"cjk", 0x4E00, 0x9FFF},
	{"kana", 0x3040, 0x30FF},
	{"hebrew", 0x0590, 0x05FF},
	{"arabic", 0x0600, 0x06FF},
	{"greek", 0x0370, 0x03FF},
	{"greek-extended", 0x1F00, 0x1FFF},
	{"cyrillic", 0x0400, 0x04FF},
	{"runic", 0x16A0, 0x16FF},
}

// ScriptOf names the non-Latin script block r belongs to, or "".
func ScriptOf(r rune) string {
	for _, s := range scriptRanges {
		if r >= s.lo && r <= s.hi {
			return s.name
		}
	}
	return ""
}

// IsDiacriticLatin reports whether r is a Latin letter outside ASCII, such
// as ā or ṣ, or a combining mark.
func IsDiacriticLatin(r rune) bool {
	return r > 0x7F && (unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Mn, r))
}

// ScriptsIn lists the script blocks present in s in lexical order. Latin
// with diacritics is reported as "latin-diacritics".
func ScriptsIn(s string) []string {
	seen := map[string]bool{}
	for _, r := range s {
		if name := ScriptOf(r); name != "" {
			seen[name] = true
		} else if IsDiacriticLatin(r) {
			seen["latin-diacritics"] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ScriptRun returns the first maximal run of non-Latin script in s and the
// script of its first character. Spaces and combining marks inside a run
// are kept.
func ScriptRun(s string) (run, script string) {
	var b strings.Builder
	for _, r := range s {
		name := ScriptOf(r)
		switch {
		case name != "":
			if script == "" {
				script = name
			}
			b.WriteRune(r)
		case b.Len() > 0 && (r == ' ' || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)):
			b.WriteRune(r)
		case b.Len() > 0:
			return strings.TrimSpace(b.String()), script
		}
	}
	return strings.TrimSpace(b.String()), script
}
