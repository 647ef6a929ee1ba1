package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/reading"
	"github.com/japaniel/mythos/pkg/store"
)

// Document field names added on top of the record.
const (
	FieldSearchTerms = "searchTerms"
	FieldTags        = "tags"
	FieldContentHash = "contentHash"
)

// BuildDocument converts a record into its stored form: the record's JSON
// fields plus searchTerms, tags and contentHash. readings may be nil.
func BuildDocument(r *corpus.EntityRecord, readings *reading.Analyzer) (store.Document, error) {
	data, err := corpus.Encode(r)
	if err != nil {
		return store.Document{}, fmt.Errorf("encode %s: %w", r.ID, err)
	}
	fields, err := store.DecodeFields(data)
	if err != nil {
		return store.Document{}, fmt.Errorf("%s: %w", r.ID, err)
	}
	hash, err := ContentHash(r)
	if err != nil {
		return store.Document{}, err
	}
	fields[FieldSearchTerms] = toAny(SearchTerms(r, readings))
	fields[FieldTags] = toAny(Tags(r))
	fields[FieldContentHash] = hash
	return store.Document{
		ID:          r.ID,
		Mythology:   string(r.Mythology),
		Type:        string(r.Type),
		ContentHash: hash,
		Fields:      fields,
	}, nil
}

// ContentHash is the hex sha256 of the record's canonical JSON with the
// extraction time cleared, so re-extracting unchanged pages keeps the hash.
func ContentHash(r *corpus.EntityRecord) (string, error) {
	c := *r
	c.Metadata.ExtractedAt = time.Time{}
	data, err := corpus.Encode(&c)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", r.ID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SearchTerms lowercases the word tokens of name and subtitle. For names
// written in Japanese the kagome base forms and the hiragana reading are
// added too. The result is sorted and distinct.
func SearchTerms(r *corpus.EntityRecord, readings *reading.Analyzer) []string {
	seen := map[string]bool{}
	add := func(t string) {
		if t = strings.TrimSpace(t); t != "" {
			seen[t] = true
		}
	}
	for _, s := range []string{r.Name, r.Subtitle} {
		for _, tok := range strings.FieldsFunc(strings.ToLower(s), notWordRune) {
			add(tok)
		}
	}
	if readings != nil {
		names := []string{r.Name}
		if r.Linguistic != nil {
			names = append(names, r.Linguistic.OriginalName)
		}
		for _, n := range names {
			if !reading.HasJapanese(n) {
				continue
			}
			for _, t := range readings.SearchTerms(n) {
				add(t)
			}
			add(readings.Pronounce(n))
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
}

// Tags is [mythology, type, lowercased attribute labels...].
func Tags(r *corpus.EntityRecord) []string {
	out := []string{string(r.Mythology), string(r.Type)}
	seen := map[string]bool{out[0]: true, out[1]: true}
	labels := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		labels = append(labels, strings.ToLower(k))
	}
	sort.Strings(labels)
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
