package reading

import "testing"

func TestToHiragana(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"アマテラス", "あまてらす"},
		{"スサノオ", "すさのお"},
		{"かな", "かな"},
		{"Izanagi", "Izanagi"},
		{"ー", "ー"},
	}
	for _, tt := range tests {
		if got := ToHiragana(tt.in); got != tt.out {
			t.Errorf("ToHiragana(%q) = %q; want %q", tt.in, got, tt.out)
		}
	}
}

func TestHasJapanese(t *testing.T) {
	if !HasJapanese("天照大神") || !HasJapanese("イザナギ") {
		t.Fatal("expected kanji and katakana to be detected")
	}
	if HasJapanese("Amaterasu") {
		t.Fatal("latin name detected as Japanese")
	}
}

func TestPronounce(t *testing.T) {
	a, err := Shared()
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	if got := a.Pronounce("東京"); got != "とうきょう" {
		t.Errorf("Pronounce(東京) = %q; want とうきょう", got)
	}
	if got := a.Pronounce("カミ"); got != "かみ" {
		t.Errorf("Pronounce(カミ) = %q; want かみ", got)
	}
}

func TestSearchTerms(t *testing.T) {
	a, err := Shared()
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	terms := a.SearchTerms("東京の東京")
	if len(terms) != 1 || terms[0] != "東京" {
		t.Fatalf("SearchTerms = %v; want [東京]", terms)
	}
}
