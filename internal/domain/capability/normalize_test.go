package capability_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
)

func TestNormalizeClampsDescription(t *testing.T) {
	d := capability.Descriptor{
		ID:          "weather-smhi",
		Name:        "SMHI Weather",
		Kind:        capability.KindNative,
		Description: strings.Repeat("x", 2000),
	}

	n := capability.Normalize(d)

	if got := utf8.RuneCountInString(n.Description); got != capability.MaxDescriptionRunes {
		t.Fatalf("expected %d runes, got %d", capability.MaxDescriptionRunes, got)
	}
	// Original untouched
	if len(d.Description) != 2000 {
		t.Fatal("Normalize must not mutate its input")
	}
}

func TestNormalizeTruncatesAtRuneBoundary(t *testing.T) {
	// "ö" is two bytes; a byte-based cut could split it.
	d := capability.Descriptor{
		ID:          "c",
		Name:        "c",
		Kind:        capability.KindNative,
		Description: strings.Repeat("ö", capability.MaxDescriptionRunes+5),
	}

	n := capability.Normalize(d)

	if !utf8.ValidString(n.Description) {
		t.Fatal("truncation split a rune")
	}
	if got := utf8.RuneCountInString(n.Description); got != capability.MaxDescriptionRunes {
		t.Fatalf("expected %d runes, got %d", capability.MaxDescriptionRunes, got)
	}
}

func TestNormalizeClampsSets(t *testing.T) {
	keywords := make([]string, 30)
	for i := range keywords {
		keywords[i] = strings.Repeat("k", 100)
	}

	d := capability.Descriptor{
		ID:       "c",
		Name:     "c",
		Kind:     capability.KindNative,
		Keywords: keywords,
		Excludes: make([]string, 0),
	}
	d.Excludes = append(d.Excludes, keywords...)

	n := capability.Normalize(d)

	if len(n.Keywords) != capability.MaxKeywords {
		t.Fatalf("expected %d keywords, got %d", capability.MaxKeywords, len(n.Keywords))
	}
	for _, k := range n.Keywords {
		if utf8.RuneCountInString(k) > capability.MaxKeywordRunes {
			t.Fatalf("keyword longer than cap: %d runes", utf8.RuneCountInString(k))
		}
	}
	if len(n.Excludes) != capability.MaxExcludes {
		t.Fatalf("expected %d excludes, got %d", capability.MaxExcludes, len(n.Excludes))
	}
}

func TestNormalizeDropsEmptyEntries(t *testing.T) {
	d := capability.Descriptor{
		ID:       "c",
		Name:     "c",
		Kind:     capability.KindNative,
		Keywords: []string{"", "temperatur", ""},
	}

	n := capability.Normalize(d)

	if len(n.Keywords) != 1 || n.Keywords[0] != "temperatur" {
		t.Fatalf("expected single keyword, got %v", n.Keywords)
	}
}

func TestNormalizeKeepsSmallFieldsIntact(t *testing.T) {
	d := capability.Descriptor{
		ID:             "c",
		Name:           "c",
		Kind:           capability.KindNative,
		Description:    "short",
		Keywords:       []string{"a", "b"},
		ExampleQueries: []string{"what is the weather"},
	}

	n := capability.Normalize(d)

	if n.Description != "short" {
		t.Errorf("description changed: %q", n.Description)
	}
	if len(n.Keywords) != 2 || len(n.ExampleQueries) != 1 {
		t.Errorf("sets changed: %v %v", n.Keywords, n.ExampleQueries)
	}
}
