package retrieval_test

import (
	"testing"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
)

func TestNormalizeQueryFoldsAndStripsDiacritics(t *testing.T) {
	q := retrieval.NormalizeQuery("Temperatur i Göteborg imorgon?")

	if q.Folded != "temperatur i goteborg imorgon?" {
		t.Errorf("folded = %q", q.Folded)
	}
	want := []string{"temperatur", "i", "goteborg", "imorgon"}
	if len(q.Tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", q.Tokens, want)
	}
	for i, tok := range want {
		if q.Tokens[i] != tok {
			t.Errorf("token[%d] = %q, want %q", i, q.Tokens[i], tok)
		}
	}
}

func TestNormalizeQueryTokenizesOnPunctuation(t *testing.T) {
	q := retrieval.NormalizeQuery("väder,trafik/stockholm-city")

	want := []string{"vader", "trafik", "stockholm", "city"}
	if len(q.Tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", q.Tokens, want)
	}
	for _, tok := range want {
		if !q.HasToken(tok) {
			t.Errorf("missing token %q", tok)
		}
	}
}

func TestHasTokenMissesSubstrings(t *testing.T) {
	q := retrieval.NormalizeQuery("temperatur")
	if q.HasToken("temp") {
		t.Error("HasToken must match whole tokens only")
	}
}

func TestFoldTextSwedishCharacters(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Växjö", "vaxjo"},
		{"MALMÖ", "malmo"},
		{"Århus", "arhus"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := retrieval.FoldText(tt.in); got != tt.want {
			t.Errorf("FoldText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
