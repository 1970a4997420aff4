package retrieval_test

import (
	"testing"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
)

func scored(id string, total float64) retrieval.Scored {
	return retrieval.Scored{ID: id, Breakdown: retrieval.Breakdown{Total: total}}
}

func TestSortByTotalStableTies(t *testing.T) {
	items := []retrieval.Scored{
		scored("first", 0.5),
		scored("second", 0.5),
		scored("third", 0.9),
	}

	retrieval.SortByTotal(items)

	if items[0].ID != "third" {
		t.Fatalf("expected third first, got %s", items[0].ID)
	}
	// Stable: tied items keep input order.
	if items[1].ID != "first" || items[2].ID != "second" {
		t.Fatalf("tie order broken: %s, %s", items[1].ID, items[2].ID)
	}
}

func TestPartitionAndSelectPrefersPrimary(t *testing.T) {
	catalog, err := capability.NewCatalog([]capability.Descriptor{
		{ID: "w", Name: "Weather", Kind: capability.KindNative, Namespace: capability.ParsePath("tools/weather/w")},
		{ID: "t", Name: "Traffic", Kind: capability.KindNative, Namespace: capability.ParsePath("tools/traffic/t")},
		{ID: "m", Name: "Market", Kind: capability.KindNative, Namespace: capability.ParsePath("tools/market/m")},
	})
	if err != nil {
		t.Fatal(err)
	}

	items := []retrieval.Scored{scored("w", 0.7), scored("t", 0.4), scored("m", 0.2)}
	pools := retrieval.Partition(items, catalog.Get,
		capability.ParsePaths([]string{"tools/weather"}),
		capability.ParsePaths([]string{"tools/traffic"}),
	)

	if len(pools.Primary) != 1 || pools.Primary[0].ID != "w" {
		t.Fatalf("primary pool wrong: %+v", pools.Primary)
	}
	if len(pools.Fallback) != 1 || pools.Fallback[0].ID != "t" {
		t.Fatalf("fallback pool wrong: %+v", pools.Fallback)
	}
	if len(pools.Rest) != 1 || pools.Rest[0].ID != "m" {
		t.Fatalf("rest pool wrong: %+v", pools.Rest)
	}

	if sel := pools.Select(); len(sel) != 1 || sel[0].ID != "w" {
		t.Fatalf("expected primary selected, got %+v", sel)
	}
}

func TestSelectFallsBackWhenPrimaryScoresZero(t *testing.T) {
	pools := retrieval.Pools{
		Primary:  []retrieval.Scored{scored("p", 0)},
		Fallback: []retrieval.Scored{scored("f", 0.3)},
	}
	if sel := pools.Select(); len(sel) != 1 || sel[0].ID != "f" {
		t.Fatalf("expected fallback selected, got %+v", sel)
	}
}

func TestSelectNonEmptyPreference(t *testing.T) {
	// Everything scores zero: prefer primary, then fallback, then rest.
	pools := retrieval.Pools{Primary: []retrieval.Scored{scored("p", 0)}}
	if sel := pools.Select(); sel[0].ID != "p" {
		t.Fatalf("expected zero-score primary, got %+v", sel)
	}

	pools = retrieval.Pools{Rest: []retrieval.Scored{scored("r", 0)}}
	if sel := pools.Select(); sel[0].ID != "r" {
		t.Fatalf("expected rest pool, got %+v", sel)
	}

	pools = retrieval.Pools{}
	if sel := pools.Select(); len(sel) != 0 {
		t.Fatalf("expected empty selection, got %+v", sel)
	}
}

func TestUnionDedupesLexicalFirst(t *testing.T) {
	lexical := []retrieval.Scored{scored("a", 0.9), scored("b", 0.8)}
	vector := []retrieval.Scored{scored("b", 0.7), scored("c", 0.6)}

	got := retrieval.Union(lexical, vector)

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("union = %+v", got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("union[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSortBySemantic(t *testing.T) {
	items := []retrieval.Scored{
		{ID: "low", Breakdown: retrieval.Breakdown{SemanticRaw: 0.1, Total: 0.9}},
		{ID: "high", Breakdown: retrieval.Breakdown{SemanticRaw: 0.8, Total: 0.1}},
	}

	retrieval.SortBySemantic(items)

	if items[0].ID != "high" {
		t.Fatalf("semantic sort ignores total; got %s first", items[0].ID)
	}
}

func TestTop(t *testing.T) {
	items := []retrieval.Scored{scored("a", 1), scored("b", 2), scored("c", 3)}
	if got := retrieval.Top(items, 2); len(got) != 2 {
		t.Fatalf("Top(2) = %d items", len(got))
	}
	if got := retrieval.Top(items, 10); len(got) != 3 {
		t.Fatalf("Top(10) = %d items", len(got))
	}
	if got := retrieval.Top(items, -1); len(got) != 0 {
		t.Fatalf("Top(-1) = %d items", len(got))
	}
}

func TestTuningClamped(t *testing.T) {
	tun := retrieval.Tuning{
		NameWeight:       -3,
		SemanticWeight:   99,
		NamespaceBonus:   7,
		MaxFeedbackBoost: -1,
		RerankCandidates: 0,
		VectorRecallTopK: 500,
		ScoreThreshold:   2,
	}.Clamped()

	if tun.NameWeight != 0 {
		t.Errorf("NameWeight = %v", tun.NameWeight)
	}
	if tun.SemanticWeight != 5 {
		t.Errorf("SemanticWeight = %v", tun.SemanticWeight)
	}
	if tun.NamespaceBonus != 1 {
		t.Errorf("NamespaceBonus = %v", tun.NamespaceBonus)
	}
	if tun.MaxFeedbackBoost != 0 {
		t.Errorf("MaxFeedbackBoost = %v", tun.MaxFeedbackBoost)
	}
	if tun.RerankCandidates != 8 {
		t.Errorf("RerankCandidates = %v", tun.RerankCandidates)
	}
	if tun.VectorRecallTopK != 50 {
		t.Errorf("VectorRecallTopK = %v", tun.VectorRecallTopK)
	}
	if tun.ScoreThreshold != 1 {
		t.Errorf("ScoreThreshold = %v", tun.ScoreThreshold)
	}
}
