package capability_test

import (
	"errors"
	"testing"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
)

func weatherDescriptors() []capability.Descriptor {
	return []capability.Descriptor{
		{ID: "smhi", Name: "SMHI", Kind: capability.KindNative, Namespace: capability.ParsePath("tools/weather/smhi")},
		{ID: "yr", Name: "Yr", Kind: capability.KindNative, Namespace: capability.ParsePath("tools/weather/yr")},
		{ID: "trafikverket", Name: "Trafikverket", Kind: capability.KindNative, Namespace: capability.ParsePath("tools/traffic/trafikverket")},
	}
}

func TestNewCatalogLookup(t *testing.T) {
	c, err := capability.NewCatalog(weatherDescriptors())
	if err != nil {
		t.Fatal(err)
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 descriptors, got %d", c.Len())
	}
	d, ok := c.Get("yr")
	if !ok || d.Name != "Yr" {
		t.Fatalf("Get(yr) = %+v, %v", d, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected missing id to report !ok")
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	ds := weatherDescriptors()
	ds = append(ds, ds[0])
	if _, err := capability.NewCatalog(ds); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestNewCatalogRejectsInvalid(t *testing.T) {
	_, err := capability.NewCatalog([]capability.Descriptor{{Name: "no id", Kind: capability.KindNative}})
	if !errors.Is(err, capability.ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got %v", err)
	}
}

func TestByNamespacePreservesOrder(t *testing.T) {
	c, err := capability.NewCatalog(weatherDescriptors())
	if err != nil {
		t.Fatal(err)
	}

	got := c.ByNamespace(capability.ParsePath("tools/weather"))
	if len(got) != 2 || got[0].ID != "smhi" || got[1].ID != "yr" {
		t.Fatalf("unexpected namespace slice: %+v", got)
	}
}

func TestSiblings(t *testing.T) {
	c, err := capability.NewCatalog(weatherDescriptors())
	if err != nil {
		t.Fatal(err)
	}

	d, _ := c.Get("smhi")
	sibs := c.Siblings(d)
	if len(sibs) != 1 || sibs[0].ID != "yr" {
		t.Fatalf("expected yr as only sibling, got %+v", sibs)
	}
}

func TestOverrideApply(t *testing.T) {
	d := weatherDescriptors()[0]
	o := capability.Override{
		ID:          "smhi",
		Description: "Swedish national weather forecasts",
		Keywords:    []string{"temperatur", "väder"},
		Namespace:   "tools/weather/smhi-v2",
	}

	out := o.Apply(d)

	if out.Description != "Swedish national weather forecasts" {
		t.Errorf("description not applied: %q", out.Description)
	}
	if len(out.Keywords) != 2 {
		t.Errorf("keywords not applied: %v", out.Keywords)
	}
	if out.Namespace.String() != "tools/weather/smhi-v2" {
		t.Errorf("namespace not applied: %v", out.Namespace)
	}
	// Zero-valued override fields leave the source alone.
	if out.Name != "SMHI" {
		t.Errorf("name should be untouched: %q", out.Name)
	}
}
