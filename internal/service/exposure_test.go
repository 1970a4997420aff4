package service

import (
	"context"
	"fmt"
	"testing"

	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/capability"
)

func TestExposeSmallNamespace(t *testing.T) {
	policy := NewNamespaceExposure(newWeatherCatalog(t, nil))

	ids, err := policy.Expose(context.Background(), "tools/weather")
	if err != nil {
		t.Fatalf("expose: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected both weather capabilities, got %v", ids)
	}
}

func TestExposeEmptyOrUnknownNamespace(t *testing.T) {
	policy := NewNamespaceExposure(newWeatherCatalog(t, nil))

	for _, ns := range []string{"", "tools/unknown"} {
		ids, err := policy.Expose(context.Background(), ns)
		if err != nil {
			t.Fatalf("expose %q: %v", ns, err)
		}
		if ids != nil {
			t.Errorf("expected deferral for %q, got %v", ns, ids)
		}
	}
}

func TestExposeLargeNamespaceDefers(t *testing.T) {
	var descriptors []capdomain.Descriptor
	for i := 0; i < 8; i++ {
		descriptors = append(descriptors, capdomain.Descriptor{
			ID:       fmt.Sprintf("station/%d", i),
			Kind:     capdomain.KindNative,
			Name:     fmt.Sprintf("station %d", i),
			Category: "weather",
		})
	}
	svc := NewCatalogService(nil, nil)
	src := &fakeSource{name: "native", descriptors: descriptors}
	if err := svc.Build(context.Background(), []capability.Source{src}); err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	ids, err := NewNamespaceExposure(svc).Expose(context.Background(), "tools/weather")
	if err != nil {
		t.Fatalf("expose: %v", err)
	}
	if ids != nil {
		t.Errorf("namespace above the hint limit must defer to retrieval, got %v", ids)
	}
}
