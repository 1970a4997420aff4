package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
)

// memCache is a test cache backed by a plain map. TTLs are ignored.
type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *memCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = map[string][]byte{}
	return nil
}

// fakeSource serves fixed descriptors and invokes via a function.
type fakeSource struct {
	name        string
	descriptors []capdomain.Descriptor
	invoke      func(ctx context.Context, id string, args map[string]any) (string, error)
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) List(context.Context) ([]capdomain.Descriptor, error) {
	return s.descriptors, nil
}

func (s *fakeSource) Invoke(ctx context.Context, id string, args map[string]any) (string, error) {
	if s.invoke == nil {
		return "", fmt.Errorf("no invoke configured")
	}
	return s.invoke(ctx, id, args)
}

var _ capability.Source = (*fakeSource)(nil)
var _ capability.Invoker = (*fakeSource)(nil)

// weatherDescriptors is the fixture capability set shared across the
// service tests: two weather capabilities in the same cluster plus one
// traffic capability.
func weatherDescriptors() []capdomain.Descriptor {
	return []capdomain.Descriptor{
		{
			ID:          "smhi/forecast",
			Kind:        capdomain.KindNative,
			Name:        "smhi forecast",
			Description: "Hourly temperature and weather forecasts for Sweden",
			Category:    "weather",
			Keywords:    []string{"temperatur", "prognos", "vader"},
			ExampleQueries: []string{
				"temperatur i Göteborg imorgon",
				"blir det regn i Stockholm",
			},
			Identity: capdomain.Identity{GeographicScope: "Sweden"},
			Excludes: []string{"trafik"},
		},
		{
			ID:          "yr/forecast",
			Kind:        capdomain.KindNative,
			Name:        "yr forecast",
			Description: "Nordic forecasts with precipitation detail",
			Category:    "weather",
			Keywords:    []string{"nedbor", "yr"},
		},
		{
			ID:          "trafikverket/traffic",
			Kind:        capdomain.KindNative,
			Name:        "trafikverket traffic",
			Description: "Road and rail traffic situation across Sweden",
			Category:    "traffic",
			Keywords:    []string{"trafik", "tag", "vag"},
		},
	}
}

// newWeatherCatalog builds a CatalogService over the fixture descriptors
// without an embedding provider.
func newWeatherCatalog(t *testing.T, src *fakeSource) *CatalogService {
	t.Helper()
	if src == nil {
		src = &fakeSource{name: "native", descriptors: weatherDescriptors()}
	}
	svc := NewCatalogService(nil, nil)
	if err := svc.Build(context.Background(), []capability.Source{src}); err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return svc
}

func TestCatalogBuildClassifies(t *testing.T) {
	svc := newWeatherCatalog(t, nil)

	if got := svc.Catalog().Len(); got != 3 {
		t.Fatalf("expected 3 capabilities, got %d", got)
	}

	d, ok := svc.Catalog().Get("smhi/forecast")
	if !ok {
		t.Fatal("smhi/forecast not in catalog")
	}
	if got := d.Namespace.String(); got != "tools/weather/smhi-forecast" {
		t.Errorf("expected classified namespace tools/weather/smhi-forecast, got %q", got)
	}

	// Same cluster as yr, different cluster than trafikverket.
	siblings := svc.Catalog().Siblings(d)
	if len(siblings) != 1 || siblings[0].ID != "yr/forecast" {
		t.Errorf("expected yr/forecast as only sibling, got %v", siblings)
	}
}

func TestCatalogOverrideApplied(t *testing.T) {
	overrides := []capdomain.Override{{
		ID:        "smhi/forecast",
		Namespace: "tools/weather/smhi",
		Keywords:  []string{"temperatur", "vaderprognos"},
	}}
	svc := NewCatalogService(nil, overrides)
	src := &fakeSource{name: "native", descriptors: weatherDescriptors()}
	if err := svc.Build(context.Background(), []capability.Source{src}); err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	d, ok := svc.Catalog().Get("smhi/forecast")
	if !ok {
		t.Fatal("smhi/forecast not in catalog")
	}
	if got := d.Namespace.String(); got != "tools/weather/smhi" {
		t.Errorf("override namespace not applied, got %q", got)
	}
	if len(d.Keywords) != 2 || d.Keywords[1] != "vaderprognos" {
		t.Errorf("override keywords not applied, got %v", d.Keywords)
	}
}

func TestCatalogInvokeRoutesToSource(t *testing.T) {
	var gotID string
	src := &fakeSource{
		name:        "native",
		descriptors: weatherDescriptors(),
		invoke: func(_ context.Context, id string, args map[string]any) (string, error) {
			gotID = id
			return fmt.Sprintf("forecast for %v", args["query"]), nil
		},
	}
	svc := newWeatherCatalog(t, src)

	out, err := svc.Invoke(context.Background(), "smhi/forecast", map[string]any{"query": "göteborg"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if gotID != "smhi/forecast" {
		t.Errorf("invoked wrong capability %q", gotID)
	}
	if !strings.Contains(out, "göteborg") {
		t.Errorf("unexpected invoke output %q", out)
	}
}

func TestCatalogInvokeUnknownCapability(t *testing.T) {
	svc := newWeatherCatalog(t, nil)

	if _, err := svc.Invoke(context.Background(), "missing/cap", nil); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}

func TestCatalogInvokeValidatesArguments(t *testing.T) {
	descriptors := weatherDescriptors()
	descriptors[0].InputSchema = []byte(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)
	src := &fakeSource{
		name:        "native",
		descriptors: descriptors,
		invoke: func(context.Context, string, map[string]any) (string, error) {
			return "ok", nil
		},
	}
	svc := newWeatherCatalog(t, src)

	if _, err := svc.Invoke(context.Background(), "smhi/forecast", map[string]any{}); err == nil {
		t.Fatal("expected validation error for missing query argument")
	}
	if _, err := svc.Invoke(context.Background(), "smhi/forecast", map[string]any{"query": "imorgon"}); err != nil {
		t.Fatalf("valid arguments rejected: %v", err)
	}
}

func TestCatalogEmbedsDescriptors(t *testing.T) {
	provider := &fakeEmbedProvider{vec: []float32{0.1, 0.2, 0.3}}
	embedder := NewEmbeddingService(provider, newMemCache(), resilience.RetryPolicy{}, time.Minute)
	svc := NewCatalogService(embedder, nil)
	src := &fakeSource{name: "native", descriptors: weatherDescriptors()}
	if err := svc.Build(context.Background(), []capability.Source{src}); err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	d, _ := svc.Catalog().Get("smhi/forecast")
	if len(d.Semantic) != 3 {
		t.Errorf("expected semantic embedding on descriptor, got %v", d.Semantic)
	}
	if provider.calls == 0 {
		t.Error("embedding provider never called during build")
	}
}
