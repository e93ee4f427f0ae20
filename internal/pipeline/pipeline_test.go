package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/finpulse/finpulse/internal/fetch"
	"github.com/finpulse/finpulse/internal/store"
	"github.com/finpulse/finpulse/pkg/models"
)

// cannedSource returns a fixed batch for every call shape.
type cannedSource struct {
	name     string
	articles []models.Article
	err      error
}

func (c *cannedSource) Name() string { return c.name }
func (c *cannedSource) FetchByCountry(_ context.Context, _ string, _ int) ([]models.Article, error) {
	return c.articles, c.err
}
func (c *cannedSource) FetchGlobal(_ context.Context, _ string, _ int) ([]models.Article, error) {
	return c.articles, c.err
}

func testPipeline(t *testing.T, api, rss *cannedSource) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pipe.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	orch := fetch.NewOrchestrator(api, rss, &cannedSource{name: "fallback", err: errors.New("down")})
	return New(orch, st), st
}

func batch(region string, urls ...string) []models.Article {
	now := time.Now().UTC()
	out := make([]models.Article, 0, len(urls))
	for i, u := range urls {
		out = append(out, models.Article{
			Title:       "Markets rally as " + u + " stocks surge",
			URL:         "https://example.com/" + u,
			Source:      "Test Wire",
			Region:      region,
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	return out
}

// ── FetchAndStore ──

func TestFetchAndStoreClassifiesAndPersists(t *testing.T) {
	api := &cannedSource{name: "api", articles: batch("US", "a", "b", "c")}
	p, st := testPipeline(t, api, &cannedSource{name: "rss"})

	result, err := p.FetchAndStore(context.Background(), Options{Scope: ScopeCountry, Mode: fetch.ModeAPI, Country: "us"})
	if err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}
	if result.Stored != 3 {
		t.Errorf("stored: got %d, want 3", result.Stored)
	}

	items, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("persisted items: got %d, want 3", len(items))
	}
	for _, item := range items {
		if item.Sentiment == "" {
			t.Errorf("item %s has no sentiment label", item.URL)
		}
		if item.Score < 0 || item.Score > 1 {
			t.Errorf("item %s score out of bounds: %f", item.URL, item.Score)
		}
	}
}

func TestFetchAndStoreSecondRunStoresNothing(t *testing.T) {
	api := &cannedSource{name: "api", articles: batch("US", "a", "b")}
	p, _ := testPipeline(t, api, &cannedSource{name: "rss"})
	opts := Options{Scope: ScopeCountry, Mode: fetch.ModeAPI, Country: "us"}

	first, err := p.FetchAndStore(context.Background(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Stored != 2 {
		t.Errorf("first run stored: got %d, want 2", first.Stored)
	}

	second, err := p.FetchAndStore(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Stored != 0 {
		t.Errorf("second run stored: got %d, want 0 (all URLs already present)", second.Stored)
	}
	if len(second.Articles) != 2 {
		t.Errorf("second run fetched: got %d, want 2", len(second.Articles))
	}
}

func TestFetchAndStorePropagatesFetchFailure(t *testing.T) {
	api := &cannedSource{name: "api", err: errors.New("down")}
	p, _ := testPipeline(t, api, &cannedSource{name: "rss"})

	_, err := p.FetchAndStore(context.Background(), Options{Scope: ScopeCountry, Mode: fetch.ModeAPI})
	if err == nil {
		t.Fatal("expected error when the only tier and its fallback fail")
	}
}

// ── Region sentinels ──

func TestGlobalScopeForcesGlobalRegion(t *testing.T) {
	api := &cannedSource{name: "api", articles: batch("US", "g1", "g2")}
	p, st := testPipeline(t, api, &cannedSource{name: "rss"})

	_, err := p.FetchAndStore(context.Background(), Options{Scope: ScopeGlobal, Mode: fetch.ModeAPI, Query: "markets"})
	if err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}

	items, _ := st.Recent(context.Background(), 10)
	for _, item := range items {
		if item.Region != models.RegionGlobal {
			t.Errorf("region: got %q, want %q for global scope", item.Region, models.RegionGlobal)
		}
	}
}

func TestCountryScopeFillsMissingRegion(t *testing.T) {
	api := &cannedSource{name: "api", articles: batch("", "untagged")}
	p, st := testPipeline(t, api, &cannedSource{name: "rss"})

	_, err := p.FetchAndStore(context.Background(), Options{Scope: ScopeCountry, Mode: fetch.ModeAPI, Country: "gb"})
	if err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}

	items, _ := st.Recent(context.Background(), 10)
	if items[0].Region != "GB" {
		t.Errorf("region: got %q, want GB", items[0].Region)
	}
}

func TestCountryScopeKeepsAdapterRegion(t *testing.T) {
	api := &cannedSource{name: "api", articles: batch("IN", "tagged")}
	p, st := testPipeline(t, api, &cannedSource{name: "rss"})

	_, err := p.FetchAndStore(context.Background(), Options{Scope: ScopeCountry, Mode: fetch.ModeAPI, Country: "us"})
	if err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}

	items, _ := st.Recent(context.Background(), 10)
	if items[0].Region != "IN" {
		t.Errorf("region: got %q, want the adapter's IN tag", items[0].Region)
	}
}

func TestInternationalScopeDefaultRegion(t *testing.T) {
	api := &cannedSource{name: "api", articles: batch("", "intl")}
	p, st := testPipeline(t, api, &cannedSource{name: "rss"})

	_, err := p.FetchAndStore(context.Background(), Options{Scope: ScopeInternational, Mode: fetch.ModeAPI})
	if err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}

	items, _ := st.Recent(context.Background(), 10)
	if items[0].Region != models.RegionInternational {
		t.Errorf("region: got %q, want %q", items[0].Region, models.RegionInternational)
	}
}
