package fetch

import (
	"context"
	"fmt"
	"log"

	"github.com/finpulse/finpulse/internal/source"
	"github.com/finpulse/finpulse/pkg/models"
)

// Mode selects which source tiers a fetch uses.
type Mode string

const (
	ModeAPI  Mode = "api"  // structured API only
	ModeRSS  Mode = "rss"  // RSS feeds only
	ModeBoth Mode = "both" // structured API first, then RSS
)

// ParseMode validates a mode string, defaulting empty to ModeAPI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAPI, ModeRSS, ModeBoth:
		return Mode(s), nil
	case "":
		return ModeAPI, nil
	}
	return "", fmt.Errorf("invalid fetch mode %q (want api, rss, or both)", s)
}

// Counts reports how many articles each tier and each originating outlet
// contributed to a fetch. Observability only, not correctness-critical.
type Counts struct {
	API      int            `json:"api"`
	RSS      int            `json:"rss"`
	BySource map[string]int `json:"by_source"`
}

// Orchestrator invokes source adapters according to the requested mode,
// applying a two-tier fallback per mode (live source, then static samples)
// and merging the surviving batches. A fetch fails only when every requested
// tier and its fallback produce zero articles.
type Orchestrator struct {
	api      source.Source
	rss      source.Source
	fallback source.Source
}

// NewOrchestrator wires an orchestrator over the given adapters. fallback may
// not be nil; it is the last tier of every chain.
func NewOrchestrator(api, rss, fallback source.Source) *Orchestrator {
	return &Orchestrator{api: api, rss: rss, fallback: fallback}
}

// FetchCountry retrieves news for one country.
func (o *Orchestrator) FetchCountry(ctx context.Context, mode Mode, country string, pageSize int) ([]models.Article, Counts, error) {
	return o.run(ctx, mode, func(ctx context.Context, s source.Source) ([]models.Article, error) {
		return s.FetchByCountry(ctx, country, pageSize)
	})
}

// FetchGlobal retrieves cross-country financial news for a free-text query.
func (o *Orchestrator) FetchGlobal(ctx context.Context, mode Mode, query string, pageSize int) ([]models.Article, Counts, error) {
	return o.run(ctx, mode, func(ctx context.Context, s source.Source) ([]models.Article, error) {
		return s.FetchGlobal(ctx, query, pageSize)
	})
}

// FetchInternational retrieves news across all major markets, splitting the
// page budget per market and tolerating individual market failures.
func (o *Orchestrator) FetchInternational(ctx context.Context, mode Mode, pageSize int) ([]models.Article, Counts, error) {
	markets := source.MajorMarkets
	perMarket := pageSize / len(markets)
	if perMarket < 1 {
		perMarket = 1
	}
	if perMarket > 20 {
		perMarket = 20
	}

	return o.run(ctx, mode, func(ctx context.Context, s source.Source) ([]models.Article, error) {
		var all []models.Article
		for _, country := range markets {
			articles, err := s.FetchByCountry(ctx, country, perMarket)
			if err != nil {
				log.Printf("fetch: skipping market %s on %s: %v", country, s.Name(), err)
				continue
			}
			all = append(all, articles...)
		}
		if len(all) == 0 {
			return nil, source.ErrNoArticles
		}
		return all, nil
	})
}

// call is one adapter invocation bound to a fetch shape (country, global, or
// international).
type call func(ctx context.Context, s source.Source) ([]models.Article, error)

// run executes the requested tiers sequentially in priority order (API
// before RSS, so API copies win URL dedup ties), merges, and applies the
// failure policy from the mode.
func (o *Orchestrator) run(ctx context.Context, mode Mode, fn call) ([]models.Article, Counts, error) {
	var counts Counts
	var apiBatch, rssBatch []models.Article
	var apiErr, rssErr error

	if mode == ModeAPI || mode == ModeBoth {
		apiBatch, apiErr = o.tier(ctx, o.api, fn)
		if apiErr != nil && mode == ModeAPI {
			return nil, counts, fmt.Errorf("news API unavailable: %w", apiErr)
		}
		if apiErr != nil {
			log.Printf("fetch: API tier failed, continuing with RSS: %v", apiErr)
		}
		counts.API = len(apiBatch)
	}

	if mode == ModeRSS || mode == ModeBoth {
		rssBatch, rssErr = o.tier(ctx, o.rss, fn)
		if rssErr != nil && mode == ModeRSS {
			return nil, counts, fmt.Errorf("RSS feeds unavailable: %w", rssErr)
		}
		if rssErr != nil {
			log.Printf("fetch: RSS tier failed, continuing with API results: %v", rssErr)
		}
		counts.RSS = len(rssBatch)
	}

	merged := Merge(apiBatch, rssBatch)
	if len(merged) == 0 {
		return nil, counts, source.ErrNoArticles
	}

	counts.BySource = make(map[string]int, len(merged))
	for _, a := range merged {
		counts.BySource[a.Source]++
	}
	return merged, counts, nil
}

// tier runs one adapter with its static fallback. Failure of the live
// adapter is recovered by the fallback; the tier fails only when both do.
func (o *Orchestrator) tier(ctx context.Context, s source.Source, fn call) ([]models.Article, error) {
	articles, err := fn(ctx, s)
	if err == nil && len(articles) > 0 {
		return articles, nil
	}
	if err != nil {
		log.Printf("fetch: %s failed (%v), trying fallback samples", s.Name(), err)
	}

	fbArticles, fbErr := fn(ctx, o.fallback)
	if fbErr != nil || len(fbArticles) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, source.ErrNoArticles
	}
	return fbArticles, nil
}
