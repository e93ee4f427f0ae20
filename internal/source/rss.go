package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/finpulse/finpulse/internal/infra"
	"github.com/finpulse/finpulse/pkg/models"
)

// feedParser parses one RSS/Atom feed URL into articles. Two variants exist:
// the gofeed-based parser and a plain encoding/xml one. Which variant an RSS
// source uses is decided once at construction, not per call.
type feedParser interface {
	parse(ctx context.Context, feedURL string, limit int) ([]models.Article, error)
}

// RSS fetches news from the configured RSS/Atom feed sets.
type RSS struct {
	parser  feedParser
	limiter *infra.RateLimiter
	cache   *infra.Cache
}

// RSS parser variant names accepted by NewRSS.
const (
	RSSVariantGofeed = "gofeed"
	RSSVariantXML    = "xml"
)

// NewRSS creates an RSS source using the named parser variant. Unknown
// variants fall back to gofeed.
func NewRSS(variant string) *RSS {
	var p feedParser
	switch variant {
	case RSSVariantXML:
		p = &xmlFeedParser{}
	default:
		p = newGofeedParser()
	}
	return &RSS{
		parser:  p,
		limiter: infra.NewRateLimiter(4, time.Second),
		cache:   infra.NewCache(10 * time.Minute),
	}
}

// Name returns the data source name.
func (r *RSS) Name() string { return "RSS" }

// FetchByCountry pulls the global financial feeds plus the country-specific
// set, splitting the item budget across feeds. Individual feed failures are
// skipped; the call fails only when no feed yields anything.
func (r *RSS) FetchByCountry(ctx context.Context, country string, limit int) ([]models.Article, error) {
	return r.fetchFeeds(ctx, fmt.Sprintf("rss:country:%s:%d", country, limit), FeedsFor(country), limit)
}

// FetchGlobal pulls the global financial feed set. The query is accepted for
// interface symmetry; RSS feeds are not searchable, so it only keys the cache.
func (r *RSS) FetchGlobal(ctx context.Context, query string, limit int) ([]models.Article, error) {
	return r.fetchFeeds(ctx, fmt.Sprintf("rss:global:%s:%d", query, limit), FinancialFeeds(), limit)
}

func (r *RSS) fetchFeeds(ctx context.Context, cacheKey string, feeds []Feed, limit int) ([]models.Article, error) {
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.([]models.Article), nil
	}
	if len(feeds) == 0 {
		return nil, ErrNoArticles
	}

	perFeed := limit / len(feeds)
	if perFeed < 1 {
		perFeed = 1
	}

	// Fan out per feed, but collect into fixed slots so the concatenation
	// order stays the registry order regardless of completion order.
	batches := make([][]models.Article, len(feeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range feeds {
		g.Go(func() error {
			if err := r.limiter.Wait(gctx); err != nil {
				return err
			}
			articles, err := r.parser.parse(gctx, f.URL, perFeed)
			if err != nil {
				// Non-critical: skip failed feeds.
				return nil
			}
			batches[i] = articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.Article
	for _, b := range batches {
		all = append(all, b...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: all %d feeds failed or were empty", ErrSourceUnavailable, len(feeds))
	}

	sortByPublished(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	r.cache.Set(cacheKey, all)
	return all, nil
}

// FeedStatus is the result of probing one configured feed.
type FeedStatus struct {
	Feed     Feed
	Articles int
	Err      error
}

// CheckFeeds probes every configured feed with a one-item fetch and reports
// which are reachable.
func (r *RSS) CheckFeeds(ctx context.Context) []FeedStatus {
	seen := make(map[string]bool)
	var statuses []FeedStatus
	probe := func(f Feed) {
		if seen[f.URL] {
			return
		}
		seen[f.URL] = true
		articles, err := r.parser.parse(ctx, f.URL, 1)
		statuses = append(statuses, FeedStatus{Feed: f, Articles: len(articles), Err: err})
	}
	for _, f := range globalFeeds {
		probe(f)
	}
	for _, country := range RSSCountries() {
		for _, f := range countryFeeds[country] {
			probe(f)
		}
	}
	return statuses
}

// sortByPublished orders articles newest first, zero timestamps last. Stable,
// so equal timestamps keep their batch order.
func sortByPublished(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

// --- gofeed-based parser ---

type gofeedParser struct{}

func newGofeedParser() *gofeedParser {
	return &gofeedParser{}
}

func (p *gofeedParser) parse(ctx context.Context, feedURL string, limit int) ([]models.Article, error) {
	// gofeed.Parser mutates internal state on each parse, so a fresh one is
	// built per call; feeds are fetched concurrently.
	feed, err := gofeed.NewParser().ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	name := SourceNameFromURL(feedURL)
	region := CountryFromURL(feedURL)

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		if item == nil || item.Link == "" {
			continue
		}
		a := models.Article{
			Title:       item.Title,
			Description: cleanHTML(item.Description),
			URL:         item.Link,
			Source:      name,
			Region:      region,
		}
		switch {
		case item.PublishedParsed != nil:
			a.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			a.PublishedAt = *item.UpdatedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
