package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/finpulse/finpulse/internal/infra"
	"github.com/finpulse/finpulse/pkg/models"
)

// stubParser serves canned articles per feed URL; unknown URLs fail.
type stubParser struct {
	byURL map[string][]models.Article
}

func (p *stubParser) parse(_ context.Context, feedURL string, limit int) ([]models.Article, error) {
	articles, ok := p.byURL[feedURL]
	if !ok {
		return nil, errors.New("feed unreachable")
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func stubRSS(byURL map[string][]models.Article) *RSS {
	r := NewRSS(RSSVariantGofeed)
	r.parser = &stubParser{byURL: byURL}
	// Keep tests fast: no need to pace a stub.
	r.limiter = infra.NewRateLimiter(1000, time.Second)
	return r
}

// ── fetchFeeds ──

func TestFetchByCountrySkipsFailedFeeds(t *testing.T) {
	// Only one of the configured feeds answers; the rest fail and are skipped.
	feeds := FeedsFor("us")
	byURL := map[string][]models.Article{
		feeds[0].URL: {
			{Title: "one", URL: "https://example.com/1", PublishedAt: time.Now()},
			{Title: "two", URL: "https://example.com/2", PublishedAt: time.Now().Add(-time.Hour)},
		},
	}

	articles, err := stubRSS(byURL).FetchByCountry(context.Background(), "us", 50)
	if err != nil {
		t.Fatalf("FetchByCountry: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("articles: got %d, want 2 from the one live feed", len(articles))
	}
}

func TestFetchByCountryAllFeedsDown(t *testing.T) {
	_, err := stubRSS(nil).FetchByCountry(context.Background(), "us", 50)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("got %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchFeedsSortsAndTruncates(t *testing.T) {
	feeds := FeedsFor("jp")
	now := time.Now()
	byURL := map[string][]models.Article{}
	for i, f := range feeds {
		byURL[f.URL] = []models.Article{{
			Title:       fmt.Sprintf("feed-%d", i),
			URL:         fmt.Sprintf("https://example.com/%d", i),
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
		}}
	}

	articles, err := stubRSS(byURL).FetchByCountry(context.Background(), "jp", 3)
	if err != nil {
		t.Fatalf("FetchByCountry: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("articles: got %d, want the 3-item cap", len(articles))
	}
	for i := 1; i < len(articles); i++ {
		if articles[i].PublishedAt.After(articles[i-1].PublishedAt) {
			t.Errorf("articles not sorted newest first at index %d", i)
		}
	}
}

func TestFetchFeedsCachesResult(t *testing.T) {
	feeds := FeedsFor("us")
	byURL := map[string][]models.Article{
		feeds[0].URL: {{Title: "cached", URL: "https://example.com/c", PublishedAt: time.Now()}},
	}
	r := stubRSS(byURL)

	first, err := r.FetchByCountry(context.Background(), "us", 10)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	// Cut off the parser; the second identical call must come from cache.
	r.parser = &stubParser{}
	second, err := r.FetchByCountry(context.Background(), "us", 10)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("cached result length: got %d, want %d", len(second), len(first))
	}
}

// ── gofeed parser over HTTP ──

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Business Feed</title>
    <item>
      <title>Markets Open Higher</title>
      <link>https://example.com/markets-open</link>
      <description>&lt;p&gt;Stocks climbed in early trading.&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 09:30:00 +0000</pubDate>
    </item>
    <item>
      <title>Entry Without Link</title>
      <description>Should be skipped.</description>
    </item>
    <item>
      <title>Oil Prices Slip</title>
      <link>https://example.com/oil-slip</link>
      <description>Crude fell on demand worries.</description>
      <pubDate>Mon, 02 Jun 2025 08:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestGofeedParserParsesRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	p := newGofeedParser()
	articles, err := p.parse(context.Background(), srv.URL, 10)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("articles: got %d, want 2 (linkless entry skipped)", len(articles))
	}
	if articles[0].Title != "Markets Open Higher" {
		t.Errorf("title: got %q", articles[0].Title)
	}
	if articles[0].Description != "Stocks climbed in early trading." {
		t.Errorf("description not stripped of HTML: got %q", articles[0].Description)
	}
	if articles[0].PublishedAt.IsZero() {
		t.Error("pubDate should be parsed")
	}
}

func TestGofeedParserRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	p := newGofeedParser()
	articles, err := p.parse(context.Background(), srv.URL, 1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("articles: got %d, want 1", len(articles))
	}
}

func TestGofeedParserConcurrentParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	p := newGofeedParser()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			articles, err := p.parse(context.Background(), srv.URL, 10)
			if err != nil {
				errs <- err
				return
			}
			if len(articles) != 2 {
				errs <- fmt.Errorf("articles: got %d, want 2", len(articles))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent parse: %v", err)
	}
}

// ── cleanHTML ──

func TestCleanHTML(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>wrapped</p>", "wrapped"},
		{"<b>bold</b> and <a href='#'>link</a>", "bold and link"},
	}
	for _, tc := range cases {
		if got := cleanHTML(tc.in); got != tc.want {
			t.Errorf("cleanHTML(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
