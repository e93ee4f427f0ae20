package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestNewsAPI(headlines, search http.HandlerFunc) (*NewsAPI, func()) {
	hs := httptest.NewServer(headlines)
	ss := httptest.NewServer(search)
	n := NewNewsAPI("test-key")
	n.headlinesURL = hs.URL
	n.searchURL = ss.URL
	return n, func() { hs.Close(); ss.Close() }
}

const envelopeOK = `{
	"status": "ok",
	"articles": [
		{
			"title": "Fed Holds Rates Steady",
			"description": "The central bank kept rates unchanged.",
			"url": "https://example.com/fed-rates",
			"publishedAt": "2025-06-01T09:30:00Z",
			"source": {"name": "Reuters"}
		},
		{
			"title": "Undated Story",
			"description": "",
			"url": "https://example.com/undated",
			"publishedAt": "not a timestamp",
			"source": {"name": "CNBC"}
		}
	]
}`

// ── FetchByCountry ──

func TestFetchByCountryParsesEnvelope(t *testing.T) {
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("country"); got != "us" {
				t.Errorf("country param: got %q, want us", got)
			}
			if got := r.URL.Query().Get("category"); got != "business" {
				t.Errorf("category param: got %q, want business", got)
			}
			w.Write([]byte(envelopeOK))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("search endpoint should not be hit when headlines succeed")
		},
	)
	defer done()

	articles, err := n.FetchByCountry(context.Background(), "US", 10)
	if err != nil {
		t.Fatalf("FetchByCountry: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("articles: got %d, want 2", len(articles))
	}
	if articles[0].Title != "Fed Holds Rates Steady" {
		t.Errorf("title: got %q", articles[0].Title)
	}
	if articles[0].Source != "Reuters" {
		t.Errorf("source: got %q, want Reuters", articles[0].Source)
	}
	if articles[0].Region != "US" {
		t.Errorf("region: got %q, want US", articles[0].Region)
	}
	if articles[0].PublishedAt.IsZero() {
		t.Error("first article PublishedAt should be parsed")
	}
	if !articles[1].PublishedAt.IsZero() {
		t.Error("unparseable timestamp should yield zero PublishedAt, not drop the article")
	}
}

func TestFetchByCountryMissingKey(t *testing.T) {
	n := NewNewsAPI("")
	_, err := n.FetchByCountry(context.Background(), "us", 10)
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("got %v, want ErrAPIKeyMissing", err)
	}
}

func TestFetchByCountryRateLimitRetriesViaSearch(t *testing.T) {
	searchHits := 0
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		func(w http.ResponseWriter, r *http.Request) {
			searchHits++
			if got := r.URL.Query().Get("q"); got != "India business finance economy" {
				t.Errorf("search query: got %q, want synthesized country terms", got)
			}
			w.Write([]byte(envelopeOK))
		},
	)
	defer done()

	articles, err := n.FetchByCountry(context.Background(), "in", 10)
	if err != nil {
		t.Fatalf("FetchByCountry: %v", err)
	}
	if searchHits != 1 {
		t.Errorf("search retries: got %d, want exactly 1", searchHits)
	}
	if len(articles) != 2 {
		t.Errorf("articles: got %d, want 2 from the degraded search", len(articles))
	}
}

func TestFetchByCountryInBodyRateLimit(t *testing.T) {
	searchHits := 0
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "error", "code": "rateLimited", "message": "You have been rate limited"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			searchHits++
			w.Write([]byte(envelopeOK))
		},
	)
	defer done()

	if _, err := n.FetchByCountry(context.Background(), "us", 10); err != nil {
		t.Fatalf("FetchByCountry: %v", err)
	}
	if searchHits != 1 {
		t.Errorf("in-body rate limit should trigger one search retry, got %d", searchHits)
	}
}

func TestFetchByCountryEmptyHeadlinesFallsThroughToSearch(t *testing.T) {
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "ok", "articles": []}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(envelopeOK))
		},
	)
	defer done()

	articles, err := n.FetchByCountry(context.Background(), "sg", 10)
	if err != nil {
		t.Fatalf("FetchByCountry: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("articles: got %d, want 2 from the search fallthrough", len(articles))
	}
}

func TestFetchByCountryHardFailure(t *testing.T) {
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("search should not be tried on a non-rate-limit failure")
		},
	)
	defer done()

	_, err := n.FetchByCountry(context.Background(), "us", 10)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("got %v, want ErrSourceUnavailable", err)
	}
}

// ── FetchGlobal ──

func TestFetchGlobalDefaultQuery(t *testing.T) {
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("headlines endpoint should not be hit by a global fetch")
		},
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "financial markets" {
				t.Errorf("default query: got %q, want %q", got, "financial markets")
			}
			w.Write([]byte(envelopeOK))
		},
	)
	defer done()

	articles, err := n.FetchGlobal(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("FetchGlobal: %v", err)
	}
	for _, a := range articles {
		if a.Region != "GLOBAL" {
			t.Errorf("region: got %q, want GLOBAL", a.Region)
		}
	}
}

func TestFetchGlobalRateLimitSurfaces(t *testing.T) {
	n, done := newTestNewsAPI(
		func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)
	defer done()

	_, err := n.FetchGlobal(context.Background(), "inflation", 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}
