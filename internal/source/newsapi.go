package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/finpulse/finpulse/internal/infra"
	"github.com/finpulse/finpulse/pkg/models"
	"github.com/finpulse/finpulse/pkg/utils"
)

const (
	newsAPIHeadlines = "https://newsapi.org/v2/top-headlines"
	newsAPISearch    = "https://newsapi.org/v2/everything"

	// searchDomains restricts "everything" queries to established financial
	// outlets so generic terms do not pull in noise.
	searchDomains = "reuters.com,bloomberg.com,cnbc.com,marketwatch.com,wsj.com,ft.com,cnn.com,bbc.com"
)

// NewsAPI fetches structured financial headlines from the NewsAPI.org REST
// backend. A rate-limit signal (HTTP 429 or in-body rateLimited code) is not
// a hard failure: the adapter retries once through the broader search
// endpoint before giving up.
type NewsAPI struct {
	apiKey  string
	limiter *infra.RateLimiter

	// Endpoint URLs, overridable in tests.
	headlinesURL string
	searchURL    string
}

// NewNewsAPI creates a NewsAPI adapter with the given API key.
func NewNewsAPI(apiKey string) *NewsAPI {
	return &NewsAPI{
		apiKey:       apiKey,
		limiter:      infra.NewRateLimiter(2, time.Second),
		headlinesURL: newsAPIHeadlines,
		searchURL:    newsAPISearch,
	}
}

// Name returns the data source name.
func (n *NewsAPI) Name() string { return "NewsAPI" }

// newsAPIEnvelope is the JSON envelope returned by both endpoints.
type newsAPIEnvelope struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// FetchByCountry fetches business headlines for a country. Countries the
// headline endpoint does not cover (empty result) degrade to a synthesized
// search query instead of failing.
func (n *NewsAPI) FetchByCountry(ctx context.Context, country string, limit int) ([]models.Article, error) {
	if n.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	country = utils.NormalizeCountry(country)

	params := url.Values{}
	params.Set("apiKey", n.apiKey)
	params.Set("category", "business")
	params.Set("pageSize", strconv.Itoa(limit))
	if country != "" {
		params.Set("country", country)
	}

	env, err := n.call(ctx, n.headlinesURL, params)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return n.searchByCountry(ctx, country, limit)
		}
		return nil, err
	}

	if len(env.Articles) == 0 {
		// Headline coverage is spotty outside a handful of countries.
		return n.searchByCountry(ctx, country, limit)
	}

	return convertNewsAPIArticles(env.Articles, strings.ToUpper(country)), nil
}

// FetchGlobal fetches cross-country financial news for a free-text query via
// the search endpoint. Rate limiting here has no further tier to degrade to,
// so it surfaces as ErrRateLimited for the orchestrator's fallback chain.
func (n *NewsAPI) FetchGlobal(ctx context.Context, query string, limit int) ([]models.Article, error) {
	if n.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if query == "" {
		query = "financial markets"
	}

	env, err := n.call(ctx, n.searchURL, n.searchParams(query, limit))
	if err != nil {
		return nil, err
	}
	return convertNewsAPIArticles(env.Articles, models.RegionGlobal), nil
}

// searchByCountry is the degraded retry strategy: a keyword search scoped to
// the country against the same backend.
func (n *NewsAPI) searchByCountry(ctx context.Context, country string, limit int) ([]models.Article, error) {
	env, err := n.call(ctx, n.searchURL, n.searchParams(SearchTermFor(country), limit))
	if err != nil {
		return nil, err
	}
	return convertNewsAPIArticles(env.Articles, strings.ToUpper(country)), nil
}

func (n *NewsAPI) searchParams(query string, limit int) url.Values {
	params := url.Values{}
	params.Set("apiKey", n.apiKey)
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("domains", searchDomains)
	return params
}

// call performs one request against a NewsAPI endpoint and decodes the
// envelope, translating transport and in-body failures into the sentinel
// error taxonomy.
func (n *NewsAPI) call(ctx context.Context, endpoint string, params url.Values) (*newsAPIEnvelope, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, status, err := infra.DoGet(ctx, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		if status == 429 {
			return nil, fmt.Errorf("%w: HTTP 429", ErrRateLimited)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer body.Close()

	var env newsAPIEnvelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSourceUnavailable, err)
	}

	if env.Status == "error" {
		if env.Code == "rateLimited" || strings.Contains(strings.ToLower(env.Message), "rate") {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, env.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, env.Message)
	}

	return &env, nil
}

// convertNewsAPIArticles maps wire articles to the common shape. Entries with
// unparseable timestamps keep a zero PublishedAt; nothing here aborts the
// batch.
func convertNewsAPIArticles(raw []newsAPIArticle, region string) []models.Article {
	articles := make([]models.Article, 0, len(raw))
	for _, a := range raw {
		var published time.Time
		if t, ok := utils.ParseFeedTime(a.PublishedAt); ok {
			published = t
		}
		articles = append(articles, models.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			Region:      region,
			PublishedAt: published,
		})
	}
	return articles
}
