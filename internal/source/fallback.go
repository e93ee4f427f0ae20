package source

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/finpulse/finpulse/pkg/models"
	"github.com/finpulse/finpulse/pkg/utils"
)

// sampleArticle is one entry in the static fallback set. AgeHours anchors the
// published time relative to "now" so the samples always look recent.
type sampleArticle struct {
	Title       string
	Description string
	Source      string
	URL         string
	Region      string
	AgeHours    int
}

var sampleNews = []sampleArticle{
	{
		Title:       "Global Markets Show Resilience Amid Economic Uncertainty",
		Description: "Major indices demonstrate stability as investors assess inflation data and central bank policies.",
		Source:      "Financial Times",
		URL:         "https://example.com/news/global-markets-resilience",
		Region:      "US",
		AgeHours:    2,
	},
	{
		Title:       "Tech Sector Leads Market Recovery",
		Description: "Technology stocks outperform as earnings season begins with strong quarterly results.",
		Source:      "Reuters",
		URL:         "https://example.com/news/tech-sector-recovery",
		Region:      "US",
		AgeHours:    4,
	},
	{
		Title:       "European Markets Respond to ECB Policy Changes",
		Description: "European indices gain ground following European Central Bank's latest monetary policy announcement.",
		Source:      "Bloomberg",
		URL:         "https://example.com/news/european-markets-ecb",
		Region:      "GB",
		AgeHours:    6,
	},
	{
		Title:       "Asian Markets Show Mixed Performance",
		Description: "Regional markets display varied performance as traders react to local economic indicators.",
		Source:      "Nikkei",
		URL:         "https://example.com/news/asian-markets-mixed",
		Region:      "JP",
		AgeHours:    8,
	},
	{
		Title:       "Commodity Prices Stabilize After Recent Volatility",
		Description: "Oil and precious metals find equilibrium as supply concerns ease and demand patterns normalize.",
		Source:      "MarketWatch",
		URL:         "https://example.com/news/commodity-prices-stabilize",
		Region:      "US",
		AgeHours:    10,
	},
	{
		Title:       "Cryptocurrency Markets Experience Renewed Interest",
		Description: "Digital assets gain traction as institutional adoption increases and regulatory clarity improves.",
		Source:      "CoinDesk",
		URL:         "https://example.com/news/crypto-renewed-interest",
		Region:      "US",
		AgeHours:    12,
	},
	{
		Title:       "Real Estate Sector Shows Signs of Recovery",
		Description: "Property markets demonstrate resilience as interest rates stabilize and demand remains strong.",
		Source:      "Wall Street Journal",
		URL:         "https://example.com/news/real-estate-recovery",
		Region:      "US",
		AgeHours:    14,
	},
	{
		Title:       "Green Energy Investments Surge",
		Description: "Renewable energy sector attracts significant capital as sustainability becomes a priority.",
		Source:      "Financial Times",
		URL:         "https://example.com/news/green-energy-investments",
		Region:      "GB",
		AgeHours:    16,
	},
	{
		Title:       "Banking Sector Reports Strong Quarterly Results",
		Description: "Major financial institutions exceed earnings expectations as loan demand increases.",
		Source:      "Reuters",
		URL:         "https://example.com/news/banking-strong-results",
		Region:      "US",
		AgeHours:    18,
	},
	{
		Title:       "Emerging Markets Attract Investor Attention",
		Description: "Developing economies show promise as growth prospects improve and valuations remain attractive.",
		Source:      "Bloomberg",
		URL:         "https://example.com/news/emerging-markets-attention",
		Region:      "IN",
		AgeHours:    20,
	},
}

// Fallback serves a fixed sample article set when live sources fail. Articles
// it returns are tagged Fallback so they remain distinguishable from live
// data after persistence.
type Fallback struct{}

// NewFallback creates a fallback source.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Name returns the data source name.
func (f *Fallback) Name() string { return "Fallback Samples" }

// FetchByCountry returns sample articles filtered by region; when no sample
// matches the country, the whole set is returned rather than nothing.
func (f *Fallback) FetchByCountry(_ context.Context, country string, limit int) ([]models.Article, error) {
	country = utils.NormalizeCountry(country)

	var filtered []sampleArticle
	if country != "" && country != "global" {
		for _, s := range sampleNews {
			if strings.EqualFold(s.Region, country) {
				filtered = append(filtered, s)
			}
		}
	}
	if len(filtered) == 0 {
		filtered = sampleNews
	}
	return f.materialize(filtered, limit), nil
}

// FetchGlobal returns the full sample set, shuffled.
func (f *Fallback) FetchGlobal(_ context.Context, _ string, limit int) ([]models.Article, error) {
	return f.materialize(sampleNews, limit), nil
}

// materialize converts samples to articles with fresh relative timestamps,
// shuffles, and truncates.
func (f *Fallback) materialize(samples []sampleArticle, limit int) []models.Article {
	now := time.Now().UTC()
	articles := make([]models.Article, 0, len(samples))
	for _, s := range samples {
		articles = append(articles, models.Article{
			Title:       s.Title,
			Description: s.Description,
			URL:         s.URL,
			Source:      s.Source,
			Region:      s.Region,
			PublishedAt: now.Add(-time.Duration(s.AgeHours) * time.Hour),
			Fallback:    true,
		})
	}
	// The top-level shuffle is safe for concurrent callers; a per-source
	// rand.Rand is not, and one Fallback serves every request.
	rand.Shuffle(len(articles), func(i, j int) {
		articles[i], articles[j] = articles[j], articles[i]
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}
