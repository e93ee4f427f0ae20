// Package models defines the shared data shapes used across the FinPulse
// pipeline: transient articles, stored news items, and derived market
// sentiment.
package models

import "time"

// Sentiment is the label assigned to a single article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Region sentinel values used when a fetch spans countries.
const (
	RegionGlobal        = "GLOBAL"
	RegionInternational = "INTERNATIONAL"
)

// Article is a transient, pre-persistence news record produced by a source
// adapter. URL is the canonical identity; articles without one are dropped
// before merge. A zero PublishedAt means the source supplied no usable
// timestamp and the article sorts last.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Region      string    `json:"region,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Fallback    bool      `json:"fallback,omitempty"`
}

// StoredNewsItem is a persisted article with its sentiment attached.
// Rows are created exactly once per unique URL and never updated.
type StoredNewsItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Region      string    `json:"region,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   Sentiment `json:"sentiment"`
	Score       float64   `json:"score"`
	Fallback    bool      `json:"fallback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarketSentiment is the derived market-level view over a window of stored
// items. It has no independent lifecycle; it is recomputed on demand.
type MarketSentiment struct {
	Sentiment     string    `json:"sentiment"` // "bullish", "bearish", "neutral"
	Confidence    float64   `json:"confidence"`
	Trend         string    `json:"trend"` // "upward", "downward", "stable"
	PositiveScore float64   `json:"positive_score"`
	NegativeScore float64   `json:"negative_score"`
	NeutralScore  float64   `json:"neutral_score"`
	ArticleCount  int       `json:"article_count"`
	ComputedAt    time.Time `json:"computed_at"`
}
