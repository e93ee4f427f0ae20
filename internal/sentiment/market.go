package sentiment

import (
	"time"

	"github.com/finpulse/finpulse/pkg/models"
)

// Dominance share above which the market is called bullish or bearish.
const dominantShare = 0.6

// AnalyzeMarket derives a market-level sentiment from a window of stored
// items. Pure function of its input: an empty window is neutral and stable
// at DefaultConfidence.
func AnalyzeMarket(items []models.StoredNewsItem) models.MarketSentiment {
	now := time.Now().UTC()
	if len(items) == 0 {
		return models.MarketSentiment{
			Sentiment:  "neutral",
			Confidence: DefaultConfidence,
			Trend:      "stable",
			ComputedAt: now,
		}
	}

	var pos, neg, neu int
	for _, item := range items {
		switch item.Sentiment {
		case models.SentimentPositive:
			pos++
		case models.SentimentNegative:
			neg++
		default:
			neu++
		}
	}

	total := float64(len(items))
	posShare := float64(pos) / total
	negShare := float64(neg) / total
	neuShare := float64(neu) / total

	sentiment, trend := "neutral", "stable"
	switch {
	case posShare > dominantShare:
		sentiment, trend = "bullish", "upward"
	case negShare > dominantShare:
		sentiment, trend = "bearish", "downward"
	}

	confidence := posShare
	if negShare > confidence {
		confidence = negShare
	}
	if neuShare > confidence {
		confidence = neuShare
	}

	return models.MarketSentiment{
		Sentiment:     sentiment,
		Confidence:    confidence,
		Trend:         trend,
		PositiveScore: posShare,
		NegativeScore: negShare,
		NeutralScore:  neuShare,
		ArticleCount:  len(items),
		ComputedAt:    now,
	}
}
