// Package sentiment assigns tone labels to financial news text and derives
// market-level sentiment from a window of labeled items.
//
// The classifier is lexicon-based and deterministic. The pipeline only
// depends on the (label, score) contract, so a statistical or learned model
// could be substituted without touching callers.
package sentiment

import (
	"math"
	"strings"
	"sync"

	"github.com/finpulse/finpulse/pkg/models"
)

// DefaultConfidence is the score reported when the text carries no signal,
// including empty input.
const DefaultConfidence = 0.5

// maxInputRunes bounds classification input so pathological text cannot blow
// up latency.
const maxInputRunes = 512

// neutralBand is the net-score band inside which text is labeled neutral.
const neutralBand = 0.15

// Lexicon weights for financial tone. Phrases are matched by substring
// against lower-cased input.
var positiveSeed = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"strong": 0.4, "recovery": 0.5, "breakout": 0.6, "rebound": 0.5,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "beats estimate": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "gain": 0.4, "resilien": 0.4,
	"optimis": 0.5, "stabilize": 0.3, "attract": 0.3,
}

var negativeSeed = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"weak": 0.4, "decline": 0.5, "loss": 0.4, "recession": 0.6,
	"selloff": 0.7, "sell-off": 0.7, "correction": 0.5, "tumble": 0.6,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigation": 0.5,
	"miss": 0.5, "warning": 0.5, "concern": 0.3, "fears": 0.5,
	"layoff": 0.5, "bankrupt": 0.8, "crisis": 0.6, "volatil": 0.3,
}

// lexicon is the process-wide classifier state: loaded once on first use and
// shared read-only afterwards. No teardown.
type lexicon struct {
	positive map[string]float64
	negative map[string]float64
}

var (
	lexOnce sync.Once
	lex     *lexicon
)

// loadLexicon builds the shared lexicon. Guarded by lexOnce so concurrent
// first use initializes exactly once.
func loadLexicon() *lexicon {
	lexOnce.Do(func() {
		pos := make(map[string]float64, len(positiveSeed))
		for k, v := range positiveSeed {
			pos[strings.ToLower(k)] = v
		}
		neg := make(map[string]float64, len(negativeSeed))
		for k, v := range negativeSeed {
			neg[strings.ToLower(k)] = v
		}
		lex = &lexicon{positive: pos, negative: neg}
	})
	return lex
}

// Classify assigns a tone label and a confidence in [0, 1] to free text.
// It never fails: empty or signal-free input yields a neutral label at
// DefaultConfidence.
func Classify(text string) (models.Sentiment, float64) {
	l := loadLexicon()

	text = truncate(strings.TrimSpace(text), maxInputRunes)
	if text == "" {
		return models.SentimentNeutral, DefaultConfidence
	}
	lower := strings.ToLower(text)

	posScore, negScore := 0.0, 0.0
	matches := 0
	for phrase, weight := range l.positive {
		if strings.Contains(lower, phrase) {
			posScore += weight
			matches++
		}
	}
	for phrase, weight := range l.negative {
		if strings.Contains(lower, phrase) {
			negScore += weight
			matches++
		}
	}

	total := posScore + negScore
	if matches == 0 || total == 0 {
		return models.SentimentNeutral, DefaultConfidence
	}

	// Net tone in -1..+1, then banded into the three labels.
	net := (posScore - negScore) / total

	label := models.SentimentNeutral
	switch {
	case net > neutralBand:
		label = models.SentimentPositive
	case net < -neutralBand:
		label = models.SentimentNegative
	}

	// Confidence grows with match count and tone strength, capped below 1.
	confidence := math.Min(0.4+0.1*float64(matches)+0.3*math.Abs(net), 0.95)
	return label, confidence
}

// ClassifyArticle scores an article's combined title and description.
func ClassifyArticle(a models.Article) (models.Sentiment, float64) {
	return Classify(strings.TrimSpace(a.Title + ". " + a.Description))
}

// truncate limits s to n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
