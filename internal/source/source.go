// Package source provides news retrieval from external feeds. It defines a
// common Source interface and implements concrete adapters for the NewsAPI
// REST backend, RSS/Atom feeds (a gofeed-based and a plain-XML variant), and
// a static fallback sample set used when every live source fails.
package source

import (
	"context"
	"errors"

	"github.com/finpulse/finpulse/pkg/models"
)

// Source is the common interface implemented by all news adapters. A call
// either returns zero or more articles or fails as a whole; individual
// malformed feed entries are skipped inside the adapter and never abort the
// call.
type Source interface {
	// Name returns the human-readable name of this source adapter.
	Name() string

	// FetchByCountry returns recent articles for a country code. Unknown
	// countries degrade to a broader retrieval strategy rather than failing.
	FetchByCountry(ctx context.Context, country string, limit int) ([]models.Article, error)

	// FetchGlobal returns cross-country financial news for a free-text query.
	FetchGlobal(ctx context.Context, query string, limit int) ([]models.Article, error)
}

// --- Sentinel errors ---

// ErrSourceUnavailable indicates a transport failure, auth failure, or
// malformed response from one adapter call.
var ErrSourceUnavailable = errors.New("news source unavailable")

// ErrRateLimited indicates the backend rejected the call with a rate-limit
// signal. Adapters retry once via a degraded strategy before surfacing this.
var ErrRateLimited = errors.New("rate limited by news source")

// ErrAPIKeyMissing indicates the structured API adapter has no key configured.
var ErrAPIKeyMissing = errors.New("NewsAPI key not configured")

// ErrNoArticles indicates a call succeeded at the transport level but yielded
// zero usable articles.
var ErrNoArticles = errors.New("no articles found")
