package source

import (
	"net/url"
	"sort"
	"strings"

	"github.com/finpulse/finpulse/pkg/utils"
)

// Feed is one configured RSS/Atom feed.
type Feed struct {
	Name string
	URL  string
}

// globalFeeds are the always-included global financial feeds. They are
// prepended to every country-specific set, so the same outlet can appear
// twice across the union; the merge stage resolves those duplicates.
var globalFeeds = []Feed{
	{"reuters", "https://feeds.reuters.com/reuters/businessNews"},
	{"bloomberg", "https://feeds.bloomberg.com/markets/news.rss"},
	{"cnbc", "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{"marketwatch", "https://feeds.marketwatch.com/marketwatch/topstories/"},
	{"wsj", "https://feeds.wsj.com/public/rss/2_0/rss.xml"},
	{"ft", "https://www.ft.com/rss/home"},
	{"yahoo_finance", "https://feeds.finance.yahoo.com/rss/2.0/headline"},
	{"investing", "https://www.investing.com/rss/news_301.rss"},
}

// countryFeeds maps a country code to its region-specific feeds.
var countryFeeds = map[string][]Feed{
	"us": {
		{"cnn_business", "http://rss.cnn.com/rss/money_latest.rss"},
		{"fox_business", "https://feeds.foxnews.com/foxnews/business"},
		{"nbc_business", "https://feeds.nbcnews.com/nbcnews/public/business"},
	},
	"in": {
		{"times_of_india", "https://timesofindia.indiatimes.com/rssfeedstopstories.cms"},
		{"ndtv", "https://feeds.feedburner.com/ndtvnews-top-stories"},
		{"hindustan_times", "https://www.hindustantimes.com/feeds/rss/india-news/rssfeed.xml"},
		{"economic_times", "https://economictimes.indiatimes.com/rss.cms"},
		{"business_standard", "https://www.business-standard.com/rss/india-news-6.rss"},
		{"moneycontrol", "https://www.moneycontrol.com/rss/business.xml"},
	},
	"gb": {
		{"bbc_business", "https://feeds.bbci.co.uk/news/business/rss.xml"},
		{"guardian_business", "https://www.theguardian.com/business/rss"},
		{"telegraph_business", "https://www.telegraph.co.uk/business/rss.xml"},
		{"sky_business", "https://feeds.skynews.com/feeds/rss/business.xml"},
	},
	"au": {
		{"abc_news", "https://www.abc.net.au/news/feed/45910/rss.xml"},
		{"sbs_news", "https://www.sbs.com.au/news/feed"},
		{"smh_business", "https://www.smh.com.au/rss/feed.xml"},
	},
	"ca": {
		{"cbc_business", "https://www.cbc.ca/cmlink/rss-business"},
		{"globe_mail", "https://www.theglobeandmail.com/feed/business/"},
		{"national_post", "https://nationalpost.com/feed/"},
	},
	"sg": {
		{"straits_times", "https://www.straitstimes.com/news/singapore/rss.xml"},
		{"channel_news_asia", "https://www.channelnewsasia.com/api/v1/rss-feeds"},
		{"today_online", "https://www.todayonline.com/feed"},
	},
	"jp": {
		{"nikkei", "https://www.nikkei.com/rss/english/nikkei_news.rdf"},
		{"japan_times", "https://www.japantimes.co.jp/feed/"},
	},
}

// FeedsFor returns the feed set to pull for a country: the global financial
// feeds followed by any country-specific ones. Pure routing; unknown
// countries get the global set only.
func FeedsFor(country string) []Feed {
	country = utils.NormalizeCountry(country)
	feeds := make([]Feed, 0, len(globalFeeds)+len(countryFeeds[country]))
	feeds = append(feeds, globalFeeds...)
	feeds = append(feeds, countryFeeds[country]...)
	return feeds
}

// FinancialFeeds returns the global financial feed set used for query-driven
// global fetches.
func FinancialFeeds() []Feed {
	out := make([]Feed, len(globalFeeds))
	copy(out, globalFeeds)
	return out
}

// RSSCountries lists the country codes with dedicated feed sets, sorted.
func RSSCountries() []string {
	codes := make([]string, 0, len(countryFeeds))
	for c := range countryFeeds {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// SupportedCountries maps NewsAPI-supported country codes to display names.
var SupportedCountries = map[string]string{
	"us": "United States", "gb": "United Kingdom", "in": "India",
	"ca": "Canada", "au": "Australia", "de": "Germany", "fr": "France",
	"jp": "Japan", "cn": "China", "sg": "Singapore", "hk": "Hong Kong",
	"kr": "South Korea", "br": "Brazil", "mx": "Mexico", "ar": "Argentina",
	"za": "South Africa", "ru": "Russia", "it": "Italy", "es": "Spain",
	"nl": "Netherlands", "se": "Sweden", "no": "Norway", "ch": "Switzerland",
	"at": "Austria", "be": "Belgium", "dk": "Denmark", "fi": "Finland",
	"ie": "Ireland", "nz": "New Zealand", "ae": "United Arab Emirates",
	"sa": "Saudi Arabia", "tr": "Turkey", "pl": "Poland",
	"cz": "Czech Republic", "hu": "Hungary", "ro": "Romania",
	"gr": "Greece", "pt": "Portugal",
}

// IsSupportedCountry reports whether a country code has structured API
// headline support.
func IsSupportedCountry(country string) bool {
	_, ok := SupportedCountries[utils.NormalizeCountry(country)]
	return ok
}

// SupportedCountryCodes returns all supported country codes, sorted.
func SupportedCountryCodes() []string {
	codes := make([]string, 0, len(SupportedCountries))
	for c := range SupportedCountries {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// MajorMarkets are the countries covered by an international fetch.
var MajorMarkets = []string{
	"us", "gb", "in", "ca", "au", "de", "jp", "cn", "sg", "hk", "kr", "br", "mx", "za", "ru",
}

// countrySearchTerms gives the synthesized search query used when a country
// has no direct headline support on the structured API.
var countrySearchTerms = map[string]string{
	"in": "India business finance economy",
	"cn": "China business finance economy",
	"jp": "Japan business finance economy",
	"kr": "South Korea business finance economy",
	"sg": "Singapore business finance economy",
	"hk": "Hong Kong business finance economy",
	"br": "Brazil business finance economy",
	"mx": "Mexico business finance economy",
	"ar": "Argentina business finance economy",
	"za": "South Africa business finance economy",
	"ru": "Russia business finance economy",
	"tr": "Turkey business finance economy",
	"ae": "UAE business finance economy",
	"sa": "Saudi Arabia business finance economy",
}

// SearchTermFor synthesizes a search query for a country. Falls back to
// "<country> business finance" for codes without a curated term.
func SearchTermFor(country string) string {
	country = utils.NormalizeCountry(country)
	if term, ok := countrySearchTerms[country]; ok {
		return term
	}
	return country + " business finance"
}

// --- Feed URL heuristics ---

// domainNames maps feed host fragments to display source names, checked in
// order.
var domainNames = []struct {
	fragment string
	name     string
}{
	{"reuters.com", "Reuters"},
	{"bloomberg.com", "Bloomberg"},
	{"cnbc.com", "CNBC"},
	{"marketwatch.com", "MarketWatch"},
	{"wsj.com", "Wall Street Journal"},
	{"ft.com", "Financial Times"},
	{"yahoo.com", "Yahoo Finance"},
	{"investing.com", "Investing.com"},
	{"cnn.com", "CNN"},
	{"foxnews.com", "Fox Business"},
	{"nbcnews.com", "NBC News"},
	{"timesofindia.indiatimes.com", "Times of India"},
	{"economictimes.indiatimes.com", "Economic Times"},
	{"ndtv.com", "NDTV"},
	{"hindustantimes.com", "Hindustan Times"},
	{"business-standard.com", "Business Standard"},
	{"moneycontrol.com", "Moneycontrol"},
	{"bbci.co.uk", "BBC"},
	{"bbc.co.uk", "BBC"},
	{"theguardian.com", "The Guardian"},
	{"telegraph.co.uk", "The Telegraph"},
	{"skynews.com", "Sky News"},
	{"abc.net.au", "ABC News Australia"},
	{"sbs.com.au", "SBS News"},
	{"smh.com.au", "Sydney Morning Herald"},
	{"cbc.ca", "CBC News"},
	{"theglobeandmail.com", "The Globe and Mail"},
	{"nationalpost.com", "National Post"},
	{"straitstimes.com", "The Straits Times"},
	{"channelnewsasia.com", "Channel News Asia"},
	{"todayonline.com", "Today Online"},
	{"nikkei.com", "Nikkei"},
	{"japantimes.co.jp", "The Japan Times"},
	{"feedburner.com", "NDTV"},
}

// domainCountries maps feed host fragments to a best-guess country code.
var domainCountries = []struct {
	fragment string
	country  string
}{
	{"indiatimes.com", "IN"},
	{"ndtv.com", "IN"},
	{"hindustantimes.com", "IN"},
	{"business-standard.com", "IN"},
	{"moneycontrol.com", "IN"},
	{"bbc.co.uk", "GB"},
	{"bbci.co.uk", "GB"},
	{"theguardian.com", "GB"},
	{"telegraph.co.uk", "GB"},
	{"skynews.com", "GB"},
	{"abc.net.au", "AU"},
	{"sbs.com.au", "AU"},
	{"smh.com.au", "AU"},
	{"cbc.ca", "CA"},
	{"theglobeandmail.com", "CA"},
	{"nationalpost.com", "CA"},
	{"straitstimes.com", "SG"},
	{"channelnewsasia.com", "SG"},
	{"todayonline.com", "SG"},
	{"nikkei.com", "JP"},
	{"japantimes.co.jp", "JP"},
}

// SourceNameFromURL resolves a human-readable source name from a feed URL.
// Unrecognized domains fall back to a cleaned-up host name.
func SourceNameFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return "Unknown Source"
	}
	host := strings.ToLower(u.Host)
	for _, d := range domainNames {
		if strings.Contains(host, d.fragment) {
			return d.name
		}
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ".com")
	if host == "" {
		return "Unknown Source"
	}
	return titleCase(host)
}

// titleCase upper-cases the first letter of each dot- or dash-separated part.
func titleCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' })
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// CountryFromURL guesses the country code for a feed URL, defaulting to the
// GLOBAL sentinel.
func CountryFromURL(feedURL string) string {
	lower := strings.ToLower(feedURL)
	for _, d := range domainCountries {
		if strings.Contains(lower, d.fragment) {
			return d.country
		}
	}
	return "GLOBAL"
}
