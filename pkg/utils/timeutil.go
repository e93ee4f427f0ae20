// Package utils provides small shared helpers for time parsing and text
// normalization.
package utils

import (
	"strings"
	"time"
)

// feedTimeFormats lists the timestamp layouts seen across RSS feeds and the
// NewsAPI wire format, tried in order.
var feedTimeFormats = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02",
}

// ParseFeedTime parses a feed timestamp in any of the common formats.
// Returns the zero time and false when nothing matches.
func ParseFeedTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range feedTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeCountry lower-cases and trims a country code for routing lookups.
func NormalizeCountry(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Coalesce returns the first non-blank string.
func Coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
