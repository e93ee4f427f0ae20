package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/finpulse/finpulse/internal/infra"
	"github.com/finpulse/finpulse/pkg/models"
	"github.com/finpulse/finpulse/pkg/utils"
)

// xmlFeedParser is the library-free RSS variant: a plain encoding/xml parser
// for RSS 2.0 and Atom. It exists for deployments where the gofeed dependency
// is undesirable; behavior differences from the gofeed variant are confined
// to date handling (unparseable dates become "now" rather than unknown).
type xmlFeedParser struct{}

// RSS 2.0 document shape.
type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string       `xml:"title"`
		Items []rssXMLItem `xml:"item"`
	} `xml:"channel"`
}

type rssXMLItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source"`
}

// Atom document shape.
type atomDocument struct {
	XMLName xml.Name        `xml:"feed"`
	Title   string          `xml:"title"`
	Entries []atomXMLEntry  `xml:"entry"`
}

type atomXMLEntry struct {
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Updated string `xml:"updated"`
	Links   []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
}

func (p *xmlFeedParser) parse(ctx context.Context, feedURL string, limit int) ([]models.Article, error) {
	body, _, err := infra.DoGet(ctx, feedURL, map[string]string{"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml"})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", feedURL, err)
	}

	name := SourceNameFromURL(feedURL)
	region := CountryFromURL(feedURL)

	// Try RSS 2.0 first, then Atom.
	var rss rssDocument
	if err := unmarshalLoose(raw, &rss); err == nil && len(rss.Channel.Items) > 0 {
		return p.convertRSS(rss.Channel.Items, name, region, limit), nil
	}
	var atom atomDocument
	if err := unmarshalLoose(raw, &atom); err == nil && len(atom.Entries) > 0 {
		return p.convertAtom(atom.Entries, name, region, limit), nil
	}

	return nil, fmt.Errorf("feed %s is neither RSS 2.0 nor Atom", feedURL)
}

func (p *xmlFeedParser) convertRSS(items []rssXMLItem, name, region string, limit int) []models.Article {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		published := time.Now().UTC()
		if t, ok := utils.ParseFeedTime(item.PubDate); ok {
			published = t
		}
		articles = append(articles, models.Article{
			Title:       title,
			Description: cleanHTML(strings.TrimSpace(item.Description)),
			URL:         link,
			Source:      utils.Coalesce(strings.TrimSpace(item.Source), name),
			Region:      region,
			PublishedAt: published,
		})
	}
	return articles
}

func (p *xmlFeedParser) convertAtom(entries []atomXMLEntry, name, region string, limit int) []models.Article {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	articles := make([]models.Article, 0, len(entries))
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		link := atomLink(entry)
		if title == "" || link == "" {
			continue
		}
		published := time.Now().UTC()
		if t, ok := utils.ParseFeedTime(entry.Updated); ok {
			published = t
		}
		articles = append(articles, models.Article{
			Title:       title,
			Description: cleanHTML(strings.TrimSpace(entry.Summary)),
			URL:         link,
			Source:      name,
			Region:      region,
			PublishedAt: published,
		})
	}
	return articles
}

// atomLink picks the alternate link for an entry, falling back to the first.
func atomLink(entry atomXMLEntry) string {
	for _, l := range entry.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(entry.Links) > 0 {
		return strings.TrimSpace(entry.Links[0].Href)
	}
	return ""
}

// unmarshalLoose decodes XML tolerating the charset declarations some feeds
// carry.
func unmarshalLoose(raw []byte, v any) error {
	dec := xml.NewDecoder(strings.NewReader(string(raw)))
	dec.Strict = false
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return dec.Decode(v)
}
