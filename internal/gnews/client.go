package gnews

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"github.com/newscope/news-scraper/backend/internal/models"
)

const defaultBaseURL = "https://news.google.com"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// SearchFilters carry the validated parameters of a /news request.
// Immutable once parsed.
type SearchFilters struct {
	Query       string
	Language    string
	Country     string
	Period      string
	MaxArticles int
	Detailed    bool
}

// CacheKey folds every filter into a single result-cache key.
func (f SearchFilters) CacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%t",
		f.Query, f.Language, f.Country, f.Period, f.MaxArticles, f.Detailed)
}

// Client searches the Google News RSS feed.
type Client struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// NewClient creates a search client with the given per-request timeout.
func NewClient(timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		log:     log,
	}
}

// NewClientWithBaseURL points the client at an alternative feed host,
// used by tests.
func NewClientWithBaseURL(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	c := NewClient(timeout, log)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Search fetches the RSS search feed for the filters and maps the items
// into articles. A feed with no items yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, f SearchFilters) ([]models.Article, error) {
	feedURL := c.feedURL(f)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]models.Article, 0, f.MaxArticles)
	seen := make(map[string]struct{}, f.MaxArticles)

	for _, it := range feed.Items {
		if len(articles) >= f.MaxArticles {
			break
		}
		if it == nil {
			continue
		}

		link := strings.TrimSpace(it.Link)
		if link != "" {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
		}

		articles = append(articles, models.Article{
			ID:          models.BuildArticleID(link),
			Title:       strings.TrimSpace(it.Title),
			Description: strings.TrimSpace(it.Description),
			Date:        itemDate(it),
			Link:        link,
			Publication: itemPublisher(it),
			Journalist:  "Not specified",
		})
	}

	c.log.Debug("feed fetched",
		slog.String("query", f.Query),
		slog.Int("items", len(feed.Items)),
		slog.Int("returned", len(articles)),
	)

	return articles, nil
}

func (c *Client) feedURL(f SearchFilters) string {
	q := f.Query
	if f.Period != "" {
		q += " when:" + f.Period
	}

	lang := strings.ToLower(f.Language)
	country := strings.ToUpper(f.Country)

	v := url.Values{}
	v.Set("q", q)
	v.Set("hl", lang)
	v.Set("gl", country)
	v.Set("ceid", country+":"+lang)

	return c.baseURL + "/rss/search?" + v.Encode()
}

// itemDate formats the item timestamp as RFC3339, keeping the raw pubDate
// when it did not parse and "Unknown" when the feed carried none.
func itemDate(it *rss.Item) string {
	if it.PubDateParsed != nil {
		return it.PubDateParsed.UTC().Format(time.RFC3339)
	}
	if raw := strings.TrimSpace(it.PubDate); raw != "" {
		return raw
	}
	return "Unknown"
}

// itemPublisher reads the RSS <source> tag, falling back to the
// " - Publisher" suffix Google News appends to titles.
func itemPublisher(it *rss.Item) string {
	if it.Source != nil && strings.TrimSpace(it.Source.Title) != "" {
		return strings.TrimSpace(it.Source.Title)
	}
	if idx := strings.LastIndex(it.Title, " - "); idx > 0 {
		if pub := strings.TrimSpace(it.Title[idx+3:]); pub != "" {
			return pub
		}
	}
	return "Unknown Source"
}
