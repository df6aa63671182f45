package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxBodyRunes caps the extracted body text returned per article.
const maxBodyRunes = 1000

// Result holds everything the extractor could pull from an article page.
// Any field may be empty; callers merge what is present.
type Result struct {
	Text        string
	TopImage    string
	Authors     []string
	PublishedAt *time.Time
}

// Extractor fetches an article page and extracts the main content.
type Extractor struct {
	client *http.Client
	log    *slog.Logger
}

// NewExtractor creates an extractor with the given per-page timeout.
func NewExtractor(timeout time.Duration, log *slog.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// contentSelectors are tried in order before falling back to body
// paragraphs.
var contentSelectors = []string{
	"article",
	"[role='main']",
	"main",
	".post-content",
	".article-content",
	".entry-content",
	".content",
}

// Extract fetches url and pulls out body text, top image, authors, and the
// publish date.
func (e *Extractor) Extract(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	res := &Result{
		TopImage:    topImage(doc),
		Authors:     authors(doc),
		PublishedAt: publishedAt(doc),
	}

	doc.Find("script, style, nav, footer, header, aside, .sidebar, .advertisement, .ads").Remove()
	res.Text = truncateRunes(bodyText(doc), maxBodyRunes)

	e.log.Debug("extracted article",
		slog.String("url", url),
		slog.Int("chars", len(res.Text)),
		slog.Int("authors", len(res.Authors)),
	)

	return res, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func bodyText(doc *goquery.Document) string {
	var sb strings.Builder

	for _, selector := range contentSelectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		selection.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		})
		break
	}

	// Fallback: all paragraphs
	if sb.Len() == 0 {
		doc.Find("body p").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 30 {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		})
	}

	return strings.TrimSpace(sb.String())
}

func topImage(doc *goquery.Document) string {
	for _, selector := range []string{
		"meta[property='og:image']",
		"meta[name='twitter:image']",
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func authors(doc *goquery.Document) []string {
	var found []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		name := strings.TrimSpace(raw)
		name = strings.TrimPrefix(name, "By ")
		name = strings.TrimPrefix(name, "by ")
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "http") || len(name) > 80 {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		found = append(found, name)
	}

	doc.Find("meta[name='author'], meta[property='article:author']").Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			add(content)
		}
	})
	doc.Find("[rel='author'], .byline, .author-name").Each(func(_ int, s *goquery.Selection) {
		add(s.Text())
	})

	return found
}

func publishedAt(doc *goquery.Document) *time.Time {
	var raw string
	if content, ok := doc.Find("meta[property='article:published_time']").First().Attr("content"); ok {
		raw = content
	} else if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		raw = datetime
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, format := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(format, raw); err == nil {
			return &ts
		}
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
