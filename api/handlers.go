package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/newscope/news-scraper/backend/internal/cache"
	"github.com/newscope/news-scraper/backend/internal/config"
	"github.com/newscope/news-scraper/backend/internal/extract"
	"github.com/newscope/news-scraper/backend/internal/gnews"
	"github.com/newscope/news-scraper/backend/internal/models"
)

type newsSearcher interface {
	Search(ctx context.Context, f gnews.SearchFilters) ([]models.Article, error)
}

type linkDecoder interface {
	Decode(ctx context.Context, rawURL string) (string, error)
}

type pageExtractor interface {
	Extract(ctx context.Context, pageURL string) (*extract.Result, error)
}

type server struct {
	log     *slog.Logger
	cfg     *config.API
	news    newsSearcher
	links   linkDecoder
	pages   pageExtractor
	results *cache.Cache
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "News Scraper API",
		"version": "1.0.0",
		"available_endpoints": []map[string]string{
			{"path": "/", "method": "GET", "description": "This information page"},
			{"path": "/news/{query}", "method": "GET", "description": "Search news articles"},
			{"path": "/options", "method": "GET", "description": "Supported languages, countries and periods"},
			{"path": "/decode", "method": "POST", "description": "Decode a Google News article link"},
			{"path": "/health", "method": "GET", "description": "Health check"},
		},
		"usage": "GET /news/your_search_query?language=en&country=US&period=7d",
	})
}

func (s *server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": gnews.Languages,
		"countries": gnews.Countries,
		"periods":   gnews.Periods,
	})
}

func (s *server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":               "endpoint not found",
		"available_endpoints": []string{"/", "/news/{query}", "/options", "/decode", "/health"},
	})
}

func (s *server) handleNews(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(chi.URLParam(r, "query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}

	filters, err := s.parseFilters(query, r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := filters.CacheKey()
	if cached, ok := s.results.Get(key); ok {
		s.log.Debug("cache hit", slog.String("key", key))
		writeJSON(w, http.StatusOK, cached)
		return
	}

	searchCtx, cancel := context.WithTimeout(r.Context(), s.cfg.SearchTimeout)
	defer cancel()

	articles, err := s.news.Search(searchCtx, filters)
	if err != nil {
		s.log.Error("search failed", slog.Any("err", err), slog.String("query", filters.Query))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "error fetching news from source"})
		return
	}

	if filters.Detailed {
		for i := range articles {
			s.enrich(r.Context(), &articles[i])
		}
	}

	// Byline detection runs for every article, enriched or not: even a
	// bare search hit can carry the journalist in its title.
	for i := range articles {
		a := &articles[i]
		if a.Journalist == "Not specified" {
			if name := extract.Byline(a.Title, a.FullText); name != "" {
				a.Journalist = name
			}
		}
	}

	if articles == nil {
		articles = []models.Article{}
	}

	s.results.Set(key, articles)
	writeJSON(w, http.StatusOK, articles)
}

func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no url provided"})
		return
	}
	if !gnews.IsGoogleNewsLink(payload.URL) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "not a google news article url"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()

	decoded, err := s.links.Decode(ctx, payload.URL)
	if err != nil {
		s.log.Error("decode failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"decoded_url": decoded})
}

// parseFilters validates and clamps the query parameters of a /news
// request into an immutable filter set.
func (s *server) parseFilters(query string, q url.Values) (gnews.SearchFilters, error) {
	f := gnews.SearchFilters{
		Query:       query,
		MaxArticles: clampArticles(q.Get("articles"), s.cfg.MaxArticles),
		Detailed:    parseBool(q.Get("detailed"), true),
	}

	lang := strings.TrimSpace(q.Get("language"))
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	canonical, ok := gnews.NormalizeLanguage(lang)
	if !ok {
		return f, fmt.Errorf("unsupported language %q", lang)
	}
	f.Language = canonical

	country := strings.TrimSpace(q.Get("country"))
	if country == "" {
		country = s.cfg.DefaultCountry
	}
	canonical, ok = gnews.NormalizeCountry(country)
	if !ok {
		return f, fmt.Errorf("unsupported country %q", country)
	}
	f.Country = canonical

	period := strings.TrimSpace(q.Get("period"))
	if period == "" {
		period = s.cfg.DefaultPeriod
	}
	canonical, ok = gnews.NormalizePeriod(period)
	if !ok {
		return f, fmt.Errorf("unsupported period %q", period)
	}
	f.Period = canonical

	return f, nil
}

// enrich fetches the article page and merges the extracted content into a.
// Failures are tolerated: the search hit goes out unenriched.
func (s *server) enrich(ctx context.Context, a *models.Article) {
	link := a.Link
	if link == "" {
		return
	}

	if gnews.IsGoogleNewsLink(link) {
		dctx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
		decoded, err := s.links.Decode(dctx, link)
		cancel()
		if err != nil {
			s.log.Warn("decode link failed", slog.String("link", link), slog.Any("err", err))
		} else {
			link = decoded
		}
	}

	ectx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()

	res, err := s.pages.Extract(ectx, link)
	if err != nil {
		s.log.Warn("extract failed", slog.String("link", link), slog.Any("err", err))
		return
	}

	if res.Text != "" {
		a.FullText = res.Text
		switch descLen := len([]rune(a.Description)); {
		case descLen < 100:
			a.Description = truncateRunes(res.Text, 400) + "..."
		case descLen < 250:
			a.Description = a.Description + "\n\n" + truncateRunes(res.Text, 200) + "..."
		}
	}

	if res.TopImage != "" {
		a.ImageURL = res.TopImage
	}

	if len(res.Authors) > 0 {
		authors := res.Authors
		if len(authors) > 3 {
			authors = authors[:3]
		}
		a.Authors = authors
		a.Journalist = strings.Join(authors, ", ")
	}

	if res.PublishedAt != nil && a.Date == "Unknown" {
		a.Date = res.PublishedAt.UTC().Format("2006-01-02")
	}

	// Keywords only make sense when there is body text to derive them from.
	if res.Text != "" {
		if kws := extract.Keywords(a.Title+" "+res.Text, 10, 4); len(kws) > 0 {
			a.Keywords = kws
		}
	}
}

func clampArticles(raw string, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return max
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return max
	}
	if value < 1 {
		return 1
	}
	if value > max {
		return max
	}
	return value
}

func parseBool(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	return strings.EqualFold(raw, "true")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
