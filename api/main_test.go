package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/newscope/news-scraper/backend/internal/cache"
	"github.com/newscope/news-scraper/backend/internal/config"
	"github.com/newscope/news-scraper/backend/internal/extract"
	"github.com/newscope/news-scraper/backend/internal/gnews"
	"github.com/newscope/news-scraper/backend/internal/models"
)

type stubSearcher struct {
	articles []models.Article
	err      error
	calls    int
	filters  gnews.SearchFilters
}

func (s *stubSearcher) Search(_ context.Context, f gnews.SearchFilters) ([]models.Article, error) {
	s.calls++
	s.filters = f
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Article, len(s.articles))
	copy(out, s.articles)
	return out, nil
}

type stubDecoder struct {
	url string
	err error
}

func (s *stubDecoder) Decode(_ context.Context, _ string) (string, error) {
	return s.url, s.err
}

type stubExtractor struct {
	res   *extract.Result
	err   error
	calls int
	urls  []string
}

func (s *stubExtractor) Extract(_ context.Context, pageURL string) (*extract.Result, error) {
	s.calls++
	s.urls = append(s.urls, pageURL)
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func testConfig() *config.API {
	return &config.API{
		BindAddr:        ":0",
		DefaultLanguage: "en",
		DefaultCountry:  "IN",
		DefaultPeriod:   "1d",
		MaxArticles:     30,
		CacheTTL:        time.Minute,
		CacheCapacity:   16,
		SearchTimeout:   time.Second,
		ExtractTimeout:  time.Second,
		GlobalRateLimit: 100,
		NewsRateLimit:   5,
		CORSOrigins:     []string{"*"},
	}
}

func newTestServer(news newsSearcher, links linkDecoder, pages pageExtractor) *server {
	cfg := testConfig()
	return &server{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:     cfg,
		news:    news,
		links:   links,
		pages:   pages,
		results: cache.New(cfg.CacheCapacity, cfg.CacheTTL),
	}
}

func newTestRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/options", s.handleOptions)
	r.Get("/news/{query}", s.handleNews)
	r.Post("/decode", s.handleDecode)
	r.NotFound(s.handleNotFound)
	return r
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestParseFilters(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})

	tests := []struct {
		name  string
		query string
		want  gnews.SearchFilters
	}{
		{
			name:  "defaults",
			query: "",
			want: gnews.SearchFilters{
				Query: "golang", Language: "en", Country: "IN", Period: "1d",
				MaxArticles: 30, Detailed: true,
			},
		},
		{
			name:  "articles above max clamped",
			query: "articles=99",
			want: gnews.SearchFilters{
				Query: "golang", Language: "en", Country: "IN", Period: "1d",
				MaxArticles: 30, Detailed: true,
			},
		},
		{
			name:  "articles below one clamped",
			query: "articles=0",
			want: gnews.SearchFilters{
				Query: "golang", Language: "en", Country: "IN", Period: "1d",
				MaxArticles: 1, Detailed: true,
			},
		},
		{
			name:  "articles unparseable falls back",
			query: "articles=lots",
			want: gnews.SearchFilters{
				Query: "golang", Language: "en", Country: "IN", Period: "1d",
				MaxArticles: 30, Detailed: true,
			},
		},
		{
			name:  "explicit filters",
			query: "articles=5&detailed=false&language=HI&country=us&period=7d",
			want: gnews.SearchFilters{
				Query: "golang", Language: "hi", Country: "US", Period: "7d",
				MaxArticles: 5, Detailed: false,
			},
		},
		{
			name:  "detailed anything but true is false",
			query: "detailed=yes",
			want: gnews.SearchFilters{
				Query: "golang", Language: "en", Country: "IN", Period: "1d",
				MaxArticles: 30, Detailed: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/news/golang?"+tt.query, nil)
			got, err := s.parseFilters("golang", req.URL.Query())
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseFiltersRejectsUnknownValues(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})

	for _, query := range []string{
		"language=klingon",
		"country=XX",
		"period=2y",
	} {
		req := httptest.NewRequest(http.MethodGet, "/news/golang?"+query, nil)
		_, err := s.parseFilters("golang", req.URL.Query())
		require.Error(t, err, query)
	}
}

func TestHandleNewsDetailedMergesExtraction(t *testing.T) {
	published := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	searcher := &stubSearcher{articles: []models.Article{{
		ID:          "abc",
		Title:       "Budget passes - Example Times",
		Description: "short",
		Date:        "Unknown",
		Link:        "https://news.google.com/rss/articles/token123",
		Publication: "Example Times",
		Journalist:  "Not specified",
	}}}
	extractorStub := &stubExtractor{res: &extract.Result{
		Text:        "The parliament passed the budget today after a marathon session about spending priorities.",
		TopImage:    "https://example.com/img.jpg",
		Authors:     []string{"Asha Rao", "Vikram Seth", "Lena Koch", "Extra Author"},
		PublishedAt: &published,
	}}
	s := newTestServer(searcher, &stubDecoder{url: "https://example.com/story"}, extractorStub)
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)

	a := got[0]
	require.Equal(t, 1, extractorStub.calls)
	// decoded publisher URL is fetched, not the redirect
	require.Equal(t, []string{"https://example.com/story"}, extractorStub.urls)
	// the response keeps the original search-result link
	require.Equal(t, "https://news.google.com/rss/articles/token123", a.Link)

	require.Contains(t, a.FullText, "parliament passed the budget")
	require.True(t, strings.HasSuffix(a.Description, "..."))
	require.Contains(t, a.Description, "parliament")
	require.Equal(t, "https://example.com/img.jpg", a.ImageURL)
	require.Equal(t, []string{"Asha Rao", "Vikram Seth", "Lena Koch"}, a.Authors)
	require.Equal(t, "Asha Rao, Vikram Seth, Lena Koch", a.Journalist)
	require.Equal(t, "2024-05-06", a.Date)
	require.NotEmpty(t, a.Keywords)
	require.LessOrEqual(t, len(a.Keywords), 10)
}

func TestHandleNewsDetailedFalseSkipsExtraction(t *testing.T) {
	searcher := &stubSearcher{articles: []models.Article{{
		Title: "t", Link: "https://example.com/a", Journalist: "Not specified",
	}}}
	extractorStub := &stubExtractor{}
	s := newTestServer(searcher, &stubDecoder{}, extractorStub)
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget?detailed=false")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, extractorStub.calls)
}

func TestHandleNewsExtractionFailureTolerated(t *testing.T) {
	searcher := &stubSearcher{articles: []models.Article{{
		Title: "Report by Anita Desai - Example Times", Description: "d",
		Date: "Unknown", Link: "https://example.com/a", Journalist: "Not specified",
	}}}
	s := newTestServer(searcher, &stubDecoder{}, &stubExtractor{err: context.DeadlineExceeded})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Empty(t, got[0].FullText)
	// byline fallback still runs on the title
	require.Equal(t, "Anita Desai", got[0].Journalist)
}

func TestHandleNewsNonDetailedBylineFromTitle(t *testing.T) {
	searcher := &stubSearcher{articles: []models.Article{{
		Title: "Market wrap, by Anita Desai - Example Times", Description: "d",
		Link: "https://example.com/a", Journalist: "Not specified",
	}}}
	extractorStub := &stubExtractor{}
	s := newTestServer(searcher, &stubDecoder{}, extractorStub)
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/markets?detailed=false")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, extractorStub.calls)

	var got []models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "Anita Desai", got[0].Journalist)
}

func TestHandleNewsDescriptionThresholdCountsRunes(t *testing.T) {
	// 40 Devanagari characters take 120 bytes; the short-description
	// replacement must still kick in below 100 characters.
	searcher := &stubSearcher{articles: []models.Article{{
		Title: "t", Description: strings.Repeat("न", 40),
		Date: "Unknown", Link: "https://example.com/a", Journalist: "Not specified",
	}}}
	body := "The parliament passed the budget today."
	s := newTestServer(searcher, &stubDecoder{}, &stubExtractor{res: &extract.Result{Text: body}})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, body+"...", got[0].Description)
	require.NotContains(t, got[0].Description, "न")
}

func TestHandleNewsNoBodyNoKeywords(t *testing.T) {
	searcher := &stubSearcher{articles: []models.Article{{
		Title: "Budget vote scheduled for next parliament session", Description: "d",
		Date: "Unknown", Link: "https://example.com/a", Journalist: "Not specified",
	}}}
	s := newTestServer(searcher, &stubDecoder{}, &stubExtractor{res: &extract.Result{
		TopImage: "https://example.com/img.jpg",
	}})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "https://example.com/img.jpg", got[0].ImageURL)
	require.Empty(t, got[0].FullText)
	require.Empty(t, got[0].Keywords)
}

func TestHandleNewsEmptyResultIsEmptyArray(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/nothing")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleNewsUpstreamFailure(t *testing.T) {
	s := newTestServer(&stubSearcher{err: context.DeadlineExceeded}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Error)
}

func TestHandleNewsBadParams(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget?language=klingon")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNewsServesCachedResult(t *testing.T) {
	searcher := &stubSearcher{articles: []models.Article{{Title: "t", Journalist: "Not specified"}}}
	s := newTestServer(searcher, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/news/budget?detailed=false")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doGet(t, h, "/news/budget?detailed=false")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, searcher.calls)

	// a different filter set misses the cache
	rec = doGet(t, h, "/news/budget?detailed=false&articles=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, searcher.calls)
}

func TestHandleOptions(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/options")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Languages map[string]string `json:"languages"`
		Countries map[string]string `json:"countries"`
		Periods   map[string]string `json:"periods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "English", got.Languages["en"])
	require.Equal(t, "India", got.Countries["IN"])
	require.Equal(t, "Past day", got.Periods["1d"])

	// output is static
	again := doGet(t, h, "/options")
	require.Equal(t, rec.Body.String(), again.Body.String())
}

func TestHandleDecode(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{url: "https://example.com/story"}, &stubExtractor{})
	h := newTestRouter(s)

	body := `{"url":"https://news.google.com/rss/articles/token"}`
	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "https://example.com/story", got["decoded_url"])
}

func TestHandleDecodeBadRequests(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	for _, body := range []string{
		``,
		`{}`,
		`{"url":"https://example.com/not-google"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestHandleHealthAndIndex(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = doGet(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "News Scraper API")
}

func TestHandleNotFound(t *testing.T) {
	s := newTestServer(&stubSearcher{}, &stubDecoder{}, &stubExtractor{})
	h := newTestRouter(s)

	rec := doGet(t, h, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "endpoint not found")
}
