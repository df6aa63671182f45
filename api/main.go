package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"

	"github.com/newscope/news-scraper/backend/internal/cache"
	"github.com/newscope/news-scraper/backend/internal/config"
	"github.com/newscope/news-scraper/backend/internal/extract"
	"github.com/newscope/news-scraper/backend/internal/gnews"
	"github.com/newscope/news-scraper/backend/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	srv := &server{
		log:     log,
		cfg:     cfg,
		news:    gnews.NewClient(cfg.SearchTimeout, log),
		links:   gnews.NewDecoder(cfg.ExtractTimeout, log),
		pages:   extract.NewExtractor(cfg.ExtractTimeout, log),
		results: cache.New(cfg.CacheCapacity, cfg.CacheTTL),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(httprate.LimitByIP(cfg.GlobalRateLimit, time.Hour))

	r.Get("/", srv.handleIndex)
	r.Get("/health", srv.handleHealth)
	r.Get("/options", srv.handleOptions)
	r.Post("/decode", srv.handleDecode)

	// The news endpoint fans out to the article pages, so it gets a
	// stricter per-IP budget.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.NewsRateLimit, time.Minute))
		r.Get("/news/{query}", srv.handleNews)
	})

	r.NotFound(srv.handleNotFound)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute, // detailed requests extract up to 30 pages
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
