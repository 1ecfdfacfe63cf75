package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fourmore/inventory-intake/internal/airtable"
	"github.com/fourmore/inventory-intake/internal/api"
	"github.com/fourmore/inventory-intake/internal/config"
	"github.com/fourmore/inventory-intake/internal/intake"
	"github.com/fourmore/inventory-intake/internal/media"
	"github.com/fourmore/inventory-intake/internal/metrics"
	"github.com/fourmore/inventory-intake/internal/parser"
	"github.com/fourmore/inventory-intake/internal/scraper"
)

func main() {
	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if level := parseLogLevel(cfg.Logging.Level); level != slog.LevelInfo {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Scraping pipeline
	fetcher := scraper.NewFetcher(cfg.Scraper)
	productScraper := scraper.NewProductScraper(fetcher, parser.NewProductParser(), m, logger)

	// Airtable client runs in scrape-only mode without credentials
	airtableClient := airtable.NewClient(cfg.Airtable)
	if !airtableClient.Configured() {
		logger.Warn("airtable credentials missing, submissions disabled")
	}

	uploader, err := media.NewCloudinaryUploader(cfg.Media, logger)
	if err != nil {
		logger.Error("failed to initialize photo uploads", "error", err)
		os.Exit(1)
	}

	builder := intake.NewBuilder(intake.DefaultSchema(cfg.Intake.PhotosField, cfg.Intake.InspectionPhotosField))

	handlers := api.NewHandlers(productScraper, airtableClient, uploader, builder, m, logger)

	// Setup Chi router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Get("/", handlers.Index)
	r.Post("/scrape", handlers.Scrape)
	r.Post("/submit", handlers.Submit)
	r.Get("/get-auctions", handlers.GetAuctions)
	r.Get("/check-config", handlers.CheckConfig)
	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("inventory intake listening", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
