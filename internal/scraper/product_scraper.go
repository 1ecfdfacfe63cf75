package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fourmore/inventory-intake/internal/metrics"
	"github.com/fourmore/inventory-intake/internal/models"
	"github.com/fourmore/inventory-intake/internal/parser"
)

// ProductScraper runs the fetch-then-parse pipeline. Blocked pages and
// timeouts degrade to placeholder records instead of errors so the caller can
// always hand the operator something to edit.
type ProductScraper struct {
	fetcher *Fetcher
	parser  parser.Parser
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewProductScraper(fetcher *Fetcher, p parser.Parser, m *metrics.Metrics, logger *slog.Logger) *ProductScraper {
	return &ProductScraper{
		fetcher: fetcher,
		parser:  p,
		metrics: m,
		logger:  logger.With("component", "product_scraper"),
	}
}

func (s *ProductScraper) Scrape(ctx context.Context, pageURL string) (*models.ProductRecord, error) {
	start := time.Now()

	result, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			s.logger.Warn("scrape timed out", "url", pageURL, "elapsed", time.Since(start))
			s.metrics.ObserveScrape(metrics.OutcomeTimeout, time.Since(start))
			return timeoutRecord(pageURL), nil
		}
		s.logger.Error("scrape failed", "url", pageURL, "error", err)
		s.metrics.ObserveScrape(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	if result.Blocked {
		s.logger.Warn("scrape blocked",
			"url", pageURL,
			"status", result.StatusCode,
			"robot_check", result.RobotCheck,
			"captcha", result.Captcha)
		s.metrics.ObserveScrape(metrics.OutcomeBlocked, time.Since(start))
		return blockedRecord(result), nil
	}

	// Redirects may have landed elsewhere; the served URL drives the
	// source field and the domain heuristics.
	record, err := s.parser.ParseProductPage(result.Body, result.URL)
	if err != nil {
		s.logger.Error("parse failed", "url", pageURL, "error", err)
		s.metrics.ObserveScrape(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	s.logger.Info("scrape complete",
		"url", pageURL,
		"name_found", record.Name != models.NameNotFound,
		"price_found", record.Price != models.PriceNotFound,
		"images", len(record.Images),
		"elapsed", time.Since(start))
	s.metrics.ObserveScrape(metrics.OutcomeOK, time.Since(start))

	return record, nil
}

// blockedRecord builds the placeholder returned when the site served an
// anti-bot interstitial. The currency is pre-seeded from the domain so the
// operator has one less field to fix.
func blockedRecord(result *models.FetchResult) *models.ProductRecord {
	record := models.NewProductRecord(result.URL)
	record.Description = "The site blocked automated access. Please enter details manually."
	record.Currency = currencyForHost(result.URL)

	blocked := true
	record.Blocked = &blocked
	record.Message = "Automated access blocked"
	record.DebugInfo = &models.DebugInfo{
		Status:         result.StatusCode,
		ResponseLength: len(result.Body),
		RobotCheck:     result.RobotCheck,
		Captcha:        result.Captcha,
	}
	return record
}

// timeoutRecord builds the placeholder returned when the site never answered.
// Unlike the blocked record it carries no blocked flag, only an error note.
func timeoutRecord(pageURL string) *models.ProductRecord {
	record := models.NewProductRecord(pageURL)
	record.Description = "Request timed out. The site may be slow or blocking automated access."
	record.Error = "Request timed out"
	return record
}

func currencyForHost(pageURL string) string {
	host := strings.ToLower(pageURL)
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}
	if strings.HasSuffix(host, ".ca") || strings.Contains(host, ".ca/") {
		return "CAD"
	}
	return "USD"
}
