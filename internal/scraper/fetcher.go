package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fourmore/inventory-intake/internal/config"
	"github.com/fourmore/inventory-intake/internal/models"
)

// browserHeaders are sent with every request so the fetch resembles a real
// browser session. The User-Agent is drawn separately per fetcher instance.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// blockMarkers are case-insensitive body substrings that identify an
// anti-bot interstitial served with a 200 status.
var blockMarkers = []string{"robot check", "captcha"}

// Fetcher retrieves product pages with browser-like headers, a randomized
// per-instance User-Agent, and a polite delay before each request.
type Fetcher struct {
	client    *http.Client
	userAgent string
	delayMin  time.Duration
	delayMax  time.Duration
	rng       *rand.Rand
}

func NewFetcher(cfg config.ScraperConfig) *Fetcher {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgents[rng.Intn(len(cfg.UserAgents))],
		delayMin:  cfg.DelayMin,
		delayMax:  cfg.DelayMax,
		rng:       rng,
	}
}

// Fetch downloads the page at pageURL. It returns ErrTimeout when the
// deadline elapses and ErrNetwork for connection failures or non-success
// statuses. A successful fetch still inspects the body for anti-bot
// interstitials and reports them on the result rather than as an error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*models.FetchResult, error) {
	if err := f.politeDelay(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d from %s", ErrNetwork, resp.StatusCode, pageURL)
	}

	// Redirects are followed; record the URL actually served.
	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	result := &models.FetchResult{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	lower := strings.ToLower(result.Body)
	result.RobotCheck = strings.Contains(lower, blockMarkers[0])
	result.Captcha = strings.Contains(lower, blockMarkers[1])
	result.Blocked = result.RobotCheck || result.Captcha

	return result, nil
}

// politeDelay sleeps a uniform random duration in [delayMin, delayMax] so
// consecutive requests do not hammer the target.
func (f *Fetcher) politeDelay(ctx context.Context) error {
	if f.delayMax <= 0 {
		return nil
	}
	span := f.delayMax - f.delayMin
	delay := f.delayMin
	if span > 0 {
		delay += time.Duration(f.rng.Int63n(int64(span) + 1))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
