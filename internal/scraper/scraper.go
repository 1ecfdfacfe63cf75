package scraper

import (
	"context"
	"errors"

	"github.com/fourmore/inventory-intake/internal/models"
)

var (
	// ErrTimeout is returned when the target site does not respond within
	// the configured deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork is returned for connection failures and non-success HTTP
	// statuses.
	ErrNetwork = errors.New("network error")
)

// Scraper fetches a product page and extracts a best-effort record from it.
// Implementations never fail on missing attributes; a record always comes
// back unless the fetch itself was unrecoverable.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (*models.ProductRecord, error)
}
