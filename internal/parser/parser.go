package parser

import (
	"github.com/fourmore/inventory-intake/internal/models"
)

// Parser turns a fetched page body into a best-effort ProductRecord. The
// baseURL is the final post-redirect URL; image resolution and the currency
// domain heuristics depend on it.
type Parser interface {
	ParseProductPage(html, baseURL string) (*models.ProductRecord, error)
}
