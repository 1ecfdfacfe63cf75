package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fourmore/inventory-intake/internal/airtable"
	"github.com/fourmore/inventory-intake/internal/intake"
	"github.com/fourmore/inventory-intake/internal/media"
	"github.com/fourmore/inventory-intake/internal/metrics"
	"github.com/fourmore/inventory-intake/internal/scraper"
)

//go:embed page.html
var intakePage []byte

// AuctionLister is the slice of the Airtable client the auction picker needs.
type AuctionLister interface {
	ListAuctions(ctx context.Context) ([]airtable.Auction, error)
	CreateRecord(ctx context.Context, fields airtable.Fields) (*airtable.Record, error)
	CheckBase(ctx context.Context) []airtable.TableStatus
	Configured() bool
}

type Handlers struct {
	scraper  scraper.Scraper
	airtable AuctionLister
	uploader media.Uploader
	builder  *intake.Builder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewHandlers(s scraper.Scraper, at AuctionLister, up media.Uploader, b *intake.Builder, m *metrics.Metrics, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper:  s,
		airtable: at,
		uploader: up,
		builder:  b,
		metrics:  m,
		logger:   logger.With("component", "api"),
	}
}

// Index serves the intake form.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(intakePage)
}

// ScrapeRequest asks for a best-effort extraction of one product page.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// Scrape fetches and parses a product page. Blocked and timed-out pages come
// back as 200s with placeholder records; only malformed input and hard fetch
// failures are errors.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pageURL := strings.TrimSpace(req.URL)
	if pageURL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if parsed, err := url.Parse(pageURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		h.respondError(w, http.StatusBadRequest, "url must be http or https")
		return
	}

	record, err := h.scraper.Scrape(r.Context(), pageURL)
	if err != nil {
		h.logger.Error("scrape failed", "url", pageURL, "error", err)
		h.respondError(w, http.StatusBadGateway, "failed to fetch product page: "+err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// SubmitResponse reports the created inventory record.
type SubmitResponse struct {
	Success  bool   `json:"success"`
	RecordID string `json:"record_id,omitempty"`
	Uploaded int    `json:"inspection_photos_uploaded"`
	Error    string `json:"error,omitempty"`
}

// Submit accepts a multipart form with a "submission" JSON part and zero or
// more "inspection_photos" files, uploads the photos, and creates the
// inventory record.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.airtable.Configured() {
		h.respondError(w, http.StatusServiceUnavailable, "airtable is not configured")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var sub intake.Submission
	if err := json.Unmarshal([]byte(r.FormValue("submission")), &sub); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid submission payload")
		return
	}
	if strings.TrimSpace(sub.Name) == "" {
		h.respondError(w, http.StatusBadRequest, "item name is required")
		return
	}

	uploaded, failed := 0, 0
	if r.MultipartForm != nil && h.uploader.Enabled() {
		for _, header := range r.MultipartForm.File["inspection_photos"] {
			file, err := header.Open()
			if err != nil {
				h.logger.Error("opening photo failed", "filename", header.Filename, "error", err)
				h.metrics.IncUpload("error")
				failed++
				continue
			}
			photoURL, err := h.uploader.Upload(r.Context(), file, header.Filename)
			file.Close()
			if err != nil {
				h.logger.Error("photo upload failed", "filename", header.Filename, "error", err)
				h.metrics.IncUpload("error")
				failed++
				continue
			}
			sub.InspectionURLs = append(sub.InspectionURLs, photoURL)
			h.metrics.IncUpload("ok")
			uploaded++
		}
	}
	if failed > 0 {
		note := fmt.Sprintf("%d inspection photo(s) failed to upload", failed)
		if sub.PhotoNotes != "" {
			note = sub.PhotoNotes + "; " + note
		}
		sub.PhotoNotes = note
	}

	record, err := h.airtable.CreateRecord(r.Context(), h.builder.Fields(sub))
	if err != nil {
		h.metrics.IncSubmission("error")
		var apiErr *airtable.APIError
		if errors.As(err, &apiErr) {
			h.logger.Error("airtable rejected record",
				"type", apiErr.Type, "message", apiErr.Message, "status", apiErr.StatusCode)
			h.respondJSON(w, http.StatusUnprocessableEntity, SubmitResponse{
				Uploaded: uploaded,
				Error:    apiErr.Type + ": " + apiErr.Message,
			})
			return
		}
		h.logger.Error("submit failed", "error", err)
		h.respondError(w, http.StatusBadGateway, "failed to create record: "+err.Error())
		return
	}

	h.metrics.IncSubmission("ok")
	h.logger.Info("record created", "record_id", record.ID, "photos", uploaded)
	h.respondJSON(w, http.StatusOK, SubmitResponse{
		Success:  true,
		RecordID: record.ID,
		Uploaded: uploaded,
	})
}

// GetAuctions returns the auctions for the intake form's picker.
func (h *Handlers) GetAuctions(w http.ResponseWriter, r *http.Request) {
	if !h.airtable.Configured() {
		h.respondJSON(w, http.StatusOK, map[string]any{"auctions": []airtable.Auction{}})
		return
	}

	auctions, err := h.airtable.ListAuctions(r.Context())
	if err != nil {
		h.logger.Error("listing auctions failed", "error", err)
		h.respondError(w, http.StatusBadGateway, "failed to list auctions: "+err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"auctions": auctions})
}

// CheckConfig reports which integrations are usable so the operator can
// diagnose a misconfigured deployment from the browser.
func (h *Handlers) CheckConfig(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"airtable_configured": h.airtable.Configured(),
		"uploads_enabled":     h.uploader.Enabled(),
	}
	if h.airtable.Configured() {
		status["tables"] = h.airtable.CheckBase(r.Context())
	}
	h.respondJSON(w, http.StatusOK, status)
}

// Health is the liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
