package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourmore/inventory-intake/internal/airtable"
	"github.com/fourmore/inventory-intake/internal/intake"
	"github.com/fourmore/inventory-intake/internal/models"
)

type fakeScraper struct {
	record *models.ProductRecord
	err    error
	gotURL string
}

func (f *fakeScraper) Scrape(ctx context.Context, pageURL string) (*models.ProductRecord, error) {
	f.gotURL = pageURL
	return f.record, f.err
}

type fakeAirtable struct {
	configured bool
	auctions   []airtable.Auction
	created    airtable.Fields
	createErr  error
	statuses   []airtable.TableStatus
}

func (f *fakeAirtable) ListAuctions(ctx context.Context) ([]airtable.Auction, error) {
	return f.auctions, nil
}

func (f *fakeAirtable) CreateRecord(ctx context.Context, fields airtable.Fields) (*airtable.Record, error) {
	f.created = fields
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &airtable.Record{ID: "recNEW1", Fields: fields}, nil
}

func (f *fakeAirtable) CheckBase(ctx context.Context) []airtable.TableStatus {
	return f.statuses
}

func (f *fakeAirtable) Configured() bool { return f.configured }

type fakeUploader struct {
	enabled bool
	urls    []string
	count   int
}

func (f *fakeUploader) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	u := f.urls[f.count%len(f.urls)]
	f.count++
	return u, nil
}

func (f *fakeUploader) Enabled() bool { return f.enabled }

func newTestHandlers(s *fakeScraper, at *fakeAirtable, up *fakeUploader) *Handlers {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	builder := intake.NewBuilder(intake.DefaultSchema("Item Photos", "Inspection Photos"))
	return NewHandlers(s, at, up, builder, nil, logger)
}

func TestScrape_ReturnsRecord(t *testing.T) {
	record := models.NewProductRecord("https://www.amazon.ca/dp/B000")
	record.Name = "Acme Widget"
	s := &fakeScraper{record: record}
	h := newTestHandlers(s, &fakeAirtable{}, &fakeUploader{})

	req := httptest.NewRequest(http.MethodPost, "/scrape",
		strings.NewReader(`{"url":"https://www.amazon.ca/dp/B000"}`))
	rec := httptest.NewRecorder()
	h.Scrape(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://www.amazon.ca/dp/B000", s.gotURL)

	var got models.ProductRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme Widget", got.Name)
}

func TestScrape_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing url", `{}`},
		{"blank url", `{"url":"   "}`},
		{"non-http scheme", `{"url":"ftp://example.com/x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&fakeScraper{}, &fakeAirtable{}, &fakeUploader{})
			req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Scrape(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func multipartSubmission(t *testing.T, sub intake.Submission, photos int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	payload, err := json.Marshal(sub)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("submission", string(payload)))

	for i := 0; i < photos; i++ {
		part, err := writer.CreateFormFile("inspection_photos", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestSubmit_CreatesRecordWithPhotos(t *testing.T) {
	at := &fakeAirtable{configured: true}
	up := &fakeUploader{enabled: true, urls: []string{"https://media/insp1.jpg", "https://media/insp2.jpg"}}
	h := newTestHandlers(&fakeScraper{}, at, up)

	body, contentType := multipartSubmission(t, intake.Submission{
		Name:  "Acme Widget",
		Price: "24.99",
	}, 2)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "recNEW1", resp.RecordID)
	assert.Equal(t, 2, resp.Uploaded)

	assert.Equal(t, "Acme Widget", at.created["Item Name"])
	attachments, ok := at.created["Inspection Photos"].([]airtable.Attachment)
	require.True(t, ok)
	assert.Len(t, attachments, 2)
}

func TestSubmit_RequiresAirtable(t *testing.T) {
	h := newTestHandlers(&fakeScraper{}, &fakeAirtable{configured: false}, &fakeUploader{})
	body, contentType := multipartSubmission(t, intake.Submission{Name: "Widget"}, 0)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmit_RequiresName(t *testing.T) {
	h := newTestHandlers(&fakeScraper{}, &fakeAirtable{configured: true}, &fakeUploader{})
	body, contentType := multipartSubmission(t, intake.Submission{SKU: "X"}, 0)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_SurfacesSchemaErrors(t *testing.T) {
	at := &fakeAirtable{
		configured: true,
		createErr: &airtable.APIError{
			StatusCode: 422,
			Type:       airtable.ErrTypeUnknownField,
			Message:    `Unknown field name: "Wrong Field"`,
		},
	}
	h := newTestHandlers(&fakeScraper{}, at, &fakeUploader{})

	body, contentType := multipartSubmission(t, intake.Submission{Name: "Widget"}, 0)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, airtable.ErrTypeUnknownField)
	assert.Contains(t, resp.Error, "Wrong Field")
}

func TestGetAuctions(t *testing.T) {
	t.Run("unconfigured returns empty list", func(t *testing.T) {
		h := newTestHandlers(&fakeScraper{}, &fakeAirtable{configured: false}, &fakeUploader{})
		req := httptest.NewRequest(http.MethodGet, "/get-auctions", nil)
		rec := httptest.NewRecorder()
		h.GetAuctions(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"auctions":[]}`, rec.Body.String())
	})

	t.Run("configured returns auctions", func(t *testing.T) {
		at := &fakeAirtable{
			configured: true,
			auctions:   []airtable.Auction{{ID: "rec1", Name: "Auction 42"}},
		}
		h := newTestHandlers(&fakeScraper{}, at, &fakeUploader{})
		req := httptest.NewRequest(http.MethodGet, "/get-auctions", nil)
		rec := httptest.NewRecorder()
		h.GetAuctions(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Auctions []airtable.Auction `json:"auctions"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Auctions, 1)
		assert.Equal(t, "Auction 42", resp.Auctions[0].Name)
	})
}

func TestCheckConfig(t *testing.T) {
	at := &fakeAirtable{
		configured: true,
		statuses: []airtable.TableStatus{
			{Table: "Items", Reachable: true},
			{Table: "Auctions", Reachable: false, Error: "not authorized"},
		},
	}
	h := newTestHandlers(&fakeScraper{}, at, &fakeUploader{enabled: true})

	req := httptest.NewRequest(http.MethodGet, "/check-config", nil)
	rec := httptest.NewRecorder()
	h.CheckConfig(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AirtableConfigured bool                   `json:"airtable_configured"`
		UploadsEnabled     bool                   `json:"uploads_enabled"`
		Tables             []airtable.TableStatus `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AirtableConfigured)
	assert.True(t, resp.UploadsEnabled)
	require.Len(t, resp.Tables, 2)
	assert.False(t, resp.Tables[1].Reachable)
}

func TestIndex_ServesIntakePage(t *testing.T) {
	h := newTestHandlers(&fakeScraper{}, &fakeAirtable{}, &fakeUploader{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Inventory Intake")
}
