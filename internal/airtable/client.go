package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/fourmore/inventory-intake/internal/config"
)

const baseEndpoint = "https://api.airtable.com/v0"

// Error types Airtable returns for schema mismatches. Submissions surface
// these to the operator verbatim so field-name drift is diagnosable.
const (
	ErrTypeUnknownField = "UNKNOWN_FIELD_NAME"
	ErrTypeInvalidValue = "INVALID_VALUE_FOR_COLUMN"
)

// Fields is a record's field map as Airtable expects it.
type Fields map[string]any

// Attachment is the shape Airtable requires for attachment-type fields.
type Attachment struct {
	URL string `json:"url"`
}

// APIError carries Airtable's structured error response.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable: %s (%s, status %d)", e.Message, e.Type, e.StatusCode)
}

// Record is a created or listed Airtable record.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Auction is a row from the auctions table, reduced to what the intake form
// needs for its picker.
type Auction struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date,omitempty"`
	Status string `json:"status,omitempty"`
}

// Client talks to the Airtable REST API for one base.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseID       string
	table        string
	auctionTable string
}

func NewClient(cfg config.AirtableConfig) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		apiKey:       cfg.APIKey,
		baseID:       cfg.BaseID,
		table:        cfg.Table,
		auctionTable: cfg.AuctionTable,
	}
}

// Configured reports whether credentials are present. The service runs in
// scrape-only mode without them.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.baseID != ""
}

// CreateRecord inserts one row into the items table. Empty-string fields are
// dropped first; sending them trips validation on select and number columns.
func (c *Client) CreateRecord(ctx context.Context, fields Fields) (*Record, error) {
	cleaned := make(Fields, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		cleaned[k] = v
	}

	payload, err := json.Marshal(map[string]any{"fields": cleaned})
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", baseEndpoint, c.baseID, url.PathEscape(c.table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("airtable response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &record, nil
}

// auctionNameFields are probed in order; bases name the display column
// differently.
var auctionNameFields = []string{"Name", "Auction Name", "Auction No", "Title"}

// ListAuctions returns up to 100 auctions, newest first, for the intake
// form's picker.
func (c *Client) ListAuctions(ctx context.Context) ([]Auction, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", baseEndpoint, c.baseID, url.PathEscape(c.auctionTable))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("maxRecords", "100")
	q.Set("sort[0][field]", "Created")
	q.Set("sort[0][direction]", "desc")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("airtable response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var listing struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decoding auctions: %w", err)
	}

	auctions := make([]Auction, 0, len(listing.Records))
	for _, record := range listing.Records {
		auctions = append(auctions, Auction{
			ID:     record.ID,
			Name:   auctionName(record),
			Date:   fieldString(record, "Created", "Date", "Created At"),
			Status: fieldString(record, "Status"),
		})
	}
	return auctions, nil
}

func auctionName(record Record) string {
	if name := fieldString(record, auctionNameFields...); name != "" {
		return name
	}
	return record.ID
}

func fieldString(record Record, names ...string) string {
	for _, field := range names {
		if v, ok := record.Fields[field]; ok {
			switch value := v.(type) {
			case string:
				if value != "" {
					return value
				}
			case float64:
				return fmt.Sprintf("%v", value)
			}
		}
	}
	return ""
}

// TableStatus is the result of probing one table during a base check. Field
// names come from a single sample record; attachment fields are the ones
// whose sample value has Airtable's attachment shape.
type TableStatus struct {
	Table            string   `json:"table"`
	Reachable        bool     `json:"reachable"`
	Fields           []string `json:"fields,omitempty"`
	AttachmentFields []string `json:"attachment_fields,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// CheckBase probes the items and auctions tables with single-record reads so
// the operator can verify credentials, table names, and the attachment column
// names before submitting.
func (c *Client) CheckBase(ctx context.Context) []TableStatus {
	statuses := make([]TableStatus, 0, 2)
	for _, table := range []string{c.table, c.auctionTable} {
		status := TableStatus{Table: table, Reachable: true}
		sample, err := c.probeTable(ctx, table)
		if err != nil {
			status.Reachable = false
			status.Error = err.Error()
		} else if sample != nil {
			for name, value := range sample.Fields {
				status.Fields = append(status.Fields, name)
				if isAttachmentValue(value) {
					status.AttachmentFields = append(status.AttachmentFields, name)
				}
			}
			sort.Strings(status.Fields)
			sort.Strings(status.AttachmentFields)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (c *Client) probeTable(ctx context.Context, table string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?maxRecords=1", baseEndpoint, c.baseID, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("airtable response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var listing struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decoding sample: %w", err)
	}
	if len(listing.Records) == 0 {
		return nil, nil
	}
	return &listing.Records[0], nil
}

// isAttachmentValue reports whether a field value is a list of objects
// carrying a url key, which is how Airtable serializes attachments.
func isAttachmentValue(value any) bool {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return false
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return false
	}
	_, hasURL := first["url"]
	return hasURL
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Type: "UNKNOWN", Message: string(body)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var structured struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &structured); err == nil && structured.Message != "" {
			apiErr.Type = structured.Type
			apiErr.Message = structured.Message
			return apiErr
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil {
			apiErr.Message = plain
		}
	}
	return apiErr
}
