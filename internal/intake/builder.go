package intake

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fourmore/inventory-intake/internal/airtable"
)

// Schema maps intake concepts to Airtable column names. Bases differ, so the
// attachment columns are configurable; the rest matches the shared inventory
// base.
type Schema struct {
	SKU              string
	ItemName         string
	RetailPrice      string
	Quantity         string
	GTIN             string
	ShelfLocation    string
	Description      string
	InspectionNotes  string
	Brand            string
	ResalePrice      string
	Condition        string
	ItemType         string
	Store            string
	Auction          string
	ItemPhotos       string
	InspectionPhotos string
}

func DefaultSchema(itemPhotos, inspectionPhotos string) Schema {
	return Schema{
		SKU:              "SKU",
		ItemName:         "Item Name",
		RetailPrice:      "Unit Retail Price",
		Quantity:         "Quantity",
		GTIN:             "GTIN",
		ShelfLocation:    "Shelf Location",
		Description:      "Description",
		InspectionNotes:  "Inspection Notes",
		Brand:            "Brand",
		ResalePrice:      "4more Price",
		Condition:        "Condition",
		ItemType:         "Item Type",
		Store:            "4more Store",
		Auction:          "Auction No",
		ItemPhotos:       itemPhotos,
		InspectionPhotos: inspectionPhotos,
	}
}

// Submission is one filled-out intake form, scraped values included after any
// operator edits.
type Submission struct {
	SKU             string   `json:"sku"`
	Name            string   `json:"name"`
	Price           string   `json:"price"`
	Currency        string   `json:"currency"`
	Quantity        int      `json:"quantity"`
	GTIN            string   `json:"gtin"`
	ShelfLocation   string   `json:"shelf_location"`
	Description     string   `json:"description"`
	InspectionNotes string   `json:"inspection_notes"`
	Brand           string   `json:"brand"`
	Condition       string   `json:"condition"`
	Store           string   `json:"store"`
	AuctionID       string   `json:"auction_id"`
	Category        string   `json:"category"`
	Website         string   `json:"website"`
	SourceURL       string   `json:"source_url"`
	Weight          string   `json:"weight"`
	Dimensions      string   `json:"dimensions"`
	PhotoNotes      string   `json:"photo_notes"`
	ImageURLs       []string `json:"image_urls"`
	InspectionURLs  []string `json:"-"`
}

// Builder turns submissions into Airtable field maps.
type Builder struct {
	schema Schema
}

func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// Fields composes the Airtable row. String zero values survive here and are
// dropped by the client before sending.
func (b *Builder) Fields(sub Submission) airtable.Fields {
	fields := airtable.Fields{
		b.schema.SKU:             sub.SKU,
		b.schema.ItemName:        sub.Name,
		b.schema.GTIN:            sub.GTIN,
		b.schema.ShelfLocation:   sub.ShelfLocation,
		b.schema.Description:     b.describeWithContext(sub),
		b.schema.InspectionNotes: sub.InspectionNotes,
		b.schema.Brand:           sub.Brand,
		b.schema.Condition:       sub.Condition,
		b.schema.ItemType:        "Physical Goods",
		b.schema.Store:           sub.Store,
	}

	if sub.Quantity > 0 {
		fields[b.schema.Quantity] = sub.Quantity
	}

	if price, ok := parsePrice(sub.Price); ok {
		fields[b.schema.RetailPrice] = price
		fields[b.schema.ResalePrice] = ResalePrice(price, sub.Currency, sub.SourceURL)
	}

	if sub.AuctionID != "" {
		fields[b.schema.Auction] = []string{sub.AuctionID}
	}

	if len(sub.ImageURLs) > 0 {
		fields[b.schema.ItemPhotos] = attachments(sub.ImageURLs)
	}
	if len(sub.InspectionURLs) > 0 {
		fields[b.schema.InspectionPhotos] = attachments(sub.InspectionURLs)
	}

	return fields
}

// ResalePrice estimates the listing price from the retail price. eBay
// listings are already second-hand prices, so they get a smaller markup; USD
// retail gets the standard markup to land in CAD territory.
func ResalePrice(retail float64, currency, sourceURL string) float64 {
	switch {
	case strings.Contains(strings.ToLower(sourceURL), "ebay"):
		return round2(retail * 1.2)
	case strings.EqualFold(currency, "USD"):
		return round2(retail * 1.5)
	default:
		return retail
	}
}

// describeWithContext appends intake context the base has no columns for
// onto the description.
func (b *Builder) describeWithContext(sub Submission) string {
	var extra []string
	if sub.Category != "" {
		extra = append(extra, "Category: "+sub.Category)
	}
	if sub.Website != "" {
		extra = append(extra, "Website: "+sub.Website)
	}
	if n := len(sub.ImageURLs); n > 0 {
		extra = append(extra, fmt.Sprintf("Product images: %d", n))
	}
	if n := len(sub.InspectionURLs); n > 0 {
		extra = append(extra, fmt.Sprintf("Inspection photos: %d", n))
	}
	if sub.PhotoNotes != "" {
		extra = append(extra, "Photo notes: "+sub.PhotoNotes)
	}
	if sub.Currency != "" && !strings.EqualFold(sub.Currency, "CAD") {
		extra = append(extra, "Original currency: "+strings.ToUpper(sub.Currency))
	}
	if sub.Weight != "" && !strings.Contains(sub.Weight, "not found") {
		extra = append(extra, "Weight: "+sub.Weight)
	}
	if sub.Dimensions != "" && !strings.Contains(sub.Dimensions, "not found") {
		extra = append(extra, "Dimensions: "+sub.Dimensions)
	}
	if sub.SourceURL != "" {
		extra = append(extra, "Source: "+sub.SourceURL)
	}

	if len(extra) == 0 {
		return sub.Description
	}
	if sub.Description == "" {
		return strings.Join(extra, "\n")
	}
	return sub.Description + "\n\n" + strings.Join(extra, "\n")
}

func attachments(urls []string) []airtable.Attachment {
	out := make([]airtable.Attachment, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		out = append(out, airtable.Attachment{URL: u})
	}
	return out
}

func parsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" || strings.Contains(raw, "not found") {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
