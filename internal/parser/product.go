package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fourmore/inventory-intake/internal/models"
)

// Each extractor walks an ordered strategy list from most-specific to
// most-generic and returns on the first hit; structured metadata outranks
// visual selectors, and site-specific selectors outrank generic ones. Nothing
// propagates an error upward; a miss degrades to the field's sentinel.

// nameSelectors are ordered site-specific first, generic last.
var nameSelectors = []string{
	"span#productTitle",
	"h1#title span",
	"h1.a-size-large",
	`h1[data-automation-id="title"]`,
	"h1",
	`[itemprop="name"]`,
	".product-name",
	".product-title",
	"#product-title",
	`[data-testid="product-title"]`,
	".pdp-product-title",
	"h1.title",
	"h1.x-item-title__mainTitle",
	".x-item-title h1",
	"h1 span.ux-textspans--BOLD",
	`h1[itemprop="name"]`,
	"h1.prod-ProductTitle",
	"h1.product-title",
	"h1.product_title",
	".product-name h1",
}

var brandSelectors = []string{
	"a#bylineInfo",
	"span.by-line a",
	"div.bylineInfo span.a-size-base",
	`a[id^="brand"]`,
	"span.po-brand span.po-break-word",
	"tr.po-brand td.po-break-word span",
	`[itemprop="brand"]`,
	".product-brand",
	".brand-name",
	`[data-testid="brand-name"]`,
	".product-brand-name",
	`[data-testid="product-brand"]`,
	`a[link-identifier="brandName"]`,
	".product-brand-title",
	`.ux-textspans--BOLD:contains("Brand")`,
	`span[itemprop="brand"]`,
	`.ux-layout-section__row:contains("Brand") .ux-textspans--BOLD`,
	`span:contains("Brand:") + span`,
	`td:contains("Brand") + td`,
	".brand",
	".manufacturer",
}

var brandSpecSelectors = []string{
	".product-specifications",
	`[data-testid="product-specifications"]`,
	".specification-table",
	"table.product-specification-table",
	".ux-layout-section-evo__item",
	".ux-layout-section__row",
}

var gtinSelectors = []string{
	`[itemprop="gtin"]`,
	`[itemprop="gtin13"]`,
	`[itemprop="gtin12"]`,
	`[itemprop="gtin8"]`,
	`[itemprop="isbn"]`,
	".product-upc",
	".product-ean",
	".product-gtin",
	".product-barcode",
	"div.product-facts-detail",
	"table.prodDetTable",
	"div#detailBullets_feature_div span.a-list-item",
	`[data-testid="product-upc"]`,
	`div:contains("UPC") + div`,
	`span:contains("UPC:") + span`,
	`span:contains("EAN:") + span`,
	`span:contains("ISBN:") + span`,
	`.ux-textspans:contains("UPC")`,
	`.ux-textspans:contains("EAN")`,
}

var descriptionSelectors = []string{
	"div#feature-bullets ul",
	"div.feature ul li",
	"div#productDescription",
	"div#productDescription_feature_div",
	`[itemprop="description"]`,
	".product-description",
	".product-details",
	"#product-description",
	`[data-testid="product-description"]`,
	".pdp-product-description",
	".description",
	".x-item-description iframe",
	".ux-section--description",
	`div[data-testid="x-item-description"]`,
	".d-item-description",
	".product-overview",
	".product-details-description",
	`div[data-cy="product-description"]`,
	".product-info-section",
}

// gtinKeys are probed in order, in JSON-LD nodes and their offer objects.
var gtinKeys = []string{"gtin", "gtin13", "gtin12", "gtin8", "isbn", "ean", "upc"}

// nonBrandLeadWords are generic first words of product names that must not be
// mistaken for a brand.
var nonBrandLeadWords = map[string]bool{
	"New": true, "The": true, "Premium": true, "Professional": true,
	"Original": true, "Genuine": true, "Authentic": true,
}

type ProductParser struct {
	titleSuffixPatterns []*regexp.Regexp
	brandPrefixPattern  *regexp.Regexp
	brandLabelPattern   *regexp.Regexp
	gtinPatterns        []*regexp.Regexp
	gtinValuePattern    *regexp.Regexp
	pricePattern        *regexp.Regexp
	priceCodePattern    *regexp.Regexp
	priceSymbolPattern  *regexp.Regexp
	priceLoosePattern   *regexp.Regexp
	weightPatterns      []*regexp.Regexp
	titleWeightPatterns []*regexp.Regexp
	dimensionPatterns   []*regexp.Regexp
}

func NewProductParser() *ProductParser {
	return &ProductParser{
		titleSuffixPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\s*-\s*Amazon\.\w+.*$`),
			regexp.MustCompile(`\s*\|\s*.*$`),
		},
		brandPrefixPattern: regexp.MustCompile(`(?i)^(Brand:|by|Visit the|Store)`),
		brandLabelPattern:  regexp.MustCompile(`(?i)Brand[:\s]+([^\n\r]+)`),
		gtinPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)UPC[:\s]+(\d{12})`),
			regexp.MustCompile(`(?i)EAN[:\s]+(\d{13})`),
			regexp.MustCompile(`(?i)GTIN[:\s]+(\d{8,14})`),
			regexp.MustCompile(`(?i)ISBN-13[:\s]+(\d{13})`),
			regexp.MustCompile(`(?i)ISBN-10[:\s]+(\d{10})`),
			regexp.MustCompile(`(?i)ASIN[:\s]+([A-Z0-9]{10})`),
			regexp.MustCompile(`\b(\d{12,13})\b`),
		},
		gtinValuePattern:   regexp.MustCompile(`[^a-zA-Z0-9]`),
		pricePattern:       regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
		priceCodePattern:   regexp.MustCompile(`^[A-Z]{3}\s*`),
		priceSymbolPattern: regexp.MustCompile(`[$£€¥₹]\s*`),
		priceLoosePattern:  regexp.MustCompile(`(\d{1,3}(?:,\d{3})*\.?\d*)`),
		weightPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)weight[:\s]*(\d+\.?\d*)\s*(kg|g|lbs?|pounds?|ounces?|oz|fl\s*oz)`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(kg|g|lbs?|pounds?|ounces?|oz|fl\s*oz)\s*weight`),
			regexp.MustCompile(`(?i)item\s*weight[:\s]*(\d+\.?\d*)\s*(kg|g|lbs?|pounds?|ounces?|oz|fl\s*oz)`),
			regexp.MustCompile(`(?i)shipping\s*weight[:\s]*(\d+\.?\d*)\s*(kg|g|lbs?|pounds?|ounces?|oz|fl\s*oz)`),
			regexp.MustCompile(`(?i)net\s*wt\.?\s*(\d+\.?\d*)\s*(kg|g|lbs?|pounds?|ounces?|oz|fl\s*oz)`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(fl\s*oz|fluid\s*ounces?)`),
		},
		titleWeightPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(fl\.?\s*oz|fluid\s*ounces?)`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(oz|ounces?)\b`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(ml|milliliters?)`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(l|liters?)\b`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(g|grams?)\b`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(kg|kilograms?)\b`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(lbs?|pounds?)\b`),
		},
		dimensionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*["']?\s*l\s*[x×]\s*(\d+\.?\d*)\s*["']?\s*w\s*[x×]\s*(\d+\.?\d*)\s*["']?\s*h\s*["']?\s*(in|inches?|cm|mm)?`),
			regexp.MustCompile(`(?i)length[:\s]*(\d+\.?\d*).*width[:\s]*(\d+\.?\d*).*height[:\s]*(\d+\.?\d*)\s*(in|inches?|cm|mm)?`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*[x×]\s*(\d+\.?\d*)\s*[x×]\s*(\d+\.?\d*)\s*(in|inches?|cm|mm|m)?`),
			regexp.MustCompile(`(?i)dimensions?[:\s]*(\d+\.?\d*)\s*[x×]\s*(\d+\.?\d*)\s*[x×]\s*(\d+\.?\d*)\s*(cm|mm|in|inches?|m)?`),
			regexp.MustCompile(`(\d+\.?\d*)["'″]\s*[x×]\s*(\d+\.?\d*)["'″]`),
			regexp.MustCompile(`(?i)(\d+\.?\d*)\s*[x×]\s*(\d+\.?\d*)\s*(in|inches?|cm|mm)?`),
		},
	}
}

// ParseProductPage runs every extractor against the document and assembles the
// record. Extraction order matters only in that the name feeds the brand,
// weight, and dimension extractors.
func (p *ProductParser) ParseProductPage(html, baseURL string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := structuredData(doc)

	record := models.NewProductRecord(baseURL)
	record.Name = p.ExtractName(doc)
	record.Brand = p.ExtractBrand(doc, meta, record.Name)
	record.GTIN = p.ExtractGTIN(doc, meta)
	record.Description = p.ExtractDescription(doc)
	record.Images = p.ExtractImages(doc, meta, baseURL)
	record.Price = p.ExtractPrice(doc, meta)
	record.Currency = p.ExtractCurrency(doc, meta, baseURL)
	record.Weight = p.ExtractWeight(doc, record.Name)
	record.Dimensions = p.ExtractDimensions(doc, record.Name)

	blocked := false
	record.Blocked = &blocked

	if record.Weight == models.WeightNotFound {
		if w := p.backfillWeightFromName(record.Name); w != "" {
			record.Weight = w
		}
	}

	return record, nil
}

// ExtractName tries the ordered selector list, accepting the first element
// whose trimmed text is a plausible product name, then falls back to the page
// title with retailer suffixes stripped.
func (p *ProductParser) ExtractName(doc *goquery.Document) string {
	for _, selector := range nameSelectors {
		name := strings.TrimSpace(doc.Find(selector).First().Text())
		if len(name) > 5 {
			return name
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		for _, pattern := range p.titleSuffixPatterns {
			title = pattern.ReplaceAllString(title, "")
		}
		if title != "" {
			return title
		}
	}

	return models.NameNotFound
}

// ExtractBrand prefers structured metadata, then selectors, then detail-table
// and specification scans, and finally guesses from the product name's first
// word.
func (p *ProductParser) ExtractBrand(doc *goquery.Document, meta []map[string]any, productName string) string {
	for _, node := range meta {
		switch brand := node["brand"].(type) {
		case string:
			if brand != "" {
				return brand
			}
		case map[string]any:
			if name := jsonString(brand["name"]); name != "" {
				return name
			}
		}
	}

	for _, selector := range brandSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		text = strings.TrimSpace(p.brandPrefixPattern.ReplaceAllString(text, ""))
		if text != "" && len(text) < 50 && text != "Unknown" && text != "N/A" {
			return text
		}
	}

	brand := ""
	doc.Find("table.prodDetTable tr, div.product-facts-detail").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(strings.ToLower(text), "brand") {
			return true
		}
		_, value, found := strings.Cut(text, ":")
		if !found {
			return true
		}
		value = strings.TrimSpace(value)
		if value != "" && len(value) < 50 {
			brand = value
			return false
		}
		return true
	})
	if brand != "" {
		return brand
	}

	for _, selector := range brandSpecSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			matches := p.brandLabelPattern.FindStringSubmatch(s.Text())
			if len(matches) > 1 {
				value := strings.TrimSpace(matches[1])
				if value != "" && len(value) < 50 {
					brand = value
					return false
				}
			}
			return true
		})
		if brand != "" {
			return brand
		}
	}

	return brandFromName(productName)
}

// brandFromName guesses the brand from the first word of the product name.
// The first word often is the brand on retailer listings, but only when it
// looks like one: capitalized, reasonable length, not a generic lead word.
func brandFromName(productName string) string {
	if productName == "" || productName == models.NameNotFound {
		return ""
	}
	words := strings.Fields(productName)
	if len(words) == 0 {
		return ""
	}
	first := words[0]
	if len(first) <= 2 || len(first) >= 20 {
		return ""
	}
	if first[0] < 'A' || first[0] > 'Z' {
		return ""
	}
	if nonBrandLeadWords[first] {
		return ""
	}
	return first
}

// ExtractGTIN probes structured metadata keys in a fixed order, then a
// selector scan with a labeled-pattern regex cascade, then the detail-bullet
// list with a length check on the cleaned value.
func (p *ProductParser) ExtractGTIN(doc *goquery.Document, meta []map[string]any) string {
	for _, node := range meta {
		for _, key := range gtinKeys {
			if v, ok := node[key]; ok {
				if s := jsonString(v); s != "" {
					return s
				}
			}
		}
		if offers := offersOf(node); offers != nil {
			for _, key := range gtinKeys {
				if v, ok := offers[key]; ok {
					if s := jsonString(v); s != "" {
						return s
					}
				}
			}
		}
	}

	gtin := ""
	for _, selector := range gtinSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			for _, pattern := range p.gtinPatterns {
				if matches := pattern.FindStringSubmatch(text); len(matches) > 1 {
					gtin = matches[1]
					return false
				}
			}
			return true
		})
		if gtin != "" {
			return gtin
		}
	}

	doc.Find("div#detailBullets_feature_div span.a-list-item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ASIN") && !strings.Contains(text, "UPC") &&
			!strings.Contains(text, "EAN") && !strings.Contains(text, "ISBN") {
			return true
		}
		_, value, found := strings.Cut(text, ":")
		if !found {
			return true
		}
		value = p.gtinValuePattern.ReplaceAllString(value, "")
		if len(value) == 10 || len(value) == 12 || len(value) == 13 {
			gtin = value
			return false
		}
		return true
	})

	return gtin
}

// ExtractDescription walks the ordered selector list; bullet lists are joined
// from their first five items, embedded-frame descriptions get a placeholder,
// and everything is capped at 500 characters. Meta and Open Graph description
// tags are the last resorts before the sentinel.
func (p *ProductParser) ExtractDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}

		switch goquery.NodeName(element) {
		case "ul":
			items := element.Find("li")
			if items.Length() > 0 {
				var parts []string
				items.EachWithBreak(func(i int, li *goquery.Selection) bool {
					if i >= 5 {
						return false
					}
					parts = append(parts, strings.TrimSpace(li.Text()))
					return true
				})
				return truncate(strings.Join(parts, " "), 500)
			}
		case "iframe":
			if src, ok := element.Attr("src"); ok && src != "" {
				return "Full description available in item listing"
			}
		}

		if text := strings.TrimSpace(element.Text()); text != "" {
			return truncate(text, 500)
		}
	}

	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return truncate(content, 500)
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return truncate(content, 500)
	}

	return models.DescriptionNotFound
}

// backfillWeightFromName re-runs a reduced pattern cascade against the product
// name after the page itself yielded nothing. Gated on a quick unit-token scan
// so arbitrary names are not regex-matched for no reason.
func (p *ProductParser) backfillWeightFromName(name string) string {
	lower := strings.ToLower(name)
	hasUnit := false
	for _, unit := range []string{"oz", "fl", "lb", "g", "kg", "ml"} {
		if strings.Contains(lower, unit) {
			hasUnit = true
			break
		}
	}
	if !hasUnit {
		return ""
	}

	patterns := []*regexp.Regexp{
		p.titleWeightPatterns[0], // fl oz
		p.titleWeightPatterns[1], // oz
		p.titleWeightPatterns[2], // ml
		p.titleWeightPatterns[4], // g
		p.titleWeightPatterns[6], // lb
	}
	for _, pattern := range patterns {
		if matches := pattern.FindStringSubmatch(name); len(matches) > 2 {
			return matches[1] + " " + matches[2]
		}
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
