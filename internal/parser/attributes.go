package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fourmore/inventory-intake/internal/models"
)

var amazonImageSelectors = []string{
	"img#landingImage",
	"div#imgTagWrapperId img",
	"div#main-image-container img",
	"img.a-dynamic-image",
	"div#altImages img",
}

var genericImageSelectors = []string{
	`[itemprop="image"]`,
	".product-image img",
	".product-photo img",
	"#product-image img",
	`[data-testid="product-image"] img`,
	".gallery-image img",
	".product-gallery img",
	"img.primary-image",
	"div.ux-image-carousel-item img",
	"div.image-treatment img",
	`img[data-zoom-image]`,
	"picture img",
	"main img",
}

// amazonImageAttrs are probed in order on each matched element; the dynamic
// image attribute carries a JSON map whose first key is the best URL.
var amazonImageAttrs = []string{"src", "data-src", "data-old-hires"}

var genericImageAttrs = []string{"src", "data-src", "data-lazy-src", "data-original", "data-zoom-image"}

var priceSelectors = []string{
	"span.a-price span.a-offscreen",
	"span#priceblock_ourprice",
	"span#priceblock_dealprice",
	"span.a-price-whole",
	`[itemprop="price"]`,
	".price-characteristic",
	`span[data-automation-id="price"]`,
	".prod-PriceHero .price-group",
	".x-price-primary span.ux-textspans",
	"span#prcIsum",
	"span#mm-saleDscPrc",
	".display-price",
	".product-price",
	".price-current",
	".current-price",
	`[data-testid="price"]`,
	".sale-price",
	".price",
	"span.price",
	"div.price",
	".product-price-value",
}

var weightSelectorRegions = []string{
	"table.prodDetTable",
	"div#detailBullets_feature_div",
	"div#productDetails_techSpec_section_1",
	".product-specifications",
	".specification-table",
	".ux-layout-section__row",
}

var dimensionSelectorRegions = []string{
	"table.prodDetTable",
	"div#detailBullets_feature_div",
	"div#productDetails_techSpec_section_1",
	"div#productDetails_detailBullets_sections1",
	".product-specifications",
	".specification-table",
	".ux-layout-section__row",
	".product-details",
}

// domainCurrencies maps marketplace host fragments to their currency.
var domainCurrencies = []struct {
	fragment string
	currency string
}{
	{"amazon.ca", "CAD"},
	{"amazon.com.au", "AUD"},
	{"amazon.co.uk", "GBP"},
	{"amazon.co.jp", "JPY"},
	{"amazon.de", "EUR"},
	{"amazon.fr", "EUR"},
	{"amazon.es", "EUR"},
	{"amazon.it", "EUR"},
	{"amazon.in", "INR"},
	{"amazon.com", "USD"},
}

var dimensionUnits = map[string]bool{
	"in": true, "cm": true, "mm": true, "m": true, "inches": true,
}

// ExtractImages collects candidate URLs from site-specific selectors on Amazon
// hosts or the generic gallery selectors elsewhere, merges in structured
// metadata images, then normalizes, dedupes, and caps the list at ten.
func (p *ProductParser) ExtractImages(doc *goquery.Document, meta []map[string]any, baseURL string) []string {
	var candidates []string

	// Every selector contributes; the dedupe and cap stage below does the
	// limiting, so discovery order across selectors is preserved.
	if strings.Contains(baseURL, "amazon.") {
		for _, selector := range amazonImageSelectors {
			doc.Find(selector).Each(func(_ int, img *goquery.Selection) {
				for _, attr := range amazonImageAttrs {
					if v, ok := img.Attr(attr); ok && v != "" {
						candidates = append(candidates, v)
						return
					}
				}
				if raw, ok := img.Attr("data-a-dynamic-image"); ok {
					if u := firstDynamicImageURL(raw); u != "" {
						candidates = append(candidates, u)
					}
				}
			})
		}
	} else {
		for _, selector := range genericImageSelectors {
			doc.Find(selector).Each(func(_ int, img *goquery.Selection) {
				for _, attr := range genericImageAttrs {
					if v, ok := img.Attr(attr); ok && v != "" {
						candidates = append(candidates, v)
						return
					}
				}
			})
		}
	}

	for _, node := range meta {
		switch image := node["image"].(type) {
		case string:
			candidates = append(candidates, image)
		case []any:
			for _, item := range image {
				switch v := item.(type) {
				case string:
					candidates = append(candidates, v)
				case map[string]any:
					if u := jsonString(v["url"]); u != "" {
						candidates = append(candidates, u)
					}
				}
			}
		case map[string]any:
			if u := jsonString(image["url"]); u != "" {
				candidates = append(candidates, u)
			}
		}
	}

	base, _ := url.Parse(baseURL)

	images := make([]string, 0, 10)
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		resolved := resolveImageURL(candidate, base)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		images = append(images, resolved)
		if len(images) == 10 {
			break
		}
	}
	return images
}

// resolveImageURL normalizes a raw src value to an absolute https URL, or
// returns "" when the candidate is unusable (inline data, gif spacers,
// unresolvable relatives).
func resolveImageURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	} else if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if base == nil {
			return ""
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		raw = base.ResolveReference(ref).String()
	}
	if u, err := url.Parse(raw); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".gif") {
		return ""
	}
	return raw
}

// ExtractPrice prefers structured offer or node-level price data, then the
// ordered selector list, then the retailer's split price markup where the
// integer and fraction parts live in separate elements.
func (p *ProductParser) ExtractPrice(doc *goquery.Document, meta []map[string]any) string {
	for _, node := range meta {
		if offers := offersOf(node); offers != nil {
			if s := jsonString(offers["price"]); s != "" {
				if normalized := p.normalizePrice(s); normalized != "" {
					return normalized
				}
			}
		}
		if s := jsonString(node["price"]); s != "" {
			if normalized := p.normalizePrice(s); normalized != "" {
				return normalized
			}
		}
	}

	for _, selector := range priceSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		if goquery.NodeName(element) == "meta" {
			content, _ := element.Attr("content")
			if v := metaPrice(content); v != "" {
				return v
			}
			continue
		}
		if normalized := p.normalizePrice(strings.TrimSpace(element.Text())); normalized != "" {
			return normalized
		}
	}

	whole := doc.Find("span.a-price-whole").First()
	if whole.Length() > 0 {
		wholeText := strings.TrimRight(strings.TrimSpace(whole.Text()), ".")
		fraction := strings.TrimSpace(doc.Find("span.a-price-fraction").First().Text())
		if fraction != "" {
			return wholeText + "." + fraction
		}
		// No fraction element; the parent may hold the full decimal text.
		if parent := whole.Parent(); parent.Length() > 0 {
			if matches := p.priceLoosePattern.FindStringSubmatch(parent.Text()); len(matches) > 1 {
				value := strings.ReplaceAll(matches[1], ",", "")
				if !strings.Contains(value, ".") {
					value += ".00"
				}
				return value
			}
		}
		return wholeText + ".00"
	}

	return models.PriceNotFound
}

// metaPrice validates a meta tag's content attribute as a bare numeric price.
func metaPrice(content string) string {
	if content == "" {
		return ""
	}
	digits := strings.ReplaceAll(strings.ReplaceAll(content, ".", ""), ",", "")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return strings.ReplaceAll(content, ",", "")
}

// normalizePrice extracts the first money-looking number from raw text,
// strips thousands separators, and pads to two decimal places. Returns ""
// when no number is present.
func (p *ProductParser) normalizePrice(text string) string {
	text = p.priceCodePattern.ReplaceAllString(text, "")
	text = p.priceSymbolPattern.ReplaceAllString(text, "")

	matches := p.pricePattern.FindStringSubmatch(text)
	if len(matches) < 2 {
		return ""
	}
	value := strings.ReplaceAll(matches[1], ",", "")
	if !strings.Contains(value, ".") {
		value += ".00"
	}
	return value
}

// ExtractCurrency resolves the marketplace domain table first, then currency
// metadata on the page, then a last-ditch host heuristic for Canadian
// retailers. USD is the default when nothing matches.
func (p *ProductParser) ExtractCurrency(doc *goquery.Document, meta []map[string]any, baseURL string) string {
	host := strings.ToLower(baseURL)
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}

	for _, entry := range domainCurrencies {
		if strings.Contains(host, entry.fragment) {
			return entry.currency
		}
	}

	if content, ok := doc.Find(`meta[itemprop="priceCurrency"]`).First().Attr("content"); ok && content != "" {
		return strings.ToUpper(strings.TrimSpace(content))
	}
	if content, ok := doc.Find(`[itemprop="priceCurrency"]`).First().Attr("content"); ok && content != "" {
		return strings.ToUpper(strings.TrimSpace(content))
	}

	for _, node := range meta {
		if offers := offersOf(node); offers != nil {
			if s := jsonString(offers["priceCurrency"]); s != "" {
				return strings.ToUpper(s)
			}
		}
	}

	if strings.Contains(host, "walmart.ca") || strings.Contains(host, "ebay.ca") ||
		strings.HasSuffix(host, ".ca") {
		return "CAD"
	}

	return "USD"
}

// ExtractWeight scans the detail and specification regions with the labeled
// weight patterns, then falls back to a unit-only cascade over the product
// name.
func (p *ProductParser) ExtractWeight(doc *goquery.Document, productName string) string {
	weight := ""
	for _, region := range weightSelectorRegions {
		doc.Find(region).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := s.Text()
			for _, pattern := range p.weightPatterns {
				if matches := pattern.FindStringSubmatch(text); len(matches) > 2 {
					weight = matches[1] + " " + normalizeUnitSpacing(matches[2])
					return false
				}
			}
			return true
		})
		if weight != "" {
			return weight
		}
	}

	if productName != "" && productName != models.NameNotFound {
		for _, pattern := range p.titleWeightPatterns {
			if matches := pattern.FindStringSubmatch(productName); len(matches) > 2 {
				return matches[1] + " " + normalizeUnitSpacing(matches[2])
			}
		}
	}

	return models.WeightNotFound
}

func normalizeUnitSpacing(unit string) string {
	return strings.Join(strings.Fields(unit), " ")
}

// ExtractDimensions scans the detail regions with the full pattern cascade,
// then retries the product name with only the two-dimension patterns. The
// structured fields are populated alongside the raw match text; the unit
// defaults to inches when the match carries none.
func (p *ProductParser) ExtractDimensions(doc *goquery.Document, productName string) models.Dimensions {
	for _, region := range dimensionSelectorRegions {
		var dims models.Dimensions
		found := false
		doc.Find(region).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if d, ok := p.matchDimensions(s.Text(), p.dimensionPatterns); ok {
				dims = d
				found = true
				return false
			}
			return true
		})
		if found {
			return dims
		}
	}

	if productName != "" && productName != models.NameNotFound {
		twoDim := p.dimensionPatterns[len(p.dimensionPatterns)-2:]
		for _, pattern := range twoDim {
			if matches := pattern.FindStringSubmatch(productName); matches != nil {
				return models.Dimensions{Raw: strings.TrimSpace(matches[0])}
			}
		}
	}

	return models.Dimensions{Raw: models.DimensionsNotFound}
}

func (p *ProductParser) matchDimensions(text string, patterns []*regexp.Regexp) (models.Dimensions, bool) {
	for _, pattern := range patterns {
		matches := pattern.FindStringSubmatch(text)
		if matches == nil {
			continue
		}

		dims := models.Dimensions{Raw: strings.TrimSpace(matches[0])}

		length, lerr := strconv.ParseFloat(matches[1], 64)
		width, werr := strconv.ParseFloat(matches[2], 64)
		if lerr != nil || werr != nil {
			return dims, true
		}
		dims.Length = &length
		dims.Width = &width

		unitIdx := len(matches) - 1
		if len(matches) > 4 {
			if height, err := strconv.ParseFloat(matches[3], 64); err == nil {
				dims.Height = &height
			}
		}

		unit := strings.ToLower(strings.TrimSpace(matches[unitIdx]))
		if !dimensionUnits[unit] {
			unit = "in"
		} else if unit == "inches" {
			unit = "in"
		}
		dims.Unit = &unit

		return dims, true
	}
	return models.Dimensions{}, false
}
