package parser

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// structuredData decodes every JSON-LD script block in the document into
// generic maps, flattening top-level arrays. Malformed blocks are skipped;
// structured metadata is advisory, never authoritative.
func structuredData(doc *goquery.Document) []map[string]any {
	var nodes []map[string]any

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return
		}
		switch t := v.(type) {
		case map[string]any:
			nodes = append(nodes, t)
		case []any:
			for _, item := range t {
				if m, ok := item.(map[string]any); ok {
					nodes = append(nodes, m)
				}
			}
		}
	})

	return nodes
}

// jsonString renders a decoded JSON scalar as a string. Whole numbers come
// back without a trailing ".0" so GTINs and prices survive the round trip.
func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// offersOf returns the offers object of a JSON-LD node. An offer array
// yields its first object.
func offersOf(node map[string]any) map[string]any {
	switch offers := node["offers"].(type) {
	case map[string]any:
		return offers
	case []any:
		for _, item := range offers {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// firstDynamicImageURL pulls the first-listed resolution URL out of a
// JSON-encoded multi-resolution image attribute. Key order matters, so this
// reads tokens instead of unmarshalling into a map.
func firstDynamicImageURL(raw string) string {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ""
	}

	tok, err = dec.Token()
	if err != nil {
		return ""
	}
	key, _ := tok.(string)
	return key
}
