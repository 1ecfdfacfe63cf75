package models

// Sentinel values used when an attribute cannot be extracted. Callers compare
// against these instead of checking for missing keys; every field of a
// ProductRecord is always present.
const (
	NameNotFound        = "Product name not found"
	DescriptionNotFound = "Description not found"
	PriceNotFound       = "Price not found"
	WeightNotFound      = "Weight not found"
	DimensionsNotFound  = "Dimensions not found"
)

// ProductRecord is the result of a single scrape. It is constructed fresh per
// call and never mutated after assembly.
type ProductRecord struct {
	Name        string     `json:"name"`
	Brand       string     `json:"brand"`
	GTIN        string     `json:"gtin"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Price       string     `json:"price"`
	Currency    string     `json:"currency"`
	Source      string     `json:"source"`
	Weight      string     `json:"weight"`
	Dimensions  Dimensions `json:"dimensions"`

	// Blocked is nil when the page was never reached (timeout), so the key is
	// absent from the serialized record in that case.
	Blocked   *bool      `json:"blocked,omitempty"`
	Message   string     `json:"message,omitempty"`
	DebugInfo *DebugInfo `json:"debug_info,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Dimensions carries the raw matched text plus whatever numeric parts could be
// parsed out of it. Numeric fields serialize as null when unknown.
type Dimensions struct {
	Raw    string   `json:"raw"`
	Length *float64 `json:"length"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Unit   *string  `json:"unit"`
}

// DebugInfo is attached to blocked records only.
type DebugInfo struct {
	Status         int  `json:"status"`
	ResponseLength int  `json:"response_length"`
	RobotCheck     bool `json:"robot_check"`
	Captcha        bool `json:"captcha"`
}

// FetchResult is the transient output of one HTTP fetch; it is discarded once
// the body has been parsed.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       string
	Blocked    bool
	RobotCheck bool
	Captcha    bool
}

// NewProductRecord returns a record with every field at its sentinel value and
// the source URL filled in.
func NewProductRecord(source string) *ProductRecord {
	return &ProductRecord{
		Name:        NameNotFound,
		Description: DescriptionNotFound,
		Images:      make([]string, 0),
		Price:       PriceNotFound,
		Currency:    "USD",
		Source:      source,
		Weight:      WeightNotFound,
		Dimensions:  Dimensions{Raw: DimensionsNotFound},
	}
}

func (d Dimensions) Found() bool {
	return d.Raw != DimensionsNotFound
}
