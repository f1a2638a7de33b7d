package domain

// Intent is the coarse category assigned to an inbound message. It decides
// which branch of the pipeline runs.
type Intent string

const (
	IntentSearch   Intent = "search"
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
	IntentOther    Intent = "other"
)

// SearchFilter is the structured form of a free-text message. Every field
// except Intent is optional; a nil pointer means "do not filter on this
// dimension", never "filter on empty".
type SearchFilter struct {
	Intent     Intent   `json:"intent"`
	Location   *string  `json:"location,omitempty"`
	MinPrice   *float64 `json:"minPrice,omitempty"`
	MaxPrice   *float64 `json:"maxPrice,omitempty"`
	Query      *string  `json:"query,omitempty"`
	Title      *string  `json:"title,omitempty"`
	ShowImages bool     `json:"showImages,omitempty"`
}

// HasTextTerm reports whether the filter carries free text usable for a
// broadened retry, and returns that text (title wins over query).
func (f SearchFilter) HasTextTerm() (string, bool) {
	if f.Title != nil && *f.Title != "" {
		return *f.Title, true
	}
	if f.Query != nil && *f.Query != "" {
		return *f.Query, true
	}
	return "", false
}
