package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"paden/internal/domain"
)

// SuggestService backs the dashboard's AI-suggest button: one field name plus
// the form's current values in, one suggestion string out. No search logic;
// prompt templating per field and a single generation call.
type SuggestService struct {
	gen domain.Generator
}

func NewSuggestService(g domain.Generator) *SuggestService {
	return &SuggestService{gen: g}
}

const (
	suggestTemperature = 0.8
	suggestMaxTokens   = 200
)

var fieldPrompts = map[string]string{
	"title":       "Write one catchy listing title (max 8 words) for this rental property. Reply with the title only.",
	"description": "Write a warm, factual listing description (2-3 sentences) for this rental property. Reply with the description only.",
	"amenities":   "Suggest a comma-separated list of 4-6 realistic amenities for this rental property. Reply with the list only.",
	"location":    "Suggest a clean, well-formatted location line (suburb, city) for this rental property. Reply with the location only.",
	"price":       "Suggest a fair monthly rent in USD for this rental property, as a bare number. Reply with the number only.",
}

// KnownField reports whether a suggestion template exists for the field.
func KnownField(field string) bool {
	_, ok := fieldPrompts[field]
	return ok
}

func (s *SuggestService) Suggest(ctx context.Context, field string, formCtx map[string]string) (string, error) {
	tmpl, ok := fieldPrompts[field]
	if !ok {
		return "", fmt.Errorf("no suggestion template for field %q", field)
	}

	var sb strings.Builder
	sb.WriteString("You are helping a landlord in Zimbabwe fill in a rental listing form.\n")
	sb.WriteString(tmpl)
	if len(formCtx) > 0 {
		sb.WriteString("\n\nWhat the landlord has entered so far:\n")
		keys := make([]string, 0, len(formCtx))
		for k := range formCtx {
			keys = append(keys, k)
		}
		sort.Strings(keys) // stable prompt for identical input
		for _, k := range keys {
			if v := strings.TrimSpace(formCtx[k]); v != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", k, v)
			}
		}
	}

	out, err := s.gen.Generate(ctx, sb.String(), suggestTemperature, suggestMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
