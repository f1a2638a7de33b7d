package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"paden/internal/domain"
)

// FilterExtractor turns a free-text message into a SearchFilter via one
// remote generation call. It never fails: any error (network, non-JSON
// output, malformed JSON) degrades to {intent: other} so the orchestrator
// always receives a usable filter.
type FilterExtractor struct {
	gen domain.Generator
}

func NewFilterExtractor(g domain.Generator) *FilterExtractor {
	return &FilterExtractor{gen: g}
}

// Near-deterministic decoding; the expected output is compact JSON.
const (
	extractTemperature = 0.1
	extractMaxTokens   = 256
)

const extractInstructions = `You are the intent parser for PaDen, a WhatsApp rental assistant for Zimbabwe.
Classify the user's message and extract search filters.

Reply with STRICT JSON only. No prose, no code fences. Schema:
{"intent":"search|greeting|help|other","location":string,"minPrice":number,"maxPrice":number,"query":string,"title":string,"showImages":boolean}

Rules:
- "intent" is required. Use "search" whenever the user is looking for accommodation.
- Omit every other field you cannot infer. Never output null or empty strings.
- Prices are USD per month. "under $80" means maxPrice 80; "over $50" means minPrice 50.
- "location" is a place name (city, suburb, campus). Correct obvious misspellings (e.g. "Gweroo" means "Gweru").
- "title" only when the user names a specific property (e.g. "Goshen House").
- "query" is a broad term such as "rooms", "cottage", "boarding house".
- "showImages" is true only when the user explicitly asks for photos or pictures.

Examples:
"rooms under $80 near MSU" -> {"intent":"search","location":"MSU","maxPrice":80,"query":"rooms"}
"hi there" -> {"intent":"greeting"}
"how does this work?" -> {"intent":"help"}
"show me pictures of Goshen House" -> {"intent":"search","title":"Goshen House","showImages":true}
"cottages in Senga between $50 and $120" -> {"intent":"search","location":"Senga","minPrice":50,"maxPrice":120,"query":"cottages"}
"what's the weather today" -> {"intent":"other"}
`

func (e *FilterExtractor) Extract(ctx context.Context, message string) domain.SearchFilter {
	prompt := fmt.Sprintf("%s\nUser message: %q", extractInstructions, message)

	raw, err := e.gen.Generate(ctx, prompt, extractTemperature, extractMaxTokens)
	if err != nil {
		log.Warn().Err(err).Msg("intent extraction call failed")
		return domain.SearchFilter{Intent: domain.IntentOther}
	}

	f, err := parseFilter(raw)
	if err != nil {
		log.Warn().Err(err).Str("raw", truncate(raw, 200)).Msg("intent extraction unparsable")
		return domain.SearchFilter{Intent: domain.IntentOther}
	}
	return f
}

// parseFilter strips fencing artifacts and parses the model output. The
// oracle gives no grammar guarantee, so everything here is defensive.
func parseFilter(raw string) (domain.SearchFilter, error) {
	var f domain.SearchFilter
	if err := json.Unmarshal([]byte(stripFences(raw)), &f); err != nil {
		return domain.SearchFilter{}, err
	}
	switch f.Intent {
	case domain.IntentSearch, domain.IntentGreeting, domain.IntentHelp, domain.IntentOther:
	default:
		f.Intent = domain.IntentOther
	}
	return f, nil
}

// stripFences removes a wrapping markdown code fence ("```json ... ```" or
// bare "``` ... ```") if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{}") {
		// drop the language tag line ("json")
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
