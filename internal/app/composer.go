package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"paden/internal/domain"
)

// ResponseComposer turns a result set into a user-facing reply via a second
// generation call. Prose variety is wanted here, so decoding is warmer than
// extraction. On any failure it falls back to a deterministic local template
// that cannot fail.
type ResponseComposer struct {
	gen domain.Generator
}

func NewResponseComposer(g domain.Generator) *ResponseComposer {
	return &ResponseComposer{gen: g}
}

const (
	composeTemperature = 0.7
	composeMaxTokens   = 512
	simpleMaxTokens    = 256
	replyCharCeiling   = 1200
)

// simpleFallback is the canned line used when even a short generation fails.
const simpleFallback = "I'm having trouble thinking right now. Please try again later."

func (c *ResponseComposer) Compose(ctx context.Context, message string, props []domain.Property, f domain.SearchFilter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are PaDen 🏠, a friendly WhatsApp rental assistant for Zimbabwe.\n")
	fmt.Fprintf(&sb, "The user asked: %q\n\nMatching listings:\n", message)
	for i, p := range props {
		fmt.Fprintf(&sb, "%d. %s\n   Price: %s/month\n   Location: %s\n", i+1, p.Title, FormatPrice(p.Price), p.Location)
		if p.Description != "" {
			fmt.Fprintf(&sb, "   Description: %s\n", p.Description)
		}
	}
	fmt.Fprintf(&sb, `
Formatting rules:
- Present the listings as a numbered list. Use emojis (🏠 📍 💰).
- Keep the whole reply under %d characters.
- Use only facts from the listings above. Never invent details.
- Close with a short call-to-action, e.g. ask the user to reply with a listing number.
`, replyCharCeiling)

	out, err := c.gen.Generate(ctx, sb.String(), composeTemperature, composeMaxTokens)
	if err != nil {
		log.Warn().Err(err).Msg("response composition failed, using local template")
		return FallbackList(props)
	}
	return out
}

// SimpleReply answers greeting/help/other turns from a persona prompt.
func (c *ResponseComposer) SimpleReply(ctx context.Context, message, persona string) string {
	prompt := persona + "\n\nUser message: " + message
	out, err := c.gen.Generate(ctx, prompt, composeTemperature, simpleMaxTokens)
	if err != nil {
		log.Warn().Err(err).Msg("simple reply generation failed")
		return simpleFallback
	}
	return out
}

// FallbackList is the deterministic composer fallback: pure string formatting
// over already-validated data, listing title, price and location.
func FallbackList(props []domain.Property) string {
	var sb strings.Builder
	sb.WriteString("🏠 Here's what I found:\n\n")
	for i, p := range props {
		fmt.Fprintf(&sb, "%d. %s\n   💰 %s/month\n   📍 %s\n\n", i+1, p.Title, FormatPrice(p.Price), p.Location)
	}
	sb.WriteString("Reply with a number for more details!")
	return sb.String()
}

// FormatPrice renders "$75" or "$72.50"; whole dollars drop the cents.
func FormatPrice(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}
