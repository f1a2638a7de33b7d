package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"paden/internal/adapters/observability"
	"paden/internal/domain"
)

// ConversationService runs one webhook turn end to end: extraction, search
// with a single broadening retry, composition, media attachment. Every
// failure path resolves to some user-visible reply; nothing propagates.
type ConversationService struct {
	extractor  *FilterExtractor
	composer   *ResponseComposer
	repo       domain.PropertyRepository
	limit      int // primary search bound
	broadLimit int // broadened retry bound
}

func NewConversationService(e *FilterExtractor, c *ResponseComposer, r domain.PropertyRepository, limit, broadLimit int) *ConversationService {
	if limit <= 0 {
		limit = 5
	}
	if broadLimit <= 0 {
		broadLimit = 3
	}
	return &ConversationService{extractor: e, composer: c, repo: r, limit: limit, broadLimit: broadLimit}
}

// Fixed strings for the paths where no remote call is made (or everything
// else already failed).
const (
	// ApologyReply is the fixed last-resort reply; the transport layer also
	// sends it when async delivery of a composed reply fails.
	ApologyReply      = "😔 Something went wrong on my end. Please try again in a moment!"
	infraTroubleReply = "😔 I'm having trouble reaching the listings right now. Please try again in a few minutes!"
)

const greetingPersona = `You are PaDen 🏠, a friendly WhatsApp rental assistant for Zimbabwe.
The user just greeted you. Respond warmly and briefly explain what you can do:
- Help find rooms, cottages, apartments, and boarding houses
- Search by location, price, and property type
- Show available listings
Keep it under 300 characters. Use emojis. Be warm and welcoming.`

const helpPersona = `You are PaDen 🏠, a WhatsApp rental assistant for Zimbabwe.
The user wants help. Explain how to use the bot:
- Search example: "rooms under $80 near MSU"
- Filter by location: "cottages in Senga"
- Filter by price: "apartments under $150"
- Filter by type: "boarding houses in Harare"
Keep it concise (under 400 characters). Use emojis.`

const otherPersona = `You are PaDen 🏠, a WhatsApp rental assistant for Zimbabwe.
The user sent a message that isn't about finding accommodation.
Politely redirect them and explain that you specialize in helping find rentals.
Give a quick example: "Try: rooms under $100 near UZ"
Keep it under 250 characters. Be friendly. Use emojis.`

// HandleMessage never panics out; a blown pipeline becomes the fixed apology.
func (s *ConversationService) HandleMessage(ctx context.Context, from, body string) (reply domain.Reply) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("from", from).Msg("conversation turn panicked")
			observability.ObserveTurn(string(domain.IntentOther), "error")
			reply = domain.Reply{Text: ApologyReply}
		}
	}()

	f := s.extractor.Extract(ctx, body)
	log.Info().Str("from", from).Str("intent", string(f.Intent)).Msg("turn classified")

	switch f.Intent {
	case domain.IntentSearch:
		return s.handleSearch(ctx, body, f)
	case domain.IntentGreeting:
		observability.ObserveTurn(string(f.Intent), "canned")
		return domain.Reply{Text: s.composer.SimpleReply(ctx, body, greetingPersona)}
	case domain.IntentHelp:
		observability.ObserveTurn(string(f.Intent), "canned")
		return domain.Reply{Text: s.composer.SimpleReply(ctx, body, helpPersona)}
	default:
		observability.ObserveTurn(string(domain.IntentOther), "canned")
		return domain.Reply{Text: s.composer.SimpleReply(ctx, body, otherPersona)}
	}
}

func (s *ConversationService) handleSearch(ctx context.Context, body string, f domain.SearchFilter) domain.Reply {
	props, err := s.repo.Search(ctx, f, s.limit)
	if err != nil {
		log.Error().Err(err).Msg("property search failed")
		observability.ObserveTurn(string(domain.IntentSearch), "error")
		return domain.Reply{Text: infraTroubleReply}
	}

	// Broadening rule: exactly one retry, only when the precise query came
	// back empty and there is free text to search by. Location and price
	// constraints are dropped for the retry.
	if len(props) == 0 {
		if term, ok := f.HasTextTerm(); ok {
			broad := domain.SearchFilter{Intent: domain.IntentSearch, Query: &term}
			props, err = s.repo.Search(ctx, broad, s.broadLimit)
			if err != nil {
				log.Error().Err(err).Msg("broadened search failed")
				observability.ObserveTurn(string(domain.IntentSearch), "error")
				return domain.Reply{Text: infraTroubleReply}
			}
		}
	}

	if len(props) == 0 {
		observability.ObserveTurn(string(domain.IntentSearch), "empty")
		return domain.Reply{Text: emptyResultReply(f)}
	}

	reply := domain.Reply{Text: s.composer.Compose(ctx, body, props, f)}
	if f.ShowImages && len(props[0].Images) > 0 {
		reply.MediaURL = props[0].Images[0]
	}
	observability.ObserveTurn(string(domain.IntentSearch), "results")
	return reply
}

// emptyResultReply is built locally from the active filters; the zero-result
// case never spends a remote call.
func emptyResultReply(f domain.SearchFilter) string {
	var hints []string
	if f.Location != nil && *f.Location != "" {
		hints = append(hints, "📍 "+*f.Location)
	}
	switch {
	case f.MinPrice != nil && f.MaxPrice != nil:
		hints = append(hints, fmt.Sprintf("💰 %s to %s", FormatPrice(*f.MinPrice), FormatPrice(*f.MaxPrice)))
	case f.MaxPrice != nil:
		hints = append(hints, "💰 under "+FormatPrice(*f.MaxPrice))
	case f.MinPrice != nil:
		hints = append(hints, "💰 over "+FormatPrice(*f.MinPrice))
	}
	if term, ok := f.HasTextTerm(); ok {
		hints = append(hints, fmt.Sprintf("🔎 %q", term))
	}

	if len(hints) == 0 {
		return "😕 I couldn't find any listings right now. Try something like \"rooms under $100 near UZ\"!"
	}
	return fmt.Sprintf("😕 I couldn't find any listings matching %s. Try widening your search, for example \"rooms under $100\"!",
		strings.Join(hints, " "))
}
