package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"paden/internal/adapters/twilio"
	"paden/internal/app"
	"paden/internal/domain"
)

type Handlers struct {
	Conv    *app.ConversationService
	Suggest *app.SuggestService
	Q       *app.QueryService

	// Messenger plus AsyncReply enables the fast-ack webhook mode: the
	// inbound request is acknowledged immediately and the reply is
	// delivered out of band.
	Messenger  domain.Messenger
	AsyncReply bool

	// TurnTimeout bounds one async turn (both model calls plus queries).
	TurnTimeout time.Duration
}

var validate = validator.New()

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/api/whatsapp", h.whatsappWebhook)
	s.mux.Post("/api/ai-suggest", h.aiSuggest)
	s.mux.Get("/v1/properties", h.listProperties)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// ---- WhatsApp webhook ----

func writeTwiML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write TwiML response")
	}
}

func (h *Handlers) whatsappWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid form", "body must be form-encoded")
		return
	}
	body := r.PostForm.Get("Body")
	from := r.PostForm.Get("From")
	if body == "" || from == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid webhook payload", "Body and From are required")
		return
	}

	if h.AsyncReply && h.Messenger != nil {
		// Fast ack: the transport gets its answer before the two model
		// calls run; delivery happens over the REST API.
		writeTwiML(w, twilio.AckTwiML())
		go h.processAsync(from, body)
		return
	}

	reply := h.Conv.HandleMessage(r.Context(), from, body)
	out, err := twilio.MarshalTwiML(reply)
	if err != nil {
		log.Error().Err(err).Msg("TwiML encode failed")
		out = twilio.AckTwiML()
	}
	writeTwiML(w, out)
}

// processAsync runs the turn to completion detached from the webhook
// request. No cancellation beyond the turn timeout; a failed delivery gets
// one best-effort apology send.
func (h *Handlers) processAsync(from, body string) {
	timeout := h.TurnTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reply := h.Conv.HandleMessage(ctx, from, body)
	if err := h.Messenger.Send(ctx, from, reply); err != nil {
		log.Error().Err(err).Str("to", from).Msg("async reply delivery failed")
		if err := h.Messenger.Send(ctx, from, domain.Reply{Text: app.ApologyReply}); err != nil {
			log.Error().Err(err).Str("to", from).Msg("apology delivery failed too")
		}
	}
}

// ---- AI suggest ----

type suggestRequest struct {
	Field   string            `json:"field" validate:"required,oneof=title description amenities location price"`
	Context map[string]string `json:"context" validate:"max=20"`
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

func (h *Handlers) aiSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "field must be one of title, description, amenities, location, price")
		return
	}

	suggestion, err := h.Suggest.Suggest(r.Context(), req.Field, req.Context)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Suggestion unavailable", "the generation service did not return a suggestion")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(suggestResponse{Suggestion: suggestion}); err != nil {
		log.Error().Err(err).Msg("failed to write suggestion body")
	}
}

// ---- Property read API ----

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

type propertyView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
	Amenities   []string `json:"amenities,omitempty"`
	Images      []string `json:"images,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

func toView(p domain.Property) propertyView {
	v := propertyView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Location:    p.Location,
		Amenities:   p.Amenities,
		Images:      p.Images,
	}
	if !p.CreatedAt.IsZero() {
		v.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.Q.GetProperty(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not load property")
		return
	}

	etag, body := calcETagAndBody(toView(p))
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getProperty body")
	}
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}

	ps, err := h.Q.ListProperties(r.Context(), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not list properties")
		return
	}
	views := make([]propertyView, 0, len(ps))
	for _, p := range ps {
		views = append(views, toView(p))
	}

	etag, body := calcETagAndBody(views)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listProperties body")
	}
}
