package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paden/internal/app"
	"paden/internal/domain"
)

func newService(g *fakeGen, r *fakeRepo) *app.ConversationService {
	return app.NewConversationService(
		app.NewFilterExtractor(g),
		app.NewResponseComposer(g),
		r, 5, 3,
	)
}

func TestHandleMessage_TotalExtractionFailureStillReplies(t *testing.T) {
	// extraction call and the follow-up simple reply both fail
	g := &fakeGen{scripts: []genScript{
		{err: errors.New("network down")},
		{err: errors.New("network down")},
	}}
	r := &fakeRepo{}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "whatsapp:+263771", "garbled ???")
	if reply.Text == "" {
		t.Fatalf("reply must be non-empty on total extraction failure")
	}
	if len(r.searches) != 0 {
		t.Fatalf("repository must not be called for intent=other")
	}
}

func TestHandleMessage_GreetingSkipsRepository(t *testing.T) {
	g := &fakeGen{scripts: []genScript{
		{text: `{"intent":"greeting"}`},
		{text: "👋 Hi! I'm PaDen, your rental assistant."},
	}}
	r := &fakeRepo{}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "whatsapp:+263771", "hello")
	if len(r.searches) != 0 {
		t.Fatalf("repository must never be called on a greeting")
	}
	if reply.Text != "👋 Hi! I'm PaDen, your rental assistant." {
		t.Fatalf("got %q", reply.Text)
	}
}

func TestHandleSearch_BroadeningRule(t *testing.T) {
	g := &fakeGen{scripts: []genScript{
		{text: `{"intent":"search","title":"Goshen House","location":"Senga","maxPrice":100}`},
	}}
	// primary empty, broadened empty: no third query, no composer call
	r := &fakeRepo{results: [][]domain.Property{{}, {}}}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "from", "is Goshen House available?")

	if len(r.searches) != 2 {
		t.Fatalf("expected exactly 2 queries (primary + one broadened), got %d", len(r.searches))
	}
	broad := r.searches[1]
	if broad.limit != 3 {
		t.Fatalf("broadened limit must be 3, got %d", broad.limit)
	}
	if broad.filter.Query == nil || *broad.filter.Query != "Goshen House" {
		t.Fatalf("broadened query must reuse the title text: %+v", broad.filter)
	}
	if broad.filter.Location != nil || broad.filter.MinPrice != nil || broad.filter.MaxPrice != nil || broad.filter.Title != nil {
		t.Fatalf("broadened query must drop location/price/title constraints: %+v", broad.filter)
	}
	// one generation call only (extraction); empty result is templated locally
	if len(g.calls) != 1 {
		t.Fatalf("zero-result path must not spend a composition call, got %d calls", len(g.calls))
	}
	if reply.Text == "" {
		t.Fatalf("expected templated empty-result reply")
	}
}

func TestHandleSearch_NoBroadeningWithoutTextTerm(t *testing.T) {
	g := &fakeGen{scripts: []genScript{
		{text: `{"intent":"search","location":"MSU","maxPrice":80}`},
	}}
	r := &fakeRepo{results: [][]domain.Property{{}}}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "from", "rooms under $80 near MSU")

	if len(r.searches) != 1 {
		t.Fatalf("no title/query present: broadened retry must be skipped, got %d queries", len(r.searches))
	}
	if !strings.Contains(reply.Text, "📍 MSU") {
		t.Fatalf("empty-result reply must hint the location: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "💰 under $80") {
		t.Fatalf("empty-result reply must hint the price bound: %q", reply.Text)
	}
}

func TestHandleSearch_MediaAttachment(t *testing.T) {
	withImages := []domain.Property{
		{ID: "p1", Title: "Goshen House", Price: 75, Location: "Senga",
			Images: []string{"https://img.example/goshen-1.jpg", "https://img.example/goshen-2.jpg"}},
		{ID: "p2", Title: "Other", Price: 60, Location: "CBD", Images: []string{"https://img.example/other.jpg"}},
	}

	t.Run("attached when requested", func(t *testing.T) {
		g := &fakeGen{scripts: []genScript{
			{text: `{"intent":"search","title":"Goshen House","showImages":true}`},
			{text: "🏠 here it is"},
		}}
		r := &fakeRepo{results: [][]domain.Property{withImages}}
		reply := newService(g, r).HandleMessage(context.Background(), "f", "pics of Goshen House")
		if reply.MediaURL != "https://img.example/goshen-1.jpg" {
			t.Fatalf("want first image of first result, got %q", reply.MediaURL)
		}
	})

	t.Run("not attached when not requested", func(t *testing.T) {
		g := &fakeGen{scripts: []genScript{
			{text: `{"intent":"search","title":"Goshen House"}`},
			{text: "🏠 here it is"},
		}}
		r := &fakeRepo{results: [][]domain.Property{withImages}}
		reply := newService(g, r).HandleMessage(context.Background(), "f", "Goshen House")
		if reply.MediaURL != "" {
			t.Fatalf("media must not be attached without showImages, got %q", reply.MediaURL)
		}
	})

	t.Run("not attached when first result has no images", func(t *testing.T) {
		g := &fakeGen{scripts: []genScript{
			{text: `{"intent":"search","query":"rooms","showImages":true}`},
			{text: "🏠 found some"},
		}}
		noImages := []domain.Property{{ID: "p3", Title: "Bare", Price: 50, Location: "X"}}
		r := &fakeRepo{results: [][]domain.Property{noImages}}
		reply := newService(g, r).HandleMessage(context.Background(), "f", "rooms with pics")
		if reply.MediaURL != "" {
			t.Fatalf("no images on first result: media must be empty, got %q", reply.MediaURL)
		}
	})
}

func TestHandleSearch_InfraFailureIsDistinctFromNoMatch(t *testing.T) {
	g := &fakeGen{scripts: []genScript{
		{text: `{"intent":"search","location":"MSU"}`},
	}}
	r := &fakeRepo{errs: []error{errors.New("db gone")}}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "f", "rooms near MSU")
	if reply.Text == "" {
		t.Fatalf("must still reply")
	}
	if strings.Contains(reply.Text, "📍") {
		t.Fatalf("infra failure must not read like a zero-match reply: %q", reply.Text)
	}
	if len(g.calls) != 1 {
		t.Fatalf("no composition on infra failure, got %d calls", len(g.calls))
	}
}

func TestHandleSearch_ResultsComposed(t *testing.T) {
	g := &fakeGen{scripts: []genScript{
		{text: `{"intent":"search","query":"rooms"}`},
		{text: "🏠 1. Goshen House 💰 $75 📍 Senga. Reply 1 for details!"},
	}}
	r := &fakeRepo{results: [][]domain.Property{sampleProps}}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "f", "any rooms?")
	if !strings.Contains(reply.Text, "Goshen House") {
		t.Fatalf("got %q", reply.Text)
	}
	if r.searches[0].limit != 5 {
		t.Fatalf("primary limit must be 5, got %d", r.searches[0].limit)
	}
}

func TestHandleSearch_ComposerFailureUsesLocalTemplate(t *testing.T) {
	g := &fakeGen{scripts: []genScript{
		{text: `{"intent":"search","query":"rooms"}`},
		{err: errors.New("genai 500")},
	}}
	r := &fakeRepo{results: [][]domain.Property{sampleProps}}
	s := newService(g, r)

	reply := s.HandleMessage(context.Background(), "f", "any rooms?")
	if !strings.Contains(reply.Text, "1. Goshen House") || !strings.Contains(reply.Text, "📍 Senga, Gweru") {
		t.Fatalf("expected deterministic fallback listing, got %q", reply.Text)
	}
}
