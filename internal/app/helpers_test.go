package app_test

import (
	"context"
	"encoding/json"
	"fmt"

	"paden/internal/domain"
)

// ---- shared fakes ----

type genCall struct {
	prompt      string
	temperature float64
	maxTokens   int
}

// fakeGen pops scripted responses in order and records every call.
type fakeGen struct {
	calls   []genCall
	scripts []genScript
}

type genScript struct {
	text string
	err  error
}

func (g *fakeGen) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	g.calls = append(g.calls, genCall{prompt: prompt, temperature: temperature, maxTokens: maxTokens})
	if len(g.scripts) == 0 {
		return "", fmt.Errorf("fakeGen: no scripted response for call %d", len(g.calls))
	}
	s := g.scripts[0]
	g.scripts = g.scripts[1:]
	return s.text, s.err
}

type searchCall struct {
	filter domain.SearchFilter
	limit  int
}

// fakeRepo returns scripted result sets per Search call, in order.
type fakeRepo struct {
	searches []searchCall
	results  [][]domain.Property
	errs     []error

	property domain.Property
	list     []domain.Property
	getErr   error
}

func (r *fakeRepo) Search(ctx context.Context, f domain.SearchFilter, limit int) ([]domain.Property, error) {
	i := len(r.searches)
	r.searches = append(r.searches, searchCall{filter: f, limit: limit})
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	var out []domain.Property
	if i < len(r.results) {
		out = r.results[i]
	}
	return out, err
}

func (r *fakeRepo) UpsertProperty(ctx context.Context, p domain.Property) error { return nil }

func (r *fakeRepo) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	if r.getErr != nil {
		return domain.Property{}, r.getErr
	}
	return r.property, nil
}

func (r *fakeRepo) ListProperties(ctx context.Context, limit int) ([]domain.Property, error) {
	return r.list, nil
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- tiny helpers ----

func pstr(s string) *string     { return &s }
func pfloat(f float64) *float64 { return &f }
