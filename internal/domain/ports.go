package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("property not found")

type PropertyRepository interface {
	// Write paths (seeder / dashboard backend)
	UpsertProperty(ctx context.Context, p Property) error

	// Read paths
	GetProperty(ctx context.Context, id string) (Property, error)
	ListProperties(ctx context.Context, limit int) ([]Property, error)

	// Search applies the filter's constraints conjunctively, newest first,
	// bounded by limit. A backend failure is returned as an error so the
	// caller can tell "no matches" from "query failed".
	Search(ctx context.Context, f SearchFilter, limit int) ([]Property, error)
}

// Generator is the remote text-generation oracle. The returned text carries
// no structural guarantee; callers must treat it as untrusted.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// Messenger delivers an out-of-band reply on the async webhook path.
type Messenger interface {
	Send(ctx context.Context, to string, r Reply) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
