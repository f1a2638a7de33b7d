package app

import (
	"context"
	"fmt"
	"time"

	"paden/internal/domain"
)

// QueryService is the cached read path behind the property API the dashboard
// talks to. The conversational search path bypasses it on purpose.
type QueryService struct {
	repo     domain.PropertyRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.PropertyRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func propertyKey(id string) string  { return "property:" + id }
func listKey(limit int) string      { return fmt.Sprintf("properties:%d", limit) }
func (s *QueryService) ttlSec() int { return int(s.cacheTTL.Seconds()) }

func (s *QueryService) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	key := propertyKey(id)
	var p domain.Property
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	_ = s.cache.Set(ctx, key, p, s.ttlSec())
	return p, nil
}

func (s *QueryService) ListProperties(ctx context.Context, limit int) ([]domain.Property, error) {
	key := listKey(limit)
	var out []domain.Property
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	ps, err := s.repo.ListProperties(ctx, limit)
	if err != nil {
		return nil, err
	}

	// copy before caching so later mutation of the repo's backing array
	// cannot leak into the cached value
	cp := make([]domain.Property, len(ps))
	copy(cp, ps)
	_ = s.cache.Set(ctx, key, cp, s.ttlSec())
	return cp, nil
}

// Invalidate drops the caches a property write touches.
func (s *QueryService) Invalidate(ctx context.Context, id string, limits ...int) {
	_ = s.cache.Del(ctx, propertyKey(id))
	for _, l := range limits {
		_ = s.cache.Del(ctx, listKey(l))
	}
}
