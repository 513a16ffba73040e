package app

import (
	"context"
	"encoding/json"
	"time"

	"replydesk/internal/domain"
)

type QueryService struct {
	store    domain.Repository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.Repository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	key := locationKey(id)
	var l domain.Location
	if ok, _ := s.cache.Get(ctx, key, &l); ok {
		return l, nil
	}
	l, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}
	_ = s.cache.Set(ctx, key, l, int(s.cacheTTL.Seconds()))
	return l, nil
}

func (s *QueryService) ListLocations(ctx context.Context, accountID *int64) ([]domain.Location, error) {
	return s.store.ListLocations(ctx, accountID)
}

func (s *QueryService) ListReviews(ctx context.Context, locationID int64, limit int) ([]domain.Review, error) {
	key := reviewsKey(locationID, limit)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.store.ListReviews(ctx, locationID, limit)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array (prevents callers from mutating cached value)
	copyRS := copyReviews(rs)

	// optional size guard
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyRS, int(s.cacheTTL.Seconds()))
	}
	return copyRS, nil
}

func (s *QueryService) ActiveTemplates(ctx context.Context) ([]domain.Template, error) {
	var out []domain.Template
	if ok, _ := s.cache.Get(ctx, activeTemplatesKey, &out); ok {
		return out, nil
	}
	ts, err := s.store.ListTemplates(ctx, true)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, activeTemplatesKey, ts, int(s.cacheTTL.Seconds()))
	return ts, nil
}

func copyReviews(in []domain.Review) []domain.Review {
	if len(in) == 0 {
		return in
	}
	out := make([]domain.Review, len(in))
	copy(out, in)
	return out
}
