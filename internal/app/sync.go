package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"replydesk/internal/domain"
)

// SyncService pulls locations and reviews from the platform into local
// storage. It is the only writer that creates reviews; the approval workflow
// never triggers a sync on its own.
type SyncService struct {
	store    domain.Repository
	platform domain.Platform
	tokens   TokenProvider
	cache    domain.Cache
}

func NewSyncService(store domain.Repository, p domain.Platform, t TokenProvider, cache domain.Cache) *SyncService {
	return &SyncService{store: store, platform: p, tokens: t, cache: cache}
}

// accountResourceName resolves the platform account name ("accounts/123"),
// learning and persisting it on first use.
func accountResourceName(ctx context.Context, store domain.Repository, p domain.Platform, a domain.Account, token string) (string, error) {
	if a.ResourceName != nil && *a.ResourceName != "" {
		return *a.ResourceName, nil
	}
	accts, err := p.ListAccounts(ctx, token)
	if err != nil {
		return "", err
	}
	if len(accts) == 0 {
		return "", fmt.Errorf("no platform account visible for %s: %w", a.Email, domain.ErrNotFound)
	}
	name := lookupStr(accts[0], "name")
	if name == "" {
		return "", fmt.Errorf("platform account for %s has no name: %w", a.Email, domain.ErrNotFound)
	}
	if err := store.SetAccountResourceName(ctx, a.ID, name); err != nil {
		log.Warn().Int64("account", a.ID).Err(err).Msg("persist account resource name failed")
	}
	return name, nil
}

// SyncLocations walks the account's location pages and upserts each one.
// Returns the number of locations seen.
func (s *SyncService) SyncLocations(ctx context.Context, accountID int64) (int, error) {
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	token, err := s.tokens.Token(ctx, a.ID)
	if err != nil {
		return 0, err
	}
	name, err := accountResourceName(ctx, s.store, s.platform, a, token)
	if err != nil {
		return 0, err
	}

	total := 0
	pageToken := ""
	for {
		locs, next, err := s.platform.ListLocations(ctx, token, name, pageToken)
		if err != nil {
			return total, err
		}
		for _, m := range locs {
			l := mapLocation(a.ID, m)
			if l.GoogleID == "" {
				log.Warn().Int64("account", a.ID).Msg("skipping location without id")
				continue
			}
			if err := s.store.UpsertLocation(ctx, l); err != nil {
				return total, fmt.Errorf("upsert location %s: %w", l.GoogleID, err)
			}
			total++
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	return total, nil
}

// SyncReviews walks the location's review pages and upserts each batch.
// Returns the number of reviews seen.
func (s *SyncService) SyncReviews(ctx context.Context, locationID int64) (int, error) {
	loc, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		return 0, err
	}
	a, err := s.store.GetAccount(ctx, loc.AccountID)
	if err != nil {
		return 0, err
	}
	token, err := s.tokens.Token(ctx, a.ID)
	if err != nil {
		return 0, err
	}
	name, err := accountResourceName(ctx, s.store, s.platform, a, token)
	if err != nil {
		return 0, err
	}

	total := 0
	pageToken := ""
	for {
		revs, next, err := s.platform.ListReviews(ctx, token, name, loc.GoogleID, pageToken)
		if err != nil {
			return total, err
		}
		if len(revs) > 0 {
			if err := s.store.UpsertReviews(ctx, mapReviews(loc.ID, revs)); err != nil {
				return total, fmt.Errorf("upsert reviews for location %d: %w", loc.ID, err)
			}
			total += len(revs)
		}
		if next == "" {
			break
		}
		pageToken = next
	}

	// Drop stale cached pages even when the pull returned nothing new.
	invalidateReviewCaches(ctx, s.cache, loc.ID)
	if s.cache != nil {
		_ = s.cache.Del(ctx, locationKey(loc.ID))
	}
	return total, nil
}

// SyncAccount refreshes the account's locations and then every location's
// reviews.
func (s *SyncService) SyncAccount(ctx context.Context, accountID int64) (locations, reviews int, err error) {
	locations, err = s.SyncLocations(ctx, accountID)
	if err != nil {
		return locations, 0, err
	}
	locs, err := s.store.ListLocations(ctx, &accountID)
	if err != nil {
		return locations, 0, err
	}
	for _, l := range locs {
		n, err := s.SyncReviews(ctx, l.ID)
		reviews += n
		if err != nil {
			return locations, reviews, err
		}
	}
	return locations, reviews, nil
}

// cache keys shared with the query service

const activeTemplatesKey = "templates:active"

func locationKey(id int64) string { return fmt.Sprintf("location:%d", id) }

func reviewsKey(locationID int64, limit int) string {
	return fmt.Sprintf("reviews:%d:%d", locationID, limit)
}

// invalidate the most common review page variants
func invalidateReviewCaches(ctx context.Context, cache domain.Cache, locationID int64) {
	if cache == nil {
		return
	}
	for _, lim := range []int{50, 100, 200} {
		_ = cache.Del(ctx, reviewsKey(locationID, lim))
	}
}
