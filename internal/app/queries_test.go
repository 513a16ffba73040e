package app_test

import (
	"context"
	"testing"
	"time"

	"replydesk/internal/app"
	"replydesk/internal/domain"
)

func TestGetLocation_CacheMissThenHit(t *testing.T) {
	store := newFakeStore()
	_, locationID, _ := seedConnected(store)
	cache := &fakeCache{}
	q := app.NewQueryService(store, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	l, err := q.GetLocation(context.Background(), locationID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if l.Name != "Blue Fork Diner" || l.GoogleID != "501" {
		t.Fatalf("unexpected location: %+v", l)
	}

	// Mutate the store to prove the second read comes from cache
	mut := store.locations[locationID]
	mut.Name = "SHOULD NOT SEE THIS"
	store.locations[locationID] = mut

	l2, err := q.GetLocation(context.Background(), locationID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if l2.Name != "Blue Fork Diner" {
		t.Fatalf("expected cached name, got %s", l2.Name)
	}
}

func TestListReviews_Cache(t *testing.T) {
	store := newFakeStore()
	_, locationID, reviewID := seedConnected(store)
	cache := &fakeCache{}
	q := app.NewQueryService(store, cache, 10*time.Minute)

	out, err := q.ListReviews(context.Background(), locationID, 50)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].Author != "Ana" {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// Change the store, call again -> should come from cache
	mut := store.reviews[reviewID]
	mut.Author = "Changed"
	store.reviews[reviewID] = mut

	out2, _ := q.ListReviews(context.Background(), locationID, 50)
	if out2[0].Author != "Ana" {
		t.Fatalf("expected cached author Ana, got %s", out2[0].Author)
	}
}

func TestActiveTemplates_Cache(t *testing.T) {
	store := newFakeStore()
	_, _ = store.CreateTemplate(context.Background(), domain.Template{
		Name: "thanks", Body: "Thanks", RatingMin: 1, RatingMax: 5, Active: true,
	})
	_, _ = store.CreateTemplate(context.Background(), domain.Template{
		Name: "off", Body: "Off", RatingMin: 1, RatingMax: 5, Active: false,
	})
	cache := &fakeCache{}
	q := app.NewQueryService(store, cache, 10*time.Minute)

	ts, err := q.ActiveTemplates(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(ts) != 1 || ts[0].Name != "thanks" {
		t.Fatalf("unexpected templates: %+v", ts)
	}

	_ = store.DeleteTemplate(context.Background(), 1)
	ts2, _ := q.ActiveTemplates(context.Background())
	if len(ts2) != 1 {
		t.Fatalf("expected cached set, got %+v", ts2)
	}
}
