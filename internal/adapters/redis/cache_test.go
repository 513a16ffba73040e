package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "replydesk/internal/adapters/redis"
	"replydesk/internal/domain"
)

func TestCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	var got domain.Location
	ok, err := c.Get(ctx, "location:1", &got)
	if err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	addr := "1 Main St"
	want := domain.Location{ID: 1, AccountID: 2, GoogleID: "501", Name: "Blue Fork Diner", Address: &addr}
	if err := c.Set(ctx, "location:1", want, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	ok, err = c.Get(ctx, "location:1", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if got.Name != "Blue Fork Diner" || got.Address == nil || *got.Address != "1 Main St" {
		t.Fatalf("unexpected value: %+v", got)
	}

	if err := c.Del(ctx, "location:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "location:1", &got); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "templates:active", []domain.Template{{ID: 1, Name: "thanks"}}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var got []domain.Template
	if ok, _ := c.Get(ctx, "templates:active", &got); ok {
		t.Fatalf("expected expiry after TTL")
	}
}
