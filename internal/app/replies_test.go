package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"replydesk/internal/app"
	"replydesk/internal/domain"
)

func replyFixture(t *testing.T) (*fakeStore, *fakePlatform, *app.ReplyService, int64) {
	t.Helper()
	store := newFakeStore()
	_, _, reviewID := seedConnected(store)
	_, _ = store.CreateTemplate(context.Background(), domain.Template{
		Name:      "thanks-high",
		Body:      "Thanks {author}, glad you enjoyed it!",
		RatingMin: 4,
		RatingMax: 5,
		Active:    true,
	})
	platform := &fakePlatform{}
	tokens := app.NewAccountService(store, &fakeAuth{})
	svc := app.NewReplyService(store, platform, tokens, &fakeCache{})
	return store, platform, svc, reviewID
}

func TestSuggest_RendersAndStores(t *testing.T) {
	store, _, svc, reviewID := replyFixture(t)

	pr, err := svc.Suggest(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if pr.Suggested != "Thanks Ana, glad you enjoyed it!" {
		t.Fatalf("unexpected suggestion: %q", pr.Suggested)
	}
	if pr.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", pr.Status)
	}
	if pr.TemplateID == nil || *pr.TemplateID != 1 {
		t.Fatalf("expected template 1, got %v", pr.TemplateID)
	}
	if len(store.pending) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(store.pending))
	}
}

func TestSuggest_AgainReplacesDraft(t *testing.T) {
	store, _, svc, reviewID := replyFixture(t)

	first, err := svc.Suggest(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("first suggest: %v", err)
	}
	if _, err := svc.Edit(context.Background(), first.ID, "Hand-tuned text"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	second, err := svc.Suggest(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("second suggest: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected draft to be replaced in place, got id %d then %d", first.ID, second.ID)
	}
	if second.Edited != nil {
		t.Fatalf("expected edits discarded, got %q", *second.Edited)
	}
	if len(store.pending) != 1 {
		t.Fatalf("expected a single row, got %d", len(store.pending))
	}
}

func TestSuggest_RepliedReviewNotEligible(t *testing.T) {
	store, _, svc, reviewID := replyFixture(t)
	rv := store.reviews[reviewID]
	rv.Reply = ptr("Already answered")
	store.reviews[reviewID] = rv

	_, err := svc.Suggest(context.Background(), reviewID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSuggest_NoTemplateForRating(t *testing.T) {
	store, _, svc, reviewID := replyFixture(t)
	rv := store.reviews[reviewID]
	rv.Rating = 1
	store.reviews[reviewID] = rv

	_, err := svc.Suggest(context.Background(), reviewID)
	if !errors.Is(err, domain.ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}
}

func TestApprove_PublishesThenMarks(t *testing.T) {
	store, platform, svc, reviewID := replyFixture(t)
	pr, _ := svc.Suggest(context.Background(), reviewID)

	out, err := svc.Approve(context.Background(), pr.ID, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Status != domain.StatusApproved || out.ProcessedAt == nil {
		t.Fatalf("unexpected result: %+v", out)
	}
	if len(platform.updates) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(platform.updates))
	}
	call := platform.updates[0]
	if call.account != "accounts/9" || call.location != "501" || call.review != "rev-1" {
		t.Fatalf("published to wrong place: %+v", call)
	}
	if call.comment != "Thanks Ana, glad you enjoyed it!" {
		t.Fatalf("published wrong text: %q", call.comment)
	}

	rv := store.reviews[reviewID]
	if deref(rv.Reply) != call.comment || rv.RepliedAt == nil {
		t.Fatalf("review not updated: %+v", rv)
	}
}

func TestApprove_EditedTextWins(t *testing.T) {
	_, platform, svc, reviewID := replyFixture(t)
	pr, _ := svc.Suggest(context.Background(), reviewID)

	if _, err := svc.Approve(context.Background(), pr.ID, ptr("Custom wording")); err != nil {
		t.Fatalf("err: %v", err)
	}
	if platform.updates[0].comment != "Custom wording" {
		t.Fatalf("expected edited text published, got %q", platform.updates[0].comment)
	}
}

func TestApprove_PublishFailureKeepsPending(t *testing.T) {
	store, platform, svc, reviewID := replyFixture(t)
	pr, _ := svc.Suggest(context.Background(), reviewID)
	platform.updateErr = &domain.PublishError{Retryable: true, Err: errors.New("remote 503")}

	_, err := svc.Approve(context.Background(), pr.ID, nil)
	var pe *domain.PublishError
	if !errors.As(err, &pe) || !pe.Retryable {
		t.Fatalf("expected retryable publish error, got %v", err)
	}

	got := store.pending[pr.ID]
	if got.Status != domain.StatusPending {
		t.Fatalf("expected reply still pending, got %s", got.Status)
	}
	if rv := store.reviews[reviewID]; rv.Reply != nil {
		t.Fatalf("review must not record a reply on failed publish: %+v", rv)
	}

	// A later attempt succeeds.
	platform.updateErr = nil
	if _, err := svc.Approve(context.Background(), pr.ID, nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if store.pending[pr.ID].Status != domain.StatusApproved {
		t.Fatalf("expected approved after retry")
	}
}

func TestApprove_NonPendingRejected(t *testing.T) {
	_, _, svc, reviewID := replyFixture(t)
	pr, _ := svc.Suggest(context.Background(), reviewID)
	if _, err := svc.Approve(context.Background(), pr.ID, nil); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err := svc.Approve(context.Background(), pr.ID, nil)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestReject_ClosesWithoutPublish(t *testing.T) {
	store, platform, svc, reviewID := replyFixture(t)
	pr, _ := svc.Suggest(context.Background(), reviewID)

	if err := svc.Reject(context.Background(), pr.ID, ptr("tone is off")); err != nil {
		t.Fatalf("err: %v", err)
	}
	got := store.pending[pr.ID]
	if got.Status != domain.StatusRejected || deref(got.RejectReason) != "tone is off" || got.ProcessedAt == nil {
		t.Fatalf("unexpected row: %+v", got)
	}
	if len(platform.updates) != 0 {
		t.Fatalf("reject must not publish")
	}
	if err := svc.Reject(context.Background(), pr.ID, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second reject, got %v", err)
	}
}

func TestEdit_PendingOnly(t *testing.T) {
	store, _, svc, reviewID := replyFixture(t)
	pr, _ := svc.Suggest(context.Background(), reviewID)

	out, err := svc.Edit(context.Background(), pr.ID, "Softer wording")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if deref(out.Edited) != "Softer wording" || deref(store.pending[pr.ID].Edited) != "Softer wording" {
		t.Fatalf("edit not stored: %+v", out)
	}

	_ = svc.Reject(context.Background(), pr.ID, nil)
	if _, err := svc.Edit(context.Background(), pr.ID, "too late"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestDeleteReply_ClearsLocalCopy(t *testing.T) {
	store, platform, svc, reviewID := replyFixture(t)
	now := time.Now().UTC()
	rv := store.reviews[reviewID]
	rv.Reply = ptr("Old reply")
	rv.RepliedAt = &now
	store.reviews[reviewID] = rv

	if err := svc.DeleteReply(context.Background(), reviewID); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(platform.deletes) != 1 || platform.deletes[0].review != "rev-1" {
		t.Fatalf("expected remote delete, got %+v", platform.deletes)
	}
	got := store.reviews[reviewID]
	if got.Reply != nil || got.RepliedAt != nil {
		t.Fatalf("reply not cleared: %+v", got)
	}
}

func TestDeleteReply_UpstreamGoneStillClears(t *testing.T) {
	store, platform, svc, reviewID := replyFixture(t)
	now := time.Now().UTC()
	rv := store.reviews[reviewID]
	rv.Reply = ptr("Old reply")
	rv.RepliedAt = &now
	store.reviews[reviewID] = rv
	platform.deleteErr = domain.ErrNotFound

	if err := svc.DeleteReply(context.Background(), reviewID); err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := store.reviews[reviewID]; got.Reply != nil {
		t.Fatalf("reply not cleared: %+v", got)
	}
}

func TestDeleteReply_NoReplyIsInvalid(t *testing.T) {
	_, _, svc, reviewID := replyFixture(t)
	if err := svc.DeleteReply(context.Background(), reviewID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
