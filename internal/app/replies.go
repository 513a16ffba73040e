package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"replydesk/internal/domain"
)

// ReplyService runs the suggest/approve/reject workflow. Publishing happens
// on approve only, and a reply is marked approved only after the platform
// accepted it.
type ReplyService struct {
	store    domain.Repository
	platform domain.Platform
	tokens   TokenProvider
	cache    domain.Cache
}

func NewReplyService(store domain.Repository, p domain.Platform, t TokenProvider, cache domain.Cache) *ReplyService {
	return &ReplyService{store: store, platform: p, tokens: t, cache: cache}
}

// Suggest drafts a reply for the review from the best matching active
// template. A review may hold at most one pending reply; suggesting again
// replaces the previous draft and discards any edits.
func (s *ReplyService) Suggest(ctx context.Context, reviewID int64) (domain.PendingReply, error) {
	rv, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return domain.PendingReply{}, err
	}
	if rv.Replied() {
		return domain.PendingReply{}, fmt.Errorf("review %d already has a published reply: %w", reviewID, domain.ErrNotFound)
	}
	ts, err := s.store.ListTemplates(ctx, true)
	if err != nil {
		return domain.PendingReply{}, err
	}
	t := domain.MatchTemplate(ts, rv.Rating)
	if t == nil {
		return domain.PendingReply{}, fmt.Errorf("no active template covers rating %d: %w", rv.Rating, domain.ErrNoTemplate)
	}
	pr := domain.PendingReply{
		ReviewID:   rv.ID,
		TemplateID: &t.ID,
		Suggested:  domain.Render(t.Body, rv),
		Status:     domain.StatusPending,
	}
	id, err := s.store.SavePendingSuggestion(ctx, pr)
	if err != nil {
		return domain.PendingReply{}, err
	}
	return s.store.GetPendingReply(ctx, id)
}

// Pending lists the approval queue, oldest first.
func (s *ReplyService) Pending(ctx context.Context) ([]domain.PendingReplyView, error) {
	return s.store.ListPendingReplies(ctx)
}

// Approve publishes the reply and, once the platform accepted it, marks the
// row approved and records the reply on the review. A publish failure leaves
// the reply pending so the operator can retry or reject.
func (s *ReplyService) Approve(ctx context.Context, id int64, editedText *string) (domain.PendingReply, error) {
	pr, err := s.store.GetPendingReply(ctx, id)
	if err != nil {
		return domain.PendingReply{}, err
	}
	if pr.Status != domain.StatusPending {
		return domain.PendingReply{}, fmt.Errorf("reply %d is %s: %w", id, pr.Status, domain.ErrInvalidState)
	}
	if editedText != nil && *editedText != "" {
		pr.Edited = editedText
	}
	text := pr.Text()
	if text == "" {
		return domain.PendingReply{}, fmt.Errorf("reply %d has no text: %w", id, domain.ErrInvalidState)
	}

	rv, err := s.store.GetReview(ctx, pr.ReviewID)
	if err != nil {
		return domain.PendingReply{}, err
	}
	loc, err := s.store.GetLocation(ctx, rv.LocationID)
	if err != nil {
		return domain.PendingReply{}, err
	}
	a, err := s.store.GetAccount(ctx, loc.AccountID)
	if err != nil {
		return domain.PendingReply{}, err
	}
	token, err := s.tokens.Token(ctx, a.ID)
	if err != nil {
		return domain.PendingReply{}, err
	}
	name, err := accountResourceName(ctx, s.store, s.platform, a, token)
	if err != nil {
		return domain.PendingReply{}, err
	}
	if err := s.platform.UpdateReply(ctx, token, name, loc.GoogleID, rv.GoogleID, text); err != nil {
		return domain.PendingReply{}, err
	}

	now := time.Now().UTC()
	if err := s.store.ApprovePendingReply(ctx, pr.ID, rv.ID, text, now); err != nil {
		return domain.PendingReply{}, err
	}
	invalidateReviewCaches(ctx, s.cache, rv.LocationID)

	pr.Status = domain.StatusApproved
	pr.ProcessedAt = &now
	return pr, nil
}

// Reject closes the reply without publishing anything.
func (s *ReplyService) Reject(ctx context.Context, id int64, reason *string) error {
	pr, err := s.store.GetPendingReply(ctx, id)
	if err != nil {
		return err
	}
	if pr.Status != domain.StatusPending {
		return fmt.Errorf("reply %d is %s: %w", id, pr.Status, domain.ErrInvalidState)
	}
	return s.store.RejectPendingReply(ctx, id, reason, time.Now().UTC())
}

// Edit stores operator-adjusted text on a still-pending reply.
func (s *ReplyService) Edit(ctx context.Context, id int64, text string) (domain.PendingReply, error) {
	pr, err := s.store.GetPendingReply(ctx, id)
	if err != nil {
		return domain.PendingReply{}, err
	}
	if pr.Status != domain.StatusPending {
		return domain.PendingReply{}, fmt.Errorf("reply %d is %s: %w", id, pr.Status, domain.ErrInvalidState)
	}
	if err := s.store.EditPendingReply(ctx, id, text); err != nil {
		return domain.PendingReply{}, err
	}
	pr.Edited = &text
	return pr, nil
}

// DeleteReply removes a published reply from the platform and clears the
// local copy. A reply the platform no longer has still gets cleared locally.
func (s *ReplyService) DeleteReply(ctx context.Context, reviewID int64) error {
	rv, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if !rv.Replied() {
		return fmt.Errorf("review %d has no published reply: %w", reviewID, domain.ErrInvalidState)
	}
	loc, err := s.store.GetLocation(ctx, rv.LocationID)
	if err != nil {
		return err
	}
	a, err := s.store.GetAccount(ctx, loc.AccountID)
	if err != nil {
		return err
	}
	token, err := s.tokens.Token(ctx, a.ID)
	if err != nil {
		return err
	}
	name, err := accountResourceName(ctx, s.store, s.platform, a, token)
	if err != nil {
		return err
	}
	if err := s.platform.DeleteReply(ctx, token, name, loc.GoogleID, rv.GoogleID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := s.store.ClearReviewReply(ctx, rv.ID); err != nil {
		return err
	}
	invalidateReviewCaches(ctx, s.cache, rv.LocationID)
	return nil
}
