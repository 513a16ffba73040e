package domain

import (
	"context"
	"time"
)

type Repository interface {
	// Accounts
	UpsertAccount(ctx context.Context, a Account) (int64, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	SaveAccountCredentials(ctx context.Context, id int64, c Credentials) error
	SetAccountResourceName(ctx context.Context, id int64, name string) error

	// Locations
	UpsertLocation(ctx context.Context, l Location) error
	GetLocation(ctx context.Context, id int64) (Location, error)
	ListLocations(ctx context.Context, accountID *int64) ([]Location, error)

	// Reviews
	UpsertReviews(ctx context.Context, rs []Review) error
	GetReview(ctx context.Context, id int64) (Review, error)
	ListReviews(ctx context.Context, locationID int64, limit int) ([]Review, error)
	ClearReviewReply(ctx context.Context, reviewID int64) error

	// Templates
	CreateTemplate(ctx context.Context, t Template) (int64, error)
	UpdateTemplate(ctx context.Context, t Template) error
	GetTemplate(ctx context.Context, id int64) (Template, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]Template, error)
	DeleteTemplate(ctx context.Context, id int64) error

	// Pending replies
	SavePendingSuggestion(ctx context.Context, pr PendingReply) (int64, error)
	GetPendingReply(ctx context.Context, id int64) (PendingReply, error)
	ListPendingReplies(ctx context.Context) ([]PendingReplyView, error)
	EditPendingReply(ctx context.Context, id int64, text string) error
	RejectPendingReply(ctx context.Context, id int64, reason *string, at time.Time) error
	ApprovePendingReply(ctx context.Context, id, reviewID int64, text string, at time.Time) error
}

// Platform is the outbound Business Profile surface. Reads may retry
// transient failures; UpdateReply and DeleteReply are single-attempt so the
// operator stays in control of every publish.
type Platform interface {
	ListAccounts(ctx context.Context, token string) ([]map[string]any, error)
	ListLocations(ctx context.Context, token, accountName, pageToken string) ([]map[string]any, string, error)
	ListReviews(ctx context.Context, token, accountName, locationID, pageToken string) ([]map[string]any, string, error)
	UpdateReply(ctx context.Context, token, accountName, locationID, reviewID, comment string) error
	DeleteReply(ctx context.Context, token, accountName, locationID, reviewID string) error
}

// Authenticator covers the OAuth dance against the identity provider.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (email string, c Credentials, err error)
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models

// PendingReplyView joins a pending reply with enough review and location
// context for the approval queue.
type PendingReplyView struct {
	ID            int64
	ReviewID      int64
	TemplateID    *int64
	Suggested     string
	Edited        *string
	Status        ReplyStatus
	CreatedAt     time.Time
	ReviewAuthor  string
	ReviewRating  int
	ReviewComment *string
	LocationID    int64
	LocationName  string
}
