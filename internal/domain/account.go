package domain

import "time"

type Account struct {
	ID           int64
	Email        string
	ResourceName *string // platform account name ("accounts/123"), learned on first use
	AccessToken  string
	RefreshToken *string
	TokenExpiry  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials is the OAuth token material persisted per account.
type Credentials struct {
	AccessToken  string
	RefreshToken *string
	Expiry       *time.Time
}
