package app

import (
	"context"
	"fmt"
	"time"

	"replydesk/internal/domain"
)

// tokenExpirySkew refreshes tokens slightly before they expire so an
// in-flight platform call never races the expiry.
const tokenExpirySkew = 5 * time.Minute

// TokenProvider hands out a usable access token for an account.
type TokenProvider interface {
	Token(ctx context.Context, accountID int64) (string, error)
}

type AccountService struct {
	store domain.Repository
	auth  domain.Authenticator
}

func NewAccountService(store domain.Repository, auth domain.Authenticator) *AccountService {
	return &AccountService{store: store, auth: auth}
}

// BeginLogin returns the provider consent URL for a state nonce minted by
// the HTTP layer.
func (s *AccountService) BeginLogin(state string) string {
	return s.auth.AuthCodeURL(state)
}

// CompleteLogin exchanges the callback code and connects (or reconnects) the
// account keyed by the Google identity's email.
func (s *AccountService) CompleteLogin(ctx context.Context, code string) (domain.Account, error) {
	email, creds, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return domain.Account{}, err
	}
	a := domain.Account{
		Email:        email,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenExpiry:  creds.Expiry,
	}
	id, err := s.store.UpsertAccount(ctx, a)
	if err != nil {
		return domain.Account{}, err
	}
	return s.store.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Disconnect removes the account and everything synced under it.
func (s *AccountService) Disconnect(ctx context.Context, id int64) error {
	return s.store.DeleteAccount(ctx, id)
}

// Token returns a usable access token for the account, refreshing and
// persisting it when expiry falls inside the skew window.
func (s *AccountService) Token(ctx context.Context, accountID int64) (string, error) {
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if a.TokenExpiry == nil || time.Until(*a.TokenExpiry) > tokenExpirySkew {
		return a.AccessToken, nil
	}
	if a.RefreshToken == nil || *a.RefreshToken == "" {
		return "", fmt.Errorf("account %d token expired and no refresh token stored: %w", a.ID, domain.ErrAuth)
	}
	creds, err := s.auth.Refresh(ctx, *a.RefreshToken)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveAccountCredentials(ctx, a.ID, creds); err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}
