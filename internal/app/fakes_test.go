package app_test

import (
	"context"
	"encoding/json"
	"time"

	"replydesk/internal/domain"
)

// ---- fakes shared by the service tests ----

type fakeStore struct {
	accounts  map[int64]domain.Account
	locations map[int64]domain.Location
	reviews   map[int64]domain.Review
	templates map[int64]domain.Template
	pending   map[int64]domain.PendingReply

	nextAccount  int64
	nextLocation int64
	nextReview   int64
	nextTemplate int64
	nextPending  int64

	credsSaved   map[int64]domain.Credentials
	resourceSet  map[int64]string
	approvedText string

	savePendingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:    map[int64]domain.Account{},
		locations:   map[int64]domain.Location{},
		reviews:     map[int64]domain.Review{},
		templates:   map[int64]domain.Template{},
		pending:     map[int64]domain.PendingReply{},
		credsSaved:  map[int64]domain.Credentials{},
		resourceSet: map[int64]string{},
	}
}

func (f *fakeStore) UpsertAccount(ctx context.Context, a domain.Account) (int64, error) {
	for id, old := range f.accounts {
		if old.Email == a.Email {
			a.ID = id
			if a.RefreshToken == nil {
				a.RefreshToken = old.RefreshToken
			}
			a.ResourceName = old.ResourceName
			f.accounts[id] = a
			return id, nil
		}
	}
	f.nextAccount++
	a.ID = f.nextAccount
	f.accounts[a.ID] = a
	return a.ID, nil
}

func (f *fakeStore) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	for id := int64(1); id <= f.nextAccount; id++ {
		if a, ok := f.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeStore) SaveAccountCredentials(ctx context.Context, id int64, c domain.Credentials) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.AccessToken = c.AccessToken
	if c.RefreshToken != nil {
		a.RefreshToken = c.RefreshToken
	}
	a.TokenExpiry = c.Expiry
	f.accounts[id] = a
	f.credsSaved[id] = c
	return nil
}

func (f *fakeStore) SetAccountResourceName(ctx context.Context, id int64, name string) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.ResourceName = &name
	f.accounts[id] = a
	f.resourceSet[id] = name
	return nil
}

func (f *fakeStore) UpsertLocation(ctx context.Context, l domain.Location) error {
	for id, old := range f.locations {
		if old.GoogleID == l.GoogleID {
			l.ID = id
			if l.Address == nil {
				l.Address = old.Address
			}
			f.locations[id] = l
			return nil
		}
	}
	f.nextLocation++
	l.ID = f.nextLocation
	f.locations[l.ID] = l
	return nil
}

func (f *fakeStore) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) ListLocations(ctx context.Context, accountID *int64) ([]domain.Location, error) {
	var out []domain.Location
	for id := int64(1); id <= f.nextLocation; id++ {
		l, ok := f.locations[id]
		if !ok {
			continue
		}
		if accountID != nil && l.AccountID != *accountID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	for _, r := range rs {
		matched := false
		for id, old := range f.reviews {
			if old.GoogleID == r.GoogleID {
				r.ID = id
				if r.CreatedAt == nil {
					r.CreatedAt = old.CreatedAt
				}
				f.reviews[id] = r
				matched = true
				break
			}
		}
		if !matched {
			f.nextReview++
			r.ID = f.nextReview
			f.reviews[r.ID] = r
		}
	}
	return nil
}

func (f *fakeStore) GetReview(ctx context.Context, id int64) (domain.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListReviews(ctx context.Context, locationID int64, limit int) ([]domain.Review, error) {
	var out []domain.Review
	for id := int64(1); id <= f.nextReview; id++ {
		r, ok := f.reviews[id]
		if !ok || r.LocationID != locationID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ClearReviewReply(ctx context.Context, reviewID int64) error {
	r, ok := f.reviews[reviewID]
	if !ok {
		return domain.ErrNotFound
	}
	r.Reply = nil
	r.RepliedAt = nil
	f.reviews[reviewID] = r
	return nil
}

func (f *fakeStore) CreateTemplate(ctx context.Context, t domain.Template) (int64, error) {
	f.nextTemplate++
	t.ID = f.nextTemplate
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	f.templates[t.ID] = t
	return t.ID, nil
}

func (f *fakeStore) UpdateTemplate(ctx context.Context, t domain.Template) error {
	old, ok := f.templates[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	f.templates[t.ID] = t
	return nil
}

func (f *fakeStore) GetTemplate(ctx context.Context, id int64) (domain.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return domain.Template{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	var out []domain.Template
	for id := int64(1); id <= f.nextTemplate; id++ {
		t, ok := f.templates[id]
		if !ok {
			continue
		}
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) DeleteTemplate(ctx context.Context, id int64) error {
	if _, ok := f.templates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeStore) SavePendingSuggestion(ctx context.Context, pr domain.PendingReply) (int64, error) {
	if f.savePendingErr != nil {
		return 0, f.savePendingErr
	}
	for id, old := range f.pending {
		if old.ReviewID == pr.ReviewID && old.Status == domain.StatusPending {
			old.TemplateID = pr.TemplateID
			old.Suggested = pr.Suggested
			old.Edited = nil
			f.pending[id] = old
			return id, nil
		}
	}
	f.nextPending++
	pr.ID = f.nextPending
	pr.Status = domain.StatusPending
	pr.CreatedAt = time.Now().UTC()
	f.pending[pr.ID] = pr
	return pr.ID, nil
}

func (f *fakeStore) GetPendingReply(ctx context.Context, id int64) (domain.PendingReply, error) {
	pr, ok := f.pending[id]
	if !ok {
		return domain.PendingReply{}, domain.ErrNotFound
	}
	return pr, nil
}

func (f *fakeStore) ListPendingReplies(ctx context.Context) ([]domain.PendingReplyView, error) {
	var out []domain.PendingReplyView
	for id := int64(1); id <= f.nextPending; id++ {
		pr, ok := f.pending[id]
		if !ok || pr.Status != domain.StatusPending {
			continue
		}
		rv := f.reviews[pr.ReviewID]
		loc := f.locations[rv.LocationID]
		out = append(out, domain.PendingReplyView{
			ID:            pr.ID,
			ReviewID:      pr.ReviewID,
			TemplateID:    pr.TemplateID,
			Suggested:     pr.Suggested,
			Edited:        pr.Edited,
			Status:        pr.Status,
			CreatedAt:     pr.CreatedAt,
			ReviewAuthor:  rv.Author,
			ReviewRating:  rv.Rating,
			ReviewComment: rv.Comment,
			LocationID:    loc.ID,
			LocationName:  loc.Name,
		})
	}
	return out, nil
}

func (f *fakeStore) EditPendingReply(ctx context.Context, id int64, text string) error {
	pr, ok := f.pending[id]
	if !ok || pr.Status != domain.StatusPending {
		return domain.ErrInvalidState
	}
	pr.Edited = &text
	f.pending[id] = pr
	return nil
}

func (f *fakeStore) RejectPendingReply(ctx context.Context, id int64, reason *string, at time.Time) error {
	pr, ok := f.pending[id]
	if !ok || pr.Status != domain.StatusPending {
		return domain.ErrInvalidState
	}
	pr.Status = domain.StatusRejected
	pr.RejectReason = reason
	pr.ProcessedAt = &at
	f.pending[id] = pr
	return nil
}

func (f *fakeStore) ApprovePendingReply(ctx context.Context, id, reviewID int64, text string, at time.Time) error {
	pr, ok := f.pending[id]
	if !ok || pr.Status != domain.StatusPending {
		return domain.ErrInvalidState
	}
	pr.Status = domain.StatusApproved
	if text != pr.Suggested {
		pr.Edited = &text
	}
	pr.ProcessedAt = &at
	f.pending[id] = pr
	f.approvedText = text

	rv, ok := f.reviews[reviewID]
	if !ok {
		return domain.ErrNotFound
	}
	rv.Reply = &text
	rv.RepliedAt = &at
	f.reviews[reviewID] = rv
	return nil
}

type page struct {
	items []map[string]any
	next  string
}

type publishCall struct {
	account, location, review, comment string
}

type fakePlatform struct {
	accounts    []map[string]any
	accountsErr error
	locPages    map[string]page // keyed by page token, "" is the first page
	revPages    map[string]page
	updateErr   error
	deleteErr   error

	accountCalls int
	updates      []publishCall
	deletes      []publishCall
}

func (p *fakePlatform) ListAccounts(ctx context.Context, token string) ([]map[string]any, error) {
	p.accountCalls++
	if p.accountsErr != nil {
		return nil, p.accountsErr
	}
	return p.accounts, nil
}

func (p *fakePlatform) ListLocations(ctx context.Context, token, accountName, pageToken string) ([]map[string]any, string, error) {
	pg := p.locPages[pageToken]
	return pg.items, pg.next, nil
}

func (p *fakePlatform) ListReviews(ctx context.Context, token, accountName, locationID, pageToken string) ([]map[string]any, string, error) {
	pg := p.revPages[pageToken]
	return pg.items, pg.next, nil
}

func (p *fakePlatform) UpdateReply(ctx context.Context, token, accountName, locationID, reviewID, comment string) error {
	if p.updateErr != nil {
		return p.updateErr
	}
	p.updates = append(p.updates, publishCall{accountName, locationID, reviewID, comment})
	return nil
}

func (p *fakePlatform) DeleteReply(ctx context.Context, token, accountName, locationID, reviewID string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deletes = append(p.deletes, publishCall{account: accountName, location: locationID, review: reviewID})
	return nil
}

// fakeCache round-trips through JSON so cached values never alias live data.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeAuth struct {
	email      string
	creds      domain.Credentials
	refreshed  domain.Credentials
	refreshErr error

	exchanged    []string
	refreshCalls int
}

func (f *fakeAuth) AuthCodeURL(state string) string {
	return "https://accounts.example/consent?state=" + state
}

func (f *fakeAuth) Exchange(ctx context.Context, code string) (string, domain.Credentials, error) {
	f.exchanged = append(f.exchanged, code)
	return f.email, f.creds, nil
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return domain.Credentials{}, f.refreshErr
	}
	return f.refreshed, nil
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// seedConnected wires an account with a fresh token, one location, and one
// unanswered 5-star review. Returns their ids.
func seedConnected(f *fakeStore) (accountID, locationID, reviewID int64) {
	exp := time.Now().Add(time.Hour).UTC()
	accountID, _ = f.UpsertAccount(context.Background(), domain.Account{
		Email:        "owner@example.com",
		ResourceName: ptr("accounts/9"),
		AccessToken:  "tok-live",
		RefreshToken: ptr("refresh-1"),
		TokenExpiry:  &exp,
	})
	_ = f.UpsertLocation(context.Background(), domain.Location{
		AccountID: accountID,
		GoogleID:  "501",
		Name:      "Blue Fork Diner",
	})
	locationID = f.nextLocation
	_ = f.UpsertReviews(context.Background(), []domain.Review{{
		LocationID: locationID,
		GoogleID:   "rev-1",
		Author:     "Ana",
		Rating:     5,
		Comment:    ptr("Great pancakes"),
		CreatedAt:  ptr(time.Now().Add(-24 * time.Hour).UTC()),
	}})
	reviewID = f.nextReview
	return accountID, locationID, reviewID
}
