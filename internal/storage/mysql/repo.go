package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"replydesk/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Accounts

func scanAccount(row rowScanner) (domain.Account, error) {
	var a domain.Account
	var name, refresh sql.NullString
	var expiry sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&name,
		&a.AccessToken,
		&refresh,
		&expiry,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return domain.Account{}, err
	}
	a.ResourceName = nullStr(name)
	a.RefreshToken = nullStr(refresh)
	a.TokenExpiry = nullTime(expiry)
	return a, nil
}

// UpsertAccount keys on google_email; LAST_INSERT_ID(id) in the upsert makes
// LastInsertId return the existing row's id on a re-connect.
func (r *Repo) UpsertAccount(ctx context.Context, a domain.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertAccountSQL,
		a.Email,
		a.AccessToken,
		valStr(a.RefreshToken),
		valTime(a.TokenExpiry),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, getAccountSQL, id))
	if err == sql.ErrNoRows {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, err
}

func (r *Repo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, listAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteAccountSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) SaveAccountCredentials(ctx context.Context, id int64, c domain.Credentials) error {
	_, err := r.db.ExecContext(ctx, saveCredentialsSQL,
		c.AccessToken,
		valStr(c.RefreshToken),
		valTime(c.Expiry),
		id,
	)
	return err
}

func (r *Repo) SetAccountResourceName(ctx context.Context, id int64, name string) error {
	_, err := r.db.ExecContext(ctx, setAccountNameSQL, name, id)
	return err
}

// Locations

func scanLocation(row rowScanner) (domain.Location, error) {
	var l domain.Location
	var address sql.NullString
	if err := row.Scan(
		&l.ID,
		&l.AccountID,
		&l.GoogleID,
		&l.Name,
		&address,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return domain.Location{}, err
	}
	l.Address = nullStr(address)
	return l, nil
}

func (r *Repo) UpsertLocation(ctx context.Context, l domain.Location) error {
	_, err := r.db.ExecContext(ctx, upsertLocationSQL,
		l.AccountID,
		l.GoogleID,
		l.Name,
		valStr(l.Address),
	)
	return err
}

func (r *Repo) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	l, err := scanLocation(r.db.QueryRowContext(ctx, getLocationSQL, id))
	if err == sql.ErrNoRows {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, err
}

func (r *Repo) ListLocations(ctx context.Context, accountID *int64) ([]domain.Location, error) {
	q := listLocationsSQL
	args := []any{}
	if accountID != nil {
		q += "WHERE account_id = ?\n"
		args = append(args, *accountID)
	}
	q += "ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Reviews

func scanReview(row rowScanner) (domain.Review, error) {
	var rv domain.Review
	var comment, reply sql.NullString
	var repliedAt, createdAt sql.NullTime
	var raw []byte
	if err := row.Scan(
		&rv.ID,
		&rv.LocationID,
		&rv.GoogleID,
		&rv.Author,
		&rv.Rating,
		&comment,
		&reply,
		&repliedAt,
		&createdAt,
		&raw,
	); err != nil {
		return domain.Review{}, err
	}
	rv.Comment = nullStr(comment)
	rv.Reply = nullStr(reply)
	rv.RepliedAt = nullTime(repliedAt)
	rv.CreatedAt = nullTime(createdAt)
	if len(raw) > 0 {
		rv.RawJSON = append([]byte(nil), raw...)
	}
	return rv, nil
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*9) // 9 params per row
	for _, rv := range rs {
		// Columns (from insertReviewsPrefix):
		// (location_id, google_id, author, rating, comment, reply, replied_at, created_at, raw)
		// created_at value is COALESCE(?, CURRENT_TIMESTAMP) to allow "unknown" timestamps.
		values = append(values, "(?,?,?,?,?,?,?,COALESCE(?, CURRENT_TIMESTAMP),?)")
		args = append(args,
			rv.LocationID,          // location_id
			rv.GoogleID,            // google_id
			rv.Author,              // author
			rv.Rating,              // rating
			valStr(rv.Comment),     // comment
			valStr(rv.Reply),       // reply
			valTime(rv.RepliedAt),  // replied_at
			valTime(rv.CreatedAt),  // created_at param to COALESCE
			valJSON(rv.RawJSON),    // raw
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) GetReview(ctx context.Context, id int64) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
	if err == sql.ErrNoRows {
		return domain.Review{}, domain.ErrNotFound
	}
	return rv, err
}

func (r *Repo) ListReviews(ctx context.Context, locationID int64, limit int) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, locationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) ClearReviewReply(ctx context.Context, reviewID int64) error {
	_, err := r.db.ExecContext(ctx, clearReviewReplySQL, reviewID)
	return err
}

// Templates

func scanTemplate(row rowScanner) (domain.Template, error) {
	var t domain.Template
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Body,
		&t.RatingMin,
		&t.RatingMax,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *Repo) CreateTemplate(ctx context.Context, t domain.Template) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertTemplateSQL,
		t.Name,
		t.Body,
		t.RatingMin,
		t.RatingMax,
		t.Active,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateTemplate does not inspect RowsAffected: MySQL reports 0 for updates
// that change nothing, and callers check existence beforehand.
func (r *Repo) UpdateTemplate(ctx context.Context, t domain.Template) error {
	_, err := r.db.ExecContext(ctx, updateTemplateSQL,
		t.Name,
		t.Body,
		t.RatingMin,
		t.RatingMax,
		t.Active,
		t.ID,
	)
	return err
}

func (r *Repo) GetTemplate(ctx context.Context, id int64) (domain.Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx, getTemplateSQL, id))
	if err == sql.ErrNoRows {
		return domain.Template{}, domain.ErrNotFound
	}
	return t, err
}

func (r *Repo) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	q := listTemplatesSQL
	if activeOnly {
		q += "WHERE active = 1\n"
	}
	q += "ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteTemplateSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Pending replies

func scanPending(row rowScanner) (domain.PendingReply, error) {
	var pr domain.PendingReply
	var templateID sql.NullInt64
	var edited, reason sql.NullString
	var processedAt sql.NullTime
	if err := row.Scan(
		&pr.ID,
		&pr.ReviewID,
		&templateID,
		&pr.Suggested,
		&edited,
		&pr.Status,
		&reason,
		&pr.CreatedAt,
		&processedAt,
	); err != nil {
		return domain.PendingReply{}, err
	}
	pr.TemplateID = nullInt64(templateID)
	pr.Edited = nullStr(edited)
	pr.RejectReason = nullStr(reason)
	pr.ProcessedAt = nullTime(processedAt)
	return pr, nil
}

// SavePendingSuggestion inserts a fresh draft or, through uq_pending_review,
// replaces the live draft for the same review in place (same id, edits
// discarded).
func (r *Repo) SavePendingSuggestion(ctx context.Context, pr domain.PendingReply) (int64, error) {
	res, err := r.db.ExecContext(ctx, savePendingSQL,
		pr.ReviewID,
		valInt64(pr.TemplateID),
		pr.Suggested,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetPendingReply(ctx context.Context, id int64) (domain.PendingReply, error) {
	pr, err := scanPending(r.db.QueryRowContext(ctx, getPendingSQL, id))
	if err == sql.ErrNoRows {
		return domain.PendingReply{}, domain.ErrNotFound
	}
	return pr, err
}

func (r *Repo) ListPendingReplies(ctx context.Context) ([]domain.PendingReplyView, error) {
	rows, err := r.db.QueryContext(ctx, listPendingViewSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingReplyView
	for rows.Next() {
		var v domain.PendingReplyView
		var templateID sql.NullInt64
		var edited, comment sql.NullString
		if err := rows.Scan(
			&v.ID,
			&v.ReviewID,
			&templateID,
			&v.Suggested,
			&edited,
			&v.Status,
			&v.CreatedAt,
			&v.ReviewAuthor,
			&v.ReviewRating,
			&comment,
			&v.LocationID,
			&v.LocationName,
		); err != nil {
			return nil, err
		}
		v.TemplateID = nullInt64(templateID)
		v.Edited = nullStr(edited)
		v.ReviewComment = nullStr(comment)
		out = append(out, v)
	}
	return out, rows.Err()
}

// EditPendingReply only touches live drafts; the status guard turns a lost
// race against approve or reject into a no-op rather than a stale overwrite.
func (r *Repo) EditPendingReply(ctx context.Context, id int64, text string) error {
	_, err := r.db.ExecContext(ctx, editPendingSQL, text, id)
	return err
}

func (r *Repo) RejectPendingReply(ctx context.Context, id int64, reason *string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, rejectPendingSQL, valStr(reason), at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// ApprovePendingReply closes the draft and records the published text on the
// review in one transaction. The status guard makes the transition safe under
// concurrent approvals: the loser sees zero affected rows.
func (r *Repo) ApprovePendingReply(ctx context.Context, id, reviewID int64, text string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, approvePendingSQL, text, text, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvalidState
	}
	if _, err := tx.ExecContext(ctx, setReviewReplySQL, text, at, reviewID); err != nil {
		return err
	}
	return tx.Commit()
}
