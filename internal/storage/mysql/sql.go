package mysql

const upsertAccountSQL = `
INSERT INTO accounts
  (google_email, access_token, refresh_token, token_expiry)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  access_token  = VALUES(access_token),
  refresh_token = COALESCE(VALUES(refresh_token), accounts.refresh_token),
  token_expiry  = VALUES(token_expiry),
  updated_at    = CURRENT_TIMESTAMP,
  id            = LAST_INSERT_ID(id)
`

const saveCredentialsSQL = `
UPDATE accounts
SET access_token  = ?,
    refresh_token = COALESCE(?, refresh_token),
    token_expiry  = ?
WHERE id = ?
`

const setAccountNameSQL = `UPDATE accounts SET google_name = ? WHERE id = ?`

const deleteAccountSQL = `DELETE FROM accounts WHERE id = ?`

const upsertLocationSQL = `
INSERT INTO locations
  (account_id, google_id, name, address)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  account_id = VALUES(account_id),
  name       = VALUES(name),
  address    = COALESCE(VALUES(address), locations.address),
  updated_at = CURRENT_TIMESTAMP
`

const insertReviewsPrefix = "INSERT INTO reviews\n  (location_id, google_id, author, rating, comment, reply, replied_at, created_at, raw)\nVALUES "

// reply and replied_at take VALUES() as-is: the platform is authoritative for
// reply state, so a reply removed upstream clears locally on the next sync.
// Use VALUES(col) for broad compatibility; COALESCE keeps old value if new is NULL.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  author     = VALUES(author),\n" +
	"  rating     = VALUES(rating),\n" +
	"  comment    = VALUES(comment),\n" +
	"  reply      = VALUES(reply),\n" +
	"  replied_at = VALUES(replied_at),\n" +
	"  created_at = COALESCE(VALUES(created_at), reviews.created_at),\n" +
	"  raw        = COALESCE(VALUES(raw), reviews.raw)\n"

const setReviewReplySQL = `UPDATE reviews SET reply = ?, replied_at = ? WHERE id = ?`

const clearReviewReplySQL = `UPDATE reviews SET reply = NULL, replied_at = NULL WHERE id = ?`

const insertTemplateSQL = `
INSERT INTO templates
  (name, body, rating_min, rating_max, active)
VALUES
  (?, ?, ?, ?, ?)
`

const updateTemplateSQL = `
UPDATE templates
SET name = ?, body = ?, rating_min = ?, rating_max = ?, active = ?
WHERE id = ?
`

const deleteTemplateSQL = `DELETE FROM templates WHERE id = ?`

// The uq_pending_review index only covers rows with status 'pending', so this
// collides with (and replaces) the live draft for the review, never with the
// processed history.
const savePendingSQL = `
INSERT INTO pending_replies
  (review_id, template_id, suggested, status)
VALUES
  (?, ?, ?, 'pending')
ON DUPLICATE KEY UPDATE
  template_id = VALUES(template_id),
  suggested   = VALUES(suggested),
  edited      = NULL,
  created_at  = CURRENT_TIMESTAMP,
  id          = LAST_INSERT_ID(id)
`

const editPendingSQL = `UPDATE pending_replies SET edited = ? WHERE id = ? AND status = 'pending'`

const rejectPendingSQL = `
UPDATE pending_replies
SET status = 'rejected', reject_reason = ?, processed_at = ?
WHERE id = ? AND status = 'pending'
`

// IF() leaves edited untouched when the published text already matches the
// suggestion, so an unedited approval stays recognisable as such.
const approvePendingSQL = `
UPDATE pending_replies
SET status = 'approved', edited = IF(? = suggested, edited, ?), processed_at = ?
WHERE id = ? AND status = 'pending'
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getAccountSQL = `
SELECT id, google_email, google_name, access_token, refresh_token, token_expiry, created_at, updated_at
FROM accounts
WHERE id = ?
`

const listAccountsSQL = `
SELECT id, google_email, google_name, access_token, refresh_token, token_expiry, created_at, updated_at
FROM accounts
ORDER BY id
`

const getLocationSQL = `
SELECT id, account_id, google_id, name, address, created_at, updated_at
FROM locations
WHERE id = ?
`

// The repo appends an optional account filter plus ORDER BY.
const listLocationsSQL = `
SELECT id, account_id, google_id, name, address, created_at, updated_at
FROM locations
`

const getReviewSQL = `
SELECT id, location_id, google_id, author, rating, comment, reply, replied_at, created_at, raw
FROM reviews
WHERE id = ?
`

const listReviewsSQL = `
SELECT id, location_id, google_id, author, rating, comment, reply, replied_at, created_at, raw
FROM reviews
WHERE location_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const getTemplateSQL = `
SELECT id, name, body, rating_min, rating_max, active, created_at, updated_at
FROM templates
WHERE id = ?
`

// The repo appends an optional active filter plus ORDER BY.
const listTemplatesSQL = `
SELECT id, name, body, rating_min, rating_max, active, created_at, updated_at
FROM templates
`

const getPendingSQL = `
SELECT id, review_id, template_id, suggested, edited, status, reject_reason, created_at, processed_at
FROM pending_replies
WHERE id = ?
`

// The approval queue, oldest first, with enough review and location context
// to decide without extra lookups.
const listPendingViewSQL = `
SELECT
  p.id,
  p.review_id,
  p.template_id,
  p.suggested,
  p.edited,
  p.status,
  p.created_at,
  r.author,
  r.rating,
  r.comment,
  l.id,
  l.name
FROM pending_replies p
JOIN reviews r   ON r.id = p.review_id
JOIN locations l ON l.id = r.location_id
WHERE p.status = 'pending'
ORDER BY p.created_at, p.id
`
