package domain

import "time"

type Review struct {
	ID         int64
	LocationID int64
	GoogleID   string // platform reviewId
	Author     string // reviewer display name; "Anonymous" when the platform omits it
	Rating     int    // 1..5; 0 when the platform value was absent or unparsable
	Comment    *string
	Reply      *string
	RepliedAt  *time.Time
	CreatedAt  *time.Time // platform createTime
	RawJSON    []byte     // full platform review payload
}

// Replied reports whether a published reply is recorded for the review.
func (r Review) Replied() bool { return r.Reply != nil && *r.Reply != "" }
