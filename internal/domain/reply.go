package domain

import "time"

type ReplyStatus string

const (
	StatusPending  ReplyStatus = "pending"
	StatusApproved ReplyStatus = "approved"
	StatusRejected ReplyStatus = "rejected"
)

// PendingReply is one suggested reply moving through the approval workflow.
// pending is the only live state; approved and rejected are terminal.
type PendingReply struct {
	ID           int64
	ReviewID     int64
	TemplateID   *int64 // nil when the source template was deleted
	Suggested    string
	Edited       *string
	Status       ReplyStatus
	RejectReason *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// Text is what would be published: the operator's edit when present,
// otherwise the suggestion.
func (p PendingReply) Text() string {
	if p.Edited != nil && *p.Edited != "" {
		return *p.Edited
	}
	return p.Suggested
}
