package domain

import "time"

type Location struct {
	ID        int64
	AccountID int64
	GoogleID  string // platform location id, without the "locations/" prefix
	Name      string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
