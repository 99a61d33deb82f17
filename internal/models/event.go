package models

import "time"

// MaxEventTitleLen is the longest accepted event title, measured in runes so
// multi-byte titles are not penalized.
const MaxEventTitleLen = 150

// Event is a calendar entry owned by a single user.
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
