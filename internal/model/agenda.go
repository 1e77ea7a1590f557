package model

import "time"

// AgendaItem is a proposal subject to a vote. Items are immutable after
// creation; at most one voting session is ever bound to an item.
type AgendaItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
