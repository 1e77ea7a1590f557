package model

import "time"

// DefaultSessionDuration is applied when a session is opened without an
// explicit duration. Durations below one minute are rounded up to it.
const DefaultSessionDuration = time.Minute

// Session is the time-boxed voting window bound to one agenda item.
// A session is created open and transitions to closed exactly once, either
// by an explicit close directive or by the expiry sweeper.
type Session struct {
	ID           string    `json:"id"`
	AgendaItemID string    `json:"agenda_item_id"`
	OpensAt      time.Time `json:"opens_at"`
	ClosesAt     time.Time `json:"closes_at"`
	Open         bool      `json:"open"`
}

// IsOpen reports whether the session accepts votes at the given instant.
// The stored flag alone is not authoritative: a session whose deadline has
// passed but has not yet been swept no longer accepts votes.
func (s *Session) IsOpen(now time.Time) bool {
	return s.Open && now.Before(s.ClosesAt)
}

// SessionDuration normalizes a requested duration in minutes. Zero or
// negative values fall back to the one-minute default.
func SessionDuration(minutes int) time.Duration {
	if minutes <= 0 {
		return DefaultSessionDuration
	}
	return time.Duration(minutes) * time.Minute
}
