package model

import "errors"

// Business errors surfaced by the voting core. These are terminal outcomes:
// callers must report them, never retry them. The event consumers treat them
// as idempotent no-ops on redelivery.
var (
	// ErrNotFound indicates a referenced agenda item or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a session already exists for the agenda item.
	ErrConflict = errors.New("a voting session already exists for this agenda item")

	// ErrSessionClosed indicates a vote arrived after the session's deadline
	// or after an explicit close.
	ErrSessionClosed = errors.New("voting session is closed")

	// ErrDuplicateVote indicates the member already voted on the agenda item.
	ErrDuplicateVote = errors.New("member has already voted on this agenda item")

	// ErrInvalidMemberID indicates the member identifier is not exactly
	// 11 numeric digits.
	ErrInvalidMemberID = errors.New("member id must be 11 numeric digits")

	// ErrIneligibleMember indicates the eligibility gateway rejected the member.
	ErrIneligibleMember = errors.New("member is not eligible to vote")
)

// IsBusinessError reports whether err is one of the terminal business
// outcomes above, as opposed to a transient failure worth redelivering.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrDuplicateVote) ||
		errors.Is(err, ErrInvalidMemberID) ||
		errors.Is(err, ErrIneligibleMember)
}
