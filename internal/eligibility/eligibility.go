// Package eligibility answers whether a member may vote. The gateway is an
// unreliable external collaborator: it is consulted once per vote attempt and
// must never be called while holding store state.
package eligibility

import (
	"context"
)

// Gateway approves or rejects a member for voting.
// ValidateMember returns nil when the member may vote,
// model.ErrInvalidMemberID when the identifier is malformed or unknown, and
// model.ErrIneligibleMember when the member is barred from voting.
type Gateway interface {
	ValidateMember(ctx context.Context, memberID string) error
}

// Statuses reported by the eligibility service.
const (
	StatusAbleToVote   = "ABLE_TO_VOTE"
	StatusUnableToVote = "UNABLE_TO_VOTE"
)
