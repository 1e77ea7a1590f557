package eligibility

import (
	"context"
	"math/rand"
	"sync"

	"github.com/coopvote/plenum/internal/model"
)

// SimulatedGateway approves or rejects members pseudo-randomly. It stands in
// for the external service in local runs when no eligibility URL is
// configured: roughly 3 in 10 identifiers are reported unknown and the rest
// are approved or barred by coin flip.
type SimulatedGateway struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// Compile-time check that SimulatedGateway implements Gateway.
var _ Gateway = (*SimulatedGateway)(nil)

// NewSimulatedGateway creates a simulated gateway with the given seed.
func NewSimulatedGateway(seed int64) *SimulatedGateway {
	return &SimulatedGateway{rand: rand.New(rand.NewSource(seed))}
}

func (g *SimulatedGateway) ValidateMember(ctx context.Context, memberID string) error {
	if err := model.ValidateMemberID(memberID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rand.Intn(10) < 3 {
		return model.ErrInvalidMemberID
	}
	if g.rand.Intn(2) == 0 {
		return model.ErrIneligibleMember
	}
	return nil
}

// AlwaysEligible approves every well-formed member identifier. Used by tests
// and by flows that only need format validation.
type AlwaysEligible struct{}

// Compile-time check that AlwaysEligible implements Gateway.
var _ Gateway = (*AlwaysEligible)(nil)

func (AlwaysEligible) ValidateMember(ctx context.Context, memberID string) error {
	return model.ValidateMemberID(memberID)
}
