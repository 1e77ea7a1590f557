package store

import (
	"context"
	"time"

	"github.com/coopvote/plenum/internal/model"
)

// Store defines the persistence interface for the voting system.
// Implementations translate lookups that find nothing into model.ErrNotFound
// and uniqueness violations into model.ErrConflict (sessions) or
// model.ErrDuplicateVote (votes), so that business rules hold even when the
// application-level existence checks are raced.
type Store interface {
	// Agenda items
	CreateAgendaItem(ctx context.Context, item *model.AgendaItem) error
	GetAgendaItem(ctx context.Context, id string) (*model.AgendaItem, error)
	ListAgendaItems(ctx context.Context) ([]*model.AgendaItem, error)
	DeleteAgendaItem(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	GetSessionByAgendaItem(ctx context.Context, agendaItemID string) (*model.Session, error)
	// CloseSession flips the session to closed. It returns true only when
	// this call performed the open-to-closed transition, so closure side
	// effects run exactly once no matter how often closing is retried.
	CloseSession(ctx context.Context, id string) (bool, error)
	// ListExpiredSessions returns sessions still flagged open whose deadline
	// is at or before now.
	ListExpiredSessions(ctx context.Context, now time.Time) ([]*model.Session, error)
	ListSessions(ctx context.Context) ([]*model.Session, error)

	// Votes
	CreateVote(ctx context.Context, vote *model.Vote) error
	ListVotes(ctx context.Context, agendaItemID string) ([]*model.Vote, error)
	CountVotes(ctx context.Context, agendaItemID string) (int64, error)
	CountVotesByChoice(ctx context.Context, agendaItemID string, choice model.Choice) (int64, error)

	// Lifecycle
	Close() error
}
