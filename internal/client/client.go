// Package client provides a transport-agnostic interface for the plenum
// voting service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/coopvote/plenum/internal/model"
)

// VotingClient is the interface the plenum CLI commands use to communicate
// with the voting server.
type VotingClient interface {
	// Agenda items
	CreateAgendaItem(ctx context.Context, title, description string) (*model.AgendaItem, error)
	GetAgendaItem(ctx context.Context, id string) (*model.AgendaItem, error)
	ListAgendaItems(ctx context.Context) (*ListAgendaItemsResponse, error)
	DeleteAgendaItem(ctx context.Context, id string) error

	// Sessions
	OpenSession(ctx context.Context, agendaItemID string, durationMinutes int) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	CloseSession(ctx context.Context, id string) (*model.Session, error)

	// Votes
	CastVote(ctx context.Context, agendaItemID, memberID string, choice model.Choice) (*model.Vote, error)

	// Results
	GetResult(ctx context.Context, agendaItemID string) (*model.Result, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// ListAgendaItemsResponse is the response from ListAgendaItems.
type ListAgendaItemsResponse struct {
	Items []*model.AgendaItem `json:"items"`
	Total int                 `json:"total"`
}
