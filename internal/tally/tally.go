// Package tally computes vote counts and outcome classification for a
// session. Computation is a pure read over persisted votes: safe to call
// repeatedly, caches nothing.
package tally

import (
	"context"
	"fmt"
	"time"

	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/store"
)

// Compute builds the result snapshot for an agenda item. It returns
// model.ErrNotFound when the agenda item does not exist or has no session.
func Compute(ctx context.Context, s store.Store, agendaItemID string) (*model.Result, error) {
	item, err := s.GetAgendaItem(ctx, agendaItemID)
	if err != nil {
		return nil, err
	}

	session, err := s.GetSessionByAgendaItem(ctx, agendaItemID)
	if err != nil {
		return nil, err
	}

	total, err := s.CountVotes(ctx, agendaItemID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	yes, err := s.CountVotesByChoice(ctx, agendaItemID, model.ChoiceYes)
	if err != nil {
		return nil, fmt.Errorf("count yes votes: %w", err)
	}
	no, err := s.CountVotesByChoice(ctx, agendaItemID, model.ChoiceNo)
	if err != nil {
		return nil, fmt.Errorf("count no votes: %w", err)
	}

	return &model.Result{
		AgendaItemID: agendaItemID,
		Title:        item.Title,
		TotalVotes:   total,
		Yes:          yes,
		No:           no,
		Outcome:      model.ClassifyOutcome(yes, no),
		Closed:       !session.IsOpen(time.Now().UTC()),
	}, nil
}
