// Package server implements the voting service: the request phase of every
// operation. Writes are validated synchronously against current state, then
// handed to the event channel; the consumer applies them in per-item order.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coopvote/plenum/internal/eligibility"
	"github.com/coopvote/plenum/internal/events"
	"github.com/coopvote/plenum/internal/idgen"
	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/store"
	"github.com/coopvote/plenum/internal/tally"
)

// VotingServer handles the request phase of voting operations.
type VotingServer struct {
	store       store.Store
	publisher   events.Publisher
	eligibility eligibility.Gateway
	shards      int
	logger      *slog.Logger
}

// NewVotingServer returns a server over the given store and publisher.
func NewVotingServer(s store.Store, p events.Publisher, g eligibility.Gateway, shards int, logger *slog.Logger) *VotingServer {
	if shards <= 0 {
		shards = events.DefaultShards
	}
	return &VotingServer{
		store:       s,
		publisher:   p,
		eligibility: g,
		shards:      shards,
		logger:      logger,
	}
}

// inputError indicates invalid user input.
// Transport layers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// createAgendaItem validates the input, assigns an ID, and publishes the
// creation event. The returned item reflects what the consumer will persist.
func (s *VotingServer) createAgendaItem(ctx context.Context, title, description string) (*model.AgendaItem, error) {
	item := &model.AgendaItem{
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := model.ValidateAgendaItem(item); err != nil {
		return nil, inputError(err.Error())
	}

	id, err := idgen.Generate(idgen.AgendaPrefix)
	if err != nil {
		return nil, err
	}
	item.ID = id

	if err := s.publisher.Publish(ctx, events.TopicAgendaCreate, events.AgendaCreate{
		AgendaItemID: item.ID,
		Title:        item.Title,
		Description:  item.Description,
		SentAt:       time.Now().UnixMilli(),
	}); err != nil {
		return nil, fmt.Errorf("publishing agenda create: %w", err)
	}

	s.logger.Info("agenda item accepted", "agenda_item_id", item.ID)
	return item, nil
}

// openSession checks the agenda item exists and has no session yet, then
// publishes an open directive on the item's lane. The session ID and window
// are fixed here so redelivery is idempotent.
func (s *VotingServer) openSession(ctx context.Context, agendaItemID string, durationMinutes int) (*model.Session, error) {
	if _, err := s.store.GetAgendaItem(ctx, agendaItemID); err != nil {
		return nil, err
	}

	_, err := s.store.GetSessionByAgendaItem(ctx, agendaItemID)
	if err == nil {
		return nil, model.ErrConflict
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	id, err := idgen.Generate(idgen.SessionPrefix)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:           id,
		AgendaItemID: agendaItemID,
		OpensAt:      now,
		ClosesAt:     now.Add(model.SessionDuration(durationMinutes)),
		Open:         true,
	}

	if err := s.publishDirective(ctx, session, events.OpOpen); err != nil {
		return nil, fmt.Errorf("publishing open directive: %w", err)
	}

	s.logger.Info("session open accepted",
		"session_id", session.ID, "agenda_item_id", agendaItemID, "closes_at", session.ClosesAt)
	return session, nil
}

// closeSession publishes a close directive for the session. The directive is
// identical to what the sweeper emits, so explicit and expiry closure share
// one apply path. Closing an already-closed session is a no-op, not an error.
func (s *VotingServer) closeSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open {
		return session, nil
	}

	if err := s.publishDirective(ctx, session, events.OpClose); err != nil {
		return nil, fmt.Errorf("publishing close directive: %w", err)
	}

	s.logger.Info("session close accepted", "session_id", sessionID)
	return session, nil
}

// castVote runs the full vote gate: member format, eligibility, session
// window, and duplicate check, then publishes the ballot on the item's lane.
// The consumer re-runs the state checks at apply time; the checks here exist
// so callers get the business error synchronously.
func (s *VotingServer) castVote(ctx context.Context, agendaItemID, memberID string, choice model.Choice) (*model.Vote, error) {
	if !choice.IsValid() {
		return nil, inputError(fmt.Sprintf("choice must be %s or %s", model.ChoiceYes, model.ChoiceNo))
	}
	if err := s.eligibility.ValidateMember(ctx, memberID); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAgendaItem(ctx, agendaItemID); err != nil {
		return nil, err
	}
	session, err := s.store.GetSessionByAgendaItem(ctx, agendaItemID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen(time.Now().UTC()) {
		return nil, model.ErrSessionClosed
	}

	votes, err := s.store.ListVotes(ctx, agendaItemID)
	if err != nil {
		return nil, err
	}
	for _, v := range votes {
		if v.MemberID == memberID {
			return nil, model.ErrDuplicateVote
		}
	}

	id, err := idgen.Generate(idgen.VotePrefix)
	if err != nil {
		return nil, err
	}
	vote := &model.Vote{
		ID:           id,
		AgendaItemID: agendaItemID,
		MemberID:     memberID,
		Choice:       choice,
		CastAt:       time.Now().UTC(),
	}

	shard := events.ShardFor(agendaItemID, s.shards)
	if err := s.publisher.Publish(ctx, events.TopicBallotCast(shard), events.BallotCast{
		VoteID:       vote.ID,
		AgendaItemID: agendaItemID,
		MemberID:     memberID,
		Choice:       choice.String(),
		SentAt:       time.Now().UnixMilli(),
	}); err != nil {
		return nil, fmt.Errorf("publishing ballot: %w", err)
	}

	s.logger.Info("ballot accepted", "vote_id", vote.ID, "agenda_item_id", agendaItemID)
	return vote, nil
}

// getResult computes the current tally. Reading the result never mutates
// state; a session past its deadline reports closed even before the sweeper
// reaches it.
func (s *VotingServer) getResult(ctx context.Context, agendaItemID string) (*model.Result, error) {
	return tally.Compute(ctx, s.store, agendaItemID)
}

func (s *VotingServer) publishDirective(ctx context.Context, session *model.Session, op string) error {
	shard := events.ShardFor(session.AgendaItemID, s.shards)
	return s.publisher.Publish(ctx, events.TopicSessionDirective(shard), events.SessionDirective{
		SessionID:    session.ID,
		AgendaItemID: session.AgendaItemID,
		OpensAt:      session.OpensAt,
		ClosesAt:     session.ClosesAt,
		Op:           op,
		SentAt:       time.Now().UnixMilli(),
	})
}
