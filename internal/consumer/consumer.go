// Package consumer applies voting events from the durable channel to the
// store. Each sharded lane has one serial durable consumer, so all events for
// a given agenda item apply in order. Handlers acknowledge business-terminal
// outcomes and negatively acknowledge transient failures, which JetStream
// then redelivers.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/coopvote/plenum/internal/events"
	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/notify"
	"github.com/coopvote/plenum/internal/store"
	"github.com/coopvote/plenum/internal/tally"
)

// Consumer subscribes to the voting subjects and applies each event.
type Consumer struct {
	store      store.Store
	bus        *events.NATSBus
	publisher  events.Publisher
	dispatcher *notify.Dispatcher
	shards     int
	logger     *slog.Logger
	subs       []*nats.Subscription
}

// New creates a consumer over the given store and bus. shards must match the
// publishers' shard count or directives and ballots will land on lanes with
// no consumer.
func New(st store.Store, bus *events.NATSBus, dispatcher *notify.Dispatcher, shards int, logger *slog.Logger) *Consumer {
	if shards <= 0 {
		shards = events.DefaultShards
	}
	return &Consumer{
		store:      st,
		bus:        bus,
		publisher:  bus,
		dispatcher: dispatcher,
		shards:     shards,
		logger:     logger,
	}
}

// Start registers the durable subscriptions: one for agenda creation and one
// per lane for session directives and ballots.
func (c *Consumer) Start() error {
	sub, err := c.bus.QueueSubscribe(events.TopicAgendaCreate, "plenum-agenda", c.handleAgendaCreate)
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)

	for shard := 0; shard < c.shards; shard++ {
		sub, err := c.bus.QueueSubscribe(
			events.TopicSessionDirective(shard),
			fmt.Sprintf("plenum-session-%d", shard),
			c.handleSessionDirective,
		)
		if err != nil {
			return err
		}
		c.subs = append(c.subs, sub)

		sub, err = c.bus.QueueSubscribe(
			events.TopicBallotCast(shard),
			fmt.Sprintf("plenum-ballot-%d", shard),
			c.handleBallotCast,
		)
		if err != nil {
			return err
		}
		c.subs = append(c.subs, sub)
	}

	c.logger.Info("event consumer started", "shards", c.shards)
	return nil
}

// Stop drains the subscriptions, letting in-flight handlers finish.
func (c *Consumer) Stop() {
	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			c.logger.Warn("draining subscription", "err", err)
		}
	}
	c.subs = nil
}

func (c *Consumer) handleAgendaCreate(msg *nats.Msg) {
	var ev events.AgendaCreate
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Error("dropping malformed agenda event", "err", err)
		_ = msg.Term()
		return
	}
	c.finish(msg, "agenda create", ev.AgendaItemID, c.applyAgendaCreate(context.Background(), &ev))
}

func (c *Consumer) handleSessionDirective(msg *nats.Msg) {
	var ev events.SessionDirective
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Error("dropping malformed session directive", "err", err)
		_ = msg.Term()
		return
	}

	var err error
	switch ev.Op {
	case events.OpOpen:
		err = c.applyOpen(context.Background(), &ev)
	case events.OpClose:
		err = c.applyClose(context.Background(), &ev)
	default:
		c.logger.Error("dropping session directive with unknown op", "op", ev.Op)
		_ = msg.Term()
		return
	}
	c.finish(msg, "session "+ev.Op, ev.AgendaItemID, err)
}

func (c *Consumer) handleBallotCast(msg *nats.Msg) {
	var ev events.BallotCast
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Error("dropping malformed ballot", "err", err)
		_ = msg.Term()
		return
	}
	c.finish(msg, "ballot", ev.AgendaItemID, c.applyBallot(context.Background(), &ev))
}

// finish acknowledges the message. Business errors are terminal facts about
// the event itself (already applied, target gone, session over): they are
// logged and acked so the channel never redelivers them. Anything else is
// treated as transient and nacked for redelivery.
func (c *Consumer) finish(msg *nats.Msg, op, agendaItemID string, err error) {
	switch {
	case err == nil:
		_ = msg.Ack()
	case model.IsBusinessError(err):
		c.logger.Warn("event rejected", "op", op, "agenda_item_id", agendaItemID, "reason", err)
		_ = msg.Ack()
	default:
		c.logger.Error("event apply failed, requesting redelivery", "op", op, "agenda_item_id", agendaItemID, "err", err)
		_ = msg.Nak()
	}
}

// applyAgendaCreate persists a new agenda item. The ID was generated at
// request time, so a redelivered event finds the item already present and
// becomes a no-op.
func (c *Consumer) applyAgendaCreate(ctx context.Context, ev *events.AgendaCreate) error {
	_, err := c.store.GetAgendaItem(ctx, ev.AgendaItemID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	return c.store.CreateAgendaItem(ctx, &model.AgendaItem{
		ID:          ev.AgendaItemID,
		Title:       ev.Title,
		Description: ev.Description,
		CreatedAt:   time.Now().UTC(),
	})
}

// applyOpen creates the session for an agenda item. A second session for the
// same item, whether from a competing request or a redelivery, surfaces as
// model.ErrConflict and is dropped.
func (c *Consumer) applyOpen(ctx context.Context, ev *events.SessionDirective) error {
	if _, err := c.store.GetAgendaItem(ctx, ev.AgendaItemID); err != nil {
		return err
	}

	return c.store.CreateSession(ctx, &model.Session{
		ID:           ev.SessionID,
		AgendaItemID: ev.AgendaItemID,
		OpensAt:      ev.OpensAt,
		ClosesAt:     ev.ClosesAt,
		Open:         true,
	})
}

// applyClose transitions the session to closed and, only on the call that
// actually performed the transition, runs the closure side effects: the
// session-closed notification, the tally, and the result publication. Side
// effects are best-effort; the transition itself has already committed.
func (c *Consumer) applyClose(ctx context.Context, ev *events.SessionDirective) error {
	transitioned, err := c.store.CloseSession(ctx, ev.SessionID)
	if err != nil {
		return err
	}
	if !transitioned {
		return nil
	}

	c.logger.Info("session closed", "session_id", ev.SessionID, "agenda_item_id", ev.AgendaItemID)

	if err := c.publisher.Publish(ctx, events.TopicNotification, events.Notification{
		AgendaItemID: ev.AgendaItemID,
		SessionID:    ev.SessionID,
		Kind:         events.NotificationSessionClosed,
		SentAt:       time.Now().UnixMilli(),
	}); err != nil {
		c.logger.Error("publishing session-closed notification", "session_id", ev.SessionID, "err", err)
	}
	c.dispatcher.SessionClosed(ctx, ev.SessionID, ev.AgendaItemID)

	result, err := tally.Compute(ctx, c.store, ev.AgendaItemID)
	if err != nil {
		c.logger.Error("computing result after close", "agenda_item_id", ev.AgendaItemID, "err", err)
		return nil
	}

	if err := c.publisher.Publish(ctx, events.TopicResultPublished, events.ResultPublished{
		Result: result,
		SentAt: time.Now().UnixMilli(),
	}); err != nil {
		c.logger.Error("publishing result", "agenda_item_id", ev.AgendaItemID, "err", err)
	}
	if err := c.publisher.Publish(ctx, events.TopicNotification, events.Notification{
		AgendaItemID: ev.AgendaItemID,
		SessionID:    ev.SessionID,
		Kind:         events.NotificationVotingResult,
		Result:       result,
		SentAt:       time.Now().UnixMilli(),
	}); err != nil {
		c.logger.Error("publishing result notification", "agenda_item_id", ev.AgendaItemID, "err", err)
	}
	c.dispatcher.Result(ctx, result)

	return nil
}

// applyBallot records one member's vote. The checks here re-run the request
// phase's gate against current state, because the session may have closed
// while the ballot sat on the channel. The votes table's uniqueness index is
// the final arbiter for duplicates.
func (c *Consumer) applyBallot(ctx context.Context, ev *events.BallotCast) error {
	choice := model.Choice(ev.Choice)
	if !choice.IsValid() {
		c.logger.Warn("dropping ballot with invalid choice", "choice", ev.Choice)
		return nil
	}

	if _, err := c.store.GetAgendaItem(ctx, ev.AgendaItemID); err != nil {
		return err
	}

	session, err := c.store.GetSessionByAgendaItem(ctx, ev.AgendaItemID)
	if err != nil {
		return err
	}
	if !session.IsOpen(time.Now().UTC()) {
		return model.ErrSessionClosed
	}

	return c.store.CreateVote(ctx, &model.Vote{
		ID:           ev.VoteID,
		AgendaItemID: ev.AgendaItemID,
		MemberID:     ev.MemberID,
		Choice:       choice,
		CastAt:       time.Now().UTC(),
	})
}
