package events

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/coopvote/plenum/internal/model"
)

// Stream configuration. All voting subjects live in one JetStream stream so
// delivery is durable and at-least-once.
const (
	StreamName     = "PLENUM"
	StreamSubjects = "plenum.>"
)

// Unsharded topics.
const (
	TopicAgendaCreate    = "plenum.agenda.create"
	TopicResultPublished = "plenum.result.published"
	TopicNotification    = "plenum.notification"
)

// DefaultShards is the number of ordered lanes for session directives and
// ballots. Events for one agenda item always land on the same lane, so
// check-then-insert operations apply serially per item.
const DefaultShards = 3

// TopicSessionDirective returns the sharded subject for session open/close
// directives.
func TopicSessionDirective(shard int) string {
	return fmt.Sprintf("plenum.session.directive.%d", shard)
}

// TopicBallotCast returns the sharded subject for vote-cast intentions.
func TopicBallotCast(shard int) string {
	return fmt.Sprintf("plenum.ballot.cast.%d", shard)
}

// ShardFor maps an agenda item ID to its lane.
func ShardFor(agendaItemID string, shards int) int {
	if shards <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(agendaItemID))
	return int(h.Sum32() % uint32(shards))
}

// Session directive operations.
const (
	OpOpen  = "OPEN"
	OpClose = "CLOSE"
)

// Notification kinds.
const (
	NotificationSessionClosed = "SESSION_CLOSED"
	NotificationVotingResult  = "VOTING_RESULT"
)

// Event types

// AgendaCreate asks a consumer to persist a new agenda item. The ID is
// generated in the request phase so redelivery is an idempotent no-op.
type AgendaCreate struct {
	AgendaItemID string `json:"agenda_item_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	SentAt       int64  `json:"sent_at"`
}

// SessionDirective asks a consumer to open or close a voting session.
type SessionDirective struct {
	SessionID    string    `json:"session_id"`
	AgendaItemID string    `json:"agenda_item_id"`
	OpensAt      time.Time `json:"opens_at"`
	ClosesAt     time.Time `json:"closes_at"`
	Op           string    `json:"op"`
	SentAt       int64     `json:"sent_at"`
}

// BallotCast asks a consumer to apply one member's vote.
type BallotCast struct {
	VoteID       string `json:"vote_id"`
	AgendaItemID string `json:"agenda_item_id"`
	MemberID     string `json:"member_id"`
	Choice       string `json:"choice"`
	SentAt       int64  `json:"sent_at"`
}

// ResultPublished carries the final tally of a closed session.
type ResultPublished struct {
	Result *model.Result `json:"result"`
	SentAt int64         `json:"sent_at"`
}

// Notification carries a closure or result fact for downstream receivers.
type Notification struct {
	AgendaItemID string        `json:"agenda_item_id"`
	SessionID    string        `json:"session_id,omitempty"`
	Kind         string        `json:"kind"`
	Result       *model.Result `json:"result,omitempty"`
	SentAt       int64         `json:"sent_at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
