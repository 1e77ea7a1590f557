// Package archive exports the voting record as JSONL and ships it to
// configured destinations on a schedule. The export is an audit snapshot, not
// a backup: it carries agenda items, sessions, and raw votes in a stable
// order so two exports of the same state are byte-identical apart from the
// header timestamp.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/coopvote/plenum/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	AgendaCount  int       `json:"agenda_count"`
	SessionCount int       `json:"session_count"`
	VoteCount    int       `json:"vote_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes all agenda items, sessions, and votes from the store as
// JSONL to w. Records are sorted by ID within each type.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	items, err := s.ListAgendaItems(ctx)
	if err != nil {
		return fmt.Errorf("list agenda items: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	voteCount := 0
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	// Votes are fetched per item so the count is known before any record is
	// written; buffer them keyed in item order.
	votesByItem := make(map[string][]any, len(items))
	for _, item := range items {
		votes, err := s.ListVotes(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list votes for %s: %w", item.ID, err)
		}
		sort.Slice(votes, func(i, j int) bool { return votes[i].ID < votes[j].ID })
		rows := make([]any, len(votes))
		for i, v := range votes {
			rows[i] = v
		}
		votesByItem[item.ID] = rows
		voteCount += len(votes)
	}

	if err := enc.Encode(header{
		Version:      "1",
		Type:         "header",
		Timestamp:    time.Now().UTC(),
		AgendaCount:  len(items),
		SessionCount: len(sessions),
		VoteCount:    voteCount,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, item := range items {
		if err := enc.Encode(record{Type: "agenda_item", Data: item}); err != nil {
			return fmt.Errorf("encode agenda item %s: %w", item.ID, err)
		}
	}
	for _, sess := range sessions {
		if err := enc.Encode(record{Type: "session", Data: sess}); err != nil {
			return fmt.Errorf("encode session %s: %w", sess.ID, err)
		}
	}
	for _, item := range items {
		for _, v := range votesByItem[item.ID] {
			if err := enc.Encode(record{Type: "vote", Data: v}); err != nil {
				return fmt.Errorf("encode vote: %w", err)
			}
		}
	}

	return nil
}
