package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coopvote/plenum/internal/model"
)

func TestSessionUniquenessPerAgendaItem(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.CreateAgendaItem(ctx, &model.AgendaItem{ID: "ag-1", Title: "t", CreatedAt: now}); err != nil {
		t.Fatalf("CreateAgendaItem: %v", err)
	}
	first := &model.Session{ID: "se-1", AgendaItemID: "ag-1", OpensAt: now, ClosesAt: now.Add(time.Minute), Open: true}
	if err := s.CreateSession(ctx, first); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	second := &model.Session{ID: "se-2", AgendaItemID: "ag-1", OpensAt: now, ClosesAt: now.Add(time.Minute), Open: true}
	if err := s.CreateSession(ctx, second); !errors.Is(err, model.ErrConflict) {
		t.Errorf("second session: got %v, want ErrConflict", err)
	}
}

func TestVoteUniquenessPerMember(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	v := &model.Vote{ID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: model.ChoiceYes, CastAt: now}
	if err := s.CreateVote(ctx, v); err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	dup := &model.Vote{ID: "vt-2", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: model.ChoiceNo, CastAt: now}
	if err := s.CreateVote(ctx, dup); !errors.Is(err, model.ErrDuplicateVote) {
		t.Errorf("duplicate vote: got %v, want ErrDuplicateVote", err)
	}
	n, err := s.CountVotes(ctx, "ag-1")
	if err != nil {
		t.Fatalf("CountVotes: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d votes, want 1", n)
	}
}

func TestCloseSessionIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	sess := &model.Session{ID: "se-1", AgendaItemID: "ag-1", OpensAt: now, ClosesAt: now.Add(time.Minute), Open: true}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	closed, err := s.CloseSession(ctx, "se-1")
	if err != nil || !closed {
		t.Fatalf("first close: closed=%v err=%v", closed, err)
	}
	closed, err = s.CloseSession(ctx, "se-1")
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if closed {
		t.Error("second close must not report a transition")
	}
	if _, err := s.CloseSession(ctx, "se-missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing session: got %v, want ErrNotFound", err)
	}
}

func TestListExpiredSessions(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	sessions := []*model.Session{
		{ID: "se-1", AgendaItemID: "ag-1", ClosesAt: now.Add(-time.Minute), Open: true},
		{ID: "se-2", AgendaItemID: "ag-2", ClosesAt: now.Add(time.Minute), Open: true},
		{ID: "se-3", AgendaItemID: "ag-3", ClosesAt: now.Add(-time.Hour), Open: false},
	}
	for _, sess := range sessions {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession(%s): %v", sess.ID, err)
		}
	}

	expired, err := s.ListExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("ListExpiredSessions: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "se-1" {
		t.Errorf("got %d expired sessions, want exactly se-1", len(expired))
	}
}

func TestDeleteAgendaItemCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.CreateAgendaItem(ctx, &model.AgendaItem{ID: "ag-1", Title: "t", CreatedAt: now}); err != nil {
		t.Fatalf("CreateAgendaItem: %v", err)
	}
	if err := s.CreateSession(ctx, &model.Session{ID: "se-1", AgendaItemID: "ag-1", Open: true}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateVote(ctx, &model.Vote{ID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901", Choice: model.ChoiceYes}); err != nil {
		t.Fatalf("CreateVote: %v", err)
	}

	if err := s.DeleteAgendaItem(ctx, "ag-1"); err != nil {
		t.Fatalf("DeleteAgendaItem: %v", err)
	}
	if _, err := s.GetSessionByAgendaItem(ctx, "ag-1"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("session survived delete: %v", err)
	}
	n, _ := s.CountVotes(ctx, "ag-1")
	if n != 0 {
		t.Errorf("votes survived delete: %d", n)
	}
}
