// Package memory implements the store.Store interface with in-process maps.
// It mirrors the uniqueness guarantees of the Postgres store and is used by
// component tests that exercise business flow without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/store"
)

// MemoryStore implements store.Store backed by in-process maps.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]*model.AgendaItem
	sessions map[string]*model.Session // keyed by session ID
	votes    map[string]*model.Vote    // keyed by vote ID
}

// Compile-time check that MemoryStore implements store.Store.
var _ store.Store = (*MemoryStore)(nil)

// New returns an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]*model.AgendaItem),
		sessions: make(map[string]*model.Session),
		votes:    make(map[string]*model.Vote),
	}
}

func (s *MemoryStore) CreateAgendaItem(_ context.Context, item *model.AgendaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return model.ErrConflict
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAgendaItem(_ context.Context, id string) (*model.AgendaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *MemoryStore) ListAgendaItems(_ context.Context) ([]*model.AgendaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*model.AgendaItem, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *MemoryStore) DeleteAgendaItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.items, id)
	// Cascade, matching the foreign keys in the Postgres schema.
	for sid, sess := range s.sessions {
		if sess.AgendaItemID == id {
			delete(s.sessions, sid)
		}
	}
	for vid, v := range s.votes {
		if v.AgendaItemID == id {
			delete(s.votes, vid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateSession(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.AgendaItemID == session.AgendaItemID {
			return model.ErrConflict
		}
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) GetSessionByAgendaItem(_ context.Context, agendaItemID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.AgendaItemID == agendaItemID {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *MemoryStore) CloseSession(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false, model.ErrNotFound
	}
	if !sess.Open {
		return false, nil
	}
	sess.Open = false
	return true, nil
}

func (s *MemoryStore) ListExpiredSessions(_ context.Context, now time.Time) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*model.Session
	for _, sess := range s.sessions {
		if sess.Open && !sess.ClosesAt.After(now) {
			cp := *sess
			expired = append(expired, &cp)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ClosesAt.Before(expired[j].ClosesAt) })
	return expired, nil
}

func (s *MemoryStore) ListSessions(_ context.Context) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]*model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		sessions = append(sessions, &cp)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].OpensAt.Before(sessions[j].OpensAt) })
	return sessions, nil
}

func (s *MemoryStore) CreateVote(_ context.Context, vote *model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.votes {
		if existing.AgendaItemID == vote.AgendaItemID && existing.MemberID == vote.MemberID {
			return model.ErrDuplicateVote
		}
	}
	cp := *vote
	s.votes[vote.ID] = &cp
	return nil
}

func (s *MemoryStore) ListVotes(_ context.Context, agendaItemID string) ([]*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var votes []*model.Vote
	for _, v := range s.votes {
		if v.AgendaItemID == agendaItemID {
			cp := *v
			votes = append(votes, &cp)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].CastAt.Before(votes[j].CastAt) })
	return votes, nil
}

func (s *MemoryStore) CountVotes(_ context.Context, agendaItemID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.votes {
		if v.AgendaItemID == agendaItemID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountVotesByChoice(_ context.Context, agendaItemID string, choice model.Choice) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.votes {
		if v.AgendaItemID == agendaItemID && v.Choice == choice {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }
