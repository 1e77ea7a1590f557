package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/coopvote/plenum/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// sessionRowColumns is the column list for scanSession results.
var sessionRowColumns = []string{"id", "agenda_item_id", "opens_at", "closes_at", "open"}

func TestCreateSessionConflict(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("se-1", "ag-1", sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_sessions_agenda_item"})

	now := time.Now().UTC()
	err := queryCreateSession(context.Background(), db, &model.Session{
		ID: "se-1", AgendaItemID: "ag-1", OpensAt: now, ClosesAt: now.Add(time.Minute), Open: true,
	})
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestCreateVoteDuplicate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO votes").
		WithArgs("vt-1", "ag-1", "12345678901", "YES", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_votes_agenda_member"})

	err := queryCreateVote(context.Background(), db, &model.Vote{
		ID: "vt-1", AgendaItemID: "ag-1", MemberID: "12345678901",
		Choice: model.ChoiceYes, CastAt: time.Now().UTC(),
	})
	if !errors.Is(err, model.ErrDuplicateVote) {
		t.Errorf("got %v, want ErrDuplicateVote", err)
	}
}

func TestCloseSessionTransition(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE sessions SET open = FALSE WHERE id = \\$1 AND open = TRUE").
		WithArgs("se-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := queryCloseSession(context.Background(), db, "se-1")
	if err != nil {
		t.Fatalf("queryCloseSession: %v", err)
	}
	if !closed {
		t.Error("expected transition on first close")
	}
}

func TestCloseSessionAlreadyClosed(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE sessions SET open = FALSE").
		WithArgs("se-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT open FROM sessions WHERE id = \\$1").
		WithArgs("se-1").
		WillReturnRows(sqlmock.NewRows([]string{"open"}).AddRow(false))

	closed, err := queryCloseSession(context.Background(), db, "se-1")
	if err != nil {
		t.Fatalf("queryCloseSession: %v", err)
	}
	if closed {
		t.Error("second close must not report a transition")
	}
}

func TestCloseSessionNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE sessions SET open = FALSE").
		WithArgs("se-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT open FROM sessions WHERE id = \\$1").
		WithArgs("se-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := queryCloseSession(context.Background(), db, "se-missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGetSessionByAgendaItem(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM sessions WHERE agenda_item_id = \\$1").
		WithArgs("ag-1").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("se-1", "ag-1", now, now.Add(time.Minute), true))

	s, err := queryGetSessionByAgendaItem(context.Background(), db, "ag-1")
	if err != nil {
		t.Fatalf("queryGetSessionByAgendaItem: %v", err)
	}
	if s.ID != "se-1" || !s.Open {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestGetSessionByAgendaItemNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE agenda_item_id = \\$1").
		WithArgs("ag-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetSessionByAgendaItem(context.Background(), db, "ag-missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListExpiredSessions(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM sessions\\s+WHERE open = TRUE AND closes_at <= \\$1").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("se-1", "ag-1", now.Add(-2*time.Minute), now.Add(-time.Minute), true).
			AddRow("se-2", "ag-2", now.Add(-3*time.Minute), now.Add(-time.Second), true))

	sessions, err := queryListExpiredSessions(context.Background(), db, now)
	if err != nil {
		t.Fatalf("queryListExpiredSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "se-1" || sessions[1].ID != "se-2" {
		t.Errorf("unexpected order: %s, %s", sessions[0].ID, sessions[1].ID)
	}
}

func TestCountVotesByChoice(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM votes WHERE agenda_item_id = \\$1 AND choice = \\$2").
		WithArgs("ag-1", "YES").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := queryCountVotesByChoice(context.Background(), db, "ag-1", model.ChoiceYes)
	if err != nil {
		t.Fatalf("queryCountVotesByChoice: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d, want 3", n)
	}
}

func TestDeleteAgendaItemNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM agenda_items WHERE id = \\$1").
		WithArgs("ag-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := queryDeleteAgendaItem(context.Background(), db, "ag-missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
