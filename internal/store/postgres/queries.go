package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/coopvote/plenum/internal/model"
)

// Column lists used for SELECT statements.
const (
	agendaItemColumns = `id, title, description, created_at`
	sessionColumns    = `id, agenda_item_id, opens_at, closes_at, open`
	voteColumns       = `id, agenda_item_id, member_id, choice, cast_at`
)

// uniqueViolation is the Postgres error code for unique-constraint violations.
const uniqueViolation = "23505"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a Postgres unique-index violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func queryCreateAgendaItem(ctx context.Context, db executor, a *model.AgendaItem) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO agenda_items (id, title, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.Title, nullString(a.Description), a.CreatedAt,
	)
	if isUniqueViolation(err) {
		return model.ErrConflict
	}
	return err
}

func queryGetAgendaItem(ctx context.Context, db executor, id string) (*model.AgendaItem, error) {
	row := db.QueryRowContext(ctx, `SELECT `+agendaItemColumns+` FROM agenda_items WHERE id = $1`, id)
	return scanAgendaItem(row)
}

func queryListAgendaItems(ctx context.Context, db executor) ([]*model.AgendaItem, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+agendaItemColumns+` FROM agenda_items ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.AgendaItem
	for rows.Next() {
		item, err := scanAgendaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func queryDeleteAgendaItem(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM agenda_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func queryCreateSession(ctx context.Context, db executor, s *model.Session) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, agenda_item_id, opens_at, closes_at, open)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.AgendaItemID, s.OpensAt, s.ClosesAt, s.Open,
	)
	// The unique index on agenda_item_id is the hard backstop for the
	// one-session-per-item invariant.
	if isUniqueViolation(err) {
		return model.ErrConflict
	}
	return err
}

func queryGetSession(ctx context.Context, db executor, id string) (*model.Session, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func queryGetSessionByAgendaItem(ctx context.Context, db executor, agendaItemID string) (*model.Session, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE agenda_item_id = $1`, agendaItemID)
	return scanSession(row)
}

// queryCloseSession flips the session to closed. The WHERE open guard makes
// the transition observable exactly once: only the call that actually flips
// the flag sees a row affected.
func queryCloseSession(ctx context.Context, db executor, id string) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE sessions SET open = FALSE WHERE id = $1 AND open = TRUE`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// No transition: distinguish "already closed" from "no such session".
	var open bool
	err = db.QueryRowContext(ctx, `SELECT open FROM sessions WHERE id = $1`, id).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return false, model.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func queryListExpiredSessions(ctx context.Context, db executor, now time.Time) ([]*model.Session, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE open = TRUE AND closes_at <= $1
		ORDER BY closes_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func queryListSessions(ctx context.Context, db executor) ([]*model.Session, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY opens_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func queryCreateVote(ctx context.Context, db executor, v *model.Vote) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO votes (id, agenda_item_id, member_id, choice, cast_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.AgendaItemID, v.MemberID, string(v.Choice), v.CastAt,
	)
	// Unique index on (agenda_item_id, member_id): one vote per member.
	if isUniqueViolation(err) {
		return model.ErrDuplicateVote
	}
	return err
}

func queryListVotes(ctx context.Context, db executor, agendaItemID string) ([]*model.Vote, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+voteColumns+` FROM votes
		WHERE agenda_item_id = $1
		ORDER BY cast_at`, agendaItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []*model.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func queryCountVotes(ctx context.Context, db executor, agendaItemID string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE agenda_item_id = $1`, agendaItemID).Scan(&n)
	return n, err
}

func queryCountVotesByChoice(ctx context.Context, db executor, agendaItemID string, choice model.Choice) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE agenda_item_id = $1 AND choice = $2`,
		agendaItemID, string(choice)).Scan(&n)
	return n, err
}

func collectSessions(rows *sql.Rows) ([]*model.Session, error) {
	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
