package postgres

import (
	"database/sql"
	"errors"

	"github.com/coopvote/plenum/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAgendaItem scans a single row into a model.AgendaItem.
// The row must contain columns in the order defined by agendaItemColumns.
func scanAgendaItem(row scannable) (*model.AgendaItem, error) {
	var a model.AgendaItem
	var description sql.NullString

	err := row.Scan(&a.ID, &a.Title, &description, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	return &a, nil
}

// scanSession scans a single row into a model.Session.
func scanSession(row scannable) (*model.Session, error) {
	var s model.Session

	err := row.Scan(&s.ID, &s.AgendaItemID, &s.OpensAt, &s.ClosesAt, &s.Open)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// scanVote scans a single row into a model.Vote.
func scanVote(row scannable) (*model.Vote, error) {
	var v model.Vote
	var choice string

	err := row.Scan(&v.ID, &v.AgendaItemID, &v.MemberID, &choice, &v.CastAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	v.Choice = model.Choice(choice)
	return &v, nil
}
