// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateAgendaItem(ctx context.Context, item *model.AgendaItem) error {
	return queryCreateAgendaItem(ctx, s.db, item)
}

func (s *PostgresStore) GetAgendaItem(ctx context.Context, id string) (*model.AgendaItem, error) {
	return queryGetAgendaItem(ctx, s.db, id)
}

func (s *PostgresStore) ListAgendaItems(ctx context.Context) ([]*model.AgendaItem, error) {
	return queryListAgendaItems(ctx, s.db)
}

func (s *PostgresStore) DeleteAgendaItem(ctx context.Context, id string) error {
	return queryDeleteAgendaItem(ctx, s.db, id)
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *model.Session) error {
	return queryCreateSession(ctx, s.db, session)
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return queryGetSession(ctx, s.db, id)
}

func (s *PostgresStore) GetSessionByAgendaItem(ctx context.Context, agendaItemID string) (*model.Session, error) {
	return queryGetSessionByAgendaItem(ctx, s.db, agendaItemID)
}

func (s *PostgresStore) CloseSession(ctx context.Context, id string) (bool, error) {
	return queryCloseSession(ctx, s.db, id)
}

func (s *PostgresStore) ListExpiredSessions(ctx context.Context, now time.Time) ([]*model.Session, error) {
	return queryListExpiredSessions(ctx, s.db, now)
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]*model.Session, error) {
	return queryListSessions(ctx, s.db)
}

func (s *PostgresStore) CreateVote(ctx context.Context, vote *model.Vote) error {
	return queryCreateVote(ctx, s.db, vote)
}

func (s *PostgresStore) ListVotes(ctx context.Context, agendaItemID string) ([]*model.Vote, error) {
	return queryListVotes(ctx, s.db, agendaItemID)
}

func (s *PostgresStore) CountVotes(ctx context.Context, agendaItemID string) (int64, error) {
	return queryCountVotes(ctx, s.db, agendaItemID)
}

func (s *PostgresStore) CountVotesByChoice(ctx context.Context, agendaItemID string, choice model.Choice) (int64, error) {
	return queryCountVotesByChoice(ctx, s.db, agendaItemID, choice)
}
