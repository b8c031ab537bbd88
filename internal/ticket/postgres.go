package ticket

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/soundcrew/houston/pkg/protocol"
)

// Connection pool limits for the Postgres backend.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn, verifies the connection and applies migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("ticket store: postgres dsn not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: migrate: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, t *protocol.Ticket) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tickets (created_at, user_id, username, employees, date, venue, play, problem, cause)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, t.CreatedAt.UTC().Format(time.RFC3339Nano), t.Submitter.ID, nullableName(t.Submitter.Name),
		t.StaffList(), t.Date, t.Venue, t.Play, t.Problem, t.Cause).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ticket store: insert: %w", err)
	}
	t.ID = id
	return id, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*protocol.Ticket, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	where, args := filter.where(func(n int) string { return "$" + strconv.Itoa(n) })
	query := "SELECT " + selectColumns + " FROM tickets" + where + " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	defer rows.Close()

	var tickets []*protocol.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("ticket store: list scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
