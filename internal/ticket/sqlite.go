package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soundcrew/houston/pkg/protocol"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT,
			user_id    INTEGER,
			username   TEXT,
			employees  TEXT,
			date       TEXT,
			venue      TEXT,
			play       TEXT,
			problem    TEXT,
			cause      TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, t *protocol.Ticket) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (created_at, user_id, username, employees, date, venue, play, problem, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.CreatedAt.UTC().Format(time.RFC3339Nano), t.Submitter.ID, nullableName(t.Submitter.Name),
		t.StaffList(), t.Date, t.Venue, t.Play, t.Problem, t.Cause)
	if err != nil {
		return 0, fmt.Errorf("ticket store: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ticket store: insert id: %w", err)
	}
	t.ID = id
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*protocol.Ticket, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	where, args := filter.where(func(int) string { return "?" })
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
