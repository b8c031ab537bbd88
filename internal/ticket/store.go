package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soundcrew/houston/pkg/protocol"
)

// Store is the persistence interface for submitted tickets. Tickets are
// append-only: there is no update or delete.
type Store interface {
	// Insert persists a ticket and returns its assigned ID.
	Insert(ctx context.Context, t *protocol.Ticket) (int64, error)
	// List returns tickets matching the filter ordered by ID ascending.
	List(ctx context.Context, filter Filter) ([]*protocol.Ticket, error)
	// Close releases the underlying connection.
	Close() error
}

// Filter constrains ticket list queries. The zero value matches every ticket.
type Filter struct {
	Date  string // exact match on date (YYYY-MM-DD)
	Play  string // exact match on play
	Month string // date prefix, YYYY-MM
}

// All matches every ticket.
func All() Filter { return Filter{} }

// ByDate matches tickets with the exact date.
func ByDate(date string) Filter { return Filter{Date: date} }

// ByPlay matches tickets for the exact play name.
func ByPlay(play string) Filter { return Filter{Play: play} }

// ByMonth matches tickets whose date falls in the given YYYY-MM month.
func ByMonth(month string) Filter { return Filter{Month: month} }

// ValidMonth reports whether s is a YYYY-MM month.
func ValidMonth(s string) bool {
	if len(s) != len("2006-01") {
		return false
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// Validate rejects a malformed month so it can never widen into a wildcard.
func (f Filter) Validate() error {
	if f.Month != "" && !ValidMonth(f.Month) {
		return fmt.Errorf("invalid month %q, expected YYYY-MM", f.Month)
	}
	return nil
}

const selectColumns = "id, created_at, user_id, username, employees, date, venue, play, problem, cause"

// where builds the WHERE clause for f. placeholder renders the n-th
// (1-based) bind parameter in the driver's dialect.
func (f Filter) where(placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, placeholder(len(args))))
	}
	if f.Date != "" {
		add("date = %s", f.Date)
	}
	if f.Play != "" {
		add("play = %s", f.Play)
	}
	if f.Month != "" {
		add("date LIKE %s", f.Month+"-%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTicket(s scannable) (*protocol.Ticket, error) {
	var t protocol.Ticket
	var createdAt, employees string
	var username *string
	err := s.Scan(&t.ID, &createdAt, &t.Submitter.ID, &username, &employees,
		&t.Date, &t.Venue, &t.Play, &t.Problem, &t.Cause)
	if err != nil {
		return nil, err
	}
	if username != nil {
		t.Submitter.Name = *username
	}
	t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: created_at: %w", t.ID, err)
	}
	t.Staff = protocol.SplitStaff(employees)
	return &t, nil
}

func nullableName(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}
