package protocol

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar date form used for ticket dates.
const DateLayout = "2006-01-02"

// StaffSeparator joins staff names in the persisted employees column and in exports.
const StaffSeparator = ", "

// Submitter identifies the chat user who filed a ticket.
type Submitter struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Ticket is one submitted incident report. Tickets are immutable once stored.
type Ticket struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Submitter Submitter `json:"submitter"`
	Staff     []string  `json:"staff"`
	Date      string    `json:"date"`
	Venue     string    `json:"venue"`
	Play      string    `json:"play"`
	Problem   string    `json:"problem"`
	Cause     string    `json:"cause"`
}

// StaffList returns the staff names joined the way they are stored.
func (t *Ticket) StaffList() string {
	return strings.Join(t.Staff, StaffSeparator)
}

// SplitStaff is the inverse of StaffList. An empty column yields an empty slice.
func SplitStaff(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, StaffSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ValidDate reports whether s is a syntactically valid YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
