// Package notify announces freshly committed tickets to team channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundcrew/houston/pkg/protocol"
)

// ticketColor marks ticket cards in channels that support colour accents.
const ticketColor = "#d9342b"

// Notifier announces one committed ticket.
type Notifier interface {
	Notify(ctx context.Context, t *protocol.Ticket) error
}

// Multi fans a ticket out to every notifier, collecting failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, t *protocol.Ticket) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// field is one labelled value on a ticket card.
type field struct {
	Name  string
	Value string
	Short bool
}

// card is the platform-neutral rendering of a ticket.
type card struct {
	Title  string
	Body   string
	Fields []field
}

func ticketCard(t *protocol.Ticket) card {
	submitter := t.Submitter.Name
	if submitter == "" {
		submitter = fmt.Sprintf("id %d", t.Submitter.ID)
	}
	return card{
		Title: fmt.Sprintf("Обращение #%d: %s", t.ID, t.Play),
		Body:  t.Problem,
		Fields: []field{
			{Name: "Дата", Value: t.Date, Short: true},
			{Name: "Площадка", Value: t.Venue, Short: true},
			{Name: "Сотрудники", Value: t.StaffList()},
			{Name: "Причина", Value: t.Cause},
			{Name: "Автор", Value: submitter, Short: true},
		},
	}
}

// fallbackText is the plain-text line shown where cards are not rendered.
func fallbackText(t *protocol.Ticket) string {
	return fmt.Sprintf("Новое обращение #%d: %s, %s (%s)", t.ID, t.Play, t.Venue, t.Date)
}
