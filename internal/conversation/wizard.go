package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundcrew/houston/internal/catalog"
	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/internal/picker"
	"github.com/soundcrew/houston/internal/session"
	"github.com/soundcrew/houston/pkg/protocol"
)

// beginTicket discards any scratch data and opens the staff picker.
func (b *Bot) beginTicket(ctx context.Context, t *turn, s *session.Session) error {
	s.Reset()
	s.Stage = session.StageStaff
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textNewTicket, Keyboard: picker.Staff(nil)})
	return err
}

func (b *Bot) toggleStaff(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	if _, ok := catalog.Employee(a.Index); !ok {
		return nil
	}
	s.Toggle(a.Index)
	b.redraw(ctx, t, picker.Staff(s.Selected))
	return nil
}

func (b *Bot) confirmStaff(ctx context.Context, t *turn, _ picker.Action, s *session.Session) error {
	if len(s.Selected) == 0 {
		_, err := b.send(ctx, t, connector.OutboundMessage{Text: textPickStaff})
		return err
	}

	names := make([]string, 0, len(s.Selected))
	for _, i := range s.Selected {
		name, _ := catalog.Employee(i)
		names = append(names, name)
	}
	s.Draft.Staff = names
	s.Selected = nil
	s.Stage = session.StageDate

	cal := picker.Calendar(picker.MonthOf(b.Clock.Now()))
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textPickDate, Keyboard: cal})
	return err
}

func (b *Bot) pickDate(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	s.Draft.Date = a.Date
	s.Stage = session.StageVenue
	_, err := b.send(ctx, t, connector.OutboundMessage{
		Text:     fmt.Sprintf(textDatePicked, a.Date),
		Keyboard: picker.Venues(),
	})
	return err
}

// turnCalendar re-renders the calendar for the target month in place.
func (b *Bot) turnCalendar(ctx context.Context, t *turn, a picker.Action, _ *session.Session) error {
	b.redraw(ctx, t, picker.Calendar(a.Month))
	return nil
}

func (b *Bot) pickVenue(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	if !catalog.IsVenue(a.Venue) {
		return nil
	}
	s.Draft.Venue = a.Venue
	s.Stage = session.StagePlay
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textPickPlay, Keyboard: picker.Plays(a.Venue)})
	return err
}

func (b *Bot) pickPlay(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	if a.Venue != s.Draft.Venue {
		return nil
	}
	play, ok := catalog.Play(a.Venue, a.Index)
	if !ok {
		return nil
	}
	s.Draft.Play = play
	s.Stage = session.StageProblem
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: fmt.Sprintf(textPlayPicked, play)})
	return err
}

func (b *Bot) enterProblem(ctx context.Context, t *turn, s *session.Session) error {
	text := strings.TrimSpace(t.ev.Text)
	if text == "" {
		return nil
	}
	s.Draft.Problem = text
	s.ProblemMessageID = t.ev.MessageID
	s.Stage = session.StageCause
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textAskCause})
	return err
}

// enterCause commits the ticket. The session stays at the cause stage when
// the insert fails so the user can resend.
func (b *Bot) enterCause(ctx context.Context, t *turn, s *session.Session) error {
	text := strings.TrimSpace(t.ev.Text)
	if text == "" {
		return nil
	}

	tk := &protocol.Ticket{
		CreatedAt: b.Clock.Now().UTC(),
		Submitter: t.ev.User,
		Staff:     append([]string(nil), s.Draft.Staff...),
		Date:      s.Draft.Date,
		Venue:     s.Draft.Venue,
		Play:      s.Draft.Play,
		Problem:   s.Draft.Problem,
		Cause:     text,
	}

	id, err := b.tickets.Insert(ctx, tk)
	if err != nil {
		if _, serr := b.send(ctx, t, connector.OutboundMessage{Text: textSaveFailed}); serr != nil {
			t.logger.Warn("save failure notice not sent", "error", serr)
		}
		return fmt.Errorf("conversation: commit ticket: %w", err)
	}
	t.logger.Info("ticket stored", "ticket_id", id, "play", tk.Play, "date", tk.Date)

	b.retract(ctx, t, t.ev.MessageID, s.ProblemMessageID)
	b.announce(t, tk)

	s.Reset()
	_, err = b.send(ctx, t, connector.OutboundMessage{Text: summary(tk), Menu: picker.MainMenu()})
	return err
}

// retract deletes the user's free-text answers once they are on record.
// Failures are discarded.
func (b *Bot) retract(ctx context.Context, t *turn, ids ...int) {
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if err := b.chat.Delete(ctx, t.ev.ChatID, id); err != nil {
			t.logger.Debug("retract failed", "message_id", id, "error", err)
		}
	}
}

// announce hands the ticket to the notifier on a detached goroutine.
func (b *Bot) announce(t *turn, tk *protocol.Ticket) {
	if b.Notifier == nil {
		return
	}
	n := b.Notifier
	logger := t.logger
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("notifier panicked", "panic", fmt.Sprintf("%v", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.Notify(ctx, tk); err != nil {
			logger.Warn("ticket announcement failed", "ticket_id", tk.ID, "error", err)
		}
	}()
}
