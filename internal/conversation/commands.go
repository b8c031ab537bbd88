package conversation

import (
	"context"

	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/internal/picker"
	"github.com/soundcrew/houston/internal/session"
	"github.com/soundcrew/houston/internal/ticket"
)

// home resets the session and shows the main menu.
func (b *Bot) home(ctx context.Context, t *turn, s *session.Session) error {
	s.Reset()
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textGreeting, Menu: picker.MainMenu()})
	return err
}

func (b *Bot) help(ctx context.Context, t *turn, _ *session.Session) error {
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textHelp, Menu: picker.MainMenu()})
	return err
}

func (b *Bot) reportAllCommand(ctx context.Context, t *turn, _ *session.Session) error {
	if no, err := b.denied(ctx, t); no {
		return err
	}
	return b.deliver(ctx, t.ev.ChatID, ticket.All(), t)
}

func (b *Bot) reportDateCommand(ctx context.Context, t *turn, _ *session.Session) error {
	if no, err := b.denied(ctx, t); no {
		return err
	}
	if t.ev.Args == "" {
		_, err := b.send(ctx, t, connector.OutboundMessage{Text: usageReportDate})
		return err
	}
	return b.deliver(ctx, t.ev.ChatID, ticket.ByDate(t.ev.Args), t)
}

func (b *Bot) reportPlayCommand(ctx context.Context, t *turn, _ *session.Session) error {
	if no, err := b.denied(ctx, t); no {
		return err
	}
	if t.ev.Args == "" {
		_, err := b.send(ctx, t, connector.OutboundMessage{Text: usageReportPlay})
		return err
	}
	return b.deliver(ctx, t.ev.ChatID, ticket.ByPlay(t.ev.Args), t)
}

func (b *Bot) reportMonthCommand(ctx context.Context, t *turn, _ *session.Session) error {
	if no, err := b.denied(ctx, t); no {
		return err
	}
	if !ticket.ValidMonth(t.ev.Args) {
		_, err := b.send(ctx, t, connector.OutboundMessage{Text: usageReportMonth})
		return err
	}
	return b.deliver(ctx, t.ev.ChatID, ticket.ByMonth(t.ev.Args), t)
}
