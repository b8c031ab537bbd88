package conversation

import (
	"context"
	"fmt"

	"github.com/soundcrew/houston/internal/catalog"
	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/internal/picker"
	"github.com/soundcrew/houston/internal/report"
	"github.com/soundcrew/houston/internal/session"
	"github.com/soundcrew/houston/internal/ticket"
)

// allowed reports whether userID may request reports.
func (b *Bot) allowed(userID int64) bool {
	return len(b.admins) == 0 || b.admins[userID]
}

// restricted wraps a report callback with the admin check. Denied taps get
// an alert instead of a transition.
func (b *Bot) restricted(h callbackFunc) callbackFunc {
	return func(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
		if !b.allowed(t.ev.User.ID) {
			t.answered = true
			t.logger.Info("report denied", "kind", a.Kind.String())
			return b.chat.AnswerCallback(ctx, t.ev.CallbackID, alertNoAccess, true)
		}
		return h(ctx, t, a, s)
	}
}

// denied sends the no-access notice when userID may not see reports.
func (b *Bot) denied(ctx context.Context, t *turn) (bool, error) {
	if b.allowed(t.ev.User.ID) {
		return false, nil
	}
	t.logger.Info("report denied")
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textNoAccess})
	return true, err
}

func (b *Bot) reportMenu(ctx context.Context, t *turn, _ *session.Session) error {
	if no, err := b.denied(ctx, t); no {
		return err
	}
	_, err := b.send(ctx, t, connector.OutboundMessage{Text: textReportMenu, Keyboard: picker.ReportMenu()})
	return err
}

func (b *Bot) reportChoice(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	now := b.Clock.Now()
	switch a.Choice {
	case picker.ReportAll:
		return b.deliver(ctx, t.ev.ChatID, ticket.All(), t)

	case picker.ReportDate:
		s.Reset()
		s.Stage = session.StageReportDate
		_, err := b.send(ctx, t, connector.OutboundMessage{
			Text:     textReportDate,
			Keyboard: picker.Calendar(picker.MonthOf(now)),
		})
		return err

	case picker.ReportPlay:
		_, err := b.send(ctx, t, connector.OutboundMessage{Text: textReportPlay, Keyboard: picker.ReportPlays()})
		return err

	case picker.ReportMonth:
		s.Reset()
		s.Stage = session.StageReportMonth
		s.ReportYear = now.Year()
		_, err := b.send(ctx, t, connector.OutboundMessage{
			Text:     textReportMonth,
			Keyboard: picker.MonthGrid(s.ReportYear),
		})
		return err
	}
	return nil
}

func (b *Bot) reportDate(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	s.Reset()
	return b.deliver(ctx, t.ev.ChatID, ticket.ByDate(a.Date), t)
}

func (b *Bot) reportPlay(ctx context.Context, t *turn, a picker.Action, _ *session.Session) error {
	plays := catalog.AllPlays()
	if a.Index < 0 || a.Index >= len(plays) {
		return nil
	}
	return b.deliver(ctx, t.ev.ChatID, ticket.ByPlay(plays[a.Index]), t)
}

func (b *Bot) reportMonth(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	s.Reset()
	return b.deliver(ctx, t.ev.ChatID, ticket.ByMonth(a.Month.String()), t)
}

// turnYear re-renders the month grid for the target year in place.
func (b *Bot) turnYear(ctx context.Context, t *turn, a picker.Action, s *session.Session) error {
	s.ReportYear = a.Year
	b.redraw(ctx, t, picker.MonthGrid(a.Year))
	return nil
}

// DeliverReport exports the tickets matching f to chatID: a notice when
// nothing matches, otherwise an xlsx attachment.
func (b *Bot) DeliverReport(ctx context.Context, chatID int64, f ticket.Filter) error {
	return b.deliver(ctx, chatID, f, nil)
}

// deliver runs one export. t is nil for scheduled reports; when set, a
// failure notice is sent to the waiting user.
func (b *Bot) deliver(ctx context.Context, chatID int64, f ticket.Filter, t *turn) error {
	logger := b.logger()
	if t != nil {
		logger = t.logger
	}
	desc := report.Describe(f)

	fail := func(err error) error {
		if t != nil {
			if _, serr := b.chat.Send(ctx, connector.OutboundMessage{ChatID: chatID, Text: textReportFail}); serr != nil {
				logger.Warn("report failure notice not sent", "error", serr)
			}
		}
		return err
	}

	tickets, err := b.tickets.List(ctx, f)
	if err != nil {
		return fail(fmt.Errorf("conversation: list tickets: %w", err))
	}

	if len(tickets) == 0 {
		_, err := b.chat.Send(ctx, connector.OutboundMessage{ChatID: chatID, Text: fmt.Sprintf(textNoTickets, desc)})
		return err
	}

	data, err := report.Workbook(tickets)
	if err != nil {
		return fail(fmt.Errorf("conversation: build report: %w", err))
	}

	logger.Info("report delivered", "filter", desc, "rows", len(tickets))
	return b.chat.SendDocument(ctx, connector.Document{
		ChatID:  chatID,
		Name:    report.FileName,
		Data:    data,
		Caption: fmt.Sprintf(captionReport, desc),
	})
}
