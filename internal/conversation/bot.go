// Package conversation drives the ticket wizard and the report dispatcher.
//
// Every inbound event is handled under its user's lock: the session is
// loaded, one transition runs, and the session is saved. Button payloads
// are routed through a (stage, kind) table so that a tap only does
// something in the stage that rendered it; anything else is dropped.
package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundcrew/houston/internal/clock"
	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/internal/notify"
	"github.com/soundcrew/houston/internal/picker"
	"github.com/soundcrew/houston/internal/session"
	"github.com/soundcrew/houston/internal/ticket"
	"github.com/soundcrew/houston/pkg/protocol"
)

// notifyTimeout bounds one background announcement.
const notifyTimeout = 15 * time.Second

// anyStage keys transitions that apply regardless of the current stage.
const anyStage session.Stage = "*"

// Config holds conversation settings.
type Config struct {
	// Admins may request reports. Empty means everyone may.
	Admins []int64
}

// Bot is the conversation engine for one chat platform.
type Bot struct {
	tickets ticket.Store
	chat    connector.Replier
	admins  map[int64]bool
	locks   *session.Locker
	pending sync.WaitGroup // in-flight announcements

	callbacks map[route]callbackFunc
	texts     map[session.Stage]messageFunc
	commands  map[string]messageFunc
	menu      map[string]messageFunc

	// Sessions holds per-user state. Defaults to an in-memory store.
	Sessions session.Store
	// Notifier announces committed tickets. Optional.
	Notifier notify.Notifier
	// Clock supplies ticket timestamps and the initial calendar month.
	Clock clock.Clock
	// Logger for conversation events. Falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// turn is one event being handled.
type turn struct {
	ev       connector.Event
	logger   *slog.Logger
	answered bool
}

type route struct {
	stage session.Stage
	kind  picker.Kind
}

type callbackFunc func(ctx context.Context, t *turn, a picker.Action, s *session.Session) error

type messageFunc func(ctx context.Context, t *turn, s *session.Session) error

// New creates a conversation engine storing tickets in tickets and replying
// through chat.
func New(cfg Config, tickets ticket.Store, chat connector.Replier) *Bot {
	b := &Bot{
		tickets:  tickets,
		chat:     chat,
		admins:   make(map[int64]bool, len(cfg.Admins)),
		locks:    session.NewLocker(),
		Sessions: session.NewMemoryStore(),
		Clock:    clock.Real(),
	}
	for _, id := range cfg.Admins {
		b.admins[id] = true
	}

	b.callbacks = map[route]callbackFunc{
		{session.StageStaff, picker.KindStaffToggle}: b.toggleStaff,
		{session.StageStaff, picker.KindStaffDone}:   b.confirmStaff,
		{session.StageDate, picker.KindDay}:          b.pickDate,
		{session.StageDate, picker.KindCalendarNav}:  b.turnCalendar,
		{session.StageVenue, picker.KindVenue}:       b.pickVenue,
		{session.StagePlay, picker.KindPlay}:         b.pickPlay,

		{session.StageReportDate, picker.KindDay}:          b.restricted(b.reportDate),
		{session.StageReportDate, picker.KindCalendarNav}:  b.restricted(b.turnCalendar),
		{session.StageReportMonth, picker.KindMonthSelect}: b.restricted(b.reportMonth),
		{session.StageReportMonth, picker.KindYearNav}:     b.restricted(b.turnYear),

		{anyStage, picker.KindReportMenu}: b.restricted(b.reportChoice),
		{anyStage, picker.KindReportPlay}: b.restricted(b.reportPlay),
		{anyStage, picker.KindNoop}:       b.noop,
	}

	b.texts = map[session.Stage]messageFunc{
		session.StageProblem: b.enterProblem,
		session.StageCause:   b.enterCause,
	}

	b.commands = map[string]messageFunc{
		"start":        b.home,
		"new":          b.home,
		"help":         b.help,
		"menu":         b.reportMenu,
		"reports":      b.reportMenu,
		"reports_menu": b.reportMenu,
		"report":       b.reportAllCommand,
		"report_date":  b.reportDateCommand,
		"report_play":  b.reportPlayCommand,
		"report_month": b.reportMonthCommand,
	}

	b.menu = map[string]messageFunc{
		picker.MenuNewTicket: b.beginTicket,
		picker.MenuReport:    b.reportMenu,
		picker.MenuHome:      b.home,
	}

	return b
}

// Wait blocks until background announcements finish. Each is bounded by
// notifyTimeout.
func (b *Bot) Wait() {
	b.pending.Wait()
}

func (b *Bot) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Handle processes one inbound event. It is safe for concurrent use; events
// of the same user are serialized.
func (b *Bot) Handle(ctx context.Context, ev connector.Event) error {
	t := &turn{
		ev: ev,
		logger: b.logger().With(
			"event_id", uuid.NewString(),
			"user_id", ev.User.ID,
			"chat_id", ev.ChatID,
		),
	}

	unlock := b.locks.Lock(ev.User.ID)
	defer unlock()

	s := b.Sessions.Get(ev.User.ID)
	before := s.Stage

	var err error
	switch ev.Kind {
	case connector.EventCallback:
		err = b.dispatchCallback(ctx, t, &s)
	default:
		err = b.dispatchMessage(ctx, t, &s)
	}

	b.Sessions.Put(ev.User.ID, s)

	if s.Stage != before {
		t.logger.Debug("stage changed", "from", before.String(), "to", s.Stage.String())
	}

	if ev.Kind == connector.EventCallback && !t.answered {
		if aerr := b.chat.AnswerCallback(ctx, ev.CallbackID, "", false); aerr != nil {
			t.logger.Debug("answer callback failed", "error", aerr)
		}
	}

	return err
}

func (b *Bot) dispatchMessage(ctx context.Context, t *turn, s *session.Session) error {
	if t.ev.Command != "" {
		if h, ok := b.commands[t.ev.Command]; ok {
			return h(ctx, t, s)
		}
	}
	if h, ok := b.menu[t.ev.Text]; ok {
		return h(ctx, t, s)
	}
	if h, ok := b.texts[s.Stage]; ok {
		return h(ctx, t, s)
	}
	t.logger.Debug("message ignored", "stage", s.Stage.String())
	return nil
}

func (b *Bot) dispatchCallback(ctx context.Context, t *turn, s *session.Session) error {
	a, ok := picker.Parse(t.ev.Data)
	if !ok {
		t.logger.Debug("malformed payload ignored", "data", t.ev.Data)
		return nil
	}

	h, ok := b.callbacks[route{s.Stage, a.Kind}]
	if !ok {
		h, ok = b.callbacks[route{anyStage, a.Kind}]
	}
	if !ok {
		t.logger.Debug("out-of-stage action ignored", "stage", s.Stage.String(), "kind", a.Kind.String())
		return nil
	}
	return h(ctx, t, a, s)
}

func (b *Bot) noop(context.Context, *turn, picker.Action, *session.Session) error {
	return nil
}

// send posts a message to the event's chat.
func (b *Bot) send(ctx context.Context, t *turn, msg connector.OutboundMessage) (int, error) {
	msg.ChatID = t.ev.ChatID
	return b.chat.Send(ctx, msg)
}

// redraw swaps the keyboard under the pressed button. Failures are logged
// and dropped.
func (b *Bot) redraw(ctx context.Context, t *turn, kb *protocol.Keyboard) {
	if err := b.chat.EditKeyboard(ctx, t.ev.ChatID, t.ev.MessageID, kb); err != nil {
		t.logger.Warn("edit keyboard failed", "error", err)
	}
}
