package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/pkg/protocol"
)

// Update delivery modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds Telegram connector configuration.
type Config struct {
	Token      string  // Bot token from @BotFather
	Mode       string  // ModePolling (default) or ModeWebhook
	WebhookURL string  // Public URL Telegram posts updates to (webhook mode)
	AllowFrom  []int64 // Allowed Telegram user IDs (empty = allow all)
}

// Connector implements connector.Connector and connector.Replier for Telegram.
type Connector struct {
	bot     *tgbotapi.BotAPI
	config  Config
	handler connector.EventHandler
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// New creates a new Telegram connector.
func New(cfg Config, handler connector.EventHandler, logger *slog.Logger) (*Connector, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Connector{
		bot:     bot,
		config:  cfg,
		handler: handler,
		logger:  logger,
	}, nil
}

func (c *Connector) Name() string { return "telegram" }

// WebhookPath is the HTTP path Telegram posts updates to. The token keeps
// the path unguessable.
func WebhookPath(token string) string {
	return "/webhook/" + token
}

// Start receives updates until the context is cancelled. In polling mode
// it long-polls getUpdates; in webhook mode it registers the webhook and
// updates arrive through WebhookHandler.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	if c.config.Mode == ModeWebhook {
		wh, err := tgbotapi.NewWebhook(c.config.WebhookURL)
		if err != nil {
			return fmt.Errorf("telegram: webhook url: %w", err)
		}
		if _, err := c.bot.Request(wh); err != nil {
			return fmt.Errorf("telegram: set webhook: %w", err)
		}
		c.logger.Info("telegram webhook registered", "url", c.config.WebhookURL)
		<-ctx.Done()
		c.logger.Info("telegram connector stopped")
		return ctx.Err()
	}

	// getUpdates is refused while a webhook is set.
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		c.logger.Warn("failed to delete webhook", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := c.bot.GetUpdatesChan(u)

	c.logger.Info("telegram connector started", "bot", c.bot.Self.UserName)

	// One user's updates are handled in the order Telegram delivered them.
	queue := newUserQueue()
	defer queue.Wait()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := eventFromUpdate(update)
			if !ok {
				continue
			}
			queue.Do(ev.User.ID, func() { c.handleEvent(ctx, update.UpdateID, ev) })

		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.logger.Info("telegram connector stopped")
			return ctx.Err()
		}
	}
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// WebhookHandler serves updates pushed by Telegram in webhook mode.
func (c *Connector) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := c.bot.HandleUpdate(r)
		if err != nil {
			c.logger.Warn("bad webhook update", "error", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		c.handleUpdate(r.Context(), *update)
		w.Write([]byte("OK"))
	})
}

func (c *Connector) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := eventFromUpdate(update)
	if !ok {
		return
	}
	c.handleEvent(ctx, update.UpdateID, ev)
}

func (c *Connector) handleEvent(ctx context.Context, updateID int, ev connector.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("update handler panicked", "update_id", updateID, "panic", fmt.Sprintf("%v", r))
		}
	}()

	// Access control
	if len(c.config.AllowFrom) > 0 && !contains(c.config.AllowFrom, ev.User.ID) {
		c.logger.Warn("unauthorized user", "user_id", ev.User.ID, "username", ev.User.Name)
		return
	}

	if err := c.handler(ctx, ev); err != nil {
		c.logger.Error("event handler error",
			"chat_id", ev.ChatID,
			"user_id", ev.User.ID,
			"error", err,
		)
	}
}

// eventFromUpdate converts the update kinds the bot reacts to; everything
// else (edits, channel posts, inline queries) is dropped.
func eventFromUpdate(update tgbotapi.Update) (connector.Event, bool) {
	if msg := update.Message; msg != nil {
		if msg.From == nil || msg.Chat == nil {
			return connector.Event{}, false
		}
		ev := connector.Event{
			Kind:      connector.EventMessage,
			User:      protocol.Submitter{ID: msg.From.ID, Name: msg.From.UserName},
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Text:      msg.Text,
		}
		if msg.IsCommand() {
			ev.Command = msg.Command()
			ev.Args = strings.TrimSpace(msg.CommandArguments())
		}
		return ev, true
	}

	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return connector.Event{}, false
		}
		return connector.Event{
			Kind:       connector.EventCallback,
			User:       protocol.Submitter{ID: cq.From.ID, Name: cq.From.UserName},
			ChatID:     cq.Message.Chat.ID,
			MessageID:  cq.Message.MessageID,
			CallbackID: cq.ID,
			Data:       cq.Data,
		}, true
	}

	return connector.Event{}, false
}

// Send delivers a message to a Telegram chat.
func (c *Connector) Send(_ context.Context, msg connector.OutboundMessage) (int, error) {
	if strings.TrimSpace(msg.Text) == "" {
		c.logger.Warn("skipping empty message", "chat_id", msg.ChatID)
		return 0, nil
	}

	tgMsg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	switch {
	case msg.Keyboard != nil:
		tgMsg.ReplyMarkup = inlineMarkup(msg.Keyboard)
	case msg.Menu != nil:
		tgMsg.ReplyMarkup = replyMarkup(msg.Menu)
	}

	sent, err := c.bot.Send(tgMsg)
	if err != nil {
		return 0, fmt.Errorf("telegram: send: %w", err)
	}
	return sent.MessageID, nil
}

// EditKeyboard swaps the inline keyboard of a message in place.
func (c *Connector) EditKeyboard(_ context.Context, chatID int64, messageID int, kb *protocol.Keyboard) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, inlineMarkup(kb))
	if _, err := c.bot.Request(edit); err != nil {
		return fmt.Errorf("telegram: edit keyboard: %w", err)
	}
	return nil
}

// Delete removes a message.
func (c *Connector) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("telegram: delete: %w", err)
	}
	return nil
}

// SendDocument uploads a file with a caption.
func (c *Connector) SendDocument(_ context.Context, doc connector.Document) error {
	file := tgbotapi.NewDocument(doc.ChatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
	file.Caption = doc.Caption
	if _, err := c.bot.Send(file); err != nil {
		return fmt.Errorf("telegram: send document: %w", err)
	}
	return nil
}

// AnswerCallback stops the client's loading indicator, optionally showing text.
func (c *Connector) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := c.bot.Request(cb); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

func inlineMarkup(kb *protocol.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func replyMarkup(m *protocol.Menu) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Rows))
	for _, row := range m.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
