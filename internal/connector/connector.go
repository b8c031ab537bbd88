package connector

import (
	"context"

	"github.com/soundcrew/houston/pkg/protocol"
)

// Connector is the interface for chat platforms that deliver user events.
type Connector interface {
	// Name returns the connector type (e.g., "telegram").
	Name() string
	// Start begins receiving events. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the connector.
	Stop() error
}

// EventKind distinguishes typed messages from button presses.
type EventKind int

const (
	EventMessage EventKind = iota
	EventCallback
)

// Event is one inbound user action.
type Event struct {
	Kind   EventKind
	User   protocol.Submitter
	ChatID int64

	// MessageID is the user's message for EventMessage, or the bot message
	// carrying the pressed keyboard for EventCallback.
	MessageID int

	Text    string // message text
	Command string // command name without the slash, empty for plain text
	Args    string // command arguments

	CallbackID string // callback query to answer
	Data       string // button payload
}

// OutboundMessage is a message sent to a chat. At most one of Keyboard and
// Menu is attached; Keyboard wins when both are set.
type OutboundMessage struct {
	ChatID   int64
	Text     string
	Keyboard *protocol.Keyboard
	Menu     *protocol.Menu
}

// Document is a file attachment sent to a chat.
type Document struct {
	ChatID  int64
	Name    string
	Data    []byte
	Caption string
}

// Replier performs the outbound operations a conversation needs.
type Replier interface {
	// Send posts a message and returns its ID.
	Send(ctx context.Context, msg OutboundMessage) (int, error)
	// EditKeyboard replaces the inline keyboard of an existing message.
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *protocol.Keyboard) error
	// Delete removes a message from the chat.
	Delete(ctx context.Context, chatID int64, messageID int) error
	// SendDocument posts a file attachment.
	SendDocument(ctx context.Context, doc Document) error
	// AnswerCallback acknowledges a button press, optionally with a notice.
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// EventHandler processes events received from a chat platform.
type EventHandler func(ctx context.Context, ev Event) error
