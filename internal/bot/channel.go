package bot

import (
	"context"

	"github.com/antoniostano/todobot/internal/view"
)

// ChatRef addresses a conversation. ReplyTo, when set, is the inbound
// message the answer should quote.
type ChatRef struct {
	ChatID  string
	ReplyTo string
}

// MessageRef addresses a message previously sent by the bot.
type MessageRef struct {
	ChatID    string
	MessageID string
}

// Channel is the outbound side of a chat transport.
type Channel interface {
	Name() string
	SendText(ctx context.Context, chat ChatRef, text string) error
	SendTextWithControls(ctx context.Context, chat ChatRef, text string, controls view.Keyboard) error
	// EditMessage replaces text and controls of a bot message. A nil
	// keyboard removes the controls.
	EditMessage(ctx context.Context, msg MessageRef, text string, controls view.Keyboard) error
	AcknowledgeCallback(ctx context.Context, callbackID, text string) error
}

// Message is an inbound text message.
type Message struct {
	UserID string
	Chat   ChatRef
	Text   string
}

// Callback is an inbound button press on a bot message.
type Callback struct {
	ID      string
	UserID  string
	Message MessageRef
	Data    string
}

// EventHandler consumes inbound events from a transport.
type EventHandler interface {
	HandleMessage(ctx context.Context, ch Channel, msg Message)
	HandleCallback(ctx context.Context, ch Channel, cb Callback)
}
