// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antoniostano/todobot/internal/bot"
	"github.com/antoniostano/todobot/internal/view"
)

const channelName = "telegram"

// API is the subset of *tgbotapi.BotAPI the bot needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Channel sends bot output through the Bot API.
type Channel struct {
	api API
}

func NewChannel(api API) *Channel {
	return &Channel{api: api}
}

func (c *Channel) Name() string { return channelName }

func (c *Channel) SendText(ctx context.Context, chat bot.ChatRef, text string) error {
	return c.SendTextWithControls(ctx, chat, text, nil)
}

func (c *Channel) SendTextWithControls(_ context.Context, chat bot.ChatRef, text string, controls view.Keyboard) error {
	chatID, err := parseID(chat.ChatID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if chat.ReplyTo != "" {
		if replyTo, err := strconv.Atoi(chat.ReplyTo); err == nil {
			msg.ReplyToMessageID = replyTo
		}
	}
	if len(controls) > 0 {
		msg.ReplyMarkup = markup(controls)
	}
	_, err = c.api.Send(msg)
	return err
}

// EditMessage replaces the text of a sent message. Editing without a
// markup drops the inline keyboard.
func (c *Channel) EditMessage(_ context.Context, ref bot.MessageRef, text string, controls view.Keyboard) error {
	chatID, err := parseID(ref.ChatID)
	if err != nil {
		return err
	}
	messageID, err := strconv.Atoi(ref.MessageID)
	if err != nil {
		return fmt.Errorf("telegram message id %q: %w", ref.MessageID, err)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if len(controls) > 0 {
		kb := markup(controls)
		edit.ReplyMarkup = &kb
	}
	_, err = c.api.Request(edit)
	if isNotModified(err) {
		return nil
	}
	return err
}

func (c *Channel) AcknowledgeCallback(_ context.Context, callbackID, text string) error {
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func markup(controls view.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(controls))
	for _, row := range controls {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Action))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat id %q: %w", s, err)
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// isNotModified matches the API error returned when an edit would leave
// the message unchanged.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
