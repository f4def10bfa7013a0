package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies web chat websocket frames.
type MessageType string

const (
	TypeClientMessage  MessageType = "client_message"
	TypeClientCallback MessageType = "client_callback"
	TypeBotMessage     MessageType = "bot_message"
	TypeBotEdit        MessageType = "bot_edit"
	TypeCallbackAck    MessageType = "callback_ack"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Button mirrors an inline control on the wire.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

type ClientMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type ClientCallback struct {
	Type       MessageType `json:"type"`
	CallbackID string      `json:"callback_id"`
	MessageID  string      `json:"message_id"`
	Data       string      `json:"data"`
}

type BotMessage struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"message_id"`
	ReplyTo   string      `json:"reply_to,omitempty"`
	Text      string      `json:"text"`
	Buttons   [][]Button  `json:"buttons,omitempty"`
}

type BotEdit struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"message_id"`
	Text      string      `json:"text"`
	Buttons   [][]Button  `json:"buttons,omitempty"`
}

type CallbackAck struct {
	Type       MessageType `json:"type"`
	CallbackID string      `json:"callback_id"`
	Text       string      `json:"text,omitempty"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientMessage:
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid client_message")
		}
		return msg, nil
	case TypeClientCallback:
		var msg ClientCallback
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.CallbackID == "" || msg.MessageID == "" || msg.Data == "" {
			return nil, errors.New("invalid client_callback")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
