// Package webchat serves the bot to browsers over a websocket using the
// JSON frames defined in the protocol package.
package webchat

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/bot"
	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/protocol"
	"github.com/antoniostano/todobot/internal/session"
	"github.com/antoniostano/todobot/internal/view"
)

const (
	channelName  = "webchat"
	userIDPrefix = "web:"

	outboundQueue = 256
	writeTimeout  = 10 * time.Second
	readTimeout   = 120 * time.Second
	pingInterval  = 30 * time.Second
	maxFrameBytes = 64 << 10
)

var (
	ErrQueueFull = errors.New("outbound queue full")
	ErrClosed    = errors.New("connection closed")
)

type Server struct {
	events   bot.EventHandler
	sessions *session.Manager
	metrics  *observability.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func New(events bot.EventHandler, sessions *session.Manager, metrics *observability.Metrics, logger *zap.Logger, allowAnyOrigin bool) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		events:   events,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger.Named(channelName),
		conns:    make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAnyOrigin {
					return true
				}
				return sameOrigin(r)
			},
		},
	}
	sessions.SetExpireHook(s.expire)
	return s
}

// UserID maps a web chat identity into the shared store namespace so it
// cannot collide with Telegram user ids.
func UserID(raw string) string {
	return userIDPrefix + strings.TrimSpace(raw)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawUser := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if rawUser == "" {
		http.Error(w, "query parameter user_id is required", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	sess := s.sessions.Create(UserID(rawUser))
	s.track(sess.ID, ws)
	defer s.untrack(sess.ID)
	s.logger.Info("web chat connected", zap.String("session_id", sess.ID), zap.String("user_id", sess.UserID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{
		sessionID: sess.ID,
		outbound:  make(chan any, outboundQueue),
		done:      ctx.Done(),
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, cancel, ws, c.outbound)
	}()

	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
		_ = s.sessions.Touch(sess.ID)
		s.dispatch(ctx, c, sess.UserID, data)
	}

	cancel()
	<-writerDone
	s.logger.Info("web chat disconnected", zap.String("session_id", sess.ID))
}

func (s *Server) dispatch(ctx context.Context, c *conn, userID string, data []byte) {
	parsed, err := protocol.ParseClientMessage(data)
	if err != nil {
		s.metrics.ObserveWSMessage("inbound", "invalid")
		if pushErr := c.push(protocol.ErrorEvent{
			Type:   protocol.TypeErrorEvent,
			Code:   "invalid_client_message",
			Detail: err.Error(),
		}); pushErr != nil {
			s.metrics.ObserveChannelError(channelName, "error_event")
		}
		return
	}

	switch m := parsed.(type) {
	case protocol.ClientMessage:
		s.metrics.ObserveWSMessage("inbound", string(m.Type))
		s.events.HandleMessage(ctx, c, bot.Message{
			UserID: userID,
			Chat:   bot.ChatRef{ChatID: c.sessionID},
			Text:   m.Text,
		})
	case protocol.ClientCallback:
		s.metrics.ObserveWSMessage("inbound", string(m.Type))
		s.events.HandleCallback(ctx, c, bot.Callback{
			ID:      m.CallbackID,
			UserID:  userID,
			Message: bot.MessageRef{ChatID: c.sessionID, MessageID: m.MessageID},
			Data:    m.Data,
		})
	}
}

// writeLoop keeps websocket writes on a single goroutine.
func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, outbound <-chan any) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				cancel()
				return
			}
		case msg := <-outbound:
			_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteJSON(msg); err != nil {
				s.metrics.ObserveChannelError(channelName, "write_json")
				cancel()
				_ = ws.Close()
				return
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.ObserveWSMessage("outbound", string(t))
			}
		}
	}
}

func (s *Server) track(id string, ws *websocket.Conn) {
	s.mu.Lock()
	s.conns[id] = ws
	s.mu.Unlock()
	s.metrics.SetActiveConnections(s.sessions.ActiveCount())
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	_, _ = s.sessions.End(id)
	s.metrics.SetActiveConnections(s.sessions.ActiveCount())
}

// expire closes the socket of an idle session; the read loop then unwinds.
func (s *Server) expire(sess *session.Session) {
	s.mu.Lock()
	ws := s.conns[sess.ID]
	s.mu.Unlock()
	if ws != nil {
		s.logger.Info("closing idle web chat", zap.String("session_id", sess.ID))
		_ = ws.Close()
	}
}

// conn is the bot.Channel view of one websocket connection.
type conn struct {
	sessionID string
	outbound  chan any
	done      <-chan struct{}
}

func (c *conn) Name() string { return channelName }

func (c *conn) SendText(_ context.Context, chat bot.ChatRef, text string) error {
	return c.push(protocol.BotMessage{
		Type:      protocol.TypeBotMessage,
		MessageID: uuid.NewString(),
		ReplyTo:   chat.ReplyTo,
		Text:      text,
	})
}

func (c *conn) SendTextWithControls(_ context.Context, chat bot.ChatRef, text string, controls view.Keyboard) error {
	return c.push(protocol.BotMessage{
		Type:      protocol.TypeBotMessage,
		MessageID: uuid.NewString(),
		ReplyTo:   chat.ReplyTo,
		Text:      text,
		Buttons:   buttons(controls),
	})
}

func (c *conn) EditMessage(_ context.Context, msg bot.MessageRef, text string, controls view.Keyboard) error {
	return c.push(protocol.BotEdit{
		Type:      protocol.TypeBotEdit,
		MessageID: msg.MessageID,
		Text:      text,
		Buttons:   buttons(controls),
	})
}

func (c *conn) AcknowledgeCallback(_ context.Context, callbackID, text string) error {
	return c.push(protocol.CallbackAck{
		Type:       protocol.TypeCallbackAck,
		CallbackID: callbackID,
		Text:       text,
	})
}

// push never blocks: the bot handler holds its lock while sending.
func (c *conn) push(v any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.outbound <- v:
		return nil
	default:
		return ErrQueueFull
	}
}

func buttons(kb view.Keyboard) [][]protocol.Button {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]protocol.Button, 0, len(kb))
	for _, row := range kb {
		out := make([]protocol.Button, 0, len(row))
		for _, c := range row {
			out = append(out, protocol.Button{Label: c.Label, Action: c.Action})
		}
		rows = append(rows, out)
	}
	return rows
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.BotMessage:
		return m.Type, true
	case protocol.BotEdit:
		return m.Type, true
	case protocol.CallbackAck:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}

func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients often omit Origin.
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
