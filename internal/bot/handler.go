package bot

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/policy"
	"github.com/antoniostano/todobot/internal/todo"
)

// Persister flushes the whole store. Implementations must not fail the
// caller; durability problems are their own to report.
type Persister interface {
	Save(ctx context.Context, store *todo.Store)
}

// Handler interprets inbound messages and callbacks. Every event runs its
// store mutation, flush and rendering under one lock, so no other event
// observes a half-applied change.
type Handler struct {
	mu       sync.Mutex
	store    *todo.Store
	persist  Persister
	logger   *zap.Logger
	metrics  *observability.Metrics
	commands map[string]commandFunc
}

type commandFunc func(ctx context.Context, ch Channel, msg Message, args string) string

func NewHandler(store *todo.Store, persist Persister, logger *zap.Logger, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		store:   store,
		persist: persist,
		logger:  logger.Named("bot"),
		metrics: metrics,
	}
	h.commands = map[string]commandFunc{
		"start":      h.cmdStart,
		"hello":      h.cmdHello,
		"help":       h.cmdHelp,
		"categories": h.cmdCategories,
		"add":        h.cmdAdd,
		"list":       h.cmdList,
		"done":       h.cmdDone,
		"delete":     h.cmdDelete,
		"clear":      h.cmdClear,
	}
	return h
}

// Store exposes the underlying task store for read-only views.
func (h *Handler) Store() *todo.Store {
	return h.store
}

func (h *Handler) HandleMessage(ctx context.Context, ch Channel, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	name, args, ok := parseCommand(msg.Text)
	if !ok {
		// Plain chat text is not addressed to the bot.
		h.metrics.ObserveCommand("text", outcomeNoop)
		return
	}
	cmd, known := h.commands[name]
	if !known {
		h.metrics.ObserveCommand("unknown", "usage")
		h.reply(ctx, ch, msg.Chat, textUnknown)
		return
	}
	outcome := cmd(ctx, ch, msg, args)
	h.metrics.ObserveCommand(name, outcome)
	h.logger.Debug("command handled",
		zap.String("channel", ch.Name()),
		zap.String("user_id", msg.UserID),
		zap.String("command", name),
		zap.String("outcome", outcome))
}

func (h *Handler) save(ctx context.Context) {
	if h.persist != nil {
		h.persist.Save(ctx, h.store)
	}
}

func (h *Handler) reply(ctx context.Context, ch Channel, chat ChatRef, text string) {
	h.delivered(ch, "send", ch.SendText(ctx, chat, text))
}

func (h *Handler) delivered(ch Channel, op string, err error) {
	if err == nil {
		return
	}
	h.metrics.ObserveChannelError(ch.Name(), op)
	h.logger.Warn("channel delivery failed",
		zap.String("channel", ch.Name()),
		zap.String("op", op),
		zap.String("error", policy.RedactError(err)))
}

// parseCommand splits "/name@bot rest" into name and trimmed rest.
func parseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest := splitFirst(text)
	name := strings.TrimPrefix(head, "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name, rest, name != ""
}

// splitFirst splits s on its first whitespace run.
func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
