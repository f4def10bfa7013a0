package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/bot"
	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/policy"
	"github.com/antoniostano/todobot/internal/reliability"
)

// SecretHeader carries the webhook secret configured with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const (
	pollBackoffBase = time.Second
	pollBackoffCap  = 30 * time.Second
)

// Dispatcher turns Telegram updates into bot events, one at a time.
type Dispatcher struct {
	api     API
	channel *Channel
	events  bot.EventHandler
	allow   policy.Allowlist
	botName string
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewDispatcher(api API, events bot.EventHandler, allow policy.Allowlist, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		api:     api,
		channel: NewChannel(api),
		events:  events,
		allow:   allow,
		logger:  logger.Named(channelName),
		metrics: metrics,
	}
}

// SetBotName sets the username commands may be suffixed with, as in
// /list@name. Commands carrying any other name are left to that bot. Call
// it before handling updates.
func (d *Dispatcher) SetBotName(name string) {
	d.botName = strings.TrimPrefix(strings.TrimSpace(name), "@")
}

// addressedElsewhere reports whether text is a command for another bot.
func (d *Dispatcher) addressedElsewhere(text string) bool {
	text = strings.TrimSpace(text)
	if d.botName == "" || !strings.HasPrefix(text, "/") {
		return false
	}
	head := strings.Fields(text)[0]
	i := strings.IndexByte(head, '@')
	return i >= 0 && !strings.EqualFold(head[i+1:], d.botName)
}

// HandleUpdate routes text messages and callback queries. Other update
// kinds, and updates from users outside the allowlist, are ignored.
func (d *Dispatcher) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil || m.Text == "" {
			return
		}
		if !d.permits(m.From.ID) || d.addressedElsewhere(m.Text) {
			return
		}
		d.events.HandleMessage(ctx, d.channel, bot.Message{
			UserID: formatID(m.From.ID),
			Chat: bot.ChatRef{
				ChatID:  formatID(m.Chat.ID),
				ReplyTo: strconv.Itoa(m.MessageID),
			},
			Text: m.Text,
		})
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			d.logger.Debug("callback without message", zap.String("callback_id", q.ID))
			return
		}
		if !d.permits(q.From.ID) {
			return
		}
		d.events.HandleCallback(ctx, d.channel, bot.Callback{
			ID:     q.ID,
			UserID: formatID(q.From.ID),
			Message: bot.MessageRef{
				ChatID:    formatID(q.Message.Chat.ID),
				MessageID: strconv.Itoa(q.Message.MessageID),
			},
			Data: q.Data,
		})
	}
}

// Poll long-polls getUpdates until ctx is done. Updates are handled in
// arrival order before the next batch is requested. Transient failures are
// retried with backoff; an API rejection such as a revoked token or a
// registered webhook ends polling with an error.
func (d *Dispatcher) Poll(ctx context.Context, timeout time.Duration) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = []string{"message", "callback_query"}

	d.logger.Info("telegram polling started", zap.Duration("timeout", timeout))
	failures := 0
	for {
		updates, err := d.getUpdates(ctx, cfg)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			d.metrics.ObserveChannelError(channelName, "get_updates")
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) && apiErr.Code != 0 && !reliability.IsRetryableHTTPStatus(apiErr.Code) {
				return fmt.Errorf("telegram getUpdates: %s", policy.RedactError(err))
			}
			delay := reliability.ExponentialBackoff(failures, pollBackoffBase, pollBackoffCap)
			if apiErr != nil && apiErr.RetryAfter > 0 {
				delay = time.Duration(apiErr.RetryAfter) * time.Second
			}
			failures++
			d.logger.Warn("getUpdates failed",
				zap.String("error", policy.RedactError(err)),
				zap.Duration("retry_in", delay))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		failures = 0
		for _, u := range updates {
			if u.UpdateID >= cfg.Offset {
				cfg.Offset = u.UpdateID + 1
			}
			d.HandleUpdate(ctx, u)
		}
	}
}

// getUpdates lets a shutdown interrupt a pending long poll.
func (d *Dispatcher) getUpdates(ctx context.Context, cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	type result struct {
		updates []tgbotapi.Update
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		updates, err := d.api.GetUpdates(cfg)
		ch <- result{updates, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.updates, r.err
	}
}

// WebhookHandler accepts updates pushed by Telegram. When secret is set,
// requests must carry it in SecretHeader.
func (d *Dispatcher) WebhookHandler(secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(secret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		defer r.Body.Close()
		var u tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&u); err != nil {
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}
		d.HandleUpdate(r.Context(), u)
		w.WriteHeader(http.StatusOK)
	})
}

func (d *Dispatcher) permits(userID int64) bool {
	if d.allow.Permits(formatID(userID)) {
		return true
	}
	d.logger.Debug("update from user outside allowlist", zap.Int64("user_id", userID))
	return false
}
