package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/protocol"
	"github.com/antoniostano/todobot/internal/todo"
	"github.com/antoniostano/todobot/internal/view"
)

// HandleCallback advances the add flow, applies task row actions and
// resolves clear confirmations. All state arrives in the callback payload.
func (h *Handler) HandleCallback(ctx context.Context, ch Channel, cb Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()

	payload, err := protocol.ParseCallback(cb.Data)
	if err != nil {
		kind := payloadKind(cb.Data)
		h.metrics.ObserveCallback(string(kind), "malformed")
		h.logger.Info("malformed callback", zap.String("user_id", cb.UserID), zap.Error(err))
		h.ack(ctx, ch, cb, malformedText(kind))
		return
	}

	var outcome string
	switch p := payload.(type) {
	case protocol.CategoryChoice:
		outcome = h.onCategoryChoice(ctx, ch, cb, p)
	case protocol.PriorityChoice:
		outcome = h.onPriorityChoice(ctx, ch, cb, p)
	case protocol.TaskAction:
		outcome = h.onTaskAction(ctx, ch, cb, p)
	case protocol.ClearChoice:
		outcome = h.onClearChoice(ctx, ch, cb, p)
	}
	h.metrics.ObserveCallback(string(payload.Kind()), outcome)
}

func (h *Handler) onCategoryChoice(ctx context.Context, ch Channel, cb Callback, p protocol.CategoryChoice) string {
	if !h.store.HasCategory(cb.UserID, p.Category) {
		h.ack(ctx, ch, cb, textCategoryError)
		return outcomeRejected
	}
	h.edit(ctx, ch, cb.Message, view.ChoosePriorityText, view.PriorityPicker(p.Category, p.TaskName))
	h.ack(ctx, ch, cb, "")
	return outcomeOK
}

func (h *Handler) onPriorityChoice(ctx context.Context, ch Channel, cb Callback, p protocol.PriorityChoice) string {
	// The picker only offers registered categories; one removed between
	// the two steps is refused rather than stored dangling.
	if !h.store.HasCategory(cb.UserID, p.Category) {
		h.ack(ctx, ch, cb, textAddTaskError)
		return outcomeRejected
	}
	count, err := h.store.AddTask(cb.UserID, p.TaskName, p.Category, p.Priority)
	if err != nil {
		h.logger.Info("add task rejected", zap.String("user_id", cb.UserID), zap.Error(err))
		h.ack(ctx, ch, cb, textAddTaskError)
		return outcomeRejected
	}
	h.save(ctx)
	h.edit(ctx, ch, cb.Message, fmt.Sprintf(fmtTaskAdded, p.TaskName, p.Category, p.Priority, count), nil)
	h.ack(ctx, ch, cb, fmt.Sprintf(fmtAckSaved, p.TaskName))
	return outcomeOK
}

// onTaskAction leaves the displayed list untouched when the position is
// no longer valid.
func (h *Handler) onTaskAction(ctx context.Context, ch Channel, cb Callback, p protocol.TaskAction) string {
	var (
		task todo.Task
		err  error
		ack  string
	)
	switch p.Op {
	case protocol.KindComplete:
		task, _, err = h.store.CompleteTask(cb.UserID, p.Position)
		ack = fmtAckCompleted
	case protocol.KindDelete:
		task, _, err = h.store.DeleteTask(cb.UserID, p.Position)
		ack = fmtAckDeleted
	}
	if err != nil {
		h.ack(ctx, ch, cb, textBadTaskNumber)
		return outcomeRejected
	}
	h.save(ctx)
	h.ack(ctx, ch, cb, fmt.Sprintf(ack, task.Name))
	text, kb := view.TaskList(h.store.User(cb.UserID))
	h.edit(ctx, ch, cb.Message, text, kb)
	return outcomeOK
}

func (h *Handler) onClearChoice(ctx context.Context, ch Channel, cb Callback, p protocol.ClearChoice) string {
	if !p.Confirm {
		h.edit(ctx, ch, cb.Message, textClearCancelled, nil)
		h.ack(ctx, ch, cb, textAckCancelled)
		return outcomeNoop
	}
	if h.store.ClearTasks(cb.UserID) == 0 {
		h.edit(ctx, ch, cb.Message, textAlreadyEmpty, nil)
		h.ack(ctx, ch, cb, textAckCancelled)
		return outcomeNoop
	}
	h.save(ctx)
	h.edit(ctx, ch, cb.Message, textClearDone, nil)
	h.ack(ctx, ch, cb, textAckCleared)
	return outcomeOK
}

func (h *Handler) edit(ctx context.Context, ch Channel, msg MessageRef, text string, kb view.Keyboard) {
	h.delivered(ch, "edit", ch.EditMessage(ctx, msg, text, kb))
}

func (h *Handler) ack(ctx context.Context, ch Channel, cb Callback, text string) {
	h.delivered(ch, "ack", ch.AcknowledgeCallback(ctx, cb.ID, text))
}

// payloadKind guesses the kind of an unparseable payload from its prefix.
func payloadKind(data string) protocol.Kind {
	kind, _, _ := strings.Cut(data, ":")
	switch k := protocol.Kind(kind); k {
	case protocol.KindCategoryChoice, protocol.KindPriorityChoice, protocol.KindComplete,
		protocol.KindDelete, protocol.KindConfirmClear, protocol.KindCancelClear:
		return k
	default:
		return "unknown"
	}
}

func malformedText(kind protocol.Kind) string {
	switch kind {
	case protocol.KindCategoryChoice:
		return textCategoryError
	case protocol.KindPriorityChoice:
		return textAddTaskError
	case protocol.KindComplete, protocol.KindDelete:
		return textBadTaskNumber
	default:
		return textUnknownCallback
	}
}
