package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/protocol"
	"github.com/antoniostano/todobot/internal/todo"
	"github.com/antoniostano/todobot/internal/view"
)

// ErrInvalidNumber marks a task number that is not an integer. Users see the
// same message for it as for todo.ErrOutOfRange.
var ErrInvalidNumber = errors.New("invalid task number")

const (
	outcomeOK       = "ok"
	outcomeUsage    = "usage"
	outcomeRejected = "rejected"
	outcomeNoop     = "noop"
)

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, arg)
	}
	return n, nil
}

func (h *Handler) cmdStart(ctx context.Context, ch Channel, msg Message, _ string) string {
	h.reply(ctx, ch, msg.Chat, textWelcome)
	return outcomeOK
}

func (h *Handler) cmdHello(ctx context.Context, ch Channel, msg Message, _ string) string {
	h.reply(ctx, ch, msg.Chat, textHello)
	return outcomeOK
}

func (h *Handler) cmdHelp(ctx context.Context, ch Channel, msg Message, _ string) string {
	h.reply(ctx, ch, msg.Chat, textHelp)
	return outcomeOK
}

func (h *Handler) cmdCategories(ctx context.Context, ch Channel, msg Message, args string) string {
	if args == "" {
		cats := h.store.Categories(msg.UserID)
		if len(cats) == 0 {
			h.reply(ctx, ch, msg.Chat, textNoCategories)
		} else {
			h.reply(ctx, ch, msg.Chat, textCategoriesTitle+strings.Join(cats, "\n"))
		}
		return outcomeOK
	}

	action, name := splitFirst(args)
	if name == "" {
		h.reply(ctx, ch, msg.Chat, textCategoriesUsage)
		return outcomeUsage
	}

	switch strings.ToLower(action) {
	case "add":
		if !fitsControls("x", name) {
			h.reply(ctx, ch, msg.Chat, textCategoryTooLong)
			return outcomeRejected
		}
		err := h.store.AddCategory(msg.UserID, name)
		switch {
		case errors.Is(err, todo.ErrDuplicateCategory):
			h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtCategoryExists, name))
			return outcomeRejected
		case err != nil:
			h.reply(ctx, ch, msg.Chat, textCategoriesUsage)
			return outcomeUsage
		}
		h.save(ctx)
		h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtCategoryAdded, name))
		return outcomeOK
	case "remove":
		err := h.store.RemoveCategory(msg.UserID, name)
		switch {
		case errors.Is(err, todo.ErrCategoryNotFound):
			h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtCategoryNotFound, name))
			return outcomeRejected
		case errors.Is(err, todo.ErrProtectedCategory):
			h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtCategoryProtect, name))
			return outcomeRejected
		case errors.Is(err, todo.ErrCategoryInUse):
			h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtCategoryInUse, name))
			return outcomeRejected
		case err != nil:
			h.reply(ctx, ch, msg.Chat, textCategoriesUsage)
			return outcomeUsage
		}
		h.save(ctx)
		h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtCategoryRemoved, name))
		return outcomeOK
	default:
		h.reply(ctx, ch, msg.Chat, textCategoriesUsage)
		return outcomeUsage
	}
}

// cmdAdd starts the add flow. Nothing is stored until a priority is chosen.
func (h *Handler) cmdAdd(ctx context.Context, ch Channel, msg Message, args string) string {
	name := strings.TrimSpace(args)
	if name == "" {
		h.reply(ctx, ch, msg.Chat, textAddUsage)
		return outcomeUsage
	}
	// Categories stored before names were length-checked may not fit next
	// to this task name; the picker leaves them out.
	var cats []string
	for _, c := range h.store.Categories(msg.UserID) {
		if fitsControls(name, c) {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		h.reply(ctx, ch, msg.Chat, textAddTooLong)
		return outcomeRejected
	}
	h.delivered(ch, "send", ch.SendTextWithControls(ctx, msg.Chat, view.ChooseCategoryText, view.CategoryPicker(name, cats)))
	return outcomeOK
}

// fitsControls reports whether every add-flow payload for the pair stays
// within the callback limit. Medium is the longest priority label.
func fitsControls(taskName, category string) bool {
	return protocol.Fits(protocol.PriorityChoice{TaskName: taskName, Category: category, Priority: todo.PriorityMedium})
}

func (h *Handler) cmdList(ctx context.Context, ch Channel, msg Message, _ string) string {
	text, kb := view.TaskList(h.store.User(msg.UserID))
	if kb == nil {
		h.reply(ctx, ch, msg.Chat, text)
	} else {
		h.delivered(ch, "send", ch.SendTextWithControls(ctx, msg.Chat, text, kb))
	}
	return outcomeOK
}

func (h *Handler) cmdDone(ctx context.Context, ch Channel, msg Message, args string) string {
	return h.positionCommand(ctx, ch, msg, "done", args, func(pos int) (string, error) {
		task, count, err := h.store.CompleteTask(msg.UserID, pos)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(fmtDoneReply, task.Name, count), nil
	})
}

func (h *Handler) cmdDelete(ctx context.Context, ch Channel, msg Message, args string) string {
	return h.positionCommand(ctx, ch, msg, "delete", args, func(pos int) (string, error) {
		task, count, err := h.store.DeleteTask(msg.UserID, pos)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(fmtDeleteReply, task.Name, count), nil
	})
}

// positionCommand parses the task number, applies the mutation and saves.
// Parse and range faults share one user-facing message.
func (h *Handler) positionCommand(ctx context.Context, ch Channel, msg Message, name, args string, apply func(pos int) (string, error)) string {
	if args == "" {
		h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtNumberMissing, name))
		return outcomeUsage
	}
	var text string
	pos, err := parsePosition(args)
	if err == nil {
		text, err = apply(pos)
	}
	if err != nil {
		if !errors.Is(err, ErrInvalidNumber) && !errors.Is(err, todo.ErrOutOfRange) {
			h.logger.Error("unexpected store error", zap.String("command", name), zap.Error(err))
		}
		h.reply(ctx, ch, msg.Chat, fmt.Sprintf(fmtNumberInvalid, name))
		return outcomeRejected
	}
	h.save(ctx)
	h.reply(ctx, ch, msg.Chat, text)
	return outcomeOK
}

func (h *Handler) cmdClear(ctx context.Context, ch Channel, msg Message, _ string) string {
	if len(h.store.Tasks(msg.UserID)) == 0 {
		h.reply(ctx, ch, msg.Chat, view.EmptyListText)
		return outcomeNoop
	}
	h.delivered(ch, "send", ch.SendTextWithControls(ctx, msg.Chat, view.ConfirmClearText, view.ClearConfirmation()))
	return outcomeOK
}
