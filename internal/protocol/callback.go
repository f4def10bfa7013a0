package protocol

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/antoniostano/todobot/internal/todo"
)

// MaxCallbackBytes is Telegram's limit for inline button callback data.
const MaxCallbackBytes = 64

var ErrMalformedPayload = errors.New("malformed callback payload")

type Kind string

const (
	KindCategoryChoice Kind = "category"
	KindPriorityChoice Kind = "priority"
	KindComplete       Kind = "complete"
	KindDelete         Kind = "delete"
	KindConfirmClear   Kind = "confirm-clear"
	KindCancelClear    Kind = "cancel-clear"
)

// Payload is the state carried by an interactive control. Everything the
// next step needs travels inside it, so no server-side session is kept.
type Payload interface {
	Kind() Kind
	Encode() string
}

// CategoryChoice is pressed in the category picker of the add flow.
type CategoryChoice struct {
	TaskName string
	Category string
}

// PriorityChoice is pressed in the priority picker and commits the task.
type PriorityChoice struct {
	TaskName string
	Category string
	Priority todo.Priority
}

// TaskAction targets a task row by its 1-based position.
type TaskAction struct {
	Op       Kind
	Position int
}

type ClearChoice struct {
	Confirm bool
}

func (CategoryChoice) Kind() Kind { return KindCategoryChoice }
func (PriorityChoice) Kind() Kind { return KindPriorityChoice }
func (a TaskAction) Kind() Kind   { return a.Op }

func (c ClearChoice) Kind() Kind {
	if c.Confirm {
		return KindConfirmClear
	}
	return KindCancelClear
}

func (c CategoryChoice) Encode() string {
	return join(KindCategoryChoice, c.Category, c.TaskName)
}

func (p PriorityChoice) Encode() string {
	return join(KindPriorityChoice, string(p.Priority), p.Category, p.TaskName)
}

func (a TaskAction) Encode() string {
	return join(a.Op, strconv.Itoa(a.Position))
}

func (c ClearChoice) Encode() string {
	return string(c.Kind())
}

// Fits reports whether the encoded payload stays within MaxCallbackBytes.
func Fits(p Payload) bool {
	return len(p.Encode()) <= MaxCallbackBytes
}

// ParseCallback decodes and validates callback data produced by Encode.
func ParseCallback(data string) (Payload, error) {
	parts := strings.Split(data, fieldSep)
	fields := make([]string, len(parts)-1)
	for i, raw := range parts[1:] {
		v, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		fields[i] = v
	}

	switch Kind(parts[0]) {
	case KindCategoryChoice:
		if len(fields) != 2 || fields[0] == "" || strings.TrimSpace(fields[1]) == "" {
			return nil, malformed(data)
		}
		return CategoryChoice{Category: fields[0], TaskName: fields[1]}, nil
	case KindPriorityChoice:
		if len(fields) != 3 || fields[1] == "" || strings.TrimSpace(fields[2]) == "" {
			return nil, malformed(data)
		}
		p, ok := todo.ParsePriority(fields[0])
		if !ok {
			return nil, malformed(data)
		}
		return PriorityChoice{Priority: p, Category: fields[1], TaskName: fields[2]}, nil
	case KindComplete, KindDelete:
		if len(fields) != 1 {
			return nil, malformed(data)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedPayload, data, err)
		}
		return TaskAction{Op: Kind(parts[0]), Position: n}, nil
	case KindConfirmClear, KindCancelClear:
		if len(fields) != 0 {
			return nil, malformed(data)
		}
		return ClearChoice{Confirm: Kind(parts[0]) == KindConfirmClear}, nil
	default:
		return nil, malformed(data)
	}
}

const fieldSep = ":"

var fieldEscaper = strings.NewReplacer("%", "%25", fieldSep, "%3A")

func join(kind Kind, fields ...string) string {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, f := range fields {
		b.WriteString(fieldSep)
		b.WriteString(fieldEscaper.Replace(f))
	}
	return b.String()
}

func malformed(data string) error {
	return fmt.Errorf("%w: %q", ErrMalformedPayload, data)
}
