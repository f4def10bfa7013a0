// Package view renders store state into chat text and inline controls.
// Renderers are pure: they only read the values passed to them.
package view

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/antoniostano/todobot/internal/protocol"
	"github.com/antoniostano/todobot/internal/todo"
)

const (
	EmptyListText      = "Your task list is empty"
	ChooseCategoryText = "Choose a category"
	ChoosePriorityText = "Choose a priority"
	ConfirmClearText   = "Are you sure you want to delete all tasks?"

	statusCompleted    = "Completed"
	statusNotCompleted = "NotCompleted"

	categoriesPerRow = 4

	// Telegram measures message length in UTF-16 code units.
	maxTextUnits    = 3800
	truncatedSuffix = "\n… (truncated)"
)

// Control is a single inline button. Action is the encoded callback payload.
type Control struct {
	Label  string
	Action string
}

// Keyboard is a grid of controls, one slice per row. A nil Keyboard means
// the message carries no controls.
type Keyboard [][]Control

// Len returns the number of controls across all rows.
func (k Keyboard) Len() int {
	n := 0
	for _, row := range k {
		n += len(row)
	}
	return n
}

// TaskList renders the numbered list with complete/delete controls per row.
func TaskList(rec todo.UserRecord) (string, Keyboard) {
	if len(rec.Tasks) == 0 {
		return EmptyListText, nil
	}
	var b strings.Builder
	kb := make(Keyboard, 0, len(rec.Tasks))
	for i, t := range rec.Tasks {
		pos := i + 1
		fmt.Fprintf(&b, "%d. %s - %s - %s - %s\n", pos, cleanName(t.Name), status(t), t.Category, t.Priority)
		kb = append(kb, []Control{
			{Label: fmt.Sprintf("Done %d", pos), Action: protocol.TaskAction{Op: protocol.KindComplete, Position: pos}.Encode()},
			{Label: fmt.Sprintf("Delete %d", pos), Action: protocol.TaskAction{Op: protocol.KindDelete, Position: pos}.Encode()},
		})
	}
	return trimText(b.String()), kb
}

// CategoryPicker offers every category for the pending task name.
func CategoryPicker(taskName string, categories []string) Keyboard {
	var kb Keyboard
	var row []Control
	for _, c := range categories {
		row = append(row, Control{
			Label:  c,
			Action: protocol.CategoryChoice{TaskName: taskName, Category: c}.Encode(),
		})
		if len(row) == categoriesPerRow {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return kb
}

// PriorityPicker offers High, Medium and Low for the pending task.
func PriorityPicker(category, taskName string) Keyboard {
	row := make([]Control, 0, 3)
	for _, p := range todo.Priorities() {
		row = append(row, Control{
			Label:  string(p),
			Action: protocol.PriorityChoice{TaskName: taskName, Category: category, Priority: p}.Encode(),
		})
	}
	return Keyboard{row}
}

func ClearConfirmation() Keyboard {
	return Keyboard{{
		{Label: "Clear", Action: protocol.ClearChoice{Confirm: true}.Encode()},
		{Label: "Cancel", Action: protocol.ClearChoice{Confirm: false}.Encode()},
	}}
}

func status(t todo.Task) string {
	if t.Completed {
		return statusCompleted
	}
	return statusNotCompleted
}

func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	return strings.ReplaceAll(name, "\n", " ")
}

func trimText(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if utf16Len(s) <= maxTextUnits {
		return s
	}
	budget := maxTextUnits - utf16Len(truncatedSuffix)
	end := 0
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		n := unitsOf(r)
		if budget < n {
			break
		}
		budget -= n
		end += size
	}
	return s[:end] + truncatedSuffix
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += unitsOf(r)
	}
	return n
}

func unitsOf(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
