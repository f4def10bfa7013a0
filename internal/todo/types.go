package todo

import "strings"

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DefaultCategory is present in every user's category list and cannot be removed.
const DefaultCategory = "General"

// Priorities lists the selectable priorities in display order.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// ParsePriority matches the canonical spelling only; callback payloads and
// the state file both carry it verbatim.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.TrimSpace(s)) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	default:
		return "", false
	}
}

type Task struct {
	Name      string   `json:"task_name" yaml:"task_name"`
	Completed bool     `json:"completed" yaml:"completed"`
	Category  string   `json:"category" yaml:"category"`
	Priority  Priority `json:"priority" yaml:"priority"`
}

type UserRecord struct {
	Tasks      []Task   `json:"tasks" yaml:"tasks"`
	Categories []string `json:"categories" yaml:"categories"`
}

func newUserRecord() *UserRecord {
	return &UserRecord{
		Tasks:      []Task{},
		Categories: []string{DefaultCategory},
	}
}

// Clone returns a deep copy.
func (r UserRecord) Clone() UserRecord {
	out := UserRecord{
		Tasks:      make([]Task, len(r.Tasks)),
		Categories: make([]string, len(r.Categories)),
	}
	copy(out.Tasks, r.Tasks)
	copy(out.Categories, r.Categories)
	return out
}

// Snapshot is the full persisted dataset keyed by user identity.
type Snapshot map[string]UserRecord

type Stats struct {
	Users          int `json:"users"`
	Tasks          int `json:"tasks"`
	CompletedTasks int `json:"completed_tasks"`
}
