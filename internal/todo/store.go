package todo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrDuplicateCategory = errors.New("category already exists")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProtectedCategory = errors.New("category is protected")
	ErrCategoryInUse     = errors.New("category is used by tasks")
	ErrOutOfRange        = errors.New("task position out of range")
	ErrEmptyName         = errors.New("name is required")
	ErrInvalidPriority   = errors.New("invalid priority")
)

// Store holds every user's tasks and categories. Positions passed to the
// mutators are 1-based, matching what users see in the rendered list.
type Store struct {
	mu    sync.RWMutex
	users map[string]*UserRecord
}

func NewStore() *Store {
	return &Store{users: make(map[string]*UserRecord)}
}

// FromSnapshot builds a store from persisted data. Records pass through
// Migrate exactly once; the number of legacy fixes is returned.
func FromSnapshot(snap Snapshot) (*Store, int) {
	migrated, fixes := Migrate(snap)
	s := NewStore()
	for id := range migrated {
		rec := migrated[id]
		s.users[id] = &rec
	}
	return s, fixes
}

// Snapshot returns a deep copy of the whole dataset.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Snapshot, len(s.users))
	for id, rec := range s.users {
		out[id] = rec.Clone()
	}
	return out
}

// User returns a copy of the user's record, materializing it on first access.
func (s *Store) User(userID string) UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userLocked(userID).Clone()
}

// Lookup returns a copy of the user's record without materializing it.
func (s *Store) Lookup(userID string) (UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[userID]
	if !ok {
		return UserRecord{}, false
	}
	return rec.Clone(), true
}

func (s *Store) Tasks(userID string) []Task {
	return s.User(userID).Tasks
}

func (s *Store) Categories(userID string) []string {
	return s.User(userID).Categories
}

func (s *Store) HasCategory(userID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.userLocked(userID).Categories, name) >= 0
}

func (s *Store) AddCategory(userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLocked(userID)
	if indexOf(rec.Categories, name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}
	rec.Categories = append(rec.Categories, name)
	return nil
}

func (s *Store) RemoveCategory(userID, name string) error {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLocked(userID)
	idx := indexOf(rec.Categories, name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	if name == DefaultCategory {
		return fmt.Errorf("%w: %s", ErrProtectedCategory, name)
	}
	for _, t := range rec.Tasks {
		if t.Category == name {
			return fmt.Errorf("%w: %s", ErrCategoryInUse, name)
		}
	}
	rec.Categories = append(rec.Categories[:idx], rec.Categories[idx+1:]...)
	return nil
}

// AddTask appends a new open task and returns the user's task count.
// The category is not checked against the user's list here.
func (s *Store) AddTask(userID, name, category string, priority Priority) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}
	if _, ok := ParsePriority(string(priority)); !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLocked(userID)
	rec.Tasks = append(rec.Tasks, Task{
		Name:     name,
		Category: category,
		Priority: priority,
	})
	return len(rec.Tasks), nil
}

// CompleteTask marks the task at position as completed. Completing an
// already completed task succeeds without change.
func (s *Store) CompleteTask(userID string, position int) (Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLocked(userID)
	if err := checkPosition(position, len(rec.Tasks)); err != nil {
		return Task{}, len(rec.Tasks), err
	}
	rec.Tasks[position-1].Completed = true
	return rec.Tasks[position-1], len(rec.Tasks), nil
}

// DeleteTask removes the task at position and returns it with the
// remaining count. Later tasks move up by one.
func (s *Store) DeleteTask(userID string, position int) (Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLocked(userID)
	if err := checkPosition(position, len(rec.Tasks)); err != nil {
		return Task{}, len(rec.Tasks), err
	}
	removed := rec.Tasks[position-1]
	rec.Tasks = append(rec.Tasks[:position-1], rec.Tasks[position:]...)
	return removed, len(rec.Tasks), nil
}

// ClearTasks empties the user's list and returns how many tasks were removed.
func (s *Store) ClearTasks(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.userLocked(userID)
	n := len(rec.Tasks)
	if n > 0 {
		rec.Tasks = []Task{}
	}
	return n
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Users: len(s.users)}
	for _, rec := range s.users {
		st.Tasks += len(rec.Tasks)
		for _, t := range rec.Tasks {
			if t.Completed {
				st.CompletedTasks++
			}
		}
	}
	return st
}

// UserIDs returns known user identities in sorted order.
func (s *Store) UserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) userLocked(userID string) *UserRecord {
	rec, ok := s.users[userID]
	if !ok {
		rec = newUserRecord()
		s.users[userID] = rec
	}
	return rec
}

func checkPosition(position, count int) error {
	if position < 1 || position > count {
		return fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, position, count)
	}
	return nil
}

func indexOf(items []string, v string) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}
