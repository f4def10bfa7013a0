package todo

import (
	"errors"
	"reflect"
	"testing"
)

func TestUserIsCreatedLazilyWithDefaultCategory(t *testing.T) {
	s := NewStore()
	rec := s.User("u1")
	if len(rec.Tasks) != 0 {
		t.Fatalf("len(Tasks) = %d, want 0", len(rec.Tasks))
	}
	if !reflect.DeepEqual(rec.Categories, []string{DefaultCategory}) {
		t.Fatalf("Categories = %v, want [%s]", rec.Categories, DefaultCategory)
	}
	if got := s.Stats().Users; got != 1 {
		t.Fatalf("Stats().Users = %d, want 1", got)
	}
}

func TestAddTaskKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	names := []string{"Buy milk", "Call mom", "Write report"}
	for i, name := range names {
		n, err := s.AddTask("u1", name, DefaultCategory, PriorityMedium)
		if err != nil {
			t.Fatalf("AddTask(%q) error = %v", name, err)
		}
		if n != i+1 {
			t.Fatalf("AddTask(%q) count = %d, want %d", name, n, i+1)
		}
	}
	got := s.Tasks("u1")
	for i, name := range names {
		if got[i].Name != name {
			t.Fatalf("Tasks()[%d].Name = %q, want %q", i, got[i].Name, name)
		}
		if got[i].Completed {
			t.Fatalf("Tasks()[%d].Completed = true, want false", i)
		}
	}
}

func TestAddTaskRejectsEmptyNameAndBadPriority(t *testing.T) {
	s := NewStore()
	if _, err := s.AddTask("u1", "   ", DefaultCategory, PriorityLow); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("AddTask(blank) error = %v, want ErrEmptyName", err)
	}
	if _, err := s.AddTask("u1", "x", DefaultCategory, Priority("Urgent")); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("AddTask(Urgent) error = %v, want ErrInvalidPriority", err)
	}
	if len(s.Tasks("u1")) != 0 {
		t.Fatalf("rejected tasks must not be stored")
	}
}

func TestDeleteTaskRenumbers(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"a", "b", "c", "d"} {
		if _, err := s.AddTask("u1", name, DefaultCategory, PriorityLow); err != nil {
			t.Fatalf("AddTask() error = %v", err)
		}
	}
	removed, left, err := s.DeleteTask("u1", 2)
	if err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if removed.Name != "b" || left != 3 {
		t.Fatalf("DeleteTask() = (%q, %d), want (b, 3)", removed.Name, left)
	}
	var got []string
	for _, task := range s.Tasks("u1") {
		got = append(got, task.Name)
	}
	if !reflect.DeepEqual(got, []string{"a", "c", "d"}) {
		t.Fatalf("Tasks() = %v, want [a c d]", got)
	}
}

func TestCompleteTaskIsIdempotent(t *testing.T) {
	s := NewStore()
	if _, err := s.AddTask("u1", "a", DefaultCategory, PriorityHigh); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		task, n, err := s.CompleteTask("u1", 1)
		if err != nil {
			t.Fatalf("CompleteTask() error = %v", err)
		}
		if !task.Completed || n != 1 {
			t.Fatalf("CompleteTask() = (%+v, %d), want completed and count 1", task, n)
		}
	}
}

func TestPositionOutOfRangeDoesNotMutate(t *testing.T) {
	s := NewStore()
	for _, pos := range []int{-1, 0, 1} {
		if _, _, err := s.CompleteTask("u1", pos); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("CompleteTask(empty, %d) error = %v, want ErrOutOfRange", pos, err)
		}
		if _, _, err := s.DeleteTask("u1", pos); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("DeleteTask(empty, %d) error = %v, want ErrOutOfRange", pos, err)
		}
	}

	if _, err := s.AddTask("u1", "a", DefaultCategory, PriorityHigh); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	before := s.User("u1")
	for _, pos := range []int{0, 2, 100} {
		if _, _, err := s.CompleteTask("u1", pos); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("CompleteTask(%d) error = %v, want ErrOutOfRange", pos, err)
		}
		if _, _, err := s.DeleteTask("u1", pos); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("DeleteTask(%d) error = %v, want ErrOutOfRange", pos, err)
		}
	}
	if after := s.User("u1"); !reflect.DeepEqual(before, after) {
		t.Fatalf("record changed after failed mutations: before=%+v after=%+v", before, after)
	}
}

func TestCategoryRules(t *testing.T) {
	s := NewStore()
	if err := s.AddCategory("u1", "Work"); err != nil {
		t.Fatalf("AddCategory(Work) error = %v", err)
	}
	if err := s.AddCategory("u1", "Work"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("AddCategory(Work) again error = %v, want ErrDuplicateCategory", err)
	}
	if err := s.RemoveCategory("u1", "Home"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("RemoveCategory(Home) error = %v, want ErrCategoryNotFound", err)
	}
	if err := s.RemoveCategory("u1", DefaultCategory); !errors.Is(err, ErrProtectedCategory) {
		t.Fatalf("RemoveCategory(General) error = %v, want ErrProtectedCategory", err)
	}

	if _, err := s.AddTask("u1", "report", "Work", PriorityHigh); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if err := s.RemoveCategory("u1", "Work"); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("RemoveCategory(Work) error = %v, want ErrCategoryInUse", err)
	}

	if _, _, err := s.DeleteTask("u1", 1); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if err := s.RemoveCategory("u1", "Work"); err != nil {
		t.Fatalf("RemoveCategory(Work) after delete error = %v", err)
	}
	if !reflect.DeepEqual(s.Categories("u1"), []string{DefaultCategory}) {
		t.Fatalf("Categories() = %v, want [General]", s.Categories("u1"))
	}
}

func TestRemoveGeneralAlwaysProtected(t *testing.T) {
	s := NewStore()
	if err := s.RemoveCategory("u1", DefaultCategory); !errors.Is(err, ErrProtectedCategory) {
		t.Fatalf("RemoveCategory(General) on empty list error = %v", err)
	}
	if _, err := s.AddTask("u1", "x", DefaultCategory, PriorityLow); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if err := s.RemoveCategory("u1", DefaultCategory); !errors.Is(err, ErrProtectedCategory) {
		t.Fatalf("RemoveCategory(General) with tasks error = %v", err)
	}
}

func TestClearTasks(t *testing.T) {
	s := NewStore()
	if n := s.ClearTasks("u1"); n != 0 {
		t.Fatalf("ClearTasks(empty) = %d, want 0", n)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.AddTask("u1", name, DefaultCategory, PriorityLow); err != nil {
			t.Fatalf("AddTask() error = %v", err)
		}
	}
	if n := s.ClearTasks("u1"); n != 3 {
		t.Fatalf("ClearTasks() = %d, want 3", n)
	}
	if len(s.Tasks("u1")) != 0 {
		t.Fatalf("tasks remain after clear")
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := NewStore()
	if _, err := s.AddTask("u1", "mine", DefaultCategory, PriorityLow); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if err := s.AddCategory("u2", "Work"); err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if len(s.Tasks("u2")) != 0 {
		t.Fatalf("u2 sees u1 tasks")
	}
	if s.HasCategory("u1", "Work") {
		t.Fatalf("u1 sees u2 category")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	if _, err := s.AddTask("u1", "a", DefaultCategory, PriorityLow); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	snap := s.Snapshot()
	rec := snap["u1"]
	rec.Tasks[0].Name = "mutated"
	if got := s.Tasks("u1")[0].Name; got != "a" {
		t.Fatalf("store task name = %q after snapshot mutation, want a", got)
	}
}

func TestMigrateRepairsLegacyRecords(t *testing.T) {
	snap := Snapshot{
		"u1": {
			Tasks: []Task{
				{Name: "old", Category: "Work"},
				{Name: "odd", Category: DefaultCategory, Priority: "urgent"},
				{Name: "new", Category: DefaultCategory, Priority: PriorityHigh},
			},
			Categories: []string{"Work", "Work"},
		},
		"u2": {},
	}
	got, fixes := Migrate(snap)
	if fixes != 5 {
		t.Fatalf("Migrate() fixes = %d, want 5", fixes)
	}
	u1 := got["u1"]
	wantPriorities := []Priority{PriorityMedium, PriorityMedium, PriorityHigh}
	for i, p := range wantPriorities {
		if u1.Tasks[i].Priority != p {
			t.Fatalf("task %d priority = %q, want %q", i, u1.Tasks[i].Priority, p)
		}
	}
	if !reflect.DeepEqual(u1.Categories, []string{DefaultCategory, "Work"}) {
		t.Fatalf("u1 categories = %v", u1.Categories)
	}
	if u2 := got["u2"]; u2.Tasks == nil || !reflect.DeepEqual(u2.Categories, []string{DefaultCategory}) {
		t.Fatalf("u2 = %+v, want empty tasks and [General]", u2)
	}
	if snap["u1"].Tasks[0].Priority != "" {
		t.Fatalf("Migrate() mutated its input")
	}
}

func TestLookupDoesNotMaterialize(t *testing.T) {
	s := NewStore()
	if _, ok := s.Lookup("ghost"); ok {
		t.Fatalf("Lookup(ghost) ok = true, want false")
	}
	if got := s.Stats().Users; got != 0 {
		t.Fatalf("Stats().Users = %d, want 0 after Lookup", got)
	}
	if _, err := s.AddTask("u1", "A", DefaultCategory, PriorityLow); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	rec, ok := s.Lookup("u1")
	if !ok || len(rec.Tasks) != 1 {
		t.Fatalf("Lookup(u1) = %+v, %v", rec, ok)
	}
	rec.Tasks[0].Name = "mutated"
	if s.Tasks("u1")[0].Name != "A" {
		t.Fatalf("Lookup returned shared state")
	}
}

func TestFromSnapshotReportsFixesAndCopies(t *testing.T) {
	snap := Snapshot{
		"u1": {
			Tasks:      []Task{{Name: "old", Category: DefaultCategory}},
			Categories: []string{DefaultCategory},
		},
	}
	s, fixes := FromSnapshot(snap)
	if fixes != 1 {
		t.Fatalf("FromSnapshot() fixes = %d, want 1", fixes)
	}
	if got := s.Tasks("u1")[0].Priority; got != PriorityMedium {
		t.Fatalf("priority = %q, want Medium", got)
	}
	snap["u1"].Tasks[0].Name = "mutated"
	if got := s.Tasks("u1")[0].Name; got != "old" {
		t.Fatalf("store shares input slices: name = %q", got)
	}

	again, fixes := FromSnapshot(s.Snapshot())
	if fixes != 0 {
		t.Fatalf("FromSnapshot(current) fixes = %d, want 0", fixes)
	}
	if !reflect.DeepEqual(again.Snapshot(), s.Snapshot()) {
		t.Fatalf("rebuilt store differs")
	}
}
