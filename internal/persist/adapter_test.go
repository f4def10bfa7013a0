package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/antoniostano/todobot/internal/todo"
)

func sampleStore(t *testing.T) *todo.Store {
	t.Helper()
	s := todo.NewStore()
	if err := s.AddCategory("42", "Work"); err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if _, err := s.AddTask("42", "Buy milk", "General", todo.PriorityMedium); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := s.AddTask("42", "Ship: release 1.2", "Work", todo.PriorityHigh); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, _, err := s.CompleteTask("42", 2); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if _, err := s.AddTask("7", "Walk", "General", todo.PriorityLow); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	return s
}

func TestRoundTripAcrossBackendsAndFormats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sqliteBackend, err := NewSQLiteBackend(ctx, filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	defer sqliteBackend.Close()

	cases := []struct {
		name    string
		backend Backend
		format  string
	}{
		{"file json", NewFileBackend(filepath.Join(dir, "tasks.json")), FormatJSON},
		{"file yaml", NewFileBackend(filepath.Join(dir, "tasks.yaml")), FormatYAML},
		{"memory json", NewMemoryBackend(), FormatJSON},
		{"sqlite json", sqliteBackend, FormatJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			codec, err := NewCodec(tc.format)
			if err != nil {
				t.Fatalf("NewCodec() error = %v", err)
			}
			a := NewAdapter(tc.backend, codec, nil, nil)
			original := sampleStore(t)
			a.Save(ctx, original)

			loaded := a.Load(ctx)
			if !reflect.DeepEqual(loaded.Snapshot(), original.Snapshot()) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded.Snapshot(), original.Snapshot())
			}
		})
	}
}

func TestJSONLayoutMatchesLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	legacy := `{
    "42": {
        "tasks": [
            {"task_name": "Old task", "completed": true, "category": "General"}
        ],
        "categories": ["General", "Home"]
    }
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	codec, _ := NewCodec(FormatJSON)
	a := NewAdapter(NewFileBackend(path), codec, nil, nil)
	store := a.Load(context.Background())

	tasks := store.Tasks("42")
	if len(tasks) != 1 || tasks[0].Priority != todo.PriorityMedium || !tasks[0].Completed {
		t.Fatalf("legacy tasks = %+v, want one completed Medium task", tasks)
	}
	if !reflect.DeepEqual(store.Categories("42"), []string{"General", "Home"}) {
		t.Fatalf("categories = %v", store.Categories("42"))
	}
}

func TestLoadMissingOrMalformedStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(malformed, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.json"), malformed, empty} {
		core, logs := observer.New(zap.InfoLevel)
		codec, _ := NewCodec(FormatJSON)
		a := NewAdapter(NewFileBackend(path), codec, zap.New(core), nil)
		store := a.Load(context.Background())
		if st := store.Stats(); st.Users != 0 || st.Tasks != 0 {
			t.Fatalf("Load(%s) stats = %+v, want empty", path, st)
		}
		if logs.Len() == 0 {
			t.Fatalf("Load(%s) logged nothing", path)
		}
	}
}

func TestSaveFailureIsSwallowedAndLogged(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SaveErr = errors.New("disk full")
	core, logs := observer.New(zap.ErrorLevel)
	codec, _ := NewCodec(FormatJSON)
	a := NewAdapter(backend, codec, zap.New(core), nil)

	store := sampleStore(t)
	a.Save(context.Background(), store)

	if logs.FilterMessage("persist state failed").Len() != 1 {
		t.Fatalf("expected one save failure log, got %d entries", logs.Len())
	}
	if len(store.Tasks("42")) != 2 {
		t.Fatalf("in-memory state changed after failed save")
	}
	if backend.Saves() != 0 {
		t.Fatalf("Saves() = %d, want 0", backend.Saves())
	}
	if err := a.Write(context.Background(), store); err == nil {
		t.Fatalf("Write() error = nil, want backend failure")
	}
}

func TestFileSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tasks.json")
	b := NewFileBackend(path)
	if _, err := b.Load(ctx); !errors.Is(err, ErrAbsent) {
		t.Fatalf("Load() before save error = %v, want ErrAbsent", err)
	}
	if err := b.Save(ctx, []byte("first")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := b.Save(ctx, []byte("second")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("Load() = %q, want second", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only the state file", len(entries))
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	b, err := NewPostgresBackend(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresBackend() error = %v", err)
	}
	defer b.Close()

	codec, _ := NewCodec(FormatJSON)
	a := NewAdapter(b, codec, nil, nil)
	original := sampleStore(t)
	a.Save(ctx, original)
	if got := a.Load(ctx).Snapshot(); !reflect.DeepEqual(got, original.Snapshot()) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestReadReportsFailures(t *testing.T) {
	dir := t.TempDir()
	codec, _ := NewCodec(FormatJSON)

	a := NewAdapter(NewFileBackend(filepath.Join(dir, "missing.json")), codec, nil, nil)
	if _, _, err := a.Read(context.Background()); !errors.Is(err, ErrAbsent) {
		t.Fatalf("Read(missing) error = %v, want ErrAbsent", err)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"42": [1, 2]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	a = NewAdapter(NewFileBackend(broken), codec, nil, nil)
	if _, _, err := a.Read(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Read(broken) error = %v, want ErrMalformed", err)
	}

	legacy := filepath.Join(dir, "legacy.json")
	doc := `{"42": {"tasks": [{"task_name": "A", "completed": false, "category": "General"}], "categories": ["General"]}}`
	if err := os.WriteFile(legacy, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	a = NewAdapter(NewFileBackend(legacy), codec, nil, nil)
	store, fixes, err := a.Read(context.Background())
	if err != nil {
		t.Fatalf("Read(legacy) error = %v", err)
	}
	if fixes != 1 || store.Tasks("42")[0].Priority != todo.PriorityMedium {
		t.Fatalf("fixes = %d, tasks = %+v", fixes, store.Tasks("42"))
	}
}

func TestSaveOutlivesCancelledContext(t *testing.T) {
	b, err := NewSQLiteBackend(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	defer b.Close()
	codec, _ := NewCodec(FormatJSON)
	a := NewAdapter(b, codec, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	original := sampleStore(t)
	a.Save(ctx, original)

	got, _, err := a.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got.Snapshot(), original.Snapshot()) {
		t.Fatalf("state after cancelled save = %+v, want %+v", got.Snapshot(), original.Snapshot())
	}
}
