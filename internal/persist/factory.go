package persist

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Options selects and configures the durable backend.
type Options struct {
	Backend     string
	FilePath    string
	DatabaseURL string
	SQLitePath  string
	Format      string
}

// NewBackend creates the configured backend. An empty backend name picks
// postgres when a database URL is set and the file backend otherwise.
func NewBackend(ctx context.Context, opts Options) (Backend, error) {
	mode := strings.ToLower(strings.TrimSpace(opts.Backend))
	if mode == "" {
		mode = BackendFile
		if strings.TrimSpace(opts.DatabaseURL) != "" {
			mode = BackendPostgres
		}
	}
	switch mode {
	case BackendFile:
		return NewFileBackend(opts.FilePath), nil
	case BackendPostgres:
		return NewPostgresBackend(ctx, opts.DatabaseURL)
	case BackendSQLite:
		return NewSQLiteBackend(ctx, opts.SQLitePath)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected file|postgres|sqlite|memory)", opts.Backend)
	}
}

// ResolveFormat picks the codec format: explicit value first, then the file
// extension for the file backend, then JSON.
func ResolveFormat(opts Options) string {
	if f := strings.ToLower(strings.TrimSpace(opts.Format)); f != "" {
		return f
	}
	if strings.EqualFold(strings.TrimSpace(opts.Backend), BackendFile) || strings.TrimSpace(opts.Backend) == "" {
		switch strings.ToLower(filepath.Ext(opts.FilePath)) {
		case ".yaml", ".yml":
			return FormatYAML
		}
	}
	return FormatJSON
}
