package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/config"
	"github.com/antoniostano/todobot/internal/logging"
	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/persist"
)

var (
	envFile string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "todobot",
	Short: "Personal task list bot for Telegram and the browser",
	Long: `todobot keeps a per-user task list with categories and priorities.
It answers Telegram updates (long polling or webhook) and a websocket web
chat, and persists every change to a file, SQLite or Postgres.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.LogFormat)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, showCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the configured backend and codec behind a persistence
// adapter.
func openStore(ctx context.Context, metrics *observability.Metrics) (*persist.Adapter, error) {
	opts := persist.Options{
		Backend:     cfg.StoreBackend,
		FilePath:    cfg.TasksFile,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		Format:      cfg.StoreFormat,
	}
	backend, err := persist.NewBackend(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	codec, err := persist.NewCodec(persist.ResolveFormat(opts))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return persist.NewAdapter(backend, codec, logger, metrics), nil
}
