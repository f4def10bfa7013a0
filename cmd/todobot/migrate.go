package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/persist"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite the stored state in the current schema",
	Long: `Loads the stored state, applies the legacy record upgrades (missing
priorities, missing default category, duplicate categories) and writes it
back. A malformed document is left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, fixes, err := store.Read(cmd.Context())
		if errors.Is(err, persist.ErrAbsent) {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing stored yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		if err := store.Write(cmd.Context(), tasks); err != nil {
			return err
		}

		st := tasks.Stats()
		logger.Info("state migrated", zap.Int("fixes", fixes), zap.Int("users", st.Users), zap.Int("tasks", st.Tasks))
		fmt.Fprintf(cmd.OutOrStdout(), "%d users, %d tasks, %d fixes applied\n", st.Users, st.Tasks, fixes)
		return nil
	},
}
