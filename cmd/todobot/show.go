package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/antoniostano/todobot/internal/view"
)

var showCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print one user's task list as the bot renders it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer store.Close()

		tasks := store.Load(cmd.Context())
		rec, ok := tasks.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no tasks stored for user %q", args[0])
		}
		text, _ := view.TaskList(rec)
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}
