package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireRemote(); err != nil {
			return err
		}

		id := args[0]
		if err := a.remote.Delete(context.Background(), id); err != nil {
			return fmt.Errorf("failed to delete from remote: %w", err)
		}
		if err := a.store.Delete(id); err != nil {
			return fmt.Errorf("failed to delete from cache: %w", err)
		}
		fmt.Printf("Deleted %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
