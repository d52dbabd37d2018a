package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <id>",
	Short: "Reprocess a single bookmark",
	Long:  "Re-scrape and re-summarize one bookmark by ID, replacing its summary.",
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

		b, err := a.indexer().Reprocess(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("reprocess failed: %w", err)
		}

		fmt.Printf("Reprocessed: %s\n", b.OriginalURL)
		fmt.Printf("Title: %s\n", b.Title)
		if b.Summary != "" {
			fmt.Printf("Summary: %s\n", b.Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reprocessCmd)
}
