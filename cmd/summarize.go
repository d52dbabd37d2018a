package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/mindhub/internal/indexer"
)

var (
	sumLimitFlag int
	sumAllFlag   bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate summaries for bookmarks that have none",
	Long:  "Generate LLM summaries and tags for cached bookmarks with an empty summary and push them to the remote store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireRemote(); err != nil {
			return err
		}

		limit := sumLimitFlag
		if sumAllFlag {
			limit = 0 // 0 means process all
		}

		n, err := a.indexer().Summarize(context.Background(), limit, func(current, total int) {
			indexer.PrintProgress(current, total, "Summarizing")
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("summarize failed: %w", err)
		}
		if n == 0 {
			fmt.Println("No bookmarks found needing summarization.")
			return nil
		}
		fmt.Printf("Summarized %d bookmark(s)\n", n)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().IntVarP(&sumLimitFlag, "limit", "l", 10, "Number of bookmarks to process")
	summarizeCmd.Flags().BoolVarP(&sumAllFlag, "all", "a", false, "Process all bookmarks (overrides --limit)")
	rootCmd.AddCommand(summarizeCmd)
}
