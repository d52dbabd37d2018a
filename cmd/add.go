package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addNotesFlag string
	addNoteFlag  string
	addBodyFlag  string
)

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Add a bookmark or a note",
	Long: `Add a URL as a bookmark, or a free-text note with --note.

The page is scraped and summarized when an LLM is configured; the record is
saved to the remote store and the local cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addNoteFlag == "" && len(args) == 0 {
			return fmt.Errorf("either a url or --note is required")
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireRemote(); err != nil {
			return err
		}

		ctx := context.Background()
		ix := a.indexer()

		if addNoteFlag != "" {
			b, err := ix.AddNote(ctx, addNoteFlag, addBodyFlag)
			if err != nil {
				return fmt.Errorf("failed to add note: %w", err)
			}
			fmt.Printf("Added note: %s (%s)\n", b.Title, b.ID)
			return nil
		}

		b, err := ix.AddURL(ctx, args[0], addNotesFlag)
		if err != nil {
			return fmt.Errorf("failed to add URL: %w", err)
		}

		fmt.Printf("Added: %s\n", b.OriginalURL)
		fmt.Printf("Title: %s\n", b.Title)
		if b.Summary != "" {
			fmt.Printf("Summary: %s\n", b.Summary)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addNotesFlag, "notes", "", "Personal notes to attach to the bookmark")
	addCmd.Flags().StringVar(&addNoteFlag, "note", "", "Add a note with this title instead of a URL")
	addCmd.Flags().StringVar(&addBodyFlag, "body", "", "Note body (with --note)")
	rootCmd.AddCommand(addCmd)
}
