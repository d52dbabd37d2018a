package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/search"
)

var (
	jsonOutput      bool
	plaintextOutput bool
	explainFlag     bool
	pageFlag        int
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	urlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search bookmarks",
	Long: `Search bookmarks with filters and keywords.

Filtered queries (site:, name:, type:, tag:, date:, text:, "exact") are
answered from the local cache. Plain keywords fall through to the remote
store when nothing local matches. An empty query lists everything newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.searchService().Search(context.Background(), search.Request{Query: query, Page: pageFlag})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if explainFlag {
			if err := outputJSON(res.Filters); err != nil {
				return err
			}
		}
		if jsonOutput {
			return outputJSON(res.Bookmarks)
		}
		if plaintextOutput {
			return outputPlaintext(res.Bookmarks)
		}
		return outputDefault(res)
	},
}

func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func outputPlaintext(results []db.Bookmark) error {
	for _, r := range results {
		fmt.Printf("%s\t%s\t%s\t%s\n", r.ID, r.VideoType, r.Title, r.OriginalURL)
	}
	return nil
}

func outputDefault(res search.Result) error {
	if res.FilterErr != nil {
		fmt.Println(warnStyle.Render("Warning: " + res.FilterErr.Error()))
	}
	if len(res.Bookmarks) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range res.Bookmarks {
		icon := typeIcon(r.VideoType)
		fmt.Printf("%d. %s %s\n", i+1, icon, titleStyle.Render(r.Title))
		if r.OriginalURL != "" {
			fmt.Printf("   %s\n", urlStyle.Render(r.OriginalURL))
		}
		if r.Summary != "" {
			fmt.Printf("   %s\n", truncate(r.Summary, 100))
		}
		fmt.Printf("   %s\n", dimStyle.Render(strings.TrimSpace(r.DateAdded+"  "+r.Tags)))
		fmt.Println()
	}

	footer := fmt.Sprintf("%d results from %s", len(res.Bookmarks), res.Source)
	if res.HasMore {
		footer += fmt.Sprintf(" (more with --page %d)", pageFlag+1)
	}
	fmt.Println(dimStyle.Render(footer))
	return nil
}

func typeIcon(typ string) string {
	switch typ {
	case db.TypeVideo:
		return "[V]"
	case db.TypeArticle:
		return "[A]"
	case db.TypeNote:
		return "[N]"
	case db.TypeTweet:
		return "[X]"
	case db.TypeRepo:
		return "[G]"
	default:
		return "[?]"
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func init() {
	searchCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	searchCmd.Flags().BoolVarP(&plaintextOutput, "plaintext", "p", false, "Output as plaintext")
	searchCmd.Flags().BoolVarP(&explainFlag, "explain", "e", false, "Print the parsed filters before the results")
	searchCmd.Flags().IntVar(&pageFlag, "page", 0, "Result page for remote searches (0-based)")
	rootCmd.AddCommand(searchCmd)
}
