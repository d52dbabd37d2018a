package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/user/mindhub/internal/indexer"
	"github.com/user/mindhub/internal/sources"
)

var (
	importSourcesFlag   []string
	importForceFlag     bool
	importSummarizeFlag bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import bookmarks from X, Raindrop, and GitHub",
	Long: `Pull bookmarks from the enabled sources into the remote store and the cache.

Imports are incremental unless --force is given. Sources whose CLI is not
installed are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireRemote(); err != nil {
			return err
		}

		srcs := availableSources(a, importSourcesFlag)
		_, err = a.indexer().Import(context.Background(), srcs, indexer.ImportOptions{
			Force:     importForceFlag,
			Summarize: importSummarizeFlag,
		})
		return err
	},
}

// availableSources returns the enabled sources whose CLI is installed. A
// non-empty only list restricts the result to those names.
func availableSources(a *app, only []string) []sources.Source {
	enabled := func(name string, on bool) bool {
		if len(only) > 0 {
			return slices.Contains(only, name)
		}
		return on
	}

	var srcs []sources.Source
	if enabled("github", a.cfg.Sources.GitHub) {
		src := sources.NewGitHubSource(a.store)
		if src.Available() {
			srcs = append(srcs, src)
		} else {
			fmt.Println("Warning: gh CLI not found, skipping GitHub")
		}
	}
	if enabled("x", a.cfg.Sources.X) {
		src := sources.NewTwitterSource()
		if src.Available() {
			srcs = append(srcs, src)
		} else {
			fmt.Println("Warning: bird CLI not found, skipping X/Twitter")
		}
	}
	if enabled("raindrop", a.cfg.Sources.Raindrop) {
		src := sources.NewRaindropSource(a.store)
		if src.Available() {
			srcs = append(srcs, src)
		} else {
			fmt.Println("Warning: raindrop CLI not found, skipping Raindrop")
		}
	}
	return srcs
}

func init() {
	importCmd.Flags().StringSliceVar(&importSourcesFlag, "source", nil, "Only import from these sources (x, raindrop, github)")
	importCmd.Flags().BoolVarP(&importForceFlag, "force", "f", false, "Full reimport instead of incremental")
	importCmd.Flags().BoolVar(&importSummarizeFlag, "summarize", false, "Summarize imported items that have no summary")
	rootCmd.AddCommand(importCmd)
}
