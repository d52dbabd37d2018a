package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/mindhub/internal/tui"
)

var (
	dataDirFlag string
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "mindhub",
	Short: "Bookmark search TUI",
	Long: `Search saved videos, articles, notes, tweets and repos.

Queries accept structured filters next to free keywords:
  site:youtube  name:"Smooth Channel"  type:video  tag:jazz
  text:coltrane  date:"last week"  date:15/08/2025  "exact phrase"`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := tui.Deps{
			Searcher: a.searchService(),
			Debounce: a.cfg.Search.Debounce,
			Log:      a.logger("tui"),
		}
		if a.remote != nil {
			deps.Syncer = a.syncer()
		}
		return tui.Run(deps)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default: ~/.mindhub)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}
