package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached record count and last sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()
		return printCacheStats(os.Stdout, a)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached record",
	Long:  "Empty the local cache and forget the last sync. The remote store is not touched; run sync to refill.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.syncer().Reset(); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

func printCacheStats(w io.Writer, a *app) error {
	count, err := a.store.Count()
	if err != nil {
		return fmt.Errorf("failed to count cached records: %w", err)
	}

	fmt.Fprintf(w, "Records:   %d (max %d)\n", count, a.cfg.Sync.MaxCacheSize)
	fmt.Fprintf(w, "Database:  %s\n", a.cfg.DBPath())

	st := a.syncer().Status()
	if st.LastSync.IsZero() {
		fmt.Fprintln(w, "Last sync: never")
		return nil
	}
	fmt.Fprintf(w, "Last sync: %s\n", st.LastSync.Local().Format(time.DateTime))
	if st.NextSync > 0 {
		fmt.Fprintf(w, "Next sync: in %s\n", st.NextSync.Round(time.Second))
	} else {
		fmt.Fprintln(w, "Next sync: due")
	}
	return nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
