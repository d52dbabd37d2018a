package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	syncRecoverFlag bool
	syncWatchFlag   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull new records from the remote store into the local cache",
	Long: `Fetch records added since the newest cached one and trim the cache.

Use --recover to replace the cache with a full download, or --watch to keep
syncing on the configured interval until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireRemote(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := a.syncer()

		if syncRecoverFlag {
			n, err := s.Recover(ctx)
			if err != nil {
				return fmt.Errorf("recovery failed: %w", err)
			}
			fmt.Printf("Recovered %d records\n", n)
			return nil
		}

		if syncWatchFlag {
			fmt.Printf("Syncing every %s (Ctrl+C to stop)\n", a.cfg.Sync.Interval)
			return s.Run(ctx)
		}

		report, err := s.SyncOnce(ctx)
		fmt.Printf("Fetched %d new records, evicted %d\n", report.Fetched, report.Evicted)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if st := s.Status(); !st.LastSync.IsZero() {
			fmt.Printf("Last sync: %s\n", st.LastSync.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncRecoverFlag, "recover", false, "Replace the cache with a full download")
	syncCmd.Flags().BoolVar(&syncWatchFlag, "watch", false, "Keep syncing on the configured interval")
	rootCmd.AddCommand(syncCmd)
}
