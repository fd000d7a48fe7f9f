package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and keep the index current",
	Long: `Watches the vault for changes and feeds them to the change scheduler,
which coalesces bursts of edits and reconciles after the vault has been
quiet for the configured window. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if contentSource == nil || schedulerService == nil || indexerService == nil {
		return errors.New("watch services not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if appSettings.Indexing.AutoOnStartup {
		cmd.Println("Running startup reconciliation...")
		if err := indexerService.ReconcileAll(ctx); err != nil {
			// Keep watching even if the startup pass fails; edits will
			// trigger retries through the scheduler.
			logger.Warn("Startup reconciliation failed: %v", err)
		}
	}

	events, err := contentSource.Watch(ctx)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer schedulerService.Stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", appSettings.VaultRoot)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopping...")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if appSettings.Indexing.AutoOnChange {
				schedulerService.Handle(event)
			}
		}
	}
}
