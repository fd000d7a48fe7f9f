package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Reconcile the vault index",
	Long: `Diffs the vault against the index and re-chunks and re-embeds every
document that changed since the last pass. With --rebuild the index is
cleared first and everything is indexed from scratch.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "clear the index and reindex everything")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	done := make(chan struct{})
	go showProgress(cmd, done)

	var err error
	if indexRebuild {
		cmd.Println("Rebuilding index...")
		err = indexerService.Rebuild(ctx)
	} else {
		cmd.Println("Reconciling index...")
		err = indexerService.ReconcileAll(ctx)
	}
	close(done)

	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if indexStore != nil {
		stats := indexStore.Stats()
		cmd.Printf("Index up to date: %d files, %d chunks, %d embeddings.\n",
			stats.TotalFiles, stats.TotalChunks, stats.TotalEmbeddings)
	}
	return nil
}

// showProgress prints batch progress events until done closes.
func showProgress(cmd *cobra.Command, done <-chan struct{}) {
	progress := indexerService.Progress()
	for {
		select {
		case <-done:
			return
		case event := <-progress:
			switch event.Phase {
			case domain.PhaseEmbedding:
				cmd.Printf("  [%d/%d] %s\n", event.Current, event.Total, event.Document)
			case domain.PhaseComplete:
				if event.Total > 0 {
					cmd.Printf("Batch complete: %d documents.\n", event.Total)
				}
			}
		}
	}
}
