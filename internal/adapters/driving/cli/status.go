package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexStore == nil {
		return errors.New("index store not configured")
	}

	stats := indexStore.Stats()
	settings := indexStore.Settings()

	cmd.Printf("Vault:           %s\n", appSettings.VaultRoot)
	cmd.Printf("Index:           %s\n", indexStore.PersistPath())
	cmd.Printf("Embedding model: %s\n", orNone(settings.EmbeddingModel))
	cmd.Printf("Files:           %d\n", stats.TotalFiles)
	cmd.Printf("Chunks:          %d\n", stats.TotalChunks)
	cmd.Printf("Embeddings:      %d\n", stats.TotalEmbeddings)
	if !stats.LastFullIndex.IsZero() {
		cmd.Printf("Last full index: %s\n", stats.LastFullIndex.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
