package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
)

var askContext string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from the vault",
	Long: `Retrieves the chunks most relevant to the question and asks the
configured chat model for an answer grounded on them. The sources used
are listed below the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askContext, "context", "", "vault path whose chunks get boosted")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := queryService.Ask(context.Background(), args[0], driving.SearchOptions{
		ContextPath: askContext,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCorpus):
			return errors.New("the index holds no embedded chunks; run 'arkivo index' first")
		case errors.Is(err, domain.ErrProviderNotConfigured):
			return errors.New("no chat provider configured; set one in the config file")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, source := range answer.Sources {
			cmd.Printf("  - %s (%.2f)\n", source.Chunk.Metadata.FilePath, source.Score)
		}
	}
	return nil
}
