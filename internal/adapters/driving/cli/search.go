package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
)

var (
	searchContext   string
	searchThreshold float64
	searchLimit     int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the vault by semantic similarity",
	Long: `Embeds the query and returns the most similar indexed chunks.
Chunks from the --context document are boosted so searches made while
working on a note favour that note.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchContext, "context", "", "vault path whose chunks get boosted")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity (0 uses the configured default)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (0 uses the configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("search service not configured")
	}

	results, err := queryService.Search(context.Background(), args[0], driving.SearchOptions{
		ContextPath: searchContext,
		Threshold:   searchThreshold,
		MaxResults:  searchLimit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCorpus) {
			return errors.New("the index holds no embedded chunks; run 'arkivo index' first")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchText(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.ScoredChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, result := range results {
		meta := result.Chunk.Metadata
		cmd.Printf("  [%d] %s (part %d of %d) (%.2f)\n",
			i+1, meta.FilePath, meta.ChunkIndex+1, meta.TotalChunks, result.Score)
		cmd.Printf("      %s\n", snippet(result.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates content to a single display line, cutting on a
// rune boundary.
func snippet(content string, max int) string {
	for i, r := range content {
		if r == '\n' {
			content = content[:i]
			break
		}
	}
	if len(content) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + "..."
	}
	return content
}
