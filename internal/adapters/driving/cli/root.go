// Package cli provides the cobra command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driving"
	"github.com/arkivo-labs/arkivo-cli/internal/core/services"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by Configure before Execute runs.
var (
	indexerService   driving.Indexer
	schedulerService driving.ChangeScheduler
	queryService     driving.QueryService
	contentSource    driven.ContentSource
	indexStore       *services.IndexStore
	appSettings      domain.Settings
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "arkivo",
	Short: "Semantic index and retrieval for a local document vault",
	Long: `Arkivo maintains an incremental semantic index over a directory of
markdown and text documents, and answers similarity searches and
questions against it.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Deps carries the wired services the commands depend on.
type Deps struct {
	Indexer   driving.Indexer
	Scheduler driving.ChangeScheduler
	Query     driving.QueryService
	Source    driven.ContentSource
	Store     *services.IndexStore
	Settings  domain.Settings
	Version   string
}

// Configure injects services into the command tree. Must be called
// before Execute.
func Configure(deps Deps) {
	indexerService = deps.Indexer
	schedulerService = deps.Scheduler
	queryService = deps.Query
	contentSource = deps.Source
	indexStore = deps.Store
	appSettings = deps.Settings
	if deps.Version != "" {
		version = deps.Version
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
