package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/client"
	"github.com/azukiapp/tasks-service/internal/client/asana"
	"github.com/azukiapp/tasks-service/internal/client/pivotal"
	"github.com/azukiapp/tasks-service/internal/fetch"
	"github.com/azukiapp/tasks-service/internal/logging"
	"github.com/azukiapp/tasks-service/internal/mapping"
)

var (
	mapPath     string
	dbPath      string
	verbose     bool
	batchSize   int
	maxAttempts int
)

var rootCmd = &cobra.Command{
	Use:           "tasks-service",
	Short:         "Migrate Asana projects into Pivotal Tracker stories",
	Long:          `Fetches task trees from Asana, normalizes them into Pivotal Tracker stories using a declarative mapping file, and pushes them. Each stage persists its result so any stage can be re-run on its own.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mapPath, "map", "map.json", "mapping config file (JSON with comments)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./migrator.db", "run-state database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-task progress")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "concurrent detail fetches per window (default 10)")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 0, "retry budget per task (default 5)")
}

func newLogger() *logging.Logger {
	return logging.New(verbose)
}

func fetchOptions(completedSince string) fetch.Options {
	return fetch.Options{
		BatchSize:      batchSize,
		MaxAttempts:    maxAttempts,
		CompletedSince: completedSince,
	}
}

// sourceClient builds the Asana adapter from the environment.
func sourceClient() (client.SourceClient, error) {
	token := os.Getenv("ASANA_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("ASANA_TOKEN is not set")
	}
	return asana.NewAsanaClient(token), nil
}

// targetClient builds the Pivotal adapter from the environment.
func targetClient() (client.TargetClient, error) {
	token := os.Getenv("PIVOTAL_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("PIVOTAL_TOKEN is not set")
	}
	return pivotal.NewPivotalClient(token), nil
}

func loadMapConfig() (*mapping.Config, error) {
	cfg, err := mapping.LoadConfig(mapPath)
	if err != nil {
		return nil, fmt.Errorf("loading mapping config: %w", err)
	}
	return cfg, nil
}
