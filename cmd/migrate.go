package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/pipeline"
	"github.com/azukiapp/tasks-service/internal/repository"
)

var (
	migrateWorkspace      string
	migrateProjects       []string
	migrateDump           string
	migrateStories        string
	migrateCompletedSince string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run fetch, map and push back to back as one tracked run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		log := newLogger()

		src, err := sourceClient()
		if err != nil {
			return err
		}
		dst, err := targetClient()
		if err != nil {
			return err
		}
		cfg, err := loadMapConfig()
		if err != nil {
			return err
		}

		db, err := repository.InitDB(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		p := pipeline.New(
			src, dst, cfg, log,
			repository.NewRunRepository(db),
			repository.NewStoryRecordRepository(db),
			fetchOptions(migrateCompletedSince),
		)

		runID, err := p.Migrate(ctx, migrateWorkspace, migrateProjects, migrateDump, migrateStories)
		if runID != "" {
			log.Infof("Run %s finished", log.Highlight(runID))
		}
		return err
	},
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateWorkspace, "workspace", "w", "", "source workspace name (exact match)")
	migrateCmd.Flags().StringSliceVarP(&migrateProjects, "projects", "p", nil, "source project names to migrate")
	migrateCmd.Flags().StringVar(&migrateDump, "dump", "dump.json", "dump artifact path")
	migrateCmd.Flags().StringVar(&migrateStories, "stories", "normalized.json", "stories artifact path")
	migrateCmd.Flags().StringVar(&migrateCompletedSince, "completed-since", "", "only tasks incomplete or completed after this time")
	migrateCmd.MarkFlagRequired("workspace")
	migrateCmd.MarkFlagRequired("projects")
	rootCmd.AddCommand(migrateCmd)
}
