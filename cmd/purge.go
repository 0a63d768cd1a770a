package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/models"
	"github.com/azukiapp/tasks-service/internal/pipeline"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <project-id>...",
	Short: "Delete every story in the given target projects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		dst, err := targetClient()
		if err != nil {
			return err
		}

		projectIDs := make([]models.ID, 0, len(args))
		for _, arg := range args {
			projectIDs = append(projectIDs, models.ID(arg))
		}

		p := pipeline.New(nil, dst, nil, newLogger(), nil, nil, fetchOptions(""))
		return p.Purge(ctx, projectIDs)
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
