package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/pipeline"
)

var (
	fetchWorkspace      string
	fetchProjects       []string
	fetchTo             string
	fetchCompletedSince string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch task trees from the source workspace into a dump file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		src, err := sourceClient()
		if err != nil {
			return err
		}

		p := pipeline.New(src, nil, nil, newLogger(), nil, nil, fetchOptions(fetchCompletedSince))
		report, err := p.Fetch(ctx, "", fetchWorkspace, fetchProjects, fetchTo)
		if err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d of %d tasks could not be fetched", len(report.Failed), report.TotalCount)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchWorkspace, "workspace", "w", "", "source workspace name (exact match)")
	fetchCmd.Flags().StringSliceVarP(&fetchProjects, "projects", "p", nil, "source project names to migrate")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "dump.json", "dump artifact path")
	fetchCmd.Flags().StringVar(&fetchCompletedSince, "completed-since", "", "only tasks incomplete or completed after this time")
	fetchCmd.MarkFlagRequired("workspace")
	fetchCmd.MarkFlagRequired("projects")
	rootCmd.AddCommand(fetchCmd)
}
