package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/pipeline"
)

var pushFrom string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push normalized stories to the target tracker",
	Long:  `Pushes every story from the stories artifact. Delivery is at-least-once: re-running after a partial push can create duplicates on the target side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		dst, err := targetClient()
		if err != nil {
			return err
		}

		p := pipeline.New(nil, dst, nil, newLogger(), nil, nil, fetchOptions(""))
		report, err := p.Push(ctx, "", pushFrom)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d stories could not be pushed", report.Failed, report.Pushed+report.Failed)
		}
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVar(&pushFrom, "from", "normalized.json", "stories artifact path")
	rootCmd.AddCommand(pushCmd)
}
