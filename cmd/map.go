package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/pipeline"
)

var (
	mapFrom string
	mapTo   string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Normalize a dump file into Pivotal stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, err := loadMapConfig()
		if err != nil {
			return err
		}

		p := pipeline.New(nil, nil, cfg, newLogger(), nil, nil, fetchOptions(""))
		_, err = p.Map(ctx, mapFrom, mapTo)
		return err
	},
}

func init() {
	mapCmd.Flags().StringVar(&mapFrom, "from", "dump.json", "dump artifact path")
	mapCmd.Flags().StringVar(&mapTo, "to", "normalized.json", "stories artifact path")
	rootCmd.AddCommand(mapCmd)
}
