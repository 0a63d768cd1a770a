package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/azukiapp/tasks-service/internal/api"
	"github.com/azukiapp/tasks-service/internal/repository"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control surface for migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		router := api.SetupRouter(db, src, dst, cfg, log, fetchOptions(""))

		log.Infof("Listening on %s", log.Highlight(serveAddr))
		log.Infof("   POST /runs - start a migration run")
		log.Infof("   GET /runs/{id} - run status")
		log.Infof("   GET /runs - list runs")
		return http.ListenAndServe(serveAddr, router)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
