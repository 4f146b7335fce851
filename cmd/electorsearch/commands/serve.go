package commands

import (
	"electorsearch/internal/components/serviceutil"
	"electorsearch/internal/components/telemetry"
	"electorsearch/internal/history"
	"electorsearch/internal/search"
	"electorsearch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	servePort    *int
	serveDump    *string
	serveHistory *bool
)

func init() {
	servePort = serveCmd.Flags().Int("port", 0, "The port to listen on, overrides the config.")
	serveDump = serveCmd.Flags().String("dump", "", "Write every http exchange with the portal to this directory.")
	serveHistory = serveCmd.Flags().Bool("history", false, "Save every orchestrated search to the history database.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Serves the search api over http.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		telemetry.InstrumentPerfStats(ctx)
		if !*verbose && !cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		client := newClient(*serveDump)
		opts := service.Options{
			Searcher: client,
			Orchestrator: search.NewOrchestrator(client, tel, search.Options{
				Concurrency: cfg.Portal.Concurrency,
			}),
		}
		if *serveHistory {
			database, err := cfg.Database.OpenDB()
			if err != nil {
				serviceutil.Fatal("open history database", err)
			}
			defer database.Close()
			opts.History = history.NewStore(database)
		}

		port := cfg.Server.Port
		if *servePort > 0 {
			port = *servePort
		}
		err := serviceutil.StartHttpServer(ctx, port, service.NewService(opts, tel).Handler())
		if err != nil {
			serviceutil.Fatal("serve http", err)
		}
	},
}
