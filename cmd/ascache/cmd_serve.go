package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ascache/internal/app"
)

var paramPort int

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, app.Options{ConfigPath: paramConfig, Port: paramPort})
	},
}

func init() {
	serveCommand.Flags().IntVarP(&paramPort, "port", "p", 0, "port for the API server (overrides config)")
	mainCommand.AddCommand(serveCommand)
}
