package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var mainCommand = &cobra.Command{
	Use:           "ascache",
	Short:         "Caches the address ranges announced by an AS and serves them as a RouterOS script",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var paramConfig string

func init() {
	mainCommand.PersistentFlags().StringVarP(&paramConfig, "config", "c", "", "YAML config file (defaults are embedded)")
}

func main() {
	if err := mainCommand.Execute(); err != nil {
		log.Fatal("application terminated", "error", err)
	}
}
