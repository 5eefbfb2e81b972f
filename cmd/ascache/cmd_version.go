package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ascache/internal/app/version"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintln(cmd.OutOrStdout(), info.Version)
		if info.Revision != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "revision:", info.Revision)
		}
		if info.BuiltAt != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "built at:", info.BuiltAt)
		}
	},
}

func init() {
	mainCommand.AddCommand(versionCommand)
}
