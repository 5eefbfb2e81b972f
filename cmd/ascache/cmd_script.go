package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ascache/internal/app"
)

var paramOutput string

var scriptCommand = &cobra.Command{
	Use:   "script",
	Short: "Fetch the ranges once and print the RouterOS script",
	RunE: func(cmd *cobra.Command, args []string) error {
		var out io.Writer = cmd.OutOrStdout()
		if paramOutput != "" && paramOutput != "-" {
			f, err := os.Create(paramOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		return app.WriteScript(cmd.Context(), paramConfig, out)
	},
}

func init() {
	scriptCommand.Flags().StringVarP(&paramOutput, "output", "o", "", "write the script to this file instead of stdout")
	mainCommand.AddCommand(scriptCommand)
}
