package cmd

import (
	"fmt"
	"os"

	"FreeTunes/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "freetunes",
	Short: "FreeTunes is a search-to-stream music resolution service.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
