package cmd

import (
	"FreeTunes/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the FreeTunes server",
	Long:  `Start the FreeTunes HTTP server: websocket stream resolution, REST API and static HLS serving.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
