package main

import (
	"github.com/spf13/cobra"
)

var receivePort int

// receiveCmd runs the local stand-in for the Manuscript endpoint
var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Run a local endpoint that accepts send pages",
	Long: `Run a local endpoint on 127.0.0.1 that accepts the form posted by a
send page, checks it and keeps the image. Point an output's URL at it to
try a send without a Manuscript server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(cmd.Context(), receivePort)
	},
}

func init() {
	receiveCmd.Flags().IntVarP(&receivePort, "port", "p", 0, "Port to listen on (default SENDTO_RECEIVER_PORT)")
}
