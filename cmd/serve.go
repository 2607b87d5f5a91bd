// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd runs the local web console until interrupted.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"console"},
	Short:   "Serve the Synchub web console locally",
	Long: `The serve command starts the web console on a local address. Pages other than
login and register require a session; visiting one while signed out sends you to
the login form and back to the page afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = application.Config.Console.Addr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pterm.Info.Printf("Console listening on http://%s (Ctrl+C to stop)\n", addr)
		if err := application.Console().ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
			return err
		}
		pterm.Info.Println("Console stopped.")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to console.addr from config)")
	rootCmd.AddCommand(serveCmd)
}
