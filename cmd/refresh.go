// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"synchub/cli/internal/logging"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new token pair",
	Long: `The refresh command trades the stored refresh token for a fresh access token.
If the server rejects the refresh token, the session ends and you need to log in again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !requireSession() {
			return nil
		}
		var access string
		err := withSpinner(os.Stderr, "Refreshing session", func() error {
			var err error
			access, err = application.Refresher.Refresh(cmd.Context())
			return err
		})
		if err != nil {
			return presentError(err, "refreshing the session")
		}
		pterm.Success.Printf("Session refreshed (token %s)\n", logging.Fingerprint(access))
		warnIfNotPersisted()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
