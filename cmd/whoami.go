// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// whoamiCmd shows what the stored access token says about the current account.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show the signed-in account",
	Long: `The whoami command reads the subject and expiry from the stored access token.
It does not contact the API, so a token the server has already revoked still shows
here until the next request fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := application.Auth.WhoAmI()
		if !ok {
			printNotLoggedIn()
			return nil
		}
		pterm.Info.Printf("Logged in as %s\n", displayName(id.Subject))
		switch {
		case id.ExpiresAt.IsZero():
		case id.Expired():
			pterm.Warning.Printf("Access token expired %s ago\n", time.Since(id.ExpiresAt).Round(time.Second))
		default:
			pterm.Println("  Access token expires " + id.ExpiresAt.Local().Format(time.RFC1123))
		}
		if !id.Persisted {
			pterm.Warning.Println("This session is held in memory only.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
