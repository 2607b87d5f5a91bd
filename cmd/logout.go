// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd clears the token pair from memory and the token store.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session",
	Long: `The logout command forgets the access and refresh tokens, both in memory and in
the OS keychain. Running it while signed out does nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		was := application.Session.Authenticated()
		if err := application.Auth.Logout(cmd.Context()); err != nil {
			return err
		}
		if was {
			pterm.Success.Println("Signed out. Saved tokens have been removed.")
		} else {
			pterm.Info.Println("You were not signed in.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
