// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"synchub/cli/internal/terminal"
)

var loginEmail string

// loginCmd exchanges email and password for a token pair and stores it.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with your email and password",
	Long: `The login command asks for your email and password, exchanges them with the
Synchub API for an access and refresh token, and keeps the pair in the OS keychain
so later commands and the web console start signed in.

If you are already signed in, the existing session is reused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if id, ok := application.Auth.WhoAmI(); ok && !id.Expired() {
			pterm.Info.Printf("Already logged in as %s\n", displayName(id.Subject))
			return nil
		}

		p := terminal.New()
		email := loginEmail
		var err error
		if email == "" {
			if email, err = p.Line("Email: "); err != nil {
				return err
			}
		}
		password, err := p.Secret("Password: ")
		if err != nil {
			return err
		}

		err = withSpinner(os.Stderr, "Signing in", func() error {
			return application.Auth.Login(cmd.Context(), email, password)
		})
		if err != nil {
			return presentError(err, "signing in")
		}
		pterm.Success.Println(greeting(email))
		warnIfNotPersisted()
		return nil
	},
}

func warnIfNotPersisted() {
	if !application.Session.Persisted() {
		pterm.Warning.Println("The session could not be saved and will end when this process exits.")
	}
}

func displayName(subject string) string {
	if subject == "" {
		return "the current account"
	}
	return subject
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
}
