// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"synchub/cli/internal/terminal"
)

var registerEmail string

var registerCmd = &cobra.Command{
	Use:     "register",
	Aliases: []string{"signup"},
	Short:   "Create a Synchub account and sign in",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := terminal.New()
		email := registerEmail
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
		confirm, err := p.Secret("Confirm password: ")
		if err != nil {
			return err
		}

		err = withSpinner(os.Stderr, "Creating account", func() error {
			return application.Auth.Register(cmd.Context(), email, password, confirm)
		})
		if err != nil {
			return presentError(err, "creating your account")
		}
		pterm.Success.Printf("Account created. %s\n", greeting(email))
		warnIfNotPersisted()
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Account email (prompted when empty)")
	rootCmd.AddCommand(registerCmd)
}
