// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Synchub CLI.
// Every command runs against one app.App built in the root command's
// PersistentPreRunE, so the session, token store and dispatcher are shared
// for the lifetime of the process.
package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"synchub/cli/internal/app"
	"synchub/cli/internal/config"
	"synchub/cli/internal/logging"
)

// skipApp marks commands that run without building the application.
const skipApp = "synchub/skip-app"

var (
	showVersion bool
	verbose     bool

	application *app.App
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "synchub",
	Short:         "Synchub CLI for your music library sessions",
	Long:          `Synchub signs you in to the Synchub API, keeps the session in your OS keychain, and serves a local web console.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := cmd.Annotations[skipApp]; ok || showVersion {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("%s", logging.PresentError("load config", err))
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
			pterm.EnableDebugMessages()
		}
		application = app.New(cfg, logging.New(os.Stderr, level), app.WithVersion(Version))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		err := application.Close()
		application = nil
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion()
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if application != nil {
			_ = application.Close()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
