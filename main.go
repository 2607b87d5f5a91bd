// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the Synchub CLI.
package main

import (
	"synchub/cli/cmd"
)

func main() {
	cmd.Execute()
}
