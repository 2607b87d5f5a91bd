// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"synchub/cli/internal/httperrors"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// startInlineSpinner draws frames followed by text on a single line until the
// returned function is called. The cursor is hidden while it runs and the
// line is cleared on stop.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	cursor.Hide()
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cursor.Show()
		})
	}
}

// withSpinner runs fn behind an inline spinner.
func withSpinner(w io.Writer, text string, fn func() error) error {
	stop := startInlineSpinner(w, text, spinnerFrames, 100*time.Millisecond)
	defer stop()
	return fn()
}

func greeting(who string) string {
	phrases := []string{
		"Welcome back, %s!",
		"Signed in as %s. Your library is ready.",
		"Hello %s, good to see you again.",
	}
	return fmt.Sprintf(phrases[rand.Intn(len(phrases))], who)
}

func printNotLoggedIn() {
	pterm.Warning.Println("You need to be logged in.")
	pterm.Println("   Run 'synchub login' to get started.")
}

// requireSession reports whether the current session holds a token pair.
func requireSession() bool {
	if application.Session.Authenticated() {
		return true
	}
	printNotLoggedIn()
	return false
}

// presentError prints err for the user and returns it for the exit status.
func presentError(err error, action string) error {
	return httperrors.Present(err, action, application.Backend.BaseURL())
}
