package ui

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows activity during a blocking step such as the login
type Spinner struct {
	s *spinner.Spinner
}

// StartSpinner starts a spinner with msg as suffix. It is silent in quiet mode.
func StartSpinner(msg string) *Spinner {
	if IsQuietMode() {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(Output()))
	s.Suffix = " " + msg
	s.Start()
	return &Spinner{s: s}
}

// Stop halts the spinner and prints final, if any
func (sp *Spinner) Stop(final string) {
	if sp.s == nil {
		return
	}
	if final != "" {
		final += "\n"
	}
	sp.s.FinalMSG = final
	sp.s.Stop()
}

// Suffix replaces the message shown next to the spinner
func (sp *Spinner) Suffix(msg string) {
	if sp.s == nil {
		return
	}
	sp.s.Lock()
	sp.s.Suffix = " " + msg
	sp.s.Unlock()
}
