package display

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress while waiting on the model or the network
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a stopped spinner writing to stderr
func NewSpinner(msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	return &Spinner{s: s}
}

// Start begins the animation
func (sp *Spinner) Start() { sp.s.Start() }

// Stop ends the animation and clears the line
func (sp *Spinner) Stop() { sp.s.Stop() }

// UpdateMessage replaces the text after the spinner
func (sp *Spinner) UpdateMessage(msg string) {
	sp.s.Lock()
	sp.s.Suffix = " " + msg
	sp.s.Unlock()
}
