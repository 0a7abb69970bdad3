package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner provides feedback while a backend query is in flight.
type Spinner interface {
	Start(message string)
	Stop()
}

// NewSpinner returns a TerminalSpinner, or a QuietSpinner when running
// under CI or when interactive output is suppressed.
func NewSpinner(quiet bool) Spinner {
	if quiet || os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &QuietSpinner{}
	}
	return &TerminalSpinner{}
}

// spinnerInterval paces the animation ticks.
const spinnerInterval = 100 * time.Millisecond

// TerminalSpinner animates an indeterminate spinner in the terminal.
type TerminalSpinner struct {
	Out io.Writer // defaults to os.Stderr

	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
}

// Start renders the spinner immediately and keeps it animated until Stop.
// An indeterminate bar only advances on Add, so a ticker drives it.
func (s *TerminalSpinner) Start(message string) {
	out := s.Out
	if out == nil {
		out = os.Stderr
	}
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	s.done = make(chan struct{})

	s.wg.Add(1)
	go func(bar *progressbar.ProgressBar, done chan struct{}) {
		defer s.wg.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(s.bar, s.done)
}

func (s *TerminalSpinner) Stop() {
	if s.done != nil {
		close(s.done)
		s.wg.Wait()
		s.done = nil
	}
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

// QuietSpinner prints a single line suitable for CI logs.
type QuietSpinner struct{}

func (s *QuietSpinner) Start(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (s *QuietSpinner) Stop() {}
