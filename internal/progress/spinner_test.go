package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTerminalSpinnerRendersWhileRunning(t *testing.T) {
	var buf bytes.Buffer
	s := &TerminalSpinner{Out: &buf}

	s.Start("Thinking...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if out == "" {
		t.Fatal("spinner produced no output while running")
	}
	if !strings.Contains(out, "Thinking...") {
		t.Errorf("output does not contain the message: %q", out)
	}
}

func TestTerminalSpinnerStopWithoutStart(t *testing.T) {
	var s TerminalSpinner
	s.Stop()
}

func TestNewSpinnerQuiet(t *testing.T) {
	if _, ok := NewSpinner(true).(*QuietSpinner); !ok {
		t.Error("quiet mode should select the QuietSpinner")
	}
}
