package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/registry"
)

func newReplFixture(t *testing.T) (*chat.Session, *registry.Registry) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := registry.New(dir, nil, nil)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}

	settings := chat.Settings{Mode: config.ModeLocal, K: 20, IncludeCitations: true}
	return chat.NewSession(nil, reg, nil, settings), reg
}

func TestChatCommandToggles(t *testing.T) {
	sess, reg := newReplFixture(t)

	// A bad argument changes nothing.
	runChatCommand(sess, reg, "/context blah")
	if sess.Settings().IncludeContext {
		t.Error("/context blah must not enable context data")
	}

	runChatCommand(sess, reg, "/context on")
	if !sess.Settings().IncludeContext {
		t.Error("/context on not applied")
	}
	runChatCommand(sess, reg, "/context off")
	if sess.Settings().IncludeContext {
		t.Error("/context off not applied")
	}

	runChatCommand(sess, reg, "/citations maybe")
	if !sess.Settings().IncludeCitations {
		t.Error("/citations maybe must not disable citations")
	}
	runChatCommand(sess, reg, "/citations off")
	if sess.Settings().IncludeCitations {
		t.Error("/citations off not applied")
	}
}

func TestChatCommandModeAndK(t *testing.T) {
	sess, reg := newReplFixture(t)

	runChatCommand(sess, reg, "/mode drift")
	if sess.Settings().Mode != config.ModeDrift {
		t.Errorf("mode = %q, want drift", sess.Settings().Mode)
	}

	// Invalid values are rejected, state unchanged.
	runChatCommand(sess, reg, "/mode turbo")
	if sess.Settings().Mode != config.ModeDrift {
		t.Errorf("mode changed to %q on invalid input", sess.Settings().Mode)
	}
	runChatCommand(sess, reg, "/k 0")
	if sess.Settings().K != 20 {
		t.Errorf("k changed to %d on invalid input", sess.Settings().K)
	}
	runChatCommand(sess, reg, "/k 5")
	if sess.Settings().K != 5 {
		t.Errorf("k = %d, want 5", sess.Settings().K)
	}
}

func TestChatCommandOpenAndQuit(t *testing.T) {
	sess, reg := newReplFixture(t)

	runChatCommand(sess, reg, "/open missing.pdf")
	if _, ok := sess.OpenDoc(); ok {
		t.Error("unknown document must not be opened")
	}

	runChatCommand(sess, reg, "/open Report.PDF")
	if open, ok := sess.OpenDoc(); !ok || open != "report.pdf" {
		t.Errorf("open document = %q, %v", open, ok)
	}

	if !runChatCommand(sess, reg, "/quit") {
		t.Error("/quit must end the loop")
	}
	if runChatCommand(sess, reg, "/close") {
		t.Error("/close must not end the loop")
	}
}
