// Package chat holds the turn-based conversation state: the transcript,
// the search settings, and the optional open-document pointer. One Session
// belongs to one interactive surface; sessions never share mutable state.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paletten-gigant/graphrag-chat/internal/citations"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/graphrag"
)

// Transport sends a question to the retrieval backend.
type Transport interface {
	Query(ctx context.Context, req graphrag.QueryRequest) (*graphrag.QueryResponse, error)
}

// Recorder persists turns as they are appended. Recording failures must not
// fail a turn; the session logs and moves on.
type Recorder interface {
	RecordTurn(ctx context.Context, sessionID string, t Turn) error
}

// Registry answers document-membership queries for citation extraction and
// the open-document pointer.
type Registry interface {
	Canonical(name string) (string, bool)
}

// Session is the state of one conversation.
type Session struct {
	ID        string
	CreatedAt time.Time

	transport Transport
	registry  Registry
	recorder  Recorder

	mu       sync.Mutex
	settings Settings
	turns    []Turn
	openDoc  string // canonical registry name, empty when closed
	sending  bool
}

// NewSession creates a session with the given collaborators and initial
// settings. The recorder may be nil.
func NewSession(transport Transport, reg Registry, recorder Recorder, settings Settings) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		transport: transport,
		registry:  reg,
		recorder:  recorder,
		settings:  settings,
	}
}

// Settings returns the current search configuration.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings validates and applies a new search configuration. On a
// validation failure nothing changes.
func (s *Session) UpdateSettings(mode config.SearchMode, k int, includeContext, includeCitations bool) error {
	if !config.ValidMode(mode) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if !config.ValidK(k) {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidK, k, config.MinK, config.MaxK)
	}

	s.mu.Lock()
	s.settings = Settings{Mode: mode, K: k, IncludeContext: includeContext, IncludeCitations: includeCitations}
	s.mu.Unlock()
	return nil
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the transcript length.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// OpenDocument sets the open-document pointer to the named registry
// document. Unknown names leave the pointer untouched.
func (s *Session) OpenDocument(name string) error {
	canonical, ok := s.registry.Canonical(name)
	if !ok {
		return &DocumentNotFoundError{Filename: name}
	}

	s.mu.Lock()
	s.openDoc = canonical
	s.mu.Unlock()
	return nil
}

// CloseDocument clears the open-document pointer.
func (s *Session) CloseDocument() {
	s.mu.Lock()
	s.openDoc = ""
	s.mu.Unlock()
}

// OpenDoc returns the currently previewed document, if any.
func (s *Session) OpenDoc() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openDoc, s.openDoc != ""
}

// Clear resets the transcript and the open-document pointer.
func (s *Session) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.openDoc = ""
	s.mu.Unlock()
}

// Submit runs one exchange: it appends the user turn, performs the blocking
// backend round trip, and appends and returns the resulting assistant turn.
// Transport failures become a failed assistant turn, never an error from
// Submit; the transcript is never silently truncated. Cancelling the context
// aborts the in-flight request and also surfaces as a failed turn.
func (s *Session) Submit(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrBlankInput
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.sending = true
	settings := s.settings
	userTurn := Turn{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	s.turns = append(s.turns, userTurn)
	s.mu.Unlock()

	s.record(ctx, userTurn)

	start := time.Now()
	resp, err := s.transport.Query(ctx, graphrag.QueryRequest{
		Query:            text,
		Mode:             string(settings.Mode),
		K:                settings.K,
		IncludeContext:   settings.IncludeContext,
		IncludeCitations: settings.IncludeCitations,
	})
	latency := time.Since(start)

	assistant := s.buildAssistantTurn(resp, err, settings, latency)

	s.mu.Lock()
	s.turns = append(s.turns, assistant)
	s.sending = false
	s.mu.Unlock()

	// Persist with a fresh context so a cancelled submission still records
	// its failed turn.
	s.record(context.WithoutCancel(ctx), assistant)

	return &assistant, nil
}

func (s *Session) buildAssistantTurn(resp *graphrag.QueryResponse, err error, settings Settings, latency time.Duration) Turn {
	t := Turn{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		CreatedAt: time.Now().UTC(),
		Metadata: &Metadata{
			Mode:      settings.Mode,
			LatencyMS: latency.Milliseconds(),
		},
	}

	switch {
	case err != nil:
		t.Failed = true
		t.Content = fmt.Sprintf("Failed to get a response from the backend: %v", err)
	case resp.Error != "":
		t.Failed = true
		t.Content = fmt.Sprintf("Backend error: %s", resp.Error)
	default:
		t.Content = resp.Response
		t.Metadata.CompletionTime = resp.CompletionTime
		t.Metadata.LLMCalls = resp.LLMCalls
		t.Metadata.PromptTokens = resp.PromptTokens
		t.Metadata.ContextData = resp.ContextData
		if settings.IncludeCitations {
			t.Citations = citations.Extract(resp.Response, s.registry)
		}
	}
	return t
}

func (s *Session) record(ctx context.Context, t Turn) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordTurn(ctx, s.ID, t); err != nil {
		log.Printf("chat: recording turn for session %s: %v", s.ID, err)
	}
}
