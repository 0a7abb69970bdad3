package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/db"
	"github.com/paletten-gigant/graphrag-chat/internal/graphrag"
	"github.com/paletten-gigant/graphrag-chat/internal/registry"
)

// newTestServer builds a Server against a stub backend and a temp documents
// directory containing report.pdf and invoice123.pdf.
func newTestServer(t *testing.T, backend http.HandlerFunc) *Server {
	t.Helper()

	stub := httptest.NewServer(backend)
	t.Cleanup(stub.Close)

	docsDir := t.TempDir()
	for _, name := range []string{"report.pdf", "invoice123.pdf"} {
		if err := os.WriteFile(filepath.Join(docsDir, name), []byte("%PDF-1.4 test"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	reg, err := registry.New(docsDir, nil, nil)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.APIBaseURL = stub.URL
	cfg.DocumentsPath = docsDir

	client := graphrag.New(stub.URL, 5*time.Second, 0)
	return New(cfg, client, reg, chat.NewStore(database))
}

func answerBackend(answer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/query":
			json.NewEncoder(w).Encode(graphrag.QueryResponse{Response: answer, CompletionTime: 0.5})
		default:
			http.NotFound(w, r)
		}
	}
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", w.Code, w.Body.String())
	}
	var view sessionView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	return view.ID
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, answerBackend("ok"))

	w := doJSON(t, srv, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["backend"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestHealthCheckBackendDown(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	w := doJSON(t, srv, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("interface must stay up, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["backend"] != "unreachable" {
		t.Errorf("expected unreachable backend, got %v", body)
	}
}

func TestChatFlowWithCitations(t *testing.T) {
	srv := newTestServer(t, answerBackend("Die Rechnung ist in Quelle: invoice123.pdf beschrieben."))
	id := createSession(t, srv)

	w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", postMessageRequest{Content: "Wo finde ich die Rechnung?"})
	if w.Code != http.StatusOK {
		t.Fatalf("post message: status %d: %s", w.Code, w.Body.String())
	}

	var turn turnView
	if err := json.Unmarshal(w.Body.Bytes(), &turn); err != nil {
		t.Fatal(err)
	}
	if turn.Role != chat.RoleAssistant || turn.Failed {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if len(turn.Citations) != 1 || turn.Citations[0].Filename != "invoice123.pdf" {
		t.Errorf("citations = %v", turn.Citations)
	}
	if turn.HTML == "" {
		t.Error("expected rendered HTML for the assistant turn")
	}

	// Session view reflects the transcript.
	w = doJSON(t, srv, "GET", "/api/sessions/"+id, nil)
	var view sessionView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Turns) != 2 {
		t.Errorf("expected 2 turns in view, got %d", len(view.Turns))
	}
}

func TestPostMessageBlank(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))
	id := createSession(t, srv)

	w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", postMessageRequest{Content: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank content, got %d", w.Code)
	}
}

func TestPostMessageUnknownSession(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))

	w := doJSON(t, srv, "POST", "/api/sessions/nope/messages", postMessageRequest{Content: "hi"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))
	id := createSession(t, srv)

	// Out-of-range k is rejected.
	w := doJSON(t, srv, "PUT", "/api/sessions/"+id+"/settings", updateSettingsRequest{Mode: "global", K: 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for k=0, got %d", w.Code)
	}

	// Bad mode is rejected.
	w = doJSON(t, srv, "PUT", "/api/sessions/"+id+"/settings", updateSettingsRequest{Mode: "invalid", K: 10})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad mode, got %d", w.Code)
	}

	// Valid update applies.
	w = doJSON(t, srv, "PUT", "/api/sessions/"+id+"/settings", updateSettingsRequest{Mode: "drift", K: 5, IncludeCitations: true})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var settings chat.Settings
	json.Unmarshal(w.Body.Bytes(), &settings)
	if settings.Mode != config.ModeDrift || settings.K != 5 {
		t.Errorf("settings = %+v", settings)
	}
}

func TestOpenAndCloseDocument(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))
	id := createSession(t, srv)

	w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/document", openDocumentRequest{Filename: "Report.PDF"})
	if w.Code != http.StatusOK {
		t.Fatalf("open document: status %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["open_document"] != "report.pdf" {
		t.Errorf("open_document = %q", body["open_document"])
	}

	w = doJSON(t, srv, "DELETE", "/api/sessions/"+id+"/document", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("close document: status %d", w.Code)
	}
}

func TestOpenDocumentNotFound(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))
	id := createSession(t, srv)

	w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/document", openDocumentRequest{Filename: "missing.pdf"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	// Pointer stays unset.
	w = doJSON(t, srv, "GET", "/api/sessions/"+id, nil)
	var view sessionView
	json.Unmarshal(w.Body.Bytes(), &view)
	if view.OpenDocument != "" {
		t.Errorf("open document pointer should be unset, got %q", view.OpenDocument)
	}
}

func TestListDocuments(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))

	w := doJSON(t, srv, "GET", "/api/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var docs []documentView
	if err := json.Unmarshal(w.Body.Bytes(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}

func TestServeDocument(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))

	req := httptest.NewRequest("GET", "/api/documents/report.pdf", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type %q", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF bytes")
	}
}

func TestServeDocumentUnknown(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))

	req := httptest.NewRequest("GET", "/api/documents/missing.pdf", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestServeDocumentViewerDisabled(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))
	srv.cfg.EnablePDFViewer = false

	req := httptest.NewRequest("GET", "/api/documents/report.pdf", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 with viewer disabled, got %d", w.Code)
	}
}

func TestClearMessages(t *testing.T) {
	srv := newTestServer(t, answerBackend("Antwort"))
	id := createSession(t, srv)

	doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", postMessageRequest{Content: "frage"})

	w := doJSON(t, srv, "DELETE", "/api/sessions/"+id+"/messages", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear: status %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/sessions/"+id, nil)
	var view sessionView
	json.Unmarshal(w.Body.Bytes(), &view)
	if len(view.Turns) != 0 {
		t.Errorf("expected empty transcript, got %d turns", len(view.Turns))
	}
}

func TestFailedBackendProducesFailedTurn(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	id := createSession(t, srv)

	w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", postMessageRequest{Content: "frage"})
	if w.Code != http.StatusOK {
		t.Fatalf("a backend failure still yields a turn, got status %d", w.Code)
	}
	var turn turnView
	json.Unmarshal(w.Body.Bytes(), &turn)
	if !turn.Failed {
		t.Errorf("expected failed turn, got %+v", turn)
	}
}

func TestServeIndex(t *testing.T) {
	srv := newTestServer(t, answerBackend("x"))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("chat-form")) {
		t.Error("expected embedded chat UI")
	}
}
