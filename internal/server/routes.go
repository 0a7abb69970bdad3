package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/render"
)

func (s *Server) registerAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/messages", s.handlePostMessage)
		r.Delete("/sessions/{id}/messages", s.handleClearMessages)
		r.Put("/sessions/{id}/settings", s.handleUpdateSettings)
		r.Post("/sessions/{id}/document", s.handleOpenDocument)
		r.Delete("/sessions/{id}/document", s.handleCloseDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{name}", s.handleServeDocument)
	})
}

// turnView is a Turn plus the rendered HTML used by the web UI.
type turnView struct {
	chat.Turn
	HTML string `json:"html,omitempty"`
}

func makeTurnView(t chat.Turn) turnView {
	v := turnView{Turn: t}
	if t.Role == chat.RoleAssistant && !t.Failed {
		v.HTML = render.Markdown(t.Content)
	}
	return v
}

type sessionView struct {
	ID           string        `json:"id"`
	Settings     chat.Settings `json:"settings"`
	Turns        []turnView    `json:"turns"`
	OpenDocument string        `json:"open_document,omitempty"`
	AppTitle     string        `json:"app_title,omitempty"`
	ViewerOn     bool          `json:"viewer_enabled"`
}

func (s *Server) makeSessionView(sess *chat.Session) sessionView {
	turns := sess.Turns()
	views := make([]turnView, len(turns))
	for i, t := range turns {
		views[i] = makeTurnView(t)
	}
	openDoc, _ := sess.OpenDoc()
	return sessionView{
		ID:           sess.ID,
		Settings:     sess.Settings(),
		Turns:        views,
		OpenDocument: openDoc,
		AppTitle:     s.cfg.AppTitle,
		ViewerOn:     s.cfg.EnablePDFViewer,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession(r.Context())
	writeJSON(w, http.StatusCreated, s.makeSessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s.makeSessionView(sess))
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Pick up documents added since the last turn.
	if err := s.registry.ReloadIfChanged(); err != nil {
		log.Printf("server: reloading registry: %v", err)
	}

	turn, err := sess.Submit(r.Context(), req.Content)
	switch {
	case errors.Is(err, chat.ErrBlankInput):
		writeError(w, http.StatusBadRequest, "content is required")
		return
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, "a submission is already in flight")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, makeTurnView(*turn))
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.Clear()
	if s.store != nil {
		if err := s.store.ClearTurns(r.Context(), sess.ID); err != nil {
			log.Printf("server: clearing persisted turns for %s: %v", sess.ID, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateSettingsRequest struct {
	Mode             string `json:"mode"`
	K                int    `json:"k"`
	IncludeContext   bool   `json:"include_context"`
	IncludeCitations bool   `json:"include_citations"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.UpdateSettings(config.SearchMode(req.Mode), req.K, req.IncludeContext, req.IncludeCitations); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.store != nil {
		if err := s.store.UpdateSettings(r.Context(), sess.ID, sess.Settings()); err != nil {
			log.Printf("server: persisting settings for %s: %v", sess.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, sess.Settings())
}

type openDocumentRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req openDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.OpenDocument(req.Filename); err != nil {
		var notFound *chat.DocumentNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "document unavailable: "+notFound.Filename)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	openDoc, _ := sess.OpenDoc()
	writeJSON(w, http.StatusOK, map[string]string{"open_document": openDoc})
}

func (s *Server) handleCloseDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.CloseDocument()
	w.WriteHeader(http.StatusNoContent)
}

type documentView struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.ReloadIfChanged(); err != nil {
		log.Printf("server: reloading registry: %v", err)
	}

	docs := s.registry.Documents()
	views := make([]documentView, len(docs))
	for i, d := range docs {
		views[i] = documentView{Name: d.Name, Size: d.Size}
	}
	writeJSON(w, http.StatusOK, views)
}

// handleServeDocument streams a registry document to the browser's PDF
// viewer. Names resolve only through the registry, so path traversal cannot
// reach outside the documents directory.
func (s *Server) handleServeDocument(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.EnablePDFViewer {
		writeError(w, http.StatusNotFound, "document viewer is disabled")
		return
	}

	name := chi.URLParam(r, "name")
	path, ok := s.registry.Resolve(name)
	if !ok {
		writeError(w, http.StatusNotFound, "document unavailable: "+name)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
