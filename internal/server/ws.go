package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/paletten-gigant/graphrag-chat/internal/chat"
	"github.com/paletten-gigant/graphrag-chat/internal/citations"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "message" or "settings"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`

	// settings payload
	Mode             string `json:"mode,omitempty"`
	K                int    `json:"k,omitempty"`
	IncludeContext   bool   `json:"include_context,omitempty"`
	IncludeCitations bool   `json:"include_citations,omitempty"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string               `json:"type"` // "turn", "settings" or "error"
	SessionID string               `json:"session_id"`
	Content   string               `json:"content,omitempty"`
	HTML      string               `json:"html,omitempty"`
	Failed    bool                 `json:"failed,omitempty"`
	Citations []citations.Citation `json:"citations,omitempty"`
	Metadata  *chat.Metadata       `json:"metadata,omitempty"`
	Settings  *chat.Settings       `json:"settings,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}

		switch req.Type {
		case "message":
			s.handleWSMessage(conn, r, req)
		case "settings":
			s.handleWSSettings(conn, req)
		default:
			s.sendWSError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleWSMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	sess, ok := s.session(req.SessionID)
	if !ok {
		if req.SessionID != "" {
			s.sendWSError(conn, req.SessionID, "session not found")
			return
		}
		sess = s.newSession(r.Context())
	}

	if err := s.registry.ReloadIfChanged(); err != nil {
		log.Printf("server: reloading registry: %v", err)
	}

	turn, err := sess.Submit(r.Context(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBlankInput):
			s.sendWSError(conn, sess.ID, "content is required")
		case errors.Is(err, chat.ErrBusy):
			s.sendWSError(conn, sess.ID, "a submission is already in flight")
		default:
			s.sendWSError(conn, sess.ID, err.Error())
		}
		return
	}

	view := makeTurnView(*turn)
	s.sendWS(conn, chatResponse{
		Type:      "turn",
		SessionID: sess.ID,
		Content:   turn.Content,
		HTML:      view.HTML,
		Failed:    turn.Failed,
		Citations: turn.Citations,
		Metadata:  turn.Metadata,
	})
}

func (s *Server) handleWSSettings(conn *websocket.Conn, req chatRequest) {
	sess, ok := s.session(req.SessionID)
	if !ok {
		s.sendWSError(conn, req.SessionID, "session not found")
		return
	}

	if err := sess.UpdateSettings(config.SearchMode(req.Mode), req.K, req.IncludeContext, req.IncludeCitations); err != nil {
		s.sendWSError(conn, sess.ID, err.Error())
		return
	}
	settings := sess.Settings()
	s.sendWS(conn, chatResponse{Type: "settings", SessionID: sess.ID, Settings: &settings})
}

func (s *Server) sendWS(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, sessionID, message string) {
	s.sendWS(conn, chatResponse{Type: "error", SessionID: sessionID, Content: message})
}
