package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/paletten-gigant/graphrag-chat/internal/citations"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
	"github.com/paletten-gigant/graphrag-chat/internal/db"
)

// Store persists sessions and their transcripts in SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a transcript store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// SessionRecord is the persisted shape of a session.
type SessionRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// turnMeta is the JSON stored in the chat_messages metadata column.
type turnMeta struct {
	Citations []citations.Citation `json:"citations,omitempty"`
	Metadata  *Metadata            `json:"metadata,omitempty"`
}

// CreateSession inserts a new session row with its initial settings.
func (s *Store) CreateSession(ctx context.Context, sess *Session, title string) error {
	settings := sess.Settings()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, title, search_mode, k, include_context, include_citations, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, title, string(settings.Mode), settings.K,
		boolToInt(settings.IncludeContext), boolToInt(settings.IncludeCitations),
		sess.CreatedAt, sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// UpdateSettings stores the session's current search configuration.
func (s *Store) UpdateSettings(ctx context.Context, sessionID string, settings Settings) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET search_mode = ?, k = ?, include_context = ?, include_citations = ?, updated_at = ?
		 WHERE id = ?`,
		string(settings.Mode), settings.K,
		boolToInt(settings.IncludeContext), boolToInt(settings.IncludeCitations),
		time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating session settings: %w", err)
	}
	return nil
}

// RecordTurn appends a turn to the session's transcript.
func (s *Store) RecordTurn(ctx context.Context, sessionID string, t Turn) error {
	meta, err := json.Marshal(turnMeta{Citations: t.Citations, Metadata: t.Metadata})
	if err != nil {
		return fmt.Errorf("marshalling turn metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, failed, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, sessionID, string(t.Role), t.Content, boolToInt(t.Failed), string(meta), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, t.CreatedAt, sessionID); err != nil {
		log.Printf("chat: updating session %s timestamp: %v", sessionID, err)
	}
	return nil
}

// Turns returns the persisted transcript of a session in order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, failed, metadata, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var role, metaJSON string
		var failed int
		if err := rows.Scan(&t.ID, &role, &t.Content, &failed, &metaJSON, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = Role(role)
		t.Failed = failed != 0

		var meta turnMeta
		if err := json.Unmarshal([]byte(metaJSON), &meta); err == nil {
			t.Citations = meta.Citations
			t.Metadata = meta.Metadata
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ClearTurns deletes the persisted transcript of a session.
func (s *Store) ClearTurns(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}
	return nil
}

// Sessions lists all persisted sessions, most recently updated first.
func (s *Store) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, search_mode, k, include_context, include_citations, created_at, updated_at
		 FROM chat_sessions ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var mode string
		var includeContext, includeCitations int
		if err := rows.Scan(&r.ID, &r.Title, &mode, &r.Settings.K, &includeContext, &includeCitations, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		r.Settings.Mode = config.SearchMode(mode)
		r.Settings.IncludeContext = includeContext != 0
		r.Settings.IncludeCitations = includeCitations != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountSessions returns the total number of persisted sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&count)
	return count, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
