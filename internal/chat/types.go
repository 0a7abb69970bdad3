package chat

import (
	"encoding/json"
	"time"

	"github.com/paletten-gigant/graphrag-chat/internal/citations"
	"github.com/paletten-gigant/graphrag-chat/internal/config"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Settings is the search configuration a session submits with.
type Settings struct {
	Mode             config.SearchMode `json:"mode"`
	K                int               `json:"k"`
	IncludeContext   bool              `json:"include_context"`
	IncludeCitations bool              `json:"include_citations"`
}

// SettingsFromConfig builds the initial session settings from the loaded
// configuration defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Mode:             cfg.DefaultMode,
		K:                cfg.DefaultK,
		IncludeContext:   cfg.IncludeContext,
		IncludeCitations: cfg.IncludeCitations,
	}
}

// Metadata carries backend-reported details about an assistant turn.
type Metadata struct {
	CompletionTime float64           `json:"completion_time,omitempty"` // backend-side, seconds
	LLMCalls       int               `json:"llm_calls,omitempty"`
	PromptTokens   int               `json:"prompt_tokens,omitempty"`
	ContextData    json.RawMessage   `json:"context_data,omitempty"`
	Mode           config.SearchMode `json:"mode,omitempty"`
	LatencyMS      int64             `json:"latency_ms,omitempty"` // round trip measured here
}

// Turn is one entry in the transcript. Turns are immutable once appended.
type Turn struct {
	ID        string               `json:"id"`
	Role      Role                 `json:"role"`
	Content   string               `json:"content"`
	Citations []citations.Citation `json:"citations,omitempty"`
	Failed    bool                 `json:"failed,omitempty"`
	Metadata  *Metadata            `json:"metadata,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
