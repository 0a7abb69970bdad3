package graphrag

import "encoding/json"

// QueryRequest is the payload for the backend's POST /query endpoint.
type QueryRequest struct {
	Query            string `json:"query"`
	Mode             string `json:"mode"`
	K                int    `json:"k"`
	IncludeContext   bool   `json:"include_context"`
	IncludeCitations bool   `json:"include_citations"`
}

// QueryResponse is the backend's answer to a query. The backend may report
// an application-level failure through the Error field with a 200 status.
type QueryResponse struct {
	Response       string          `json:"response"`
	Error          string          `json:"error,omitempty"`
	CompletionTime float64         `json:"completion_time,omitempty"` // seconds
	LLMCalls       int             `json:"llm_calls,omitempty"`
	PromptTokens   int             `json:"prompt_tokens,omitempty"`
	ContextData    json.RawMessage `json:"context_data,omitempty"`
}
