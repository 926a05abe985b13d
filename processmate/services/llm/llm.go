// processmate/services/llm/llm.go
package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model        string    `json:"model"`
	Messages     []Message `json:"messages"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens"`
	JSONResponse bool      `json:"json_response"`
}

// Stream yields generated text in arrival order.
type Stream interface {
	// Recv returns the next non-empty delta, io.EOF once the completion has
	// finished, or the error that broke the stream.
	Recv() (string, error)
	// Close releases the upstream connection. It is safe to call more than once.
	Close() error
}

// Provider opens streamed chat completions against an upstream API.
type Provider interface {
	RunStream(ctx context.Context, req ChatRequest) (Stream, error)
}
