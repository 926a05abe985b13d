// processmate/types/chat.go
package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MissingFieldsMessage  = "Missing required fields: message, conversationId"
	InvalidOptionsMessage = "Invalid options: maxTokens must be positive and temperature within [0, 2]"
	InvalidBodyMessage    = "Invalid JSON body"
	InternalErrorMessage  = "Internal server error"
	UnauthorizedMessage   = "unauthorized"
)

var (
	ErrMissingFields  = errors.New(MissingFieldsMessage)
	ErrInvalidOptions = errors.New(InvalidOptionsMessage)
)

// Mode selects how upstream deltas are relayed to the client.
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeLenient Mode = "lenient"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict:
		return ModeStrict, nil
	case ModeLenient:
		return ModeLenient, nil
	}
	return "", fmt.Errorf("unknown chat mode %q (want %q or %q)", s, ModeStrict, ModeLenient)
}

// ChatRequest is the body of POST /api/chat. Optional fields are pointers so
// an explicit zero survives defaulting.
type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversationId"`
	Model          *string  `json:"model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	MaxTokens      *int     `json:"maxTokens,omitempty"`
}

// Validate reports ErrMissingFields before ErrInvalidOptions.
func (r ChatRequest) Validate() error {
	if r.Message == "" || r.ConversationID == "" {
		return ErrMissingFields
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		return ErrInvalidOptions
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return ErrInvalidOptions
	}
	return nil
}

// WithDefaults returns a copy with every omitted optional field filled in.
func (r ChatRequest) WithDefaults(model string, temperature float64, maxTokens int) ChatRequest {
	if r.Model == nil || *r.Model == "" {
		r.Model = &model
	}
	if r.Temperature == nil {
		r.Temperature = &temperature
	}
	if r.MaxTokens == nil {
		r.MaxTokens = &maxTokens
	}
	return r
}

// StreamChunk is the payload of one SSE data line.
type StreamChunk struct {
	Content    string `json:"content"`
	IsComplete bool   `json:"isComplete"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
