// processmate/controllers/chat.go
package controllers

import (
	"context"
	"fmt"
	"time"

	"processmate/processmate/config"
	"processmate/processmate/prompts"
	"processmate/processmate/services/assembler"
	"processmate/processmate/services/llm"
	"processmate/processmate/types"
	"processmate/processmate/utils/logging"

	"go.uber.org/zap"
)

type ChatController struct {
	provider        llm.Provider
	assembler       *assembler.Assembler
	prompts         *prompts.Set
	defaultModel    string
	defaultTemp     float64
	defaultMax      int
	upstreamTimeout time.Duration
	jsonResponse    bool
}

func NewChatController(provider llm.Provider, promptSet *prompts.Set, cfg config.ChatConfig) *ChatController {
	return &ChatController{
		provider:        provider,
		assembler:       assembler.New(cfg.Mode, cfg.ExtractFencedJSON),
		prompts:         promptSet,
		defaultModel:    cfg.DefaultModel,
		defaultTemp:     cfg.DefaultTemperature,
		defaultMax:      cfg.DefaultMaxTokens,
		upstreamTimeout: cfg.UpstreamTimeout,
		jsonResponse:    cfg.JSONResponseFormat,
	}
}

func (c *ChatController) Mode() types.Mode {
	return c.assembler.Mode
}

// Open validates req, applies defaults and opens the upstream stream. The
// returned CancelFunc ends the upstream exchange and must be called once the
// stream is no longer needed. A validation failure returns ErrMissingFields
// or ErrInvalidOptions without contacting the provider.
func (c *ChatController) Open(ctx context.Context, req types.ChatRequest) (llm.Stream, context.CancelFunc, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	req = req.WithDefaults(c.defaultModel, c.defaultTemp, c.defaultMax)
	mode := c.Mode()

	llmReq := llm.ChatRequest{
		Model: *req.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: c.prompts.ForMode(mode)},
			{Role: llm.RoleUser, Content: req.Message},
		},
		Temperature:  *req.Temperature,
		MaxTokens:    *req.MaxTokens,
		JSONResponse: mode == types.ModeStrict && c.jsonResponse,
	}

	logging.AppLogger.Info("chat request",
		zap.String("conversation_id", req.ConversationID),
		zap.String("model", llmReq.Model),
		zap.Float64("temperature", llmReq.Temperature),
		zap.Int("max_tokens", llmReq.MaxTokens),
		zap.String("mode", string(mode)),
		zap.String("trace_id", logging.TraceIDFromContext(ctx)),
	)

	upstreamCtx, cancel := context.WithTimeout(ctx, c.upstreamTimeout)
	stream, err := c.provider.RunStream(upstreamCtx, llmReq)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("open upstream stream: %w", err)
	}
	return stream, cancel, nil
}

// Relay drains stream into sink according to the configured mode.
func (c *ChatController) Relay(ctx context.Context, stream llm.Stream, sink assembler.Sink) (assembler.Outcome, error) {
	return c.assembler.Run(ctx, stream, sink)
}

// Chat runs one full exchange: Open, then Relay.
func (c *ChatController) Chat(ctx context.Context, req types.ChatRequest, sink assembler.Sink) (assembler.Outcome, error) {
	stream, cancel, err := c.Open(ctx, req)
	if err != nil {
		return "", err
	}
	defer cancel()
	return c.Relay(ctx, stream, sink)
}
