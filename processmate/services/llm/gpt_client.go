package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"

	"processmate/processmate/utils/logging"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type GPTClient struct {
	client  *openai.Client
	baseURL string
}

type GPTOption func(*openai.ClientConfig)

// WithHTTPClient replaces the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) GPTOption {
	return func(c *openai.ClientConfig) {
		c.HTTPClient = hc
	}
}

// NewGPTClient builds a client for any OpenAI-compatible chat completions API.
// baseURL is the API root, e.g. https://api.openai.com/v1.
func NewGPTClient(apiKey, baseURL string, opts ...GPTOption) *GPTClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &GPTClient{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: cfg.BaseURL,
	}
}

// RunStream submits a streamed completion. Errors opening the stream (network,
// auth, quota, bad status) are returned as is; nothing is retried.
func (c *GPTClient) RunStream(ctx context.Context, req ChatRequest) (Stream, error) {
	defer logging.LogDuration(ctx, "gpt_service_run_stream")()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	// go-openai omits a zero temperature and the API would then apply its
	// default of 1. An explicit 0 therefore goes out as the smallest positive
	// float32 (~1e-45), not a literal 0. MaxTokens is positive here, since
	// ChatRequest.Validate and config validation reject anything else.
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	gptReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}
	if req.JSONResponse {
		gptReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, gptReq)
	if err != nil {
		logging.ErrorLogger.Error("GPT stream request failed",
			zap.String("base_url", c.baseURL),
			zap.String("model", req.Model),
			zap.String("trace_id", logging.TraceIDFromContext(ctx)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("GPT stream request failed: %w", err)
	}
	return &gptStream{stream: stream}, nil
}

type gptStream struct {
	stream    *openai.ChatCompletionStream
	closeOnce sync.Once
}

func (s *gptStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			return "", err
		}
		// Role-only and usage chunks carry no text.
		var delta strings.Builder
		for _, choice := range resp.Choices {
			delta.WriteString(choice.Delta.Content)
		}
		if delta.Len() > 0 {
			return delta.String(), nil
		}
	}
}

func (s *gptStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.stream.Close()
	})
	return err
}
