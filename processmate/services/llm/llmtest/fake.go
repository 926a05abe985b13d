// Package llmtest provides in-memory llm.Provider and llm.Stream fakes.
package llmtest

import (
	"context"
	"io"
	"sync"

	"processmate/processmate/services/llm"
)

// Stream replays Deltas in order, then returns Err (io.EOF when nil). With
// Block set it instead waits for the context the stream was opened with and
// returns its error, like an upstream that stalls.
type Stream struct {
	Deltas []string
	Err    error
	Block  bool

	mu     sync.Mutex
	ctx    context.Context
	pos    int
	closed bool
}

func NewStream(deltas ...string) *Stream {
	return &Stream{Deltas: deltas}
}

func (s *Stream) Recv() (string, error) {
	s.mu.Lock()
	for s.pos < len(s.Deltas) {
		d := s.Deltas[s.pos]
		s.pos++
		if d != "" {
			s.mu.Unlock()
			return d, nil
		}
	}
	block, ctx, err := s.Block, s.ctx, s.Err
	s.mu.Unlock()

	if block && ctx != nil {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Provider hands out Stream, or fails with OpenErr, and records each request.
type Provider struct {
	Stream  *Stream
	OpenErr error

	mu       sync.Mutex
	requests []llm.ChatRequest
}

func (p *Provider) RunStream(ctx context.Context, req llm.ChatRequest) (llm.Stream, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Stream == nil {
		return NewStream(), nil
	}
	p.Stream.mu.Lock()
	p.Stream.ctx = ctx
	p.Stream.mu.Unlock()
	return p.Stream, nil
}

func (p *Provider) Requests() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.ChatRequest(nil), p.requests...)
}

// Compile-time checks.
var (
	_ llm.Provider = (*Provider)(nil)
	_ llm.Stream   = (*Stream)(nil)
	_ io.Closer    = (*Stream)(nil)
)
