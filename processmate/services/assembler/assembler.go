// processmate/services/assembler/assembler.go
package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"processmate/processmate/services/llm"
	"processmate/processmate/types"
	"processmate/processmate/utils/jsonutils"
	"processmate/processmate/utils/logging"

	"go.uber.org/zap"
)

// Outcome is the terminal state of one relay.
type Outcome string

const (
	OutcomeValid         Outcome = "valid"
	OutcomeInvalidSchema Outcome = "invalid_schema"
	OutcomeInvalidJSON   Outcome = "invalid_json"
	OutcomePassthrough   Outcome = "passthrough"
	OutcomeErrored       Outcome = "errored"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomeAborted       Outcome = "aborted"
)

var ErrUpstreamStream = errors.New("upstream stream failed")

// Sink receives the chunks of one relay in order.
type Sink interface {
	Send(chunk types.StreamChunk) error
}

type SinkFunc func(chunk types.StreamChunk) error

func (f SinkFunc) Send(chunk types.StreamChunk) error { return f(chunk) }

type Assembler struct {
	Mode              types.Mode
	ExtractFencedJSON bool
}

func New(mode types.Mode, extractFencedJSON bool) *Assembler {
	return &Assembler{Mode: mode, ExtractFencedJSON: extractFencedJSON}
}

// Run drains stream into sink and closes stream before returning.
//
// Strict mode sends exactly one complete chunk holding the validated
// StructuredResponse or a fallback. Lenient mode forwards every delta and then
// an empty complete chunk. If the upstream stream fails nothing terminal is
// sent and the returned error matches ErrUpstreamStream.
func (a *Assembler) Run(ctx context.Context, stream llm.Stream, sink Sink) (Outcome, error) {
	defer logging.LogDuration(ctx, "assembler_run")()
	defer stream.Close()

	var (
		outcome Outcome
		err     error
		stats   runStats
	)
	if a.Mode == types.ModeLenient {
		outcome, err = a.relay(ctx, stream, sink, &stats)
	} else {
		outcome, err = a.assemble(ctx, stream, sink, &stats)
	}

	fields := []zap.Field{
		zap.String("mode", string(a.Mode)),
		zap.String("outcome", string(outcome)),
		zap.Int("deltas", stats.deltas),
		zap.Int("bytes", stats.bytes),
		zap.String("trace_id", logging.TraceIDFromContext(ctx)),
	}
	switch outcome {
	case OutcomeErrored, OutcomeAborted:
		logging.ErrorLogger.Error("chat relay failed", append(fields, zap.Error(err))...)
	default:
		logging.AppLogger.Info("chat relay finished", fields...)
	}
	return outcome, err
}

type runStats struct {
	deltas int
	bytes  int
}

// next reads one delta, translating stream failures into relay outcomes.
func next(ctx context.Context, stream llm.Stream, stats *runStats) (string, Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", OutcomeCancelled, err
	}
	delta, err := stream.Recv()
	if err == nil {
		stats.deltas++
		stats.bytes += len(delta)
		return delta, "", nil
	}
	if errors.Is(err, io.EOF) {
		return "", "", io.EOF
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", OutcomeCancelled, ctxErr
	}
	return "", OutcomeErrored, fmt.Errorf("%w: %w", ErrUpstreamStream, err)
}

func (a *Assembler) assemble(ctx context.Context, stream llm.Stream, sink Sink, stats *runStats) (Outcome, error) {
	var buf strings.Builder
	for {
		delta, outcome, err := next(ctx, stream, stats)
		if err == io.EOF {
			break
		}
		if err != nil {
			return outcome, err
		}
		buf.WriteString(delta)
	}

	text := buf.String()
	resp, outcome := a.parse(text)
	payload, err := json.Marshal(resp)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("encode structured response: %w", err)
	}
	if err := sink.Send(types.StreamChunk{Content: string(payload), IsComplete: true}); err != nil {
		return OutcomeAborted, fmt.Errorf("send chunk: %w", err)
	}
	return outcome, nil
}

func (a *Assembler) parse(text string) (types.StructuredResponse, Outcome) {
	candidate := text
	if a.ExtractFencedJSON {
		candidate = jsonutils.StripCodeFence(text)
	}
	resp, err := types.ParseStructuredResponse(candidate)
	switch {
	case err == nil:
		return resp, OutcomeValid
	case errors.Is(err, types.ErrInvalidJSON):
		logging.AppLogger.Warn("model output is not JSON", zap.Error(err))
		return types.ParseErrorFallback(text), OutcomeInvalidJSON
	default:
		logging.AppLogger.Warn("model output failed validation", zap.Error(err))
		return types.ValidationErrorFallback(text), OutcomeInvalidSchema
	}
}

func (a *Assembler) relay(ctx context.Context, stream llm.Stream, sink Sink, stats *runStats) (Outcome, error) {
	for {
		delta, outcome, err := next(ctx, stream, stats)
		if err == io.EOF {
			break
		}
		if err != nil {
			return outcome, err
		}
		if err := sink.Send(types.StreamChunk{Content: delta}); err != nil {
			return OutcomeAborted, fmt.Errorf("send chunk: %w", err)
		}
	}
	if err := sink.Send(types.StreamChunk{IsComplete: true}); err != nil {
		return OutcomeAborted, fmt.Errorf("send chunk: %w", err)
	}
	return OutcomePassthrough, nil
}
