package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"processmate/processmate/services/llm/llmtest"
	"processmate/processmate/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	chunks []types.StreamChunk
	err    error
}

func (c *collector) Send(chunk types.StreamChunk) error {
	if c.err != nil {
		return c.err
	}
	c.chunks = append(c.chunks, chunk)
	return nil
}

// decodePayload unpacks the structured response carried by a strict chunk.
func decodePayload(t *testing.T, chunk types.StreamChunk) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(chunk.Content), &payload))
	return payload
}

func TestStrictValidResponse(t *testing.T) {
	stream := llmtest.NewStream(
		`{"intent":"process","title":"Hire",`,
		`"summary":"Hiring steps","confidence":0.82,"extra":true,`,
		`"content":{"steps":[{"step":1,"description":"Post job","status":"pending"}],"estimatedDuration":"1 week"}}`,
	)
	sink := &collector{}

	outcome, err := New(types.ModeStrict, false).Run(context.Background(), stream, sink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.True(t, stream.Closed())

	require.Len(t, sink.chunks, 1)
	assert.True(t, sink.chunks[0].IsComplete)
	assert.Equal(t,
		`{"intent":"process","title":"Hire","summary":"Hiring steps","content":{"steps":[{"step":1,"description":"Post job","status":"pending"}],"estimatedDuration":"1 week"},"confidence":0.82}`,
		sink.chunks[0].Content)
}

func TestStrictInvalidJSON(t *testing.T) {
	stream := llmtest.NewStream("Sure, ", "here is ", "your answer.")
	sink := &collector{}

	outcome, err := New(types.ModeStrict, false).Run(context.Background(), stream, sink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidJSON, outcome)

	require.Len(t, sink.chunks, 1)
	assert.True(t, sink.chunks[0].IsComplete)
	payload := decodePayload(t, sink.chunks[0])
	assert.Equal(t, "general", payload["intent"])
	assert.Equal(t, 0.5, payload["confidence"])
	assert.Equal(t, "Sure, here is your answer.", payload["content"].(map[string]any)["response"])
}

func TestStrictEmptyStreamIsInvalidJSON(t *testing.T) {
	sink := &collector{}

	outcome, err := New(types.ModeStrict, false).Run(context.Background(), llmtest.NewStream(), sink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidJSON, outcome)
	require.Len(t, sink.chunks, 1)
	assert.Equal(t, "", decodePayload(t, sink.chunks[0])["content"].(map[string]any)["response"])
}

func TestStrictSchemaFailure(t *testing.T) {
	raw := `{"intent":"general","title":"t","summary":"s","confidence":1.7,"content":{"response":"hi"}}`
	stream := llmtest.NewStream(raw[:20], raw[20:])
	sink := &collector{}

	outcome, err := New(types.ModeStrict, false).Run(context.Background(), stream, sink)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidSchema, outcome)

	require.Len(t, sink.chunks, 1)
	payload := decodePayload(t, sink.chunks[0])
	assert.Equal(t, 0.1, payload["confidence"])
	assert.Equal(t, types.ValidationErrorTitle, payload["title"])
	assert.Equal(t, "general", payload["intent"])
	assert.Equal(t, raw, payload["content"].(map[string]any)["response"])
}

func TestStrictFencedJSON(t *testing.T) {
	fenced := "```json\n" + `{"intent":"general","title":"t","summary":"s","confidence":0.9,"content":{"response":"hi"}}` + "\n```"

	off := &collector{}
	outcome, err := New(types.ModeStrict, false).Run(context.Background(), llmtest.NewStream(fenced), off)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidJSON, outcome)

	on := &collector{}
	outcome, err = New(types.ModeStrict, true).Run(context.Background(), llmtest.NewStream(fenced), on)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.Equal(t, 0.9, decodePayload(t, on.chunks[0])["confidence"])
}

func TestLenientRelaysEveryDelta(t *testing.T) {
	stream := llmtest.NewStream("Hel", "lo", ",", " world")
	sink := &collector{}

	outcome, err := New(types.ModeLenient, false).Run(context.Background(), stream, sink)
	require.NoError(t, err)
	assert.Equal(t, OutcomePassthrough, outcome)
	assert.True(t, stream.Closed())

	assert.Equal(t, []types.StreamChunk{
		{Content: "Hel"},
		{Content: "lo"},
		{Content: ","},
		{Content: " world"},
		{Content: "", IsComplete: true},
	}, sink.chunks)
}

func TestUpstreamErrorSendsNoTerminalChunk(t *testing.T) {
	boom := errors.New("connection reset by peer")
	for _, mode := range []types.Mode{types.ModeStrict, types.ModeLenient} {
		t.Run(string(mode), func(t *testing.T) {
			stream := &llmtest.Stream{Deltas: []string{"partial ", "output"}, Err: boom}
			sink := &collector{}

			outcome, err := New(mode, false).Run(context.Background(), stream, sink)
			assert.Equal(t, OutcomeErrored, outcome)
			assert.ErrorIs(t, err, ErrUpstreamStream)
			assert.ErrorIs(t, err, boom)
			assert.True(t, stream.Closed())
			for _, c := range sink.chunks {
				assert.False(t, c.IsComplete)
			}
		})
	}
}

func TestCancelledContextStopsRelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream := llmtest.NewStream("a", "b")
	sink := &collector{}

	outcome, err := New(types.ModeLenient, false).Run(ctx, stream, sink)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.chunks)
	assert.True(t, stream.Closed())
}

func TestSinkFailureAborts(t *testing.T) {
	broken := errors.New("broken pipe")
	sink := &collector{err: broken}

	outcome, err := New(types.ModeLenient, false).Run(context.Background(), llmtest.NewStream("a"), sink)
	assert.Equal(t, OutcomeAborted, outcome)
	assert.ErrorIs(t, err, broken)

	outcome, err = New(types.ModeStrict, false).Run(context.Background(), llmtest.NewStream("{}"), sink)
	assert.Equal(t, OutcomeAborted, outcome)
	assert.ErrorIs(t, err, broken)
}

func TestSinkFunc(t *testing.T) {
	var got []types.StreamChunk
	sink := SinkFunc(func(c types.StreamChunk) error {
		got = append(got, c)
		return nil
	})

	_, err := New(types.ModeLenient, false).Run(context.Background(), llmtest.NewStream("x"), sink)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
