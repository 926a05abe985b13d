// processmate/utils/http/httputils.go
package httputils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"processmate/processmate/types"
)

var ErrStreamingUnsupported = errors.New("response writer does not support flushing")

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, types.ErrorResponse{Error: message})
}

// SSEWriter writes StreamChunks as "data: <json>\n\n" lines and flushes after
// each one.
type SSEWriter struct {
	w           http.ResponseWriter
	flusher     http.Flusher
	wroteHeader bool
}

func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Start sends the streaming headers. Send calls it implicitly.
func (s *SSEWriter) Start() {
	if s.wroteHeader {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
	s.wroteHeader = true
}

func (s *SSEWriter) Send(chunk types.StreamChunk) error {
	s.Start()
	line, err := EncodeDataLine(chunk)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// EncodeDataLine frames chunk as one "data: <json>\n\n" line.
func EncodeDataLine(chunk types.StreamChunk) ([]byte, error) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "data: %s\n\n", payload), nil
}
