package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"processmate/processmate/config"
	"processmate/processmate/controllers"
	"processmate/processmate/middlewares"
	"processmate/processmate/services/assembler"
	"processmate/processmate/types"
	httputils "processmate/processmate/utils/http"
	"processmate/processmate/utils/logging"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wsChatInput is the first message a websocket client sends.
type wsChatInput struct {
	Token       string            `json:"token"`
	ChatRequest types.ChatRequest `json:"chat_request"`
}

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		if cfg.Auth.JWTSecret != "" {
			gr.Use(middlewares.AuthMiddleware(cfg.Auth.JWTSecret))
		}
		// POST /api/chat : one exchange relayed as data: lines
		gr.Post("/", chatHandler(ctrl))
	})
	// token travels in the first message, so no middleware here
	r.HandleFunc("/ws", chatWebSocketHandler(ctrl, cfg.Auth.JWTSecret, cfg.Server.AllowedOrigins))
	return r
}

func chatHandler(ctrl *controllers.ChatController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputils.WriteError(w, http.StatusBadRequest, types.InvalidBodyMessage)
			return
		}

		ctx := r.Context()
		stream, cancel, err := ctrl.Open(ctx, req)
		if errors.Is(err, types.ErrMissingFields) || errors.Is(err, types.ErrInvalidOptions) {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			logging.ErrorLogger.Error("chat request failed",
				zap.String("conversation_id", req.ConversationID),
				zap.String("trace_id", logging.TraceIDFromContext(ctx)),
				zap.Error(err),
			)
			httputils.WriteError(w, http.StatusInternalServerError, types.InternalErrorMessage)
			return
		}
		defer cancel()

		sse, err := httputils.NewSSEWriter(w)
		if err != nil {
			stream.Close()
			logging.ErrorLogger.Error("cannot stream response", zap.Error(err))
			httputils.WriteError(w, http.StatusInternalServerError, types.InternalErrorMessage)
			return
		}
		sse.Start()

		if _, err := ctrl.Relay(ctx, stream, sse); err != nil {
			// Headers are out; abort so the client sees a truncated body.
			panic(http.ErrAbortHandler)
		}
	}
}

func chatWebSocketHandler(ctrl *controllers.ChatController, secret string, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
		if err != nil {
			logging.ErrorLogger.Error("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		var input wsChatInput
		if err := wsjson.Read(ctx, conn, &input); err != nil {
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) {
				return
			}
			closeWithError(ctx, conn, websocket.StatusUnsupportedData, types.InvalidBodyMessage)
			return
		}

		if secret != "" {
			subject, err := middlewares.ParseToken(secret, input.Token)
			if err != nil {
				closeWithError(ctx, conn, websocket.StatusPolicyViolation, types.UnauthorizedMessage)
				return
			}
			ctx = context.WithValue(ctx, middlewares.SubjectKey, subject)
		}

		stream, cancel, err := ctrl.Open(ctx, input.ChatRequest)
		if errors.Is(err, types.ErrMissingFields) || errors.Is(err, types.ErrInvalidOptions) {
			closeWithError(ctx, conn, websocket.StatusPolicyViolation, err.Error())
			return
		}
		if err != nil {
			logging.ErrorLogger.Error("websocket chat request failed",
				zap.String("conversation_id", input.ChatRequest.ConversationID),
				zap.String("trace_id", logging.TraceIDFromContext(ctx)),
				zap.Error(err),
			)
			closeWithError(ctx, conn, websocket.StatusInternalError, types.InternalErrorMessage)
			return
		}
		defer cancel()

		sink := assembler.SinkFunc(func(chunk types.StreamChunk) error {
			return wsjson.Write(ctx, conn, chunk)
		})
		if _, err := ctrl.Relay(ctx, stream, sink); err != nil {
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func closeWithError(ctx context.Context, conn *websocket.Conn, code websocket.StatusCode, message string) {
	wsjson.Write(ctx, conn, types.ErrorResponse{Error: message})
	conn.Close(code, message)
}
