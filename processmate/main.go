package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"processmate/processmate/config"
	"processmate/processmate/controllers"
	"processmate/processmate/middlewares"
	"processmate/processmate/prompts"
	"processmate/processmate/routes"
	"processmate/processmate/services/llm"
	"processmate/processmate/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if err := logging.InitLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console}); err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	promptSet, err := prompts.Load(cfg.Chat.PromptsFile)
	if err != nil {
		logging.ErrorLogger.Error("prompt loading error", zap.Error(err))
		os.Exit(1)
	}

	gptClient := llm.NewGPTClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	chatCtrl := controllers.NewChatController(gptClient, promptSet, cfg.Chat)
	healthCtrl := controllers.NewHealthController(cfg.Chat.Mode)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(cfg, chatCtrl, healthCtrl),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("mode", string(cfg.Chat.Mode)),
			zap.String("model", cfg.Chat.DefaultModel),
			zap.Bool("auth", cfg.Auth.JWTSecret != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
		return
	}
	logging.AppLogger.Info("server shutdown complete")
}

// newRouter wires the middleware stack and mounts every route. No write
// timeout is set: chat responses stream for as long as the upstream does.
func newRouter(cfg config.Config, chatCtrl *controllers.ChatController, healthCtrl *controllers.HealthController) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.TraceID)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Mount("/api/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	return r
}
