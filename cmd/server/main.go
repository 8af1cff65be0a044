package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/lessonloop/backend/internal/api"
	"github.com/lessonloop/backend/internal/assembler"
	"github.com/lessonloop/backend/internal/generator"
	"github.com/lessonloop/backend/internal/infrastructure/config"
	"github.com/lessonloop/backend/internal/service"
	"github.com/lessonloop/backend/internal/store"

	_ "github.com/lessonloop/backend/docs" // generated swagger docs
)

// @title           LessonLoop API
// @version         1.0
// @description     Gamified learning backend — generate lessons from free text, complete them, keep your streak alive.

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid reference timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	llm := generator.NewLLMProvider(cfg.LLMURL, cfg.LLMModel)
	asm := assembler.New(llm, cfg.LLMTimeout, logger)
	lessonSvc := service.NewLessonService(db, asm, logger)
	progressSvc := service.NewProgressService(db, loc, logger)
	handler := api.NewHandler(db, lessonSvc, progressSvc, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * cfg.LLMTimeout, // generation responses outlive the LLM deadline
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress, "timezone", cfg.Timezone)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
