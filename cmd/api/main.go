package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/institute-hub/backend/internal/auth"
	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/handlers"
	"github.com/emilythestrangee/institute-hub/backend/internal/notify"
	"github.com/emilythestrangee/institute-hub/backend/internal/server"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "event", "startup_failed", "module", "main", "error", err.Error())
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Error("database init failed", "event", "startup_failed", "module", "main", "error", err.Error())
		os.Exit(1)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	ledger := voting.NewLedger(database.NewVoteStore(db.GetDB()), logger)
	tutor := tutoring.NewService(database.NewTutoringStore(db.GetDB()), tutoring.Options{
		Location:      cfg.Location,
		SessionLength: cfg.SessionLength,
		Notifier:      notify.New(cfg, logger),
		Logger:        logger,
	})

	h := handlers.NewHandler(handlers.Deps{
		DB:       db.GetDB(),
		Tokens:   tokens,
		Ledger:   ledger,
		Tutoring: tutor,
		Logger:   logger,
	})
	srv := server.New(db, h, tokens, logger).HTTPServer(cfg.Port)

	done := make(chan struct{})
	go gracefulShutdown(srv, db, logger, done)

	logger.Info("server starting", "event", "server_started", "module", "main", "addr", srv.Addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server error", "event", "server_failed", "module", "main", "error", err.Error())
		os.Exit(1)
	}

	<-done
	logger.Info("graceful shutdown complete", "event", "server_stopped", "module", "main")
}

// gracefulShutdown waits for SIGINT or SIGTERM, drains in-flight requests
// and closes the database pool.
func gracefulShutdown(srv *http.Server, db database.Service, logger *slog.Logger, done chan<- struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force", "event", "shutdown_started", "module", "main")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "event", "shutdown_forced", "module", "main", "error", err.Error())
	}
	if err := db.Close(); err != nil {
		logger.Error("database close failed", "event", "shutdown_db_failed", "module", "main", "error", err.Error())
	}
	close(done)
}
