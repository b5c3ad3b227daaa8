package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinabrahms/clickchess/internal/config"
	"github.com/justinabrahms/clickchess/internal/session"
	"github.com/justinabrahms/clickchess/internal/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line flags
	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Setup logging
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.Development.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(cfg.Development.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("level", cfg.Development.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.Sessions.MaxGames, cfg.Sessions.IdleTimeout)
	store.StartCleanupRoutine(ctx, cfg.Sessions.CleanupInterval)

	hub := web.NewHub()
	go hub.Run(ctx)

	service := web.NewService(store, hub, cfg)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      service.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Bool("forbidFriendlyCapture", cfg.Rules.ForbidFriendlyCapture).
			Bool("forbidSelfCheck", cfg.Rules.ForbidSelfCheck).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func showHelpMessage() {
	fmt.Println(`clickchess

DESCRIPTION:
    Two-player chess played by clicking squares. The server owns every
    board, validates piece movement, and announces check and checkmate.

USAGE:
    clickchess [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

CONFIGURATION:
    Read from config.yaml in the current directory or ./config, and from
    CLICKCHESS_* environment variables (CLICKCHESS_SERVER_PORT=9000).

    Example config.yaml:
        server:
          host: localhost
          port: 8080
          static_dir: ./web/static

        rules:
          forbid_friendly_capture: true
          forbid_self_check: false

        sessions:
          max_games: 1000
          idle_timeout: 2h
          cleanup_interval: 10m

        development:
          debug: true
          log_level: debug

API ENDPOINTS:
    GET    /api/health               - Service health check
    POST   /api/games                - Create a game (optional {"fen": ...})
    GET    /api/games/{id}           - Current board snapshot
    DELETE /api/games/{id}           - Discard a game
    POST   /api/games/{id}/clicks    - Click a square {"row": 6, "col": 4}
    POST   /api/games/{id}/moves     - Move by name {"from": "e2", "to": "e4"}
    POST   /api/games/{id}/reset     - Back to the starting position
    GET    /ws?gameId={id}           - Live updates and clicks over a websocket

EXAMPLES:
    # Start with default configuration
    clickchess

    # Create a game and select the e2 pawn
    curl -X POST http://localhost:8080/api/games
    curl -X POST http://localhost:8080/api/games/<id>/clicks \
      -H "Content-Type: application/json" -d '{"row": 6, "col": 4}'`)
}
