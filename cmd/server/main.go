package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/mhacks/dredd-judging/internal/config"
	"github.com/mhacks/dredd-judging/internal/handler"
	"github.com/mhacks/dredd-judging/internal/logger"
	"github.com/mhacks/dredd-judging/internal/middleware"
	"github.com/mhacks/dredd-judging/internal/repository/sqlite"
	"github.com/mhacks/dredd-judging/internal/session"
)

// cli holds the process's command-line flags. Every flag has an
// environment-variable fallback so config.Load's precedence (env over
// file over defaults) still applies when a flag is left unset.
var cli struct {
	Port   int    `help:"TCP port to listen on." env:"PORT"`
	DB     string `help:"Path to the SQLite database file." env:"DB_PATH"`
	Config string `help:"Optional YAML config file." type:"existingfile" env:"CONFIG_FILE"`
	CSV    string `help:"If set, auto-starts judging at boot with this CSV file." type:"existingfile" env:"BOOT_CSV"`
}

func main() {
	logger.Init()
	kong.Parse(&cli, kong.Description("Pairwise ranking judging engine."))

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cli.Port != 0 {
		cfg.Port = cli.Port
	}
	if cli.DB != "" {
		cfg.DBPath = cli.DB
	}
	log.Info().Interface("config", cfg).Msg("Config loaded")

	db, err := sqlite.Connect(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	entityRepo := sqlite.NewEntityRepo(db)
	assignmentRepo := sqlite.NewAssignmentRepo(db)
	logRepo := sqlite.NewLogRepo(db)
	snapshotRepo := sqlite.NewSnapshotRepo(db)

	ctrl := session.New(entityRepo, assignmentRepo, logRepo, snapshotRepo, cfg.SnapshotInterval, cfg.MaxSnapshots, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Recover(ctx); err != nil {
		log.Fatal().Err(err).Msg("Boot-time recovery failed")
	}

	if cli.CSV != "" && ctrl.Status() != session.StatusActive {
		if err := startFromFile(ctx, ctrl, cli.CSV); err != nil {
			log.Fatal().Err(err).Msg("Failed to auto-start from --csv")
		}
	}

	h := handler.New(ctrl, log.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /start", h.Start)
	mux.HandleFunc("POST /stop", h.Stop)
	mux.HandleFunc("POST /resume", h.Resume)
	mux.HandleFunc("GET /pair", h.Pair)
	mux.HandleFunc("POST /submit", h.Submit)
	mux.HandleFunc("GET /rankings", h.Rankings)

	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.CorsOrigin), middleware.JSON)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

func startFromFile(ctx context.Context, ctrl *session.Controller, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ctrl.Start(ctx, f)
}
