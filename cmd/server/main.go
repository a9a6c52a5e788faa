// Command server runs the judge backend HTTP API.
//
// Startup order:
//  1. Load .env (best effort) and the process configuration.
//  2. Configure zerolog and open the SQLite database.
//  3. Construct the token manager and the judging-service client.
//  4. Set up OpenTelemetry tracing (no-op when disabled).
//  5. Serve HTTP until SIGINT/SIGTERM, then drain connections.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/config"
	httpapi "github.com/openjudge/go-judge-backend/internal/http"
	"github.com/openjudge/go-judge-backend/internal/judge"
	"github.com/openjudge/go-judge-backend/internal/observability"
	"github.com/openjudge/go-judge-backend/internal/repo"
	"github.com/openjudge/go-judge-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	tokens, err := auth.NewTokenManager([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("configure token manager")
	}

	judger := judge.NewClient(cfg.Judger.URL, cfg.Judger.Timeout)
	if !judger.Enabled() {
		log.Warn().Msg("judger relay disabled: no JUDGER_URL configured")
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, tokens, judger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	// Block until asked to stop, then drain in-flight requests.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown tracing")
	}
}
