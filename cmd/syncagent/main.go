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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finbridge/ledgerbridge/internal/agentapi"
	"github.com/finbridge/ledgerbridge/internal/auth"
	"github.com/finbridge/ledgerbridge/internal/config"
	"github.com/finbridge/ledgerbridge/internal/dispatch"
	"github.com/finbridge/ledgerbridge/internal/engine"
	"github.com/finbridge/ledgerbridge/internal/kvstore"
	"github.com/finbridge/ledgerbridge/internal/netmon"
	"github.com/finbridge/ledgerbridge/internal/queue"
	"github.com/finbridge/ledgerbridge/internal/retry"
)

const version = "0.1.0"

var (
	configPath  = flag.String("config", "", "Path to configuration file (JSON)")
	showVersion = flag.Bool("version", false, "Show version information")
	apiBaseURL  = flag.String("api-base-url", "", "Remote mutation API base URL (overrides config)")
	storePath   = flag.String("store", "", "SQLite file for the durable mutation queue (overrides config)")
	listenAddr  = flag.String("listen", "", "Loopback address for the agent API (overrides config)")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("syncagent version %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("apiBaseUrl", cfg.APIBaseURL).
		Str("storePath", cfg.StorePath).
		Str("listenAddr", cfg.ListenAddr).
		Msg("starting sync agent")

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("sync agent failed")
		os.Exit(1)
	}

	log.Info().Msg("sync agent stopped gracefully")
}

// loadConfig loads the configuration from file and environment, then
// applies CLI flag overrides before validating.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	if *apiBaseURL != "" {
		cfg.APIBaseURL = *apiBaseURL
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *debug {
		cfg.Debug = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging configures zerolog per config.
func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "ledgerbridge-syncagent").Logger()

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	// Pretty logging for local dev terminals
	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

// bearerToken resolves the API token: OS keyring first, config fallback.
func bearerToken(cfg *config.Config) string {
	if cfg.KeyringAccount != "" {
		if tok, err := auth.GetAPIToken(cfg.KeyringAccount); err == nil && tok != "" {
			log.Debug().Str("account", cfg.KeyringAccount).Msg("api token loaded from keyring")
			return tok
		}
	}
	return cfg.APIToken
}

func run(cfg *config.Config) error {
	store, err := kvstore.OpenSQLite(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	monitor := netmon.NewProbeMonitor(cfg.EffectiveProbeURL(), cfg.ProbeInterval())
	monitor.Start()
	defer monitor.Stop()

	var tokens auth.TokenProvider
	if tok := bearerToken(cfg); tok != "" {
		tokens = auth.NewStaticTokenProvider(tok)
	} else {
		log.Warn().Msg("no api token configured, dispatching unauthenticated")
	}

	dispatcher := dispatch.NewHTTPDispatcher(cfg.APIBaseURL, tokens)
	q := queue.New(store)

	eng := engine.New(q, monitor, dispatcher,
		engine.WithPolicy(retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay(),
		}))

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	srv := &agentapi.Server{Engine: eng}
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting agent API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("agent API server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("agent API server shutdown error")
	}
	return nil
}
