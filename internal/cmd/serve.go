package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Vibebros/sgkb-clanky/internal/config"
	"github.com/Vibebros/sgkb-clanky/internal/logo"
	"github.com/Vibebros/sgkb-clanky/internal/server"
	"github.com/Vibebros/sgkb-clanky/internal/store"
	"github.com/Vibebros/sgkb-clanky/internal/trigger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Clanky HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

type logoJob struct {
	enricher *logo.Enricher
}

func (j *logoJob) Name() string { return "logo_enrichment" }

func (j *logoJob) Run(ctx context.Context) error {
	_, err := j.enricher.RunOnce(ctx)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewStore(cfg.TransactionsDBPath())
	if err != nil {
		return fmt.Errorf("opening transaction store: %w", err)
	}
	defer st.Close()

	engine, err := buildEngine(cfg, st)
	if err != nil {
		return err
	}

	scheduler := trigger.NewScheduler()
	if cfg.LogoAPIKey != "" && cfg.LogoCron != "" {
		enricher := logo.NewEnricher(logo.NewClient(cfg.LogoAPIKey, ""), st, 50)
		if err := scheduler.Register(cfg.LogoCron, &logoJob{enricher: enricher}); err != nil {
			return fmt.Errorf("registering logo job: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.NewServer(engine, st,
		server.WithRateLimiter(server.NewRateLimiter(cfg.GlobalLimitRPM, cfg.RateLimitRPM)),
		server.WithCORSOrigins([]string{"*"}),
	)

	addr := fmt.Sprintf(":%d", servePort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("provider", cfg.LLMProvider).
		Str("model", cfg.LLMModel).
		Int("cron_entries", scheduler.Entries()).
		Msg("clanky_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}
