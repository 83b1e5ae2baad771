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

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/answer"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/assemble"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/blob"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/config"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/doctext"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/guard"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/llm"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/metadata"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/premium"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/router"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	missing := cfg.MissingCredentials()
	if len(missing) > 0 {
		log.Warn().Strs("missing", missing).
			Msg("credentials not set — chat requests will return CONFIGURATION_ERROR")
	}

	store := blob.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket)
	cache := metadata.NewCache(store, cfg.MetadataTTL, cfg.FallbackGuidePath)

	var provider llm.Provider
	if cfg.OpenAIBaseURL != "" {
		provider = llm.NewOpenAIProviderWithBaseURL(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.RouterModel, cfg.AnswerModel)
	} else {
		provider = llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.RouterModel, cfg.AnswerModel)
	}

	records, err := premium.LoadRecords(cfg.PremiumDatasetPath)
	if err != nil {
		// The service still answers from technical documents alone.
		log.Warn().Err(err).Str("path", cfg.PremiumDatasetPath).
			Msg("premium dataset unavailable, continuing without curated records")
		records = nil
	}

	quota := guard.NewQuotaStore(cfg.QuotaMaxRequests, cfg.QuotaWindow)
	defer quota.Close()
	g := guard.New(guard.Limits{
		MaxMessageChars:   cfg.MaxMessageChars,
		MaxHistoryItems:   cfg.MaxHistoryItems,
		HistoryCharBudget: cfg.HistoryCharBudget,
	}, quota, missing)

	srv := server.NewServer(
		g,
		cache,
		router.New(provider),
		assemble.New(store, doctext.NewExtractor(25), records, cfg.MaxDocChars),
		answer.New(provider),
		server.WithCORSOrigins([]string{"*"}),
		server.WithGlobalRPS(cfg.GlobalRPS),
	)

	addr := fmt.Sprintf(":%d", servePort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("bucket", cfg.StorageBucket).
		Str("router_model", cfg.RouterModel).
		Str("answer_model", cfg.AnswerModel).
		Int("premium_records", len(records)).
		Msg("chemist_serve_started")

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
