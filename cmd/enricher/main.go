package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"intel-system/internal/ai"
	"intel-system/internal/config"
	"intel-system/internal/enrich"
	"intel-system/internal/extract"
	"intel-system/internal/notify"
	"intel-system/internal/policy"
	"intel-system/internal/store"
)

func main() {
	var (
		once    = flag.Bool("once", false, "Run a single batch and exit")
		resetID = flag.String("reset", "", "Reset the given article to unenriched and exit")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	st := store.NewPostgresStore(pool)

	table := policy.Default()
	if cfg.Policy.File != "" {
		table, err = policy.Load(cfg.Policy.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Policy.File).Msg("Failed to load risk policy")
		}
	}

	var providers []ai.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "anthropic":
			providers = append(providers, ai.NewAnthropicProvider(cfg.Providers.AnthropicKey, anthropic.Model(cfg.Providers.AnthropicModel)))
		case "openai":
			providers = append(providers, ai.NewOpenAIProvider(cfg.Providers.OpenAIKey, cfg.Providers.OpenAIModel))
		default:
			log.Warn().Str("provider", name).Msg("Unknown provider in priority order, skipped")
		}
	}
	aiClient := ai.NewClient(providers, ai.Options{
		Timeout:  cfg.Providers.Timeout,
		Cooldown: cfg.Providers.Cooldown,
	})

	var notifier notify.Notifier
	if tg := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID); tg.Configured() {
		notifier = tg
	} else {
		log.Info().Msg("Telegram not configured, critical alerts disabled")
	}

	orchestrator := enrich.NewOrchestrator(st, extract.NewLexicon(), table, aiClient, notifier, enrich.Config{
		BatchSize:        int32(cfg.Enrich.BatchSize),
		MinContentLength: cfg.Enrich.MinContentLength,
	})

	if *resetID != "" {
		if err := orchestrator.Reset(ctx, *resetID); err != nil {
			log.Fatal().Err(err).Str("article_id", *resetID).Msg("Reset failed")
		}
		log.Info().Str("article_id", *resetID).Msg("Article returned to the enrichment queue")
		return
	}

	if *once {
		stats, err := orchestrator.ProcessBatch(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Enrichment batch failed")
		}
		log.Info().Int("processed", stats.Processed).Int("errors", stats.Errors).Msg("Batch complete")
		if stats.Errors > 0 {
			os.Exit(1)
		}
		return
	}

	log.Info().Dur("interval", cfg.Enrich.Interval).Msg("Starting enrichment worker")
	ticker := time.NewTicker(cfg.Enrich.Interval)
	defer ticker.Stop()
	for {
		stats, err := orchestrator.ProcessBatch(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			log.Info().Msg("Enrichment worker stopped")
			return
		case err != nil:
			log.Error().Err(err).Msg("Enrichment batch failed")
		default:
			log.Info().Int("processed", stats.Processed).Int("errors", stats.Errors).Msg("Batch complete")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info().Msg("Enrichment worker stopped")
			return
		}
	}
}
