package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"intel-system/internal/ai"
	"intel-system/internal/cache"
	"intel-system/internal/config"
	"intel-system/internal/enrich"
	"intel-system/internal/extract"
	httphandler "intel-system/internal/http"
	"intel-system/internal/notify"
	"intel-system/internal/policy"
	"intel-system/internal/store"
)

func main() {
	var (
		port      = flag.String("port", "", "Port to run the server on (overrides PORT)")
		runWorker = flag.Bool("enrich", false, "Also run the periodic enrichment worker in-process")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	st := store.NewPostgresStore(pool)

	// The cache only fronts dashboard reads; a missing Redis is a warning,
	// not a startup failure.
	var redisCache *cache.RedisCache
	if c, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, serving uncached")
	} else {
		redisCache = c
		defer redisCache.Close()
	}

	table := policy.Default()
	if cfg.Policy.File != "" {
		table, err = policy.Load(cfg.Policy.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Policy.File).Msg("Failed to load risk policy")
		}
	}

	aiClient := ai.NewClient(buildProviders(cfg.Providers), ai.Options{
		Timeout:  cfg.Providers.Timeout,
		Cooldown: cfg.Providers.Cooldown,
	})

	router := httphandler.NewRouter()
	router.RegisterIntelRoutes(httphandler.NewIntelHandler(st, redisCache, aiClient))
	router.RegisterHealthRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if *runWorker {
		var notifier notify.Notifier
		if tg := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID); tg.Configured() {
			notifier = tg
		}
		orchestrator := enrich.NewOrchestrator(st, extract.NewLexicon(), table, aiClient, notifier, enrich.Config{
			BatchSize:        int32(cfg.Enrich.BatchSize),
			MinContentLength: cfg.Enrich.MinContentLength,
		})

		g.Go(func() error {
			ticker := time.NewTicker(cfg.Enrich.Interval)
			defer ticker.Stop()
			for {
				if _, err := orchestrator.ProcessBatch(gctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("Enrichment batch failed")
				}
				select {
				case <-ticker.C:
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

func buildProviders(cfg config.ProvidersConfig) []ai.Provider {
	var providers []ai.Provider
	for _, name := range cfg.Order {
		switch name {
		case "anthropic":
			providers = append(providers, ai.NewAnthropicProvider(cfg.AnthropicKey, anthropic.Model(cfg.AnthropicModel)))
		case "openai":
			providers = append(providers, ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel))
		default:
			log.Warn().Str("provider", name).Msg("Unknown provider in priority order, skipped")
		}
	}
	return providers
}
