// Command agentcore runs the event orchestration service: it ingests
// commerce events over HTTP, queues them through NATS JetStream and
// dispatches them to the installed agents.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/axiome/agentcore/internal/adapter/anthropic"
	"github.com/axiome/agentcore/internal/adapter/commerce"
	achttp "github.com/axiome/agentcore/internal/adapter/http"
	anats "github.com/axiome/agentcore/internal/adapter/nats"
	"github.com/axiome/agentcore/internal/adapter/openai"
	aotel "github.com/axiome/agentcore/internal/adapter/otel"
	"github.com/axiome/agentcore/internal/adapter/postgres"
	"github.com/axiome/agentcore/internal/adapter/ristretto"
	"github.com/axiome/agentcore/internal/agents"
	"github.com/axiome/agentcore/internal/config"
	"github.com/axiome/agentcore/internal/domain/model"
	"github.com/axiome/agentcore/internal/logger"
	portcommerce "github.com/axiome/agentcore/internal/port/commerce"
	"github.com/axiome/agentcore/internal/port/reasoning"
	"github.com/axiome/agentcore/internal/resilience"
	"github.com/axiome/agentcore/internal/secrets"
	"github.com/axiome/agentcore/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"default_model", cfg.Reasoning.DefaultModel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	shutdownTracing, err := aotel.Setup(ctx, cfg.Otel.Endpoint, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	queue, err := anats.Connect(ctx, cfg.NATS.URL, log)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	l1, err := ristretto.New(cfg.Idempotency.CacheEntries)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	// Secrets come from the environment through the vault; the YAML
	// config is the fallback for local setups.
	vault, err := secrets.NewVault(secrets.EnvLoader(
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "ENCRYPTION_KEY"))
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}

	encryptionKey := vault.GetOr("ENCRYPTION_KEY", cfg.Crypto.EncryptionKey)

	var cipher *secrets.Cipher
	if encryptionKey != "" {
		cipher, err = secrets.NewCipher(encryptionKey)
		if err != nil {
			return fmt.Errorf("cipher: %w", err)
		}
	} else {
		log.Warn("no encryption key configured, commerce credentials unavailable")
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	idem := service.NewIdempotency(l1, store, log, cfg.Idempotency.CacheTTL)
	gate := service.NewBillingGate(store, log)
	builder := service.NewContextBuilder(store, cipher, log, cfg.Limits.RecentEvents, cfg.Limits.RecentOrders)
	budget := service.NewBudgetGuard(store, log,
		cfg.Limits.AbsoluteDailyBudgetUSD,
		cfg.Limits.DefaultDailyBudgetUSD,
		cfg.Limits.DefaultMonthlyBudgetUSD)
	rate := service.NewRateLimiter(store, log)
	tracker := service.NewCostTracker(store, log)

	openaiKey := vault.GetOr("OPENAI_API_KEY", cfg.Reasoning.OpenAIKey)
	anthropicKey := vault.GetOr("ANTHROPIC_API_KEY", cfg.Reasoning.AnthropicKey)

	providers := map[model.Provider]reasoning.Provider{}
	if openaiKey != "" {
		providers[model.ProviderOpenAI] = openai.New(openaiKey, "")
	}
	if anthropicKey != "" {
		providers[model.ProviderAnthropic] = anthropic.New(anthropicKey, "")
	}
	if len(providers) == 0 {
		return errors.New("no reasoning provider configured, set OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}

	reasoningSvc := service.NewReasoningService(providers, budget, tracker, log,
		cfg.Reasoning.AttemptTimeout,
		cfg.Reasoning.MaxRetries,
		cfg.Reasoning.BackoffBase)

	commerceBreaker := resilience.NewBreaker("commerce", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	factory := portcommerce.ClientFactory(func(shopDomain, accessToken string) portcommerce.Client {
		c := commerce.NewClient(shopDomain, accessToken)
		c.SetBreaker(commerceBreaker)
		return c
	})

	registry := service.NewRegistry()
	registry.Register(agents.NewConversion(reasoningSvc, factory))
	registry.Register(agents.NewRetention(reasoningSvc, factory))
	registry.Register(agents.NewSupport(reasoningSvc, factory))

	orch := service.NewOrchestrator(registry, idem, gate, builder, budget, rate, store, tracker, log)

	consumer := service.NewConsumer(queue, orch, store, log)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	defer consumer.Stop()

	janitor := service.NewJanitor(idem, log,
		cfg.Limits.CleanupInterval,
		time.Duration(cfg.Limits.ProcessedRetentionDays)*24*time.Hour)

	// --- HTTP ---
	handlers := &achttp.Handlers{
		Store:     store,
		Publisher: service.NewPublisher(queue),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           achttp.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := janitor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("janitor: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := queue.Drain(); err != nil {
			log.Warn("queue drain", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}
