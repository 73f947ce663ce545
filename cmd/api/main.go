package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/handler"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/observability/metrics"
	"github.com/zhouzirui/persona-chat/backend/internal/service/ai"
	"github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the environment may already be populated.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		stop()
		os.Exit(1)
	}
}

// run builds the service graph and serves until ctx is done. Provider
// resources are released on every return path.
func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize provider %s: %w", cfg.Provider.Name, err)
	}
	defer func() {
		if err := closeProvider(); err != nil {
			logger.Warn("failed to close provider", "provider", provider.Name(), "error", err)
		}
	}()

	metricsHandler, chatMetrics := setupMetrics()

	personaStore := persona.NewMemoryStore(persona.Seed())
	sessions := chat.NewService()

	chatService, err := ai.NewService(provider, sessions, personaStore, ai.Options{
		Timeout: cfg.Provider.Timeout,
		Logger:  logger,
		Metrics: chatMetrics,
	})
	if err != nil {
		return fmt.Errorf("initialize chat service: %w", err)
	}
	logger.Info("chat service initialized", "provider", provider.Name(), "timeout", cfg.Provider.Timeout.String())

	router := handler.NewRouter(handler.Dependencies{
		Personas:       personaStore,
		Chat:           chatService,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsHandler: metricsHandler,
	})

	return startServer(ctx, cfg.Server, router, logger)
}

// newProvider builds the configured generative backend and its cleanup func.
func newProvider(ctx context.Context, cfg *config.Config) (ai.Provider, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider.Name {
	case config.ProviderArk:
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("create ark chat model: %w", err)
		}
		provider, err := ai.NewArkProvider(chatModel)
		if err != nil {
			return nil, noop, err
		}
		return provider, noop, nil
	case config.ProviderGemini:
		provider, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, noop, err
		}
		return provider, provider.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported provider %q", cfg.Provider.Name)
	}
}

func setupMetrics() (http.Handler, *metrics.ChatMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewChatMetrics(reg)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *logging.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("persona chat backend listening", "addr", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
