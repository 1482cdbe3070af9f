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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contactbook/contactbook/internal/api"
	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/cache"
	"github.com/contactbook/contactbook/internal/config"
	"github.com/contactbook/contactbook/internal/contacts"
	"github.com/contactbook/contactbook/internal/health"
	"github.com/contactbook/contactbook/internal/logger"
	"github.com/contactbook/contactbook/internal/metrics"
)

const version = "1.0.0"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, log)
	case "migrate":
		err = migrate(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown command %q (want serve or migrate)", cmd)
	}
	if err != nil {
		log.Error(ctx, "exiting", err)
		log.Sync()
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.migrate(ctx); err != nil {
		return err
	}
	log.Info(ctx, "migrations applied", zap.String("driver", cfg.StoreDriver))
	return nil
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.JWTSecretGenerated {
		log.Warn(ctx, "JWT_SECRET not set, using a random per-process secret; tokens will not survive a restart")
	}

	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.migrate(ctx); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	checks := []health.Check{{Name: "store", Probe: s.ping}}

	var listCache contacts.ListCache
	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.RedisAddr, log)
		if err != nil {
			// The list cache is an optimization; serve without it.
			log.Warn(ctx, "redis unavailable, contact list cache disabled", zap.Error(err))
		} else {
			defer c.Close()
			listCache = contacts.NewRedisListCache(c, cfg.ContactCacheTTL)
			checks = append(checks, health.Check{Name: "redis", Probe: c.Ping, Optional: true})
		}
	}

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authService := auth.NewService(auth.ServiceConfig{
		Users:      s.users,
		Tokens:     tokens,
		BcryptCost: cfg.BcryptCost,
		Metrics:    m,
		Logger:     log,
	})
	contactService := contacts.NewService(contacts.ServiceConfig{
		Store:   s.contacts,
		Cache:   listCache,
		Policy:  contacts.DisclosurePolicy(cfg.DisclosurePolicy),
		Metrics: m,
		Logger:  log,
	})

	router := api.NewRouter(api.Config{
		Prefix:          cfg.APIPrefix,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthHandlers:    auth.NewHandlers(authService),
		ContactHandlers: contacts.NewHandlers(contactService),
		Gate:            auth.Gate(tokens, s.users, m, log),
		Health: health.NewHandler(health.NewChecker(&health.CheckerConfig{
			Checks:  checks,
			Version: version,
		})),
		Metrics: m,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(ctx, "server starting",
			zap.String("addr", cfg.ServerAddr),
			zap.String("prefix", cfg.APIPrefix),
			zap.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
