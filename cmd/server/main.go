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

	"github.com/malina/auth-service/internal/api"
	"github.com/malina/auth-service/internal/api/handler"
	"github.com/malina/auth-service/internal/core/ports"
	"github.com/malina/auth-service/internal/core/service"
	"github.com/malina/auth-service/internal/infrastructure/config"
	"github.com/malina/auth-service/internal/infrastructure/db"
	redisstore "github.com/malina/auth-service/internal/infrastructure/db/redis"
	"github.com/malina/auth-service/internal/infrastructure/security"
	"github.com/malina/auth-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auth-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "auth-service",
	})

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("user store ready")

	checks := map[string]handler.Check{"store": st.ping}
	var repo ports.UserRepository = db.NewLoggingUserRepository(st.repo, logger.Component("user-repository"))

	if cfg.Redis.Enabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		repo = redisstore.NewCachedUserRepository(repo, rdb, cfg.Redis.CacheTTL, logger.Component("user-cache"))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis user cache enabled")
	}

	codec, err := security.NewJWTCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, security.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return err
	}

	users := service.NewUserService(repo, logger.Component("user-service"))
	auth, err := service.NewAuthService(users, security.NewBcryptHasher(cfg.Auth.BcryptCost), codec, logger.Component("auth-service"))
	if err != nil {
		return err
	}

	if cfg.Auth.AllowSelfPromotion {
		log.Warn().Msg("self-promotion route /example/get-admin is enabled")
	}

	e := api.NewRouter(api.Dependencies{
		Auth:               auth,
		Users:              users,
		Tokens:             codec,
		Checks:             checks,
		Logger:             logger.Component("http"),
		AllowSelfPromotion: cfg.Auth.AllowSelfPromotion,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
